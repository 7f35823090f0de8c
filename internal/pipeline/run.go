package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/model"
)

type runStep struct {
	name string
	fn   func(ctx context.Context) (outputFile, message string, err error)
}

// Run executes crawl, profile, event discovery, event storage, company
// extraction, prioritization and customer storage for targetURL, one after
// another. It stops at the first failure; the stages after it are reported as
// skipped and the failure is returned with the report.
func (p *Pipeline) Run(ctx context.Context, targetURL string) (*model.RunReport, error) {
	report := &model.RunReport{
		RunID:     uuid.NewString(),
		TargetURL: targetURL,
		StartedAt: time.Now().UTC(),
	}
	log := zap.L().With(zap.String("run_id", report.RunID), zap.String("url", targetURL))
	log.Info("pipeline: run started", zap.Bool("debug", p.debug))

	var eventsFile, customersFile string
	steps := []runStep{
		{StageCrawl, func(ctx context.Context) (string, string, error) {
			res, err := p.Crawl(ctx, targetURL)
			if err != nil {
				return "", "", err
			}
			return res.FilePath, res.Message, nil
		}},
		{StageProfile, func(ctx context.Context) (string, string, error) {
			res, err := p.Profile(ctx, "")
			if err != nil {
				return "", "", err
			}
			return res.OutputFile, res.Message, nil
		}},
		{StageEvents, func(ctx context.Context) (string, string, error) {
			res, err := p.FindEvents(ctx, "")
			if err != nil {
				return "", "", err
			}
			eventsFile = res.OutputFile
			return res.OutputFile, res.Message, nil
		}},
		{StageStoreEvents, func(ctx context.Context) (string, string, error) {
			res, err := p.loader.LoadEvents(ctx, eventsFile, targetURL)
			if err != nil {
				return "", "", err
			}
			return "", res.Message, nil
		}},
		{StageCompanies, func(ctx context.Context) (string, string, error) {
			res, err := p.ExtractCompanies(ctx, "")
			if err != nil {
				return "", "", err
			}
			return res.OutputFile, res.Message, nil
		}},
		{StagePrioritize, func(ctx context.Context) (string, string, error) {
			res, err := p.Prioritize(ctx, "", "")
			if err != nil {
				return "", "", err
			}
			customersFile = res.OutputFile
			return res.OutputFile, res.Message, nil
		}},
		{StageStoreCustomer, func(ctx context.Context) (string, string, error) {
			res, err := p.loader.LoadCustomers(ctx, customersFile)
			if err != nil {
				return "", "", err
			}
			return "", res.Message, nil
		}},
	}

	var runErr error
	for _, step := range steps {
		if runErr != nil {
			report.Stages = append(report.Stages, model.StageReport{Name: step.name, Status: model.StageStatusSkipped})
			continue
		}
		if p.loader == nil && (step.name == StageStoreEvents || step.name == StageStoreCustomer) {
			report.Stages = append(report.Stages, model.StageReport{
				Name:    step.name,
				Status:  model.StageStatusSkipped,
				Message: "no store configured",
			})
			continue
		}

		start := time.Now()
		out, msg, err := step.fn(ctx)
		sr := model.StageReport{
			Name:       step.name,
			OutputFile: out,
			Message:    msg,
			Duration:   time.Since(start).Milliseconds(),
		}
		if err != nil {
			sr.Status = model.StageStatusFailed
			sr.Error = err.Error()
			runErr = eris.Wrapf(err, "pipeline: run stage %s", step.name)
			log.Error("pipeline: stage failed",
				zap.String("stage", step.name),
				zap.Int64("duration_ms", sr.Duration),
				zap.Error(err),
			)
		} else {
			sr.Status = model.StageStatusComplete
		}
		report.Stages = append(report.Stages, sr)
	}

	report.Duration = time.Since(report.StartedAt).Milliseconds()
	log.Info("pipeline: run finished",
		zap.Bool("failed", report.Failed()),
		zap.Int64("duration_ms", report.Duration),
	)
	return report, runErr
}
