package crm

import (
	"context"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/notion"
)

// NotionSink creates one page per customer in a Notion lead database.
// Companies whose title already exists in the database are skipped.
type NotionSink struct {
	client notion.Client
	dbID   string
}

// NewNotionSink creates a NotionSink for the database dbID.
func NewNotionSink(client notion.Client, dbID string) *NotionSink {
	return &NotionSink{client: client, dbID: dbID}
}

func (s *NotionSink) Name() string { return "notion" }

func (s *NotionSink) Push(ctx context.Context, customers []model.PrioritizedCustomer) (*Result, error) {
	existing, err := notion.Titles(ctx, s.client, s.dbID)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, c := range customers {
		key := normalize(c.CompanyName)
		if _, dup := existing[key]; dup {
			res.Duplicates++
			continue
		}
		if _, err := s.client.CreatePage(ctx, notion.NewDatabasePage(s.dbID, leadProperties(c))); err != nil {
			zap.L().Warn("crm: notion page failed", zap.String("company", c.CompanyName), zap.Error(err))
			res.Failed++
			res.Errors = append(res.Errors, c.CompanyName+": "+err.Error())
			continue
		}
		existing[key] = struct{}{}
		res.Created++
	}
	return res, nil
}

func leadProperties(c model.PrioritizedCustomer) notionapi.Properties {
	props := notionapi.Properties{
		"Name":     notion.Title(c.CompanyName),
		"Industry": notion.Text(c.Industry),
		"Revenue":  notion.Text(c.Revenue),
		"Size":     notion.Text(c.Size),
	}
	optional := map[string]string{
		"Stakeholder": c.StakeholderName,
		"Position":    c.StakeholderPosition,
		"Email":       c.StakeholderEmail,
		"Phone":       c.StakeholderPhone,
		"Reasoning":   c.Reasoning,
	}
	for k, v := range optional {
		if v != "" {
			props[k] = notion.Text(v)
		}
	}
	if c.StakeholderLink != "" {
		props["Link"] = notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: c.StakeholderLink}
	}
	return props
}
