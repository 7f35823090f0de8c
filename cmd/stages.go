package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/model"
)

var (
	crawlURL          string
	profileFile       string
	eventsFile        string
	companiesFile     string
	prioritizeCands   string
	prioritizeProfile string
	outreachRecord    string
	outreachRank      int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a website into the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Crawl(cmd.Context(), crawlURL)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Build the company profile from the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Profile(cmd.Context(), profileFile)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Find associations, exhibitions and news sources for the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.FindEvents(cmd.Context(), eventsFile)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "Extract candidate companies from the event pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.ExtractCompanies(cmd.Context(), companiesFile)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize",
	Short: "Rank candidate companies against the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Prioritize(cmd.Context(), prioritizeCands, prioritizeProfile)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Draft an outreach email for one prioritized customer",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		record, err := loadRecord(env.Artifacts, outreachRecord, outreachRank)
		if err != nil {
			return err
		}
		res, err := env.Pipeline.Outreach(cmd.Context(), record)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

// loadRecord reads one customer record. With a record path the file holds a
// single object; otherwise rank selects the 1-based entry of the prioritized
// artifact.
func loadRecord(artifacts *artifact.Store, recordPath string, rank int) (model.PrioritizedCustomer, error) {
	var rec model.PrioritizedCustomer
	if recordPath != "" {
		content, err := artifacts.Read(recordPath)
		if err != nil {
			return rec, err
		}
		if err := json.Unmarshal([]byte(content), &rec); err != nil {
			return rec, fault.Wrap(fault.InvalidInput, err, "record %q is not a customer object", recordPath)
		}
		return rec, nil
	}

	if rank < 1 {
		return rec, eris.New("either --record or --rank >= 1 is required")
	}
	path := artifacts.Path(artifact.PrioritizedCompanies)
	content, err := artifacts.Read(path)
	if err != nil {
		return rec, err
	}
	var list []model.PrioritizedCustomer
	if err := json.Unmarshal([]byte(content), &list); err != nil {
		return rec, fault.Wrap(fault.InvalidInput, err, "JSON content of %q is not a customer list", path)
	}
	if rank > len(list) {
		return rec, fault.New(fault.InvalidInput, "rank %d out of range: %d prioritized customers", rank, len(list))
	}
	return list[rank-1], nil
}

func init() {
	crawlCmd.Flags().StringVar(&crawlURL, "url", "", "website to crawl (required)")
	_ = crawlCmd.MarkFlagRequired("url")

	profileCmd.Flags().StringVar(&profileFile, "file", "", "knowledge base path (default: staged knowledge base)")
	eventsCmd.Flags().StringVar(&eventsFile, "file", "", "company profile path (default: staged profile)")
	companiesCmd.Flags().StringVar(&companiesFile, "file", "", "potential events path (default: staged events)")
	prioritizeCmd.Flags().StringVar(&prioritizeCands, "candidates", "", "potential customer path (default: staged candidates)")
	prioritizeCmd.Flags().StringVar(&prioritizeProfile, "profile", "", "company profile path (default: staged profile)")
	outreachCmd.Flags().StringVar(&outreachRecord, "record", "", "JSON file holding one prioritized customer")
	outreachCmd.Flags().IntVar(&outreachRank, "rank", 0, "1-based rank in the prioritized list")

	rootCmd.AddCommand(crawlCmd, profileCmd, eventsCmd, companiesCmd, prioritizeCmd, outreachCmd)
}
