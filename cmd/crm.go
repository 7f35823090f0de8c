package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/crm"
)

var (
	crmTarget string
	crmFile   string
)

var crmCmd = &cobra.Command{
	Use:   "crm",
	Short: "Push prioritized customers to a CRM",
}

var crmPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Create one lead per prioritized customer",
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, err := newSink(crmTarget)
		if err != nil {
			return err
		}
		res, err := crm.Push(cmd.Context(), artifact.NewStore(cfg.Data.Root), sink, crmFile)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func newSink(target string) (crm.Sink, error) {
	switch target {
	case "notion":
		client, err := initNotion()
		if err != nil {
			return nil, err
		}
		return crm.NewNotionSink(client, cfg.Notion.LeadDB), nil
	case "salesforce":
		client, err := initSalesforce()
		if err != nil {
			return nil, err
		}
		return crm.NewSalesforceSink(client), nil
	default:
		return nil, eris.Errorf("unsupported crm target %q (want notion or salesforce)", target)
	}
}

func init() {
	crmPushCmd.Flags().StringVar(&crmTarget, "target", "notion", "notion or salesforce")
	crmPushCmd.Flags().StringVar(&crmFile, "file", "", "prioritized list path (default: staged prioritized list)")
	crmCmd.AddCommand(crmPushCmd)
	rootCmd.AddCommand(crmCmd)
}
