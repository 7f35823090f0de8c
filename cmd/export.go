package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/prospector/internal/export"
)

var (
	exportOut     string
	exportLimit   int
	exportEvents  bool
	exportRootURL string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored prioritized customers to a spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sum, err := export.Workbook(ctx, st, exportOut, export.Options{
			Limit:   exportLimit,
			Events:  exportEvents,
			RootURL: exportRootURL,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sum)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "prospects.xlsx", "output workbook path")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "maximum rows per sheet (default 100)")
	exportCmd.Flags().BoolVar(&exportEvents, "events", false, "add a sheet of stored events")
	exportCmd.Flags().StringVar(&exportRootURL, "root-url", "", "only events found for this website")
	rootCmd.AddCommand(exportCmd)
}
