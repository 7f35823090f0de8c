package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/ingest"
)

var (
	storeFile    string
	storeRootURL string
	listLimit    int
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Persist and list staged events and prioritized customers",
}

var storeEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Store the potential events list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		artifacts := artifact.NewStore(cfg.Data.Root)
		path := storeFile
		if path == "" {
			path = artifacts.Path(artifact.PotentialEvents)
		}
		res, err := ingest.NewLoader(artifacts, st).LoadEvents(ctx, path, storeRootURL)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var storeCustomersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Store the prioritized customer list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		artifacts := artifact.NewStore(cfg.Data.Root)
		path := storeFile
		if path == "" {
			path = artifacts.Path(artifact.PrioritizedCompanies)
		}
		res, err := ingest.NewLoader(artifacts, st).LoadCustomers(ctx, path)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var storeListCmd = &cobra.Command{
	Use:       "list [events|customers]",
	Short:     "List stored records, newest first",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"events", "customers"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if args[0] == "events" {
			events, err := st.ListEvents(ctx, storeRootURL, listLimit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), events)
		}
		customers, err := st.ListCustomers(ctx, listLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), customers)
	},
}

func init() {
	storeEventsCmd.Flags().StringVar(&storeFile, "file", "", "events list path (default: staged events)")
	storeEventsCmd.Flags().StringVar(&storeRootURL, "root-url", "", "website the events were found for (required)")
	_ = storeEventsCmd.MarkFlagRequired("root-url")

	storeCustomersCmd.Flags().StringVar(&storeFile, "file", "", "prioritized list path (default: staged prioritized list)")

	storeListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum rows (default 100)")
	storeListCmd.Flags().StringVar(&storeRootURL, "root-url", "", "only events found for this website")

	storeCmd.AddCommand(storeEventsCmd, storeCustomersCmd, storeListCmd)
	rootCmd.AddCommand(storeCmd)
}
