package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runURL     string
	runNoStore bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run crawl through customer storage for one website",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, !runNoStore)
		if err != nil {
			return err
		}
		defer env.Close()

		report, runErr := env.Pipeline.Run(ctx, runURL)
		if report != nil {
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				zap.L().Warn("print run report", zap.Error(err))
			}
		}
		return runErr
	},
}

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "website to research (required)")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false, "skip the database stages")
	_ = runCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(runCmd)
}
