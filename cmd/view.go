package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/prospector/internal/artifact"
)

var viewCmd = &cobra.Command{
	Use:   "view <kind>",
	Short: "Print a staged artifact",
	Long:  "Print the raw content of a staged artifact. Kinds: " + kindList() + ".",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := artifact.ParseKind(args[0])
		if err != nil {
			return err
		}
		content, err := artifact.NewViewer(artifact.NewStore(cfg.Data.Root)).View(kind)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	},
}

func kindList() string {
	kinds := artifact.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
