package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	coremetrics "github.com/kilianp07/evflex/core/metrics"
)

var sinksCmd = &cobra.Command{
	Use:   "sinks",
	Short: "List registered metrics sink types",
	// sinks needs no configuration
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, name := range coremetrics.SinkTypes() {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sinksCmd)
}
