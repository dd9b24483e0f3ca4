package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evflex/app"
	"github.com/kilianp07/evflex/core/model"
	"github.com/kilianp07/evflex/pkg/export"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "Build activity chains without estimating flexibility",
	RunE:  runChains,
}

func init() {
	rootCmd.AddCommand(chainsCmd)
}

func runChains(cmd *cobra.Command, _ []string) error {
	p, err := app.New(cfg, nil, nil, nil)
	if err != nil {
		return err
	}
	trips, err := p.LoadTrips()
	if err != nil {
		return fmt.Errorf("load trips: %w", err)
	}
	rep, err := p.BuildChains(context.Background(), trips)
	if err != nil {
		return err
	}
	for _, f := range rep.Failures {
		if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", f.VehicleID, f.Err); err != nil {
			return err
		}
	}

	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	var rows []model.ActivityRow
	for _, c := range rep.Chains {
		rows = append(rows, c.Rows()...)
	}
	w := cmd.OutOrStdout()
	if cfg.Output.Path != "" && cfg.Output.Path != "-" {
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return export.WriteRows(w, format, rows)
}
