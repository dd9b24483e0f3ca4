package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/evflex/app"
	"github.com/kilianp07/evflex/config"
	coremon "github.com/kilianp07/evflex/core/monitoring"
	"github.com/kilianp07/evflex/infra/logger"
	"github.com/kilianp07/evflex/infra/metrics"
	"github.com/kilianp07/evflex/infra/monitoring"
	"github.com/kilianp07/evflex/infra/telemetry"
)

var (
	cfgPath    string
	envFile    string
	inputPath  string
	outputPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "evflex",
	Short:             "EV activity chains and charging flexibility estimation",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the configuration")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "trip file, overrides pipeline.input")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "activity table path, overrides output.path (- for stdout)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func setup(cmd *cobra.Command, _ []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if inputPath != "" {
		cfg.Pipeline.Input = inputPath
	}
	if outputPath != "" {
		cfg.Output.Path = outputPath
	}
	if cfg.Pipeline.Input == "" {
		return errors.New("no input: set pipeline.input or --input")
	}
	return logger.SetLevel(cfg.Log.Level)
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.New("main")

	shutdown, err := telemetry.Init(ctx, cfg.Tracing, cmd.ErrOrStderr(), log)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer telemetry.ShutdownWithTimeout(context.Background(), shutdown, log)

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	defer coremon.Flush(2 * time.Second)
	defer coremon.Recover()

	if cfg.Metrics.PrometheusPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, cfg.Metrics.PrometheusPort); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}

	p, err := app.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Errorf("pipeline close: %v", err)
		}
	}()

	trips, err := p.LoadTrips()
	if err != nil {
		return fmt.Errorf("load trips: %w", err)
	}
	rep, err := p.Run(ctx, trips)
	if err != nil {
		return err
	}
	if err := p.WriteOutputs(rep, cmd.OutOrStdout()); err != nil {
		return err
	}
	log.Infof("run %s: %d vehicles, %d chains, %d failed, %d groups filtered, %d iterations (converged %t), dropped distance %.2f%% in %s",
		rep.RunID, rep.Vehicles, len(rep.Chains), len(rep.Failures), len(rep.Flex.Filtered),
		rep.Flex.Iterations, rep.Flex.Converged, rep.DropRatio*100, rep.Duration)
	return nil
}
