package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"podcast-digest-go/internal/config"
	"podcast-digest-go/internal/logger"
)

type rootOptions struct {
	configPath string
	logLevel   string
	roster     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "podsum",
		Short:         "Transcribe and summarize fantasy football podcast episodes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")
	root.PersistentFlags().StringVar(&opts.roster, "roster", "", "xlsx roster used to tag mentioned players")

	root.AddCommand(
		newServeCmd(opts),
		newTranscribeCmd(opts),
		newSummarizeCmd(opts),
		newRunCmd(opts),
		newWatchCmd(opts),
		newPlayersCmd(opts),
	)
	return root
}

// loadConfig reads the config and builds the root logger.
func loadConfig(opts *rootOptions) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	log := logger.New(cfg.Logging.Level, cfg.Environment)
	log.WithField("service", "podcast-digest-go").Debug("config loaded")
	return cfg, log, nil
}
