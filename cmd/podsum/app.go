package main

import (
	"context"
	"net/http"

	"podcast-digest-go/internal/acquisition"
	"podcast-digest-go/internal/config"
	"podcast-digest-go/internal/endpoint"
	"podcast-digest-go/internal/logger"
	"podcast-digest-go/internal/partition"
	"podcast-digest-go/internal/pipeline"
	"podcast-digest-go/internal/players"
	"podcast-digest-go/internal/processor"
	"podcast-digest-go/internal/summarizer"
	"podcast-digest-go/internal/transcription"
	"podcast-digest-go/internal/types"
	"podcast-digest-go/pkg/executor"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	pipeline  *pipeline.Pipeline
	processor *processor.Processor
	players   players.Source
}

type appOptions struct {
	// endpoint requires the speech-to-text endpoint settings.
	endpoint bool
	roster   string
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, opts appOptions) (*app, error) {
	if opts.endpoint {
		if err := cfg.ValidateEndpoint(); err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{Timeout: cfg.Pipeline.RequestTimeout}
	exec := executor.New()

	sum, err := summarizer.New(cfg.Summarizer, log)
	if err != nil {
		log.WithError(err).Warn("summarizer not configured, summarize will fail")
	}

	api := endpoint.NewClient(httpClient, cfg.Endpoint.APIBase, cfg.Endpoint.Namespace, cfg.Endpoint.Name, cfg.Endpoint.Token)
	mgr := endpoint.NewManager(api, types.EndpointHandle{
		Namespace: cfg.Endpoint.Namespace,
		Name:      cfg.Endpoint.Name,
		BaseURL:   cfg.Endpoint.InvocationURL,
		Token:     cfg.Endpoint.Token,
	}, endpoint.Options{PollInterval: cfg.Endpoint.PollInterval, MaxAttempts: cfg.Endpoint.MaxAttempts}, log)

	client := transcription.NewClient(httpClient, cfg.Endpoint.InvocationURL, cfg.Endpoint.Token)

	pipe := pipeline.New(pipeline.Deps{
		Acquirer: acquisition.New(exec, acquisition.Options{
			YtDlpPath:    cfg.Media.YtDlpPath,
			AudioQuality: cfg.Media.AudioQuality,
		}, log),
		Splitter: partition.New(exec, partition.Options{
			Count:       cfg.Pipeline.SegmentCount,
			FFmpegPath:  cfg.Media.FFmpegPath,
			FFprobePath: cfg.Media.FFprobePath,
		}, log),
		Endpoint:   mgr,
		Dispatcher: transcription.NewDispatcher(client, cfg.Pipeline.Workers, log),
		Summarizer: sum,
	}, cfg.Pipeline.StagingRoot, log)

	a := &app{cfg: cfg, log: log, pipeline: pipe}
	if cfg.Database.URL != "" {
		a.players = players.NewPGRepository(cfg.Database.URL)
	}

	a.processor = processor.New(pipe, a.loadRoster(ctx, opts.roster), log)
	return a, nil
}

// loadRoster prefers the workbook, then the database. Failures only cost
// the mentioned-player tags, so they are logged and nil is returned.
func (a *app) loadRoster(ctx context.Context, path string) []players.Player {
	if path != "" {
		roster, err := players.LoadWorkbook(path)
		if err != nil {
			a.log.WithError(err).WithField("roster", path).Warn("failed to load roster workbook")
			return nil
		}
		return roster
	}
	if a.players == nil {
		return nil
	}
	roster, err := a.players.List(ctx, 0)
	if err != nil {
		a.log.WithError(err).Warn("error fetching player data")
		return nil
	}
	return roster
}
