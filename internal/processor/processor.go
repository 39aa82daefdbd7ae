// Package processor runs transcribe and summarize for one episode and
// reports timing and the players the episode talks about.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podcast-digest-go/internal/logger"
	"podcast-digest-go/internal/pipeline"
	"podcast-digest-go/internal/players"
)

var ErrNoTranscript = errors.New("transcription produced no text")

// Runner is the part of the pipeline the processor drives.
type Runner interface {
	Transcribe(ctx context.Context, url string) (pipeline.Result, error)
	Summarize(ctx context.Context, transcript, date, title string) (string, error)
}

// Result is returned by Process and by the run command.
type Result struct {
	SourceURL  string           `json:"source_url"`
	RunID      string           `json:"run_id,omitempty"`
	Transcript string           `json:"transcript"`
	Date       string           `json:"date"`
	Title      string           `json:"title"`
	Summary    string           `json:"summary"`
	Mentioned  []players.Player `json:"mentioned_players,omitempty"`
	DurationMs int64            `json:"duration_ms"`
	Error      string           `json:"error,omitempty"`
}

type Processor struct {
	runner Runner
	roster []players.Player
	log    *logger.Logger
}

// New returns a processor. roster may be nil.
func New(runner Runner, roster []players.Player, log *logger.Logger) *Processor {
	return &Processor{runner: runner, roster: roster, log: log.Component("processor")}
}

// Process transcribes and summarizes url. The returned Result is filled as
// far as the run got, with Error set when err is non-nil.
func (p *Processor) Process(ctx context.Context, url string) (Result, error) {
	start := time.Now()
	res := Result{SourceURL: url}
	fail := func(stage string, err error) (Result, error) {
		res.Error = fmt.Sprintf("%s error: %v", stage, err)
		res.DurationMs = time.Since(start).Milliseconds()
		return res, err
	}

	tr, err := p.runner.Transcribe(ctx, url)
	res.RunID = tr.RunID
	if err != nil {
		return fail("transcription", err)
	}
	res.Transcript, res.Date, res.Title = tr.Transcript, tr.Date, tr.Title
	if tr.Transcript == "" {
		if tr.TranscriptionErr != nil {
			return fail("transcription", fmt.Errorf("%w: %v", ErrNoTranscript, tr.TranscriptionErr))
		}
		return fail("transcription", ErrNoTranscript)
	}

	res.Mentioned = players.Mentioned(tr.Transcript, p.roster)

	summary, err := p.runner.Summarize(ctx, tr.Transcript, tr.Date, tr.Title)
	if err != nil {
		return fail("summarize", err)
	}
	res.Summary = summary
	res.DurationMs = time.Since(start).Milliseconds()

	p.log.WithField("url", url).WithField("duration_ms", res.DurationMs).
		WithField("mentioned", len(res.Mentioned)).Info("episode processed")
	return res, nil
}
