// Package pipeline runs one episode end to end: acquisition, partitioning,
// the endpoint session with segment transcription, and staging cleanup.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"podcast-digest-go/internal/logger"
	"podcast-digest-go/internal/staging"
	"podcast-digest-go/internal/summarizer"
	"podcast-digest-go/internal/transcription"
	"podcast-digest-go/internal/types"
)

type Acquirer interface {
	Fetch(ctx context.Context, url string, area *staging.Area) (types.Episode, error)
}

type Splitter interface {
	Split(ctx context.Context, ep types.Episode, area *staging.Area) ([]types.Segment, error)
}

// Session is the endpoint lifecycle around one batch of segments.
type Session interface {
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, segs []types.Segment) []types.TranscriptionResult
}

type Deps struct {
	Acquirer   Acquirer
	Splitter   Splitter
	Endpoint   Session
	Dispatcher Dispatcher
	Summarizer summarizer.Summarizer
}

// Result is what a transcribe run hands back to the caller.
type Result struct {
	RunID      string                      `json:"run_id"`
	Transcript string                      `json:"transcript"`
	Date       string                      `json:"date"`
	Title      string                      `json:"title"`
	Segments   []types.Segment             `json:"segments,omitempty"`
	Results    []types.TranscriptionResult `json:"-"`

	// TranscriptionErr is set when the endpoint session failed and the
	// transcript was left empty. It does not fail the run.
	TranscriptionErr error `json:"-"`
}

type Pipeline struct {
	deps        Deps
	stagingRoot string
	log         *logger.Logger

	// session serializes endpoint sessions; there is a single endpoint.
	session sync.Mutex
}

func New(deps Deps, stagingRoot string, log *logger.Logger) *Pipeline {
	return &Pipeline{deps: deps, stagingRoot: stagingRoot, log: log.Component("pipeline")}
}

// Transcribe downloads url, splits it and transcribes the segments.
//
// Only acquisition and partitioning errors are returned. If the endpoint
// cannot be brought up (rejected resume, timeout, cancellation) the result
// carries an empty transcript with the episode metadata and TranscriptionErr
// set. The staging area is removed whatever happens.
func (p *Pipeline) Transcribe(ctx context.Context, url string) (Result, error) {
	area, err := staging.New(p.stagingRoot, p.log)
	if err != nil {
		return Result{}, err
	}
	defer area.Close(context.WithoutCancel(ctx))

	log := p.log.With("run_id", area.RunID()).With("url", url)
	res := Result{RunID: area.RunID()}

	log.Info("fetching episode")
	ep, err := p.deps.Acquirer.Fetch(ctx, url, area)
	if err != nil {
		log.WithError(err).Error("acquisition failed")
		return res, fmt.Errorf("acquire %s: %w", url, err)
	}
	res.Title = ep.Title
	res.Date = ep.PublishDate

	segs, err := p.deps.Splitter.Split(ctx, ep, area)
	if err != nil {
		log.WithError(err).Error("partitioning failed")
		return res, fmt.Errorf("partition: %w", err)
	}
	res.Segments = segs

	results, err := p.transcribeSegments(ctx, segs)
	if err != nil {
		log.WithError(err).Warn("transcription stage failed, returning empty transcript")
		res.TranscriptionErr = err
		return res, nil
	}
	res.Results = results
	res.Transcript = transcription.Join(results)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	log.WithField("segments", len(segs)).WithField("failed", failed).WithField("chars", len(res.Transcript)).Info("transcription finished")
	return res, nil
}

func (p *Pipeline) transcribeSegments(ctx context.Context, segs []types.Segment) ([]types.TranscriptionResult, error) {
	p.session.Lock()
	defer p.session.Unlock()

	if err := p.deps.Endpoint.Activate(ctx); err != nil {
		// a cancelled wait may have left the endpoint starting
		p.deps.Endpoint.Deactivate(context.WithoutCancel(ctx))
		return nil, err
	}
	defer p.deps.Endpoint.Deactivate(context.WithoutCancel(ctx))

	return p.deps.Dispatcher.Dispatch(ctx, segs), nil
}

var ErrNoSummarizer = errors.New("no summarizer configured")

// Summarize asks the LLM for the Markdown summary of a transcript.
func (p *Pipeline) Summarize(ctx context.Context, transcript, date, title string) (string, error) {
	if p.deps.Summarizer == nil {
		return "", ErrNoSummarizer
	}
	return p.deps.Summarizer.Summarize(ctx, summarizer.Request{Transcript: transcript, Date: date, Title: title})
}
