// Package transcription sends each audio segment to the speech-to-text
// endpoint and collects one text result per segment.
package transcription

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"podcast-digest-go/internal/logger"
	"podcast-digest-go/internal/types"
)

// Transcriber turns one base64 audio payload into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioB64 string) (string, error)
}

type Dispatcher struct {
	client  Transcriber
	workers int
	log     *logger.Logger
}

// NewDispatcher returns a dispatcher. workers <= 1 gives the sequential
// reference behavior; larger values run a bounded pool.
func NewDispatcher(client Transcriber, workers int, log *logger.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{client: client, workers: workers, log: log.Component("transcription")}
}

// Dispatch transcribes segs in index order.
//
// A failed request (non-200, transport or decode error) records "" for that
// segment and moves on. In sequential mode a failure to read or encode a
// segment file aborts the rest of the batch and records a single trailing
// "" for the failing segment, so the result can be shorter than segs. The
// pooled mode has no such abort: every segment gets its own slot.
func (d *Dispatcher) Dispatch(ctx context.Context, segs []types.Segment) []types.TranscriptionResult {
	if d.workers > 1 {
		return d.dispatchPooled(ctx, segs)
	}
	return d.dispatchSequential(ctx, segs)
}

func (d *Dispatcher) dispatchSequential(ctx context.Context, segs []types.Segment) []types.TranscriptionResult {
	results := make([]types.TranscriptionResult, 0, len(segs))
	for _, seg := range segs {
		log := d.log.WithFields(logrus.Fields{"segment": seg.Index + 1, "of": len(segs)})

		payload, err := encodeSegment(seg.Path)
		if err != nil {
			log.WithField("error", err.Error()).Error("exception while transcribing, aborting remaining segments")
			results = append(results, types.TranscriptionResult{SegmentIndex: seg.Index, Err: err})
			break
		}

		log.Info("transcribing segment")
		results = append(results, d.send(ctx, seg, payload))
	}
	return results
}

func (d *Dispatcher) dispatchPooled(ctx context.Context, segs []types.Segment) []types.TranscriptionResult {
	results := make([]types.TranscriptionResult, len(segs))
	sem := newSemaphore(d.workers)
	var wg sync.WaitGroup

	for i, seg := range segs {
		results[i] = types.TranscriptionResult{SegmentIndex: seg.Index}
		if err := sem.acquire(ctx); err != nil {
			results[i].Err = err
			continue
		}
		wg.Add(1)
		go func(i int, seg types.Segment) {
			defer wg.Done()
			defer sem.release()

			payload, err := encodeSegment(seg.Path)
			if err != nil {
				d.log.WithField("segment", seg.Index+1).WithField("error", err.Error()).Error("read segment failed")
				results[i].Err = err
				return
			}
			results[i] = d.send(ctx, seg, payload)
		}(i, seg)
	}

	wg.Wait()
	return results
}

func (d *Dispatcher) send(ctx context.Context, seg types.Segment, payload string) types.TranscriptionResult {
	text, err := d.client.Transcribe(ctx, payload)
	if err != nil {
		d.log.WithField("segment", seg.Index+1).WithField("error", err.Error()).Warn("segment transcription failed, recording empty text")
		return types.TranscriptionResult{SegmentIndex: seg.Index, Err: err}
	}
	return types.TranscriptionResult{SegmentIndex: seg.Index, Text: text}
}

func encodeSegment(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read segment: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Join concatenates result texts with newlines, in the order given. A failed
// segment contributes an empty line.
func Join(results []types.TranscriptionResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return strings.Join(texts, "\n")
}
