// Package partition splits one episode's audio into a fixed number of
// equal-duration, non-overlapping segments.
package partition

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"podcast-digest-go/internal/logger"
	"podcast-digest-go/internal/staging"
	"podcast-digest-go/internal/types"
	"podcast-digest-go/pkg/executor"
)

type Options struct {
	Count       int
	FFmpegPath  string
	FFprobePath string
	Bitrate     string // ffmpeg -b:a, e.g. "192k"
}

type Partitioner struct {
	exec executor.Executor
	opts Options
	log  *logger.Logger
}

func New(exec executor.Executor, opts Options, log *logger.Logger) *Partitioner {
	if opts.Count <= 0 {
		opts.Count = 4
	}
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}
	if opts.Bitrate == "" {
		opts.Bitrate = "192k"
	}
	return &Partitioner{exec: exec, opts: opts, log: log.Component("partition")}
}

// Plan computes n segment boundaries over [0, durationMs). Every part is
// ceil(durationMs/n) long except the tail, which is clamped to durationMs.
// Parts past the end come out zero-length.
func Plan(durationMs int64, n int) []types.Segment {
	if n <= 0 {
		return nil
	}
	if durationMs < 0 {
		durationMs = 0
	}
	part := (durationMs + int64(n) - 1) / int64(n)

	segs := make([]types.Segment, n)
	for i := 0; i < n; i++ {
		segs[i] = types.Segment{
			Index:   i,
			StartMs: min(int64(i)*part, durationMs),
			EndMs:   min(int64(i+1)*part, durationMs),
		}
	}
	return segs
}

// Split probes ep's duration, plans the segments and cuts one mp3 per
// segment into area. Zero-length segments get an empty file without
// invoking ffmpeg.
func (p *Partitioner) Split(ctx context.Context, ep types.Episode, area *staging.Area) ([]types.Segment, error) {
	durationMs, err := p.probeDurationMs(ctx, ep.AudioPath)
	if err != nil {
		return nil, err
	}

	segs := Plan(durationMs, p.opts.Count)
	for i := range segs {
		segs[i].Path = area.SegmentPath(i)
		if err := p.cut(ctx, ep.AudioPath, segs[i]); err != nil {
			return nil, fmt.Errorf("cut %s: %w", segs[i], err)
		}
	}

	p.log.WithField("duration_ms", durationMs).WithField("segments", len(segs)).Info("audio split")
	return segs, nil
}

func (p *Partitioner) cut(ctx context.Context, src string, seg types.Segment) error {
	if seg.DurationMs() <= 0 {
		return os.WriteFile(seg.Path, nil, 0o644)
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", src,
		"-ss", msToSeconds(seg.StartMs),
		"-t", msToSeconds(seg.DurationMs()),
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", p.opts.Bitrate,
		seg.Path,
	}
	_, err := p.exec.Execute(ctx, p.opts.FFmpegPath, args...)
	return err
}

// probeDurationMs asks ffprobe for the container duration.
func (p *Partitioner) probeDurationMs(ctx context.Context, path string) (int64, error) {
	out, err := p.exec.Execute(ctx, p.opts.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	s := strings.TrimSpace(out)
	if s == "" || s == "N/A" {
		return 0, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return int64(math.Round(secs * 1000)), nil
}

func msToSeconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', 3, 64)
}
