// Package acquisition resolves a video-hosting URL to a local mp3 and the
// episode's title and publish date.
package acquisition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"podcast-digest-go/internal/logger"
	"podcast-digest-go/internal/staging"
	"podcast-digest-go/internal/types"
	"podcast-digest-go/pkg/executor"
)

// PublishDateLayout is the only precision the source gives us: the day.
const PublishDateLayout = "2006-01-02 00:00:00"

var ErrNoAudio = errors.New("no audio file produced")

type Options struct {
	YtDlpPath    string
	AudioQuality string // e.g. "192K"
}

type Downloader struct {
	exec executor.Executor
	opts Options
	log  *logger.Logger
}

func New(exec executor.Executor, opts Options, log *logger.Logger) *Downloader {
	if opts.YtDlpPath == "" {
		opts.YtDlpPath = "yt-dlp"
	}
	if opts.AudioQuality == "" {
		opts.AudioQuality = "192K"
	}
	return &Downloader{exec: exec, opts: opts, log: log.Component("acquisition")}
}

// videoInfo is the subset of yt-dlp's info dict we read.
type videoInfo struct {
	Title      string  `json:"title"`
	UploadDate string  `json:"upload_date"` // YYYYMMDD
	Duration   float64 `json:"duration"`
}

// Fetch downloads url's audio into area. Any failure here is fatal for the
// run and is not retried.
func (d *Downloader) Fetch(ctx context.Context, url string, area *staging.Area) (types.Episode, error) {
	log := d.log.With("url", url)

	info, err := d.extractInfo(ctx, url)
	if err != nil {
		return types.Episode{}, err
	}

	date, err := NormalizeUploadDate(info.UploadDate)
	if err != nil {
		log.WithError(err).Warn("unparsable upload date, leaving empty")
		date = ""
	}

	log.WithField("title", info.Title).Info("downloading audio")
	args := []string{
		"--no-playlist",
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", d.opts.AudioQuality,
		"-o", area.AudioTemplate(),
		url,
	}
	if _, err := d.exec.Execute(ctx, d.opts.YtDlpPath, args...); err != nil {
		return types.Episode{}, fmt.Errorf("download audio: %w", err)
	}

	audioPath := area.AudioPath()
	if _, err := os.Stat(audioPath); err != nil {
		return types.Episode{}, fmt.Errorf("%w: %s", ErrNoAudio, audioPath)
	}

	return types.Episode{
		SourceURL:   url,
		Title:       info.Title,
		PublishDate: date,
		AudioPath:   audioPath,
		DurationMs:  int64(info.Duration * 1000),
	}, nil
}

func (d *Downloader) extractInfo(ctx context.Context, url string) (videoInfo, error) {
	out, err := d.exec.Execute(ctx, d.opts.YtDlpPath, "--dump-single-json", "--skip-download", "--no-playlist", url)
	if err != nil {
		return videoInfo{}, fmt.Errorf("extract info: %w", err)
	}
	var info videoInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return videoInfo{}, fmt.Errorf("decode info: %w", err)
	}
	return info, nil
}

// NormalizeUploadDate turns "20240115" into "2024-01-15 00:00:00". An empty
// input yields "" and no error.
func NormalizeUploadDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return "", fmt.Errorf("parse upload date %q: %w", raw, err)
	}
	return t.Format(PublishDateLayout), nil
}
