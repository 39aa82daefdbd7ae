// Package staging owns the ephemeral working directory of one pipeline run:
// the downloaded audio and the segments cut from it.
package staging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"podcast-digest-go/internal/logger"
)

// Area is a run-scoped directory under the staging root. Two runs never
// share an Area, so concurrent runs cannot delete each other's files.
type Area struct {
	runID string
	dir   string
	log   *logger.Logger

	// remove is os.Remove; swapped in tests to inject delete failures.
	remove func(string) error
}

// New creates <root>/<run-id>.
func New(root string, log *logger.Logger) (*Area, error) {
	runID := uuid.New().String()
	dir := filepath.Join(root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir %s: %w", dir, err)
	}
	return &Area{
		runID:  runID,
		dir:    dir,
		log:    log.Component("staging").With("run_id", runID),
		remove: os.Remove,
	}, nil
}

func (a *Area) RunID() string { return a.runID }
func (a *Area) Dir() string   { return a.dir }

// Path joins name onto the staging directory.
func (a *Area) Path(name string) string {
	return filepath.Join(a.dir, name)
}

// AudioTemplate is the yt-dlp output template for the downloaded episode.
func (a *Area) AudioTemplate() string {
	return a.Path("audio.%(ext)s")
}

// AudioPath is where the extracted mp3 lands.
func (a *Area) AudioPath() string {
	return a.Path("audio.mp3")
}

// SegmentPath is the file for the 0-based segment index.
func (a *Area) SegmentPath(index int) string {
	return a.Path(fmt.Sprintf("audio_part%d.mp3", index+1))
}

// Clear deletes every regular file in the area and returns how many were
// removed. A failed delete is logged and the sweep continues.
func (a *Area) Clear(ctx context.Context) int {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		a.log.WithError(err).Warn("list staging dir failed")
		return 0
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(a.dir, e.Name())
		if err := a.remove(path); err != nil {
			a.log.WithError(err).WithField("file", path).Warn("delete staging file failed")
			continue
		}
		removed++
	}
	a.log.WithField("removed", removed).Debug("staging cleared")
	return removed
}

// Close clears the area and removes the run directory itself.
func (a *Area) Close(ctx context.Context) {
	a.Clear(ctx)
	if err := os.Remove(a.dir); err != nil && !os.IsNotExist(err) {
		a.log.WithError(err).Warn("remove staging dir failed")
	}
}
