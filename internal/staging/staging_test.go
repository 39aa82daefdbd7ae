package staging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podcast-digest-go/internal/logger"
)

func newArea(t *testing.T) *Area {
	t.Helper()
	a, err := New(t.TempDir(), logger.Discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func writeFiles(t *testing.T, a *Area, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(a.Path(n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNewIsRunScoped(t *testing.T) {
	root := t.TempDir()
	a, err := New(root, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(root, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if a.Dir() == b.Dir() || a.RunID() == b.RunID() {
		t.Errorf("two areas share %s", a.Dir())
	}
	if filepath.Dir(a.Dir()) != root {
		t.Errorf("area %s not under root %s", a.Dir(), root)
	}
}

func TestPaths(t *testing.T) {
	a := newArea(t)
	if got := filepath.Base(a.SegmentPath(0)); got != "audio_part1.mp3" {
		t.Errorf("SegmentPath(0) = %s", got)
	}
	if got := filepath.Base(a.SegmentPath(3)); got != "audio_part4.mp3" {
		t.Errorf("SegmentPath(3) = %s", got)
	}
	if !strings.HasSuffix(a.AudioTemplate(), "audio.%(ext)s") {
		t.Errorf("AudioTemplate = %s", a.AudioTemplate())
	}
}

func TestClearRemovesAllFiles(t *testing.T) {
	a := newArea(t)
	writeFiles(t, a, "audio.mp3", "audio_part1.mp3", "audio_part2.mp3", "audio_part3.mp3", "audio_part4.mp3")

	if got := a.Clear(context.Background()); got != 5 {
		t.Errorf("Clear() removed %d, want 5", got)
	}
	entries, _ := os.ReadDir(a.Dir())
	if len(entries) != 0 {
		t.Errorf("%d files left behind", len(entries))
	}
}

func TestClearContinuesAfterFailedDelete(t *testing.T) {
	a := newArea(t)
	writeFiles(t, a, "a.mp3", "b.mp3", "c.mp3", "d.mp3", "e.mp3")

	var attempted []string
	a.remove = func(path string) error {
		attempted = append(attempted, filepath.Base(path))
		if filepath.Base(path) == "b.mp3" {
			return errors.New("permission denied")
		}
		return os.Remove(path)
	}

	if got := a.Clear(context.Background()); got != 4 {
		t.Errorf("Clear() removed %d, want 4", got)
	}
	if len(attempted) != 5 {
		t.Errorf("attempted %v, want all 5 files", attempted)
	}
	if _, err := os.Stat(a.Path("b.mp3")); err != nil {
		t.Errorf("b.mp3 should survive the failed delete: %v", err)
	}
}

func TestClearSkipsDirectories(t *testing.T) {
	a := newArea(t)
	writeFiles(t, a, "audio.mp3")
	if err := os.Mkdir(a.Path("nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := a.Clear(context.Background()); got != 1 {
		t.Errorf("Clear() removed %d, want 1", got)
	}
}

func TestCloseRemovesDir(t *testing.T) {
	a := newArea(t)
	writeFiles(t, a, "audio.mp3", "audio_part1.mp3")
	a.Close(context.Background())
	if _, err := os.Stat(a.Dir()); !os.IsNotExist(err) {
		t.Errorf("run dir still exists: %v", err)
	}
}
