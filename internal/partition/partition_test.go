package partition

import (
	"context"
	"errors"
	"os"
	"testing"

	"podcast-digest-go/internal/logger"
	"podcast-digest-go/internal/staging"
	"podcast-digest-go/internal/types"
	"podcast-digest-go/pkg/executor/executortest"
)

func TestPlanEvenSplit(t *testing.T) {
	got := Plan(400000, 4)
	want := [][2]int64{{0, 100000}, {100000, 200000}, {200000, 300000}, {300000, 400000}}
	for i, w := range want {
		if got[i].StartMs != w[0] || got[i].EndMs != w[1] || got[i].Index != i {
			t.Errorf("segment %d = %+v, want [%d,%d)", i, got[i], w[0], w[1])
		}
	}
}

func TestPlanCoversDuration(t *testing.T) {
	durations := []int64{0, 1, 2, 3, 4, 5, 7, 99, 1001, 400000, 400003, 3599999}
	for _, d := range durations {
		for _, n := range []int{1, 3, 4, 7} {
			segs := Plan(d, n)
			if len(segs) != n {
				t.Fatalf("Plan(%d,%d) len = %d", d, n, len(segs))
			}
			part := (d + int64(n) - 1) / int64(n)
			if segs[0].StartMs != 0 {
				t.Errorf("Plan(%d,%d) does not start at 0", d, n)
			}
			for i, s := range segs {
				if want := min(int64(i+1)*part, d); s.EndMs != want {
					t.Errorf("Plan(%d,%d)[%d].EndMs = %d, want %d", d, n, i, s.EndMs, want)
				}
				if s.StartMs > s.EndMs {
					t.Errorf("Plan(%d,%d)[%d] inverted: %+v", d, n, i, s)
				}
				if i > 0 && segs[i-1].EndMs != s.StartMs {
					t.Errorf("Plan(%d,%d) gap/overlap between %d and %d", d, n, i-1, i)
				}
			}
			if segs[n-1].EndMs != d {
				t.Errorf("Plan(%d,%d) does not cover to %d", d, n, d)
			}
		}
	}
}

func TestPlanUnevenTail(t *testing.T) {
	segs := Plan(10, 4) // part = 3
	want := [][2]int64{{0, 3}, {3, 6}, {6, 9}, {9, 10}}
	for i, w := range want {
		if segs[i].StartMs != w[0] || segs[i].EndMs != w[1] {
			t.Errorf("segment %d = [%d,%d), want [%d,%d)", i, segs[i].StartMs, segs[i].EndMs, w[0], w[1])
		}
	}
}

func TestPlanDeterministic(t *testing.T) {
	a, b := Plan(123457, 4), Plan(123457, 4)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Plan not deterministic at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func newArea(t *testing.T) *staging.Area {
	t.Helper()
	area, err := staging.New(t.TempDir(), logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	return area
}

// fakeMedia answers ffprobe with duration and writes ffmpeg's output file.
func fakeMedia(duration string) *executortest.Fake {
	return &executortest.Fake{Handler: func(name string, args []string) (string, error) {
		switch name {
		case "ffprobe":
			return duration + "\n", nil
		case "ffmpeg":
			return "", os.WriteFile(executortest.Last(args), []byte("mp3"), 0o644)
		}
		return "", errors.New("unexpected binary " + name)
	}}
}

func TestSplit(t *testing.T) {
	area := newArea(t)
	fake := fakeMedia("400.000000")
	p := New(fake, Options{Count: 4}, logger.Discard())

	segs, err := p.Split(context.Background(), types.Episode{AudioPath: area.AudioPath()}, area)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(segs) != 4 {
		t.Fatalf("len = %d", len(segs))
	}

	cuts := fake.CallsTo("ffmpeg")
	if len(cuts) != 4 {
		t.Fatalf("ffmpeg calls = %d, want 4", len(cuts))
	}
	wantSS := []string{"0.000", "100.000", "200.000", "300.000"}
	for i, c := range cuts {
		if got := executortest.Arg(c.Args, "-ss"); got != wantSS[i] {
			t.Errorf("cut %d -ss = %s, want %s", i, got, wantSS[i])
		}
		if got := executortest.Arg(c.Args, "-t"); got != "100.000" {
			t.Errorf("cut %d -t = %s", i, got)
		}
		if executortest.Last(c.Args) != area.SegmentPath(i) {
			t.Errorf("cut %d output = %s", i, executortest.Last(c.Args))
		}
		if _, err := os.Stat(segs[i].Path); err != nil {
			t.Errorf("segment file %d missing: %v", i, err)
		}
	}
}

func TestSplitZeroDurationEmitsEmptyFiles(t *testing.T) {
	area := newArea(t)
	fake := fakeMedia("0.000000")
	p := New(fake, Options{Count: 4}, logger.Discard())

	segs, err := p.Split(context.Background(), types.Episode{AudioPath: area.AudioPath()}, area)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(fake.CallsTo("ffmpeg")) != 0 {
		t.Error("ffmpeg should not run for zero-length segments")
	}
	for _, s := range segs {
		fi, err := os.Stat(s.Path)
		if err != nil {
			t.Fatalf("segment %d missing: %v", s.Index, err)
		}
		if fi.Size() != 0 {
			t.Errorf("segment %d size = %d, want 0", s.Index, fi.Size())
		}
	}
}

func TestSplitProbeFailure(t *testing.T) {
	area := newArea(t)
	fake := &executortest.Fake{Handler: func(string, []string) (string, error) {
		return "", errors.New("Invalid data found when processing input")
	}}
	p := New(fake, Options{}, logger.Discard())
	if _, err := p.Split(context.Background(), types.Episode{AudioPath: "missing.mp3"}, area); err == nil {
		t.Fatal("expected error")
	}
}
