package endpoint

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"podcast-digest-go/internal/logger"
	"podcast-digest-go/internal/types"
)

type fakeAPI struct {
	mu        sync.Mutex
	resumeErr error
	pauseErr  error
	states    []types.EndpointState // returned in order; last one repeats
	statusErr error

	resumes, statuses, pauses int
}

func (f *fakeAPI) Resume(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
	return f.resumeErr
}

func (f *fakeAPI) Status(ctx context.Context) (types.EndpointState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses++
	if f.statusErr != nil {
		return types.StateUnknown, f.statusErr
	}
	if len(f.states) == 0 {
		return types.StateStarting, nil
	}
	s := f.states[0]
	if len(f.states) > 1 {
		f.states = f.states[1:]
	}
	return s, nil
}

func (f *fakeAPI) Pause(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return f.pauseErr
}

func newManager(api API, attempts int) *Manager {
	return NewManager(api, types.EndpointHandle{Namespace: "acme", Name: "whisper"},
		Options{PollInterval: time.Millisecond, MaxAttempts: attempts}, logger.Discard())
}

func TestActivateBecomesRunning(t *testing.T) {
	api := &fakeAPI{states: []types.EndpointState{types.StateStarting, types.StateStarting, types.StateRunning}}
	m := newManager(api, 60)

	if err := m.Activate(context.Background()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if m.State() != types.StateRunning {
		t.Errorf("state = %s", m.State())
	}
	if api.statuses != 3 {
		t.Errorf("status polls = %d, want 3", api.statuses)
	}

	m.Deactivate(context.Background())
	if api.pauses != 1 || m.State() != types.StateSuspended {
		t.Errorf("pauses = %d state = %s", api.pauses, m.State())
	}
}

func TestActivateResumeRejectedSkipsPolling(t *testing.T) {
	api := &fakeAPI{resumeErr: &StatusError{Op: "resume", Code: 403, Body: "forbidden"}}
	m := newManager(api, 60)

	err := m.Activate(context.Background())
	if !errors.Is(err, ErrResumeRejected) {
		t.Fatalf("error = %v, want ErrResumeRejected", err)
	}
	if api.statuses != 0 {
		t.Errorf("status polled %d times after rejected resume", api.statuses)
	}

	m.Deactivate(context.Background())
	if api.pauses != 0 {
		t.Error("pause must not be called after a rejected resume")
	}
}

// The pause call is skipped on timeout because the endpoint never became
// active. This mirrors the existing deployment and is intentional.
func TestActivateTimeoutSkipsPause(t *testing.T) {
	api := &fakeAPI{states: []types.EndpointState{types.StateStarting}}
	m := newManager(api, 5)

	err := m.Activate(context.Background())
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("error = %v, want ErrTimedOut", err)
	}
	if api.statuses != 5 {
		t.Errorf("status polls = %d, want exactly 5 attempts", api.statuses)
	}
	if m.State() != types.StateTimedOut {
		t.Errorf("state = %s, want timed_out", m.State())
	}

	m.Deactivate(context.Background())
	if api.pauses != 0 {
		t.Error("pause must be skipped after a timeout")
	}
}

func TestActivateStatusErrorsCountAsAttempts(t *testing.T) {
	api := &fakeAPI{statusErr: errors.New("connection reset")}
	m := newManager(api, 3)

	if err := m.Activate(context.Background()); !errors.Is(err, ErrTimedOut) {
		t.Fatalf("error = %v, want ErrTimedOut", err)
	}
	if api.statuses != 3 {
		t.Errorf("status polls = %d, want 3", api.statuses)
	}
}

func TestActivateCancelled(t *testing.T) {
	api := &fakeAPI{states: []types.EndpointState{types.StateStarting}}
	m := NewManager(api, types.EndpointHandle{}, Options{PollInterval: time.Hour, MaxAttempts: 60}, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := m.Activate(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not interrupt the wait")
	}

	// The endpoint was resumed, so a cancelled run still pauses it.
	m.Deactivate(context.Background())
	if api.pauses != 1 {
		t.Errorf("pauses = %d, want 1", api.pauses)
	}
}

func TestDeactivatePauseFailureIsSwallowed(t *testing.T) {
	api := &fakeAPI{states: []types.EndpointState{types.StateRunning}, pauseErr: errors.New("503")}
	m := newManager(api, 60)
	if err := m.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.Deactivate(context.Background())
	if api.pauses != 1 {
		t.Errorf("pauses = %d", api.pauses)
	}
}

func TestParseState(t *testing.T) {
	tests := map[string]types.EndpointState{
		"running":      types.StateRunning,
		"Running":      types.StateRunning,
		"paused":       types.StateSuspended,
		"scaledToZero": types.StateSuspended,
		"initializing": types.StateStarting,
		"pending":      types.StateStarting,
		"failed":       types.StateUnknown,
		"":             types.StateUnknown,
	}
	for in, want := range tests {
		if got := ParseState(in); got != want {
			t.Errorf("ParseState(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestClientAgainstServer(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer hf_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mu.Lock()
		seen[r.Method+" "+r.URL.Path]++
		mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/acme/whisper/resume":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Path == "/acme/whisper":
			w.Write([]byte(`{"name":"whisper","status":{"state":"running"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/acme/whisper/pause":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("already paused"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/", "acme", "whisper", "hf_test")
	ctx := context.Background()

	if err := c.Resume(ctx); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	state, err := c.Status(ctx)
	if err != nil || state != types.StateRunning {
		t.Fatalf("Status() = %s, %v", state, err)
	}

	err = c.Pause(ctx)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest || se.Body != "already paused" {
		t.Fatalf("Pause() error = %v", err)
	}

	for _, k := range []string{"POST /acme/whisper/resume", "GET /acme/whisper", "POST /acme/whisper/pause"} {
		if seen[k] != 1 {
			t.Errorf("%s called %d times", k, seen[k])
		}
	}
}

func TestClientStatusBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "acme", "whisper", "t")
	if _, err := c.Status(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}
