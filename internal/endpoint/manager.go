package endpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"podcast-digest-go/internal/logger"
	"podcast-digest-go/internal/types"
)

var (
	ErrResumeRejected = errors.New("endpoint resume rejected")
	ErrTimedOut       = errors.New("endpoint did not become running in time")
)

// API is the subset of the endpoints API the manager drives.
type API interface {
	Resume(ctx context.Context) error
	Status(ctx context.Context) (types.EndpointState, error)
	Pause(ctx context.Context) error
}

type Options struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// Manager moves the endpoint Suspended -> Starting -> Running and back to
// Suspended. It keeps the state for one run only; nothing is cached across
// runs.
type Manager struct {
	api  API
	opts Options
	log  *logger.Logger

	mu     sync.Mutex
	handle types.EndpointHandle
}

func NewManager(api API, handle types.EndpointHandle, opts Options, log *logger.Logger) *Manager {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 60
	}
	handle.State = types.StateSuspended
	return &Manager{
		api:    api,
		opts:   opts,
		handle: handle,
		log:    log.Component("endpoint").With("endpoint", handle.Namespace+"/"+handle.Name),
	}
}

func (m *Manager) State() types.EndpointState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle.State
}

func (m *Manager) Handle() types.EndpointHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

func (m *Manager) setState(s types.EndpointState) {
	m.mu.Lock()
	m.handle.State = s
	m.mu.Unlock()
}

// Activate resumes the endpoint and waits until it reports running.
//
// A rejected resume returns ErrResumeRejected without polling. Running out of
// attempts returns ErrTimedOut and leaves the manager in TimedOut, in
// which state Deactivate does not pause. Cancelling ctx aborts the wait and
// returns ctx's error.
func (m *Manager) Activate(ctx context.Context) error {
	m.setState(types.StateSuspended)

	m.log.Info("resuming endpoint")
	if err := m.api.Resume(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrResumeRejected, err)
	}
	m.setState(types.StateStarting)

	attempts := 0
	op := func() error {
		attempts++
		state, err := m.api.Status(ctx)
		if err != nil {
			m.log.WithError(err).WithField("attempt", attempts).Debug("status check failed")
			return err
		}
		if state == types.StateRunning {
			return nil
		}
		return fmt.Errorf("endpoint state %q", state)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(m.opts.PollInterval), uint64(m.opts.MaxAttempts-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		m.log.WithField("attempt", attempts).WithField("next_in", wait).Debug("endpoint not running yet")
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("wait for endpoint: %w", ctxErr)
		}
		m.setState(types.StateTimedOut)
		m.log.WithField("attempts", attempts).Warn("endpoint did not become running in time")
		return fmt.Errorf("%w after %d attempts: %v", ErrTimedOut, attempts, err)
	}

	m.setState(types.StateRunning)
	m.log.WithField("attempts", attempts).Info("endpoint is running")
	return nil
}

// Deactivate pauses the endpoint if this run started it. Failures are logged
// and never returned: the run's output does not depend on the pause.
func (m *Manager) Deactivate(ctx context.Context) {
	switch m.State() {
	case types.StateRunning, types.StateStarting:
	default:
		m.log.WithField("state", m.State()).Info("endpoint never became active, skipping pause")
		return
	}

	m.log.Info("pausing endpoint")
	if err := m.api.Pause(ctx); err != nil {
		m.log.WithError(err).Warn("failed to pause endpoint")
		return
	}
	m.setState(types.StateSuspended)
}
