package survey

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lolahq/lola/pkg/api"
)

// Fallback messages shown when the server gives no structured error.
const (
	startFailedMsg  = "Failed to start session. Please check that the backend is reachable."
	submitFailedMsg = "Failed to submit answer"
)

// ErrNotReady is returned when Submit is called without an active session and
// current question, or while a request is already in flight.
var ErrNotReady = errors.New("no active question to answer")

// SessionAPI is the slice of the backend client the machine drives.
type SessionAPI interface {
	StartSession(ctx context.Context, meta api.ClientMeta) (*api.StartResponse, error)
	SubmitAnswer(ctx context.Context, sessionID, questionID string, answer any) (*api.AnswerResponse, error)
}

// Tracker observes session identity for the cleanup protocol. Track records
// an active session as pending; Release clears the marker when that session
// finishes or is reset. Both are best-effort and must never fail loudly.
type Tracker interface {
	Track(sessionID string)
	Release(sessionID string)
}

// noopTracker lets the machine run without a cleanup protocol attached.
type noopTracker struct{}

func (noopTracker) Track(string)   {}
func (noopTracker) Release(string) {}

// Machine owns the session state and serializes transitions. All state
// changes flow through the pure reducer; the rendering layer only reads
// snapshots and never mutates state directly.
type Machine struct {
	mu       sync.Mutex
	state    State
	client   SessionAPI
	tracker  Tracker
	meta     api.ClientMeta
	onChange func(State)
	logger   zerolog.Logger
}

// NewMachine creates a machine in the uninitialized phase. tracker may be nil.
func NewMachine(client SessionAPI, tracker Tracker, meta api.ClientMeta, logger zerolog.Logger) *Machine {
	if tracker == nil {
		tracker = noopTracker{}
	}
	return &Machine{
		state:   State{Phase: PhaseUninitialized},
		client:  client,
		tracker: tracker,
		meta:    meta,
		logger:  logger.With().Str("component", "survey-machine").Logger(),
	}
}

// Subscribe registers a callback invoked with a snapshot after every
// transition. One subscriber is enough for a single render loop.
func (m *Machine) Subscribe(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// dispatch applies one event and notifies the subscriber.
func (m *Machine) dispatch(ev Event) State {
	m.mu.Lock()
	m.state = reduce(m.state, ev)
	next := m.state
	fn := m.onChange
	m.mu.Unlock()

	if fn != nil {
		fn(next)
	}
	return next
}

// Start creates a new session. On failure the existing session state is left
// as it was; only the error overlay is set.
func (m *Machine) Start(ctx context.Context) error {
	m.dispatch(startRequested{})

	resp, err := m.client.StartSession(ctx, m.meta)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Session start failed")
		m.dispatch(startFailed{msg: api.Message(err, startFailedMsg)})
		return err
	}

	m.logger.Info().Str("session_id", resp.SessionID).Msg("Session started")
	m.dispatch(startSucceeded{resp: resp})
	m.tracker.Track(resp.SessionID)
	return nil
}

// Submit sends one answer. The user message is appended optimistically and
// rolled back if the call fails; the question stays current so the same
// answer can be retried. The gate is checked synchronously before any I/O.
func (m *Machine) Submit(ctx context.Context, questionID string, answer any) error {
	m.mu.Lock()
	if m.state.Phase != PhaseActive || m.state.Question == nil || m.state.Loading {
		m.mu.Unlock()
		return ErrNotReady
	}
	sessionID := m.state.SessionID
	m.mu.Unlock()

	m.dispatch(answerQueued{display: FormatAnswer(answer)})

	resp, err := m.client.SubmitAnswer(ctx, sessionID, questionID, answer)
	if err != nil {
		m.logger.Warn().Err(err).Str("question_id", questionID).Msg("Answer submission failed")
		m.dispatch(answerFailed{msg: api.Message(err, submitFailedMsg)})
		return err
	}

	if resp.Completed {
		m.logger.Info().Str("session_id", sessionID).Msg("Survey completed")
		m.dispatch(flowCompleted{resp: resp})
		m.tracker.Release(sessionID)
		return nil
	}

	if resp.Question == nil {
		// Guarded by the wire schema, but a machine-level invariant too.
		err := fmt.Errorf("incomplete response carries no next question")
		m.dispatch(answerFailed{msg: submitFailedMsg})
		return err
	}

	m.dispatch(answerAccepted{resp: resp})
	return nil
}

// Reset discards the current session entirely and immediately starts a new
// one. The pending marker is released exactly here and on completion.
func (m *Machine) Reset(ctx context.Context) error {
	m.mu.Lock()
	sessionID := m.state.SessionID
	m.mu.Unlock()

	if sessionID != "" {
		m.tracker.Release(sessionID)
	}
	m.dispatch(resetRequested{})
	return m.Start(ctx)
}
