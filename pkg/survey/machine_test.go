package survey

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lolahq/lola/pkg/api"
)

// stubAPI scripts the backend per call.
type stubAPI struct {
	startResp  *api.StartResponse
	startErr   error
	answerResp *api.AnswerResponse
	answerErr  error

	startCalls  int
	submitCalls int
	lastSession string
	lastQID     string
	lastAnswer  any
}

func (s *stubAPI) StartSession(_ context.Context, _ api.ClientMeta) (*api.StartResponse, error) {
	s.startCalls++
	return s.startResp, s.startErr
}

func (s *stubAPI) SubmitAnswer(_ context.Context, sessionID, questionID string, answer any) (*api.AnswerResponse, error) {
	s.submitCalls++
	s.lastSession = sessionID
	s.lastQID = questionID
	s.lastAnswer = answer
	return s.answerResp, s.answerErr
}

// recordTracker records marker operations.
type recordTracker struct {
	tracked  []string
	released []string
}

func (r *recordTracker) Track(id string)   { r.tracked = append(r.tracked, id) }
func (r *recordTracker) Release(id string) { r.released = append(r.released, id) }

func newTestMachine(stub *stubAPI, tracker Tracker) *Machine {
	return NewMachine(stub, tracker, api.ClientMeta{ClientID: "test"}, zerolog.Nop())
}

func TestMachineStart(t *testing.T) {
	stub := &stubAPI{startResp: startResp()}
	tracker := &recordTracker{}
	m := newTestMachine(stub, tracker)

	require.NoError(t, m.Start(context.Background()))

	st := m.Snapshot()
	assert.Equal(t, PhaseActive, st.Phase)
	assert.Equal(t, "sess-1", st.SessionID)
	assert.Equal(t, []string{"sess-1"}, tracker.tracked)
}

func TestMachineStartFailure(t *testing.T) {
	stub := &stubAPI{startErr: &api.APIError{StatusCode: 500, Msg: "database down"}}
	tracker := &recordTracker{}
	m := newTestMachine(stub, tracker)

	err := m.Start(context.Background())
	require.Error(t, err)

	st := m.Snapshot()
	assert.Equal(t, PhaseUninitialized, st.Phase)
	assert.Equal(t, "database down", st.Err)
	assert.Empty(t, tracker.tracked)
}

func TestMachineSubmitGate(t *testing.T) {
	stub := &stubAPI{}
	m := newTestMachine(stub, nil)

	err := m.Submit(context.Background(), "question_1", "Acme Corp")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Zero(t, stub.submitCalls)
}

func TestMachineSubmitSendsRawAnswer(t *testing.T) {
	stub := &stubAPI{
		startResp: startResp(),
		answerResp: &api.AnswerResponse{
			Completed: false,
			Question:  &api.Question{ID: "question_2", Text: "Next?", InputType: api.InputText},
			Progress:  api.Progress{Current: 1, Total: 12},
		},
	}
	m := newTestMachine(stub, nil)
	require.NoError(t, m.Start(context.Background()))

	answer := []string{"Ads", "Other: foo"}
	require.NoError(t, m.Submit(context.Background(), "question_1", answer))

	assert.Equal(t, "sess-1", stub.lastSession)
	assert.Equal(t, "question_1", stub.lastQID)
	// the wire payload is the structured answer, not the display join
	assert.Equal(t, answer, stub.lastAnswer)

	st := m.Snapshot()
	assert.Equal(t, "question_2", st.Question.ID)
	assert.Equal(t, "Ads, Other: foo", st.Messages[1].Content)
}

func TestMachineSubmitFailureRollsBack(t *testing.T) {
	stub := &stubAPI{
		startResp: startResp(),
		answerErr: &api.APIError{StatusCode: 502, Msg: "bad gateway"},
	}
	m := newTestMachine(stub, nil)
	require.NoError(t, m.Start(context.Background()))

	before := m.Snapshot()
	err := m.Submit(context.Background(), "question_1", "Acme Corp")
	require.Error(t, err)

	st := m.Snapshot()
	assert.Len(t, st.Messages, len(before.Messages))
	assert.Equal(t, "bad gateway", st.Err)
	require.NotNil(t, st.Question)
	assert.Equal(t, "question_1", st.Question.ID)
	assert.Equal(t, PhaseActive, st.Phase)
	assert.False(t, st.Loading)
}

func TestMachineCompletionReleasesMarker(t *testing.T) {
	stub := &stubAPI{
		startResp: startResp(),
		answerResp: &api.AnswerResponse{
			Completed: true,
			Summary:   map[string]string{"question_1": "Acme Corp"},
		},
	}
	tracker := &recordTracker{}
	m := newTestMachine(stub, tracker)
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Submit(context.Background(), "question_1", "Acme Corp"))

	st := m.Snapshot()
	assert.Equal(t, PhaseCompleted, st.Phase)
	assert.Nil(t, st.Question)
	assert.Equal(t, map[string]string{"question_1": "Acme Corp"}, st.Summary)
	assert.Equal(t, []string{"sess-1"}, tracker.released)
}

func TestMachineResetStartsFresh(t *testing.T) {
	stub := &stubAPI{startResp: startResp()}
	tracker := &recordTracker{}
	m := newTestMachine(stub, tracker)
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.Reset(context.Background()))

	assert.Equal(t, 2, stub.startCalls)
	assert.Equal(t, []string{"sess-1"}, tracker.released)
	st := m.Snapshot()
	assert.Equal(t, PhaseActive, st.Phase)
	assert.Len(t, st.Messages, 1)
}

func TestMachineNotifiesSubscriber(t *testing.T) {
	stub := &stubAPI{startResp: startResp()}
	m := newTestMachine(stub, nil)

	var phases []Phase
	m.Subscribe(func(st State) { phases = append(phases, st.Phase) })

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, []Phase{PhaseUninitialized, PhaseActive}, phases)
}
