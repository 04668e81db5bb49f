package survey

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lolahq/lola/pkg/api"
)

// Phase is the lifecycle phase of a survey session.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseActive        Phase = "active"
	PhaseCompleted     Phase = "completed"
)

// Message roles in the conversation transcript.
const (
	RoleBot  = "bot"
	RoleUser = "user"
)

// Message is a single turn of the conversation.
type Message struct {
	Role    string
	Content string
}

// State is an immutable snapshot of the session. Err is an overlay on the
// active phase, not a phase of its own: the user can always retry.
type State struct {
	Phase     Phase
	SessionID string
	Messages  []Message
	Question  *api.Question
	Progress  api.Progress
	Summary   map[string]string
	Err       string
	Loading   bool
}

// Event is a state-machine input. Events are produced by the Machine only;
// the rendering layer never constructs them.
type Event interface{ isEvent() }

type startRequested struct{}

type startSucceeded struct {
	resp *api.StartResponse
}

type startFailed struct {
	msg string
}

// answerQueued optimistically appends the user's message before the network
// call resolves.
type answerQueued struct {
	display string
}

type answerAccepted struct {
	resp *api.AnswerResponse
}

type flowCompleted struct {
	resp *api.AnswerResponse
}

// answerFailed rolls back exactly the message answerQueued appended.
type answerFailed struct {
	msg string
}

type resetRequested struct{}

func (startRequested) isEvent() {}
func (startSucceeded) isEvent() {}
func (startFailed) isEvent()    {}
func (answerQueued) isEvent()   {}
func (answerAccepted) isEvent() {}
func (flowCompleted) isEvent()  {}
func (answerFailed) isEvent()   {}
func (resetRequested) isEvent() {}

// reduce is the pure transition function. It never mutates the input state;
// message slices are copied on write.
func reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case startRequested:
		s.Loading = true
		s.Err = ""
		return s

	case startSucceeded:
		q := e.resp.Question
		s.Phase = PhaseActive
		s.SessionID = e.resp.SessionID
		s.Question = &q
		s.Progress = e.resp.Progress
		s.Messages = []Message{{Role: RoleBot, Content: q.Text}}
		s.Summary = nil
		s.Err = ""
		s.Loading = false
		return s

	case startFailed:
		// Prior session state stays untouched; only the error overlay changes.
		s.Err = e.msg
		s.Loading = false
		return s

	case answerQueued:
		s.Loading = true
		s.Err = ""
		s.Messages = appendMessage(s.Messages, Message{Role: RoleUser, Content: e.display})
		return s

	case answerAccepted:
		q := *e.resp.Question
		s.Question = &q
		s.Progress = e.resp.Progress
		s.Messages = appendMessage(s.Messages, Message{Role: RoleBot, Content: q.Text})
		s.Loading = false
		return s

	case flowCompleted:
		s.Phase = PhaseCompleted
		s.Question = nil
		s.Summary = e.resp.Summary
		if e.resp.Progress.Total > 0 {
			s.Progress = e.resp.Progress
		}
		if e.resp.Message != "" {
			s.Messages = appendMessage(s.Messages, Message{Role: RoleBot, Content: e.resp.Message})
		}
		s.Loading = false
		return s

	case answerFailed:
		s.Err = e.msg
		if n := len(s.Messages); n > 0 {
			s.Messages = s.Messages[:n-1:n-1]
		}
		s.Loading = false
		return s

	case resetRequested:
		return State{Phase: PhaseUninitialized}
	}
	return s
}

func appendMessage(msgs []Message, m Message) []Message {
	out := make([]Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, m)
}

// FormatAnswer renders a structured answer for the transcript. Display only;
// the raw answer is what goes on the wire.
func FormatAnswer(answer any) string {
	switch v := answer.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+v[k])
		}
		return strings.Join(parts, " | ")
	case map[string]int:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %d", k, v[k]))
		}
		return strings.Join(parts, " | ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
