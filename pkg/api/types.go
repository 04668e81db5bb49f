package api

// Question input types supported by the flow backend.
const (
	InputText         = "text"
	InputSingleChoice = "single_choice"
	InputMultiChoice  = "multi_choice"
	InputMultiField   = "multi_field"
	InputRanking      = "ranking"
	InputScale        = "scale"
)

// InputTypes lists every input type the client understands.
var InputTypes = []string{
	InputText,
	InputSingleChoice,
	InputMultiChoice,
	InputMultiField,
	InputRanking,
	InputScale,
}

// Field describes one sub-input of a multi_field or scale question.
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type,omitempty"`
	Min   int    `json:"min,omitempty"`
	Max   int    `json:"max,omitempty"`
}

// Validation carries the per-question constraints the backend declares.
// Zero means "not constrained".
type Validation struct {
	MinLength     int `json:"min_length,omitempty"`
	MaxLength     int `json:"max_length,omitempty"`
	MinSelections int `json:"min_selections,omitempty"`
	MaxSelections int `json:"max_selections,omitempty"`
}

// Question is a single node of the server-driven flow. The server owns
// sequencing; the client only renders and answers.
type Question struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	InputType   string     `json:"input_type"`
	Options     []string   `json:"options,omitempty"`
	Fields      []Field    `json:"fields,omitempty"`
	Required    bool       `json:"required"`
	AllowOther  bool       `json:"allow_other,omitempty"`
	Placeholder string     `json:"placeholder,omitempty"`
	HelpText    string     `json:"help_text,omitempty"`
	Validation  Validation `json:"validation,omitempty"`
}

// Progress reports how far along a session is.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Percent recomputes the integer percentage for payloads that omit it.
func (p Progress) Percent() int {
	if p.Percentage > 0 {
		return p.Percentage
	}
	if p.Total == 0 {
		return 0
	}
	return p.Current * 100 / p.Total
}

// ClientMeta is the optional metadata sent with a start-session call.
type ClientMeta struct {
	ClientID  string `json:"client_id,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
}

// StartResponse is the flat start-session payload.
type StartResponse struct {
	SessionID string   `json:"session_id"`
	Question  Question `json:"question"`
	Progress  Progress `json:"progress"`
}

// AnswerResponse is the submit-answer payload. Question and Progress are
// populated when Completed is false; Summary (and optionally Message) when true.
type AnswerResponse struct {
	Completed bool              `json:"completed"`
	Question  *Question         `json:"question,omitempty"`
	Progress  Progress          `json:"progress,omitempty"`
	Summary   map[string]string `json:"summary,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// Session is one row of the admin session listing.
type Session struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	AnswersCount int    `json:"answers_count"`
}

// Pagination is the admin listing page descriptor.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// ListResponse is the paginated admin session listing.
type ListResponse struct {
	Sessions   []Session  `json:"sessions"`
	Pagination Pagination `json:"pagination"`
}

// AnswerRecord is one stored answer inside an admin session detail.
type AnswerRecord struct {
	QuestionID   string `json:"question_id"`
	QuestionText string `json:"question_text"`
	AnswerText   string `json:"answer_text"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// SessionDetail is the full admin view of one session.
type SessionDetail struct {
	Session Session        `json:"session"`
	Answers []AnswerRecord `json:"answers"`
}

// CleanupResult is the response of the admin stale-session cleanup call.
type CleanupResult struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
}
