package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every request the client issues.
const DefaultTimeout = 15 * time.Second

// Client is a thin typed wrapper over the survey backend's REST contract.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// New creates a client for the backend at baseURL.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "api-client").Logger(),
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// answerRequest is the submit-answer request body.
type answerRequest struct {
	QuestionID string `json:"question_id"`
	Answer     any    `json:"answer"`
}

// StartSession creates a new session and returns the first question.
func (c *Client) StartSession(ctx context.Context, meta ClientMeta) (*StartResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/session/start", meta)
	if err != nil {
		return nil, err
	}
	if err := checkContract(startLoader, body); err != nil {
		return nil, err
	}
	var out StartResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode start response: %w", err)
	}
	return &out, nil
}

// SubmitAnswer posts one answer. The answer value is the raw structured
// payload for the question's input type, never a display string.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, questionID string, answer any) (*AnswerResponse, error) {
	path := "/session/" + url.PathEscape(sessionID) + "/answer"
	body, err := c.do(ctx, http.MethodPost, path, answerRequest{QuestionID: questionID, Answer: answer})
	if err != nil {
		return nil, err
	}
	if err := checkContract(answerLoader, body); err != nil {
		return nil, err
	}
	var out AnswerResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode answer response: %w", err)
	}
	return &out, nil
}

// DeleteSession removes a session server-side. Used by the cleanup protocol.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/session/"+url.PathEscape(sessionID), nil)
	return err
}

// do issues one request and returns the raw response body. Non-2xx responses
// come back as *APIError with the server's message extracted.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Str("method", method).Str("path", path).Err(err).Msg("Request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Msg: serverMessage(body)}
	}
	return body, nil
}

// serverMessage pulls the error string out of a structured error body.
func serverMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}
