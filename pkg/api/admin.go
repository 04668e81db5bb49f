package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListResponses returns one page of the admin session listing.
func (c *Client) ListResponses(ctx context.Context, page, perPage int) (*ListResponse, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	path := "/admin/responses"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out ListResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &out, nil
}

// GetResponse returns the full detail for one session.
func (c *Client) GetResponse(ctx context.Context, sessionID string) (*SessionDetail, error) {
	body, err := c.do(ctx, http.MethodGet, "/admin/response/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	var out SessionDetail
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode session detail: %w", err)
	}
	if out.Session.ID == "" {
		return nil, fmt.Errorf("%w: session detail missing session object", ErrContract)
	}
	return &out, nil
}

// DeleteResponse removes a session and all its answers.
func (c *Client) DeleteResponse(ctx context.Context, sessionID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/admin/response/"+url.PathEscape(sessionID), nil)
	return err
}

// CleanupStale asks the backend to drop abandoned sessions older than the
// given number of minutes.
func (c *Client) CleanupStale(ctx context.Context, minutes int) (*CleanupResult, error) {
	path := "/admin/cleanup?minutes=" + strconv.Itoa(minutes)
	body, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}
	var out CleanupResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode cleanup result: %w", err)
	}
	return &out, nil
}

// ExportCSV downloads the full response export as a CSV blob.
func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/admin/export?format=csv", nil)
}

// ExportResponse downloads one session's export as a JSON blob.
func (c *Client) ExportResponse(ctx context.Context, sessionID string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/admin/response/"+url.PathEscape(sessionID)+"/export", nil)
}
