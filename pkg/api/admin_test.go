package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListResponses(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"sessions": [
				{"id": "sess-1", "status": "completed", "created_at": "2026-08-01T10:00:00Z", "answers_count": 12},
				{"id": "sess-2", "status": "active", "created_at": "2026-08-02T11:00:00Z", "answers_count": 3}
			],
			"pagination": {"page": 2, "per_page": 20, "total": 41, "pages": 3}
		}`))
	})

	resp, err := client.ListResponses(context.Background(), 2, 20)
	require.NoError(t, err)

	assert.Equal(t, "page=2&per_page=20", gotQuery)
	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, "sess-1", resp.Sessions[0].ID)
	assert.Equal(t, 12, resp.Sessions[0].AnswersCount)
	assert.Equal(t, 3, resp.Pagination.Pages)
}

func TestGetResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/response/sess-1", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"session": {"id": "sess-1", "status": "completed", "created_at": "2026-08-01T10:00:00Z", "answers_count": 2},
			"answers": [
				{"question_id": "question_1", "question_text": "Company?", "answer_text": "Acme Corp"},
				{"question_id": "question_2", "question_text": "Channels?", "answer_text": "Ads, Email"}
			]
		}`))
	})

	detail, err := client.GetResponse(context.Background(), "sess-1")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", detail.Session.ID)
	require.Len(t, detail.Answers, 2)
	assert.Equal(t, "Acme Corp", detail.Answers[0].AnswerText)
}

func TestGetResponseFlatDriftRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// flat revision without the session wrapper
		_, _ = w.Write([]byte(`{"id": "sess-1", "status": "completed", "answers": []}`))
	})

	_, err := client.GetResponse(context.Background(), "sess-1")
	assert.ErrorIs(t, err, ErrContract)
}

func TestDeleteResponseNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "Session not found"}`))
	})

	err := client.DeleteResponse(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Session not found", apiErr.Msg)
}

func TestCleanupStale(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"message": "Cleaned up 4 abandoned session(s)", "deleted_count": 4}`))
	})

	result, err := client.CleanupStale(context.Background(), 30)
	require.NoError(t, err)

	assert.Equal(t, "minutes=30", gotQuery)
	assert.Equal(t, 4, result.DeletedCount)
}

func TestExportCSV(t *testing.T) {
	csv := "Session ID,Status,Created At,Question ID,Answer\nsess-1,completed,2026-08-01,question_1,Acme Corp\n"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/export", r.URL.Path)
		assert.Equal(t, "format=csv", r.URL.RawQuery)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(csv))
	})

	blob, err := client.ExportCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csv, string(blob))
}

func TestExportResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/response/sess-1/export", r.URL.Path)
		_, _ = w.Write([]byte(`{"session_id": "sess-1"}`))
	})

	blob, err := client.ExportResponse(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"session_id": "sess-1"}`, string(blob))
}
