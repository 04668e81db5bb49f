// Package admin implements the operator-facing commands: listing, inspecting,
// deleting, and exporting collected sessions, plus stale-session cleanup.
package admin

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/lolahq/lola/pkg/api"
)

// Client is the slice of the backend API the admin service uses.
type Client interface {
	ListResponses(ctx context.Context, page, perPage int) (*api.ListResponse, error)
	GetResponse(ctx context.Context, sessionID string) (*api.SessionDetail, error)
	DeleteResponse(ctx context.Context, sessionID string) error
	CleanupStale(ctx context.Context, minutes int) (*api.CleanupResult, error)
	ExportCSV(ctx context.Context) ([]byte, error)
	ExportResponse(ctx context.Context, sessionID string) ([]byte, error)
}

// Service renders admin operations to a writer.
type Service struct {
	client Client
	out    io.Writer
	logger zerolog.Logger
}

func NewService(client Client, out io.Writer, logger zerolog.Logger) *Service {
	return &Service{
		client: client,
		out:    out,
		logger: logger.With().Str("component", "admin").Logger(),
	}
}

// List prints one page of the session table.
func (s *Service) List(ctx context.Context, page, perPage int) error {
	resp, err := s.client.ListResponses(ctx, page, perPage)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION ID\tSTATUS\tCREATED\tANSWERS")
	for _, sess := range resp.Sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", sess.ID, sess.Status, sess.CreatedAt, sess.AnswersCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "\nPage %d of %d (%d sessions)\n",
		resp.Pagination.Page, resp.Pagination.Pages, resp.Pagination.Total)
	return nil
}

// Show prints the full detail of one session.
func (s *Service) Show(ctx context.Context, sessionID string) error {
	detail, err := s.client.GetResponse(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session %s: %w", sessionID, err)
	}

	fmt.Fprintf(s.out, "Session %s\n", detail.Session.ID)
	fmt.Fprintf(s.out, "Status:  %s\n", detail.Session.Status)
	fmt.Fprintf(s.out, "Created: %s\n", detail.Session.CreatedAt)
	fmt.Fprintf(s.out, "Answers: %d\n", len(detail.Answers))
	for i, a := range detail.Answers {
		fmt.Fprintf(s.out, "\n%d. %s\n   %s\n", i+1, a.QuestionText, a.AnswerText)
	}
	return nil
}

// Delete removes one session. The caller confirms beforehand; a failed
// delete changes nothing server-side or locally.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.DeleteResponse(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	fmt.Fprintf(s.out, "Deleted session %s\n", sessionID)
	return nil
}

// Cleanup asks the backend to drop abandoned sessions older than minutes.
func (s *Service) Cleanup(ctx context.Context, minutes int) error {
	result, err := s.client.CleanupStale(ctx, minutes)
	if err != nil {
		return fmt.Errorf("cleanup stale sessions: %w", err)
	}
	s.logger.Info().Int("deleted", result.DeletedCount).Int("minutes", minutes).Msg("Stale cleanup ran")
	fmt.Fprintln(s.out, result.Message)
	return nil
}

// ExportAll downloads the CSV export to path.
func (s *Service) ExportAll(ctx context.Context, path string) error {
	blob, err := s.client.ExportCSV(ctx)
	if err != nil {
		return fmt.Errorf("export responses: %w", err)
	}
	if err := os.WriteFile(path, blob, 0600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(s.out, "Wrote %d bytes to %s\n", len(blob), path)
	return nil
}

// ExportOne downloads a single session's JSON export to path.
func (s *Service) ExportOne(ctx context.Context, sessionID, path string) error {
	blob, err := s.client.ExportResponse(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("export session %s: %w", sessionID, err)
	}
	if err := os.WriteFile(path, blob, 0600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(s.out, "Wrote %d bytes to %s\n", len(blob), path)
	return nil
}
