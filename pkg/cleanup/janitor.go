// Package cleanup implements the best-effort protocol that deletes abandoned
// server-side sessions: a persisted single-slot marker for the current
// pending session, a startup sweep of the previous run's leftover, and a
// one-shot teardown delete when the client exits mid-survey. Failures here
// are logged and swallowed; cleanup never surfaces to the user.
package cleanup

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TeardownTimeout bounds the exit-time delete so cleanup never holds up
// process shutdown.
const TeardownTimeout = 2 * time.Second

// Deleter is the slice of the backend client the janitor needs.
type Deleter interface {
	DeleteSession(ctx context.Context, sessionID string) error
}

// Janitor ties the marker store to the delete endpoint.
type Janitor struct {
	store    Store
	api      Deleter
	logger   zerolog.Logger
	teardown sync.Once
}

func NewJanitor(store Store, api Deleter, logger zerolog.Logger) *Janitor {
	return &Janitor{
		store:  store,
		api:    api,
		logger: logger.With().Str("component", "cleanup").Logger(),
	}
}

// SweepStale deletes the previous run's pending session, if the marker points
// at a session other than currentID. The marker is cleared whether or not the
// delete succeeds, so a dead backend can't cause a retry storm.
func (j *Janitor) SweepStale(ctx context.Context, currentID string) {
	stale, err := j.store.Get()
	if err != nil {
		j.logger.Warn().Err(err).Msg("Could not read pending marker")
		return
	}
	if stale == "" || stale == currentID {
		return
	}

	j.logger.Info().Str("session_id", stale).Msg("Found previous incomplete session")
	if err := j.api.DeleteSession(ctx, stale); err != nil {
		j.logger.Warn().Err(err).Str("session_id", stale).Msg("Could not delete previous session")
	} else {
		j.logger.Info().Str("session_id", stale).Msg("Deleted previous session")
	}
	if err := j.store.Clear(); err != nil {
		j.logger.Warn().Err(err).Msg("Could not clear pending marker")
	}
}

// Track records sessionID as the pending session, overwriting any prior value.
func (j *Janitor) Track(sessionID string) {
	if sessionID == "" {
		return
	}
	if err := j.store.Set(sessionID); err != nil {
		j.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Could not persist pending marker")
		return
	}
	j.logger.Debug().Str("session_id", sessionID).Msg("Stored pending session")
}

// Release clears the marker if it still points at sessionID. Called when that
// session completes or is explicitly reset.
func (j *Janitor) Release(sessionID string) {
	current, err := j.store.Get()
	if err != nil {
		j.logger.Warn().Err(err).Msg("Could not read pending marker")
		return
	}
	if current != sessionID {
		return
	}
	if err := j.store.Clear(); err != nil {
		j.logger.Warn().Err(err).Msg("Could not clear pending marker")
		return
	}
	j.logger.Debug().Str("session_id", sessionID).Msg("Session finished, marker cleared")
}

// Teardown fires the exit-time delete for an abandoned session. Guarded by a
// sync.Once so that at most one delete is attempted no matter how many
// shutdown signals arrive. The attempt runs concurrently with a bounded wait,
// and its outcome is never reported to the caller.
func (j *Janitor) Teardown(sessionID string) {
	if sessionID == "" {
		return
	}
	j.teardown.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), TeardownTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- j.api.DeleteSession(ctx, sessionID)
		}()

		select {
		case err := <-done:
			if err != nil {
				j.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Teardown delete failed")
			} else {
				j.logger.Info().Str("session_id", sessionID).Msg("Deleted abandoned session")
			}
		case <-ctx.Done():
			j.logger.Warn().Str("session_id", sessionID).Msg("Teardown delete timed out")
		}
	})
}
