package cleanup

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDeleter records delete calls and optionally fails them.
type countingDeleter struct {
	mu    sync.Mutex
	ids   []string
	fail  bool
	block chan struct{} // non-nil delays completion until closed
}

func (d *countingDeleter) DeleteSession(ctx context.Context, id string) error {
	d.mu.Lock()
	d.ids = append(d.ids, id)
	d.mu.Unlock()
	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if d.fail {
		return fmt.Errorf("delete failed")
	}
	return nil
}

func (d *countingDeleter) calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ids...)
}

func newTestJanitor(store Store, deleter Deleter) *Janitor {
	return NewJanitor(store, deleter, zerolog.Nop())
}

func TestSweepStaleDeletesPreviousSession(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Set("old-sess"))
	deleter := &countingDeleter{}

	j := newTestJanitor(store, deleter)
	j.SweepStale(context.Background(), "new-sess")

	assert.Equal(t, []string{"old-sess"}, deleter.calls())
	id, _ := store.Get()
	assert.Empty(t, id)
}

func TestSweepStaleClearsMarkerEvenOnFailure(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Set("old-sess"))
	deleter := &countingDeleter{fail: true}

	j := newTestJanitor(store, deleter)
	j.SweepStale(context.Background(), "")

	// no retry storms: one attempt, marker gone regardless
	assert.Equal(t, []string{"old-sess"}, deleter.calls())
	id, _ := store.Get()
	assert.Empty(t, id)
}

func TestSweepStaleSkipsCurrentSession(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Set("sess-1"))
	deleter := &countingDeleter{}

	j := newTestJanitor(store, deleter)
	j.SweepStale(context.Background(), "sess-1")

	assert.Empty(t, deleter.calls())
	id, _ := store.Get()
	assert.Equal(t, "sess-1", id)
}

func TestTrackOverwrites(t *testing.T) {
	store := NewMemStore()
	j := newTestJanitor(store, &countingDeleter{})

	j.Track("sess-1")
	j.Track("sess-2")

	id, _ := store.Get()
	assert.Equal(t, "sess-2", id)
}

func TestReleaseOnlyMatchingSession(t *testing.T) {
	store := NewMemStore()
	j := newTestJanitor(store, &countingDeleter{})

	j.Track("sess-1")
	j.Release("sess-other")
	id, _ := store.Get()
	assert.Equal(t, "sess-1", id)

	j.Release("sess-1")
	id, _ = store.Get()
	assert.Empty(t, id)
}

func TestTeardownFiresExactlyOnce(t *testing.T) {
	deleter := &countingDeleter{}
	j := newTestJanitor(NewMemStore(), deleter)

	// both "signals" firing must produce a single delete
	j.Teardown("sess-1")
	j.Teardown("sess-1")

	assert.Equal(t, []string{"sess-1"}, deleter.calls())
}

func TestTeardownIgnoresEmptySession(t *testing.T) {
	deleter := &countingDeleter{}
	j := newTestJanitor(NewMemStore(), deleter)

	j.Teardown("")
	assert.Empty(t, deleter.calls())
}

func TestTeardownSwallowsFailure(t *testing.T) {
	deleter := &countingDeleter{fail: true}
	j := newTestJanitor(NewMemStore(), deleter)

	// must not panic or surface anything
	j.Teardown("sess-1")
	assert.Equal(t, []string{"sess-1"}, deleter.calls())
}
