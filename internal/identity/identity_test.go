package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMintsAndPersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	id, err := Load(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestLoadTrimsStoredValue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "client_id"), []byte("  abc123\n"), 0600))

	id, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}
