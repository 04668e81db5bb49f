// Package identity provides the anonymous per-install client identifier sent
// as session-start metadata.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idFile = "client_id"

// Load returns the persisted client identifier, minting and persisting a new
// one on first use.
func Load(dataDir string) (string, error) {
	path := filepath.Join(dataDir, idFile)

	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read client id: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate client id: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to persist client id: %w", err)
	}
	return id, nil
}
