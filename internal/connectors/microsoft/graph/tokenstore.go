package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// TokenStore persists OAuth tokens per target so subsequent runs can
// refresh silently instead of repeating the interactive sign-in.
type TokenStore struct {
	dir string
}

// NewTokenStore creates a token store rooted at dir. An empty dir selects
// ~/.outcal.
func NewTokenStore(dir string) (*TokenStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".outcal")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create token directory: %w", err)
	}
	return &TokenStore{dir: dir}, nil
}

func (ts *TokenStore) path(target string) string {
	return filepath.Join(ts.dir, "token-"+target+".json")
}

// Save writes the token for a target with 0600 permissions.
func (ts *TokenStore) Save(target string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.WriteFile(ts.path(target), data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Load reads the cached token for a target. A missing cache returns
// (nil, nil).
func (ts *TokenStore) Load(target string) (*oauth2.Token, error) {
	data, err := os.ReadFile(ts.path(target))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &token, nil
}

// Delete removes the cached token for a target.
func (ts *TokenStore) Delete(target string) error {
	if err := os.Remove(ts.path(target)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
