package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps each session in <dir>/<id>.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir returns the session directory under the user config
// directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "enricher", "sessions"), nil
}

// NewFileStore creates dir if needed. An empty dir means [DefaultDir].
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if sess.IsExpired() {
		os.Remove(s.path(id))
		return nil, nil
	}
	return &sess, nil
}

func (s *FileStore) Set(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.path(sess.ID), data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)

const cliSessionID = "github"

// CLIStore holds the one GitHub session the CLI uses.
type CLIStore struct {
	store *FileStore
}

// NewCLIStore opens the CLI session store in dir ("" for [DefaultDir]).
func NewCLIStore(dir string) (*CLIStore, error) {
	store, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &CLIStore{store: store}, nil
}

// Load returns the current session, or nil when logged out.
func (c *CLIStore) Load(ctx context.Context) (*Session, error) {
	return c.store.Get(ctx, cliSessionID)
}

// Save replaces the current session.
func (c *CLIStore) Save(ctx context.Context, sess *Session) error {
	sess.ID = cliSessionID
	return c.store.Set(ctx, sess)
}

// Clear logs out.
func (c *CLIStore) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, cliSessionID)
}

// Path returns the session file.
func (c *CLIStore) Path() string {
	return c.store.path(cliSessionID)
}
