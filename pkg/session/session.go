// Package session stores the GitHub credentials obtained by
// "enricher github login".
//
// A [Session] pairs an access token with the user it belongs to and an
// expiry. [FileStore] keeps sessions as JSON files with 0600 permissions
// under the user config directory; [CLIStore] wraps it for the single
// session the CLI uses.
//
//	store, err := session.NewCLIStore("")
//	sess, err := store.Load(ctx)
//	if sess == nil {
//	    // not logged in, or the session expired
//	}
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/holly-cummins/extensions.io/pkg/integrations/github"
)

// DefaultTTL is how long a CLI login lasts.
const DefaultTTL = 30 * 24 * time.Hour

// Session is a stored login.
type Session struct {
	ID          string       `json:"id"`
	AccessToken string       `json:"access_token"`
	User        *github.User `json:"user"`
	ExpiresAt   time.Time    `json:"expires_at"`
	CreatedAt   time.Time    `json:"created_at"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Login returns the user's login, or "" when unknown.
func (s *Session) Login() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Login
}

// Store persists sessions.
type Store interface {
	// Get returns nil, nil when the session does not exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

// GenerateID returns a random URL-safe identifier.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New creates a session for token and user that lasts ttl.
func New(token string, user *github.User, ttl time.Duration) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:          id,
		AccessToken: token,
		User:        user,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}, nil
}
