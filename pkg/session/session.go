// Package session persists authenticated API sessions.
//
// A session pairs a stored access token with the account it belongs to,
// so CLI invocations and long-running services don't request a fresh
// token on every run. Two backends are provided:
//   - file: JSON files in a config directory, for CLI use
//   - redis: shared storage for multi-instance deployments
//
// # Usage
//
//	store, err := session.NewFileStore("") // ~/.config/fractal/sessions/
//	if err != nil {
//	    return err
//	}
//
//	sess, err := session.New(token.Data(), "alice", session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
// Retrieval returns nil for missing or expired sessions; a stored token
// that outlives the session is still re-checked by the SDK before use.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/fractal-global/fractal-go/pkg/fractal"
)

// ErrNotFound is returned by backends that distinguish missing sessions
// from storage failures.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// Session stores a persisted login.
type Session struct {
	ID        string            `json:"id"`
	Token     fractal.TokenData `json:"token"`
	Username  string            `json:"username"`
	Server    string            `json:"server,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
}

// IsExpired reports whether the session itself has expired. The access
// token inside may expire earlier; callers should check both.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AccessToken rebuilds the stored access token.
func (s *Session) AccessToken() *fractal.AccessToken {
	return fractal.TokenFromData(s.Token)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions (may be a no-op for backends
	// with native expiry).
	Cleanup(ctx context.Context) error
}

// GenerateID creates a cryptographically secure random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// New creates a session wrapping the given token data.
func New(token fractal.TokenData, username string, ttl time.Duration) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expires := now.Add(ttl)
	// A session never outlives its token.
	if token.Expiration.Before(expires) {
		expires = token.Expiration
	}

	return &Session{
		ID:        id,
		Token:     token,
		Username:  username,
		ExpiresAt: expires,
		CreatedAt: now,
	}, nil
}
