// Package session models the authenticated interaction context. The
// authoritative session store is the CDR repository's own table; this
// package only models rows read from it plus the guest sentinel.
package session

import (
	"context"
	"time"
)

// GuestName is the well-known read-only fallback identity. Guest never
// becomes authenticated and cannot be logged out.
const GuestName = "guest"

// Session is one authenticated interaction context, referenced by its
// opaque token on each request.
type Session struct {
	Token        string
	UserID       uint
	UserName     string
	Initiated    time.Time
	LastActivity time.Time
	Ended        *time.Time
}

// Guest returns the sentinel read-only identity.
func Guest() *Session {
	return &Session{UserName: GuestName}
}

// IsGuest reports whether this is the fallback identity.
func (s *Session) IsGuest() bool {
	return s.Token == "" && s.UserName == GuestName
}

// Active reports whether the session is usable: not ended and not past
// the inactivity window.
func (s *Session) Active(expiry time.Duration, now time.Time) bool {
	if s.IsGuest() {
		return false
	}
	if s.Ended != nil {
		return false
	}
	return now.Sub(s.LastActivity) <= expiry
}

// Repository reads and updates session rows.
type Repository interface {
	// GetByToken returns the session row for a token, or nil when the
	// token is unknown.
	GetByToken(ctx context.Context, token string) (*Session, error)
	// Touch updates last-activity for an active session.
	Touch(ctx context.Context, token string) error
	// End marks a session ended.
	End(ctx context.Context, token string) error
}
