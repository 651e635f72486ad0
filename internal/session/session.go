// Package session provides the authenticated session domain model.
package session

import (
	"strings"
	"time"

	apperrors "github.com/tylergberg/crew-core/internal/platform/errors"
)

var (
	// ErrEmptyUserID indicates a session without a subject identifier.
	ErrEmptyUserID = apperrors.New(apperrors.CodeStorageCorrupt, "session user id is required")
	// ErrEmptyAccessToken indicates a session without credential material.
	ErrEmptyAccessToken = apperrors.New(apperrors.CodeStorageCorrupt, "session access token is required")
	// ErrExpired indicates a session past its expiry instant.
	ErrExpired = apperrors.New(apperrors.CodeSessionExpired, "session is expired")
)

// Session is the opaque credential bundle for one authenticated principal.
//
// AccessToken and RefreshToken are treated as opaque byte strings: the core
// stores and forwards them but never parses their contents.
type Session struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Normalize trims and validates a session record.
func Normalize(s Session) (Session, error) {
	s.UserID = strings.TrimSpace(s.UserID)
	if s.UserID == "" {
		return Session{}, ErrEmptyUserID
	}
	s.AccessToken = strings.TrimSpace(s.AccessToken)
	if s.AccessToken == "" {
		return Session{}, ErrEmptyAccessToken
	}
	s.RefreshToken = strings.TrimSpace(s.RefreshToken)
	s.ExpiresAt = s.ExpiresAt.UTC()
	return s, nil
}

// Valid reports whether the session is usable at the given instant.
// The expiry instant itself is still usable; anything past it must be
// discarded on read.
func (s Session) Valid(now time.Time) bool {
	return s.UserID != "" && s.AccessToken != "" && !s.ExpiresAt.Before(now)
}

// State is the authentication state owned by the orchestrator.
type State int

const (
	// StateUnauthenticated indicates no current session.
	StateUnauthenticated State = iota
	// StateRestoring indicates startup restoration is in progress.
	StateRestoring
	// StateAuthenticated indicates a current valid session.
	StateAuthenticated
	// StateLoggingOut indicates an explicit logout is in progress.
	StateLoggingOut
)

// String returns the label for an auth state.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateRestoring:
		return "RESTORING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateLoggingOut:
		return "LOGGING_OUT"
	default:
		return "UNSPECIFIED"
	}
}
