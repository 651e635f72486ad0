// Package backend declares the contract the core requires from the remote
// backend, independent of transport.
package backend

import (
	"context"

	"github.com/tylergberg/crew-core/internal/session"
)

// EventKind identifies an auth provider event.
type EventKind int

const (
	// EventInitialSession reports the provider's session at stream start, if any.
	EventInitialSession EventKind = iota
	// EventSignedIn reports a newly established session.
	EventSignedIn
	// EventSignedOut reports the provider ending the session.
	EventSignedOut
	// EventTokenRefreshed reports replaced credential material.
	EventTokenRefreshed
	// EventUserUpdated reports profile changes with a current session.
	EventUserUpdated
	// EventUserDeleted reports remote deletion of the account.
	EventUserDeleted
)

// String returns the label for an event kind.
func (k EventKind) String() string {
	switch k {
	case EventInitialSession:
		return "INITIAL_SESSION"
	case EventSignedIn:
		return "SIGNED_IN"
	case EventSignedOut:
		return "SIGNED_OUT"
	case EventTokenRefreshed:
		return "TOKEN_REFRESHED"
	case EventUserUpdated:
		return "USER_UPDATED"
	case EventUserDeleted:
		return "USER_DELETED"
	default:
		return "UNSPECIFIED"
	}
}

// Event is one typed auth-state-change notification from the provider.
// Session is present for kinds that carry one; nil otherwise.
type Event struct {
	Kind    EventKind
	Session *session.Session
}

// Client is the minimal backend surface the core depends on.
//
// RedeemInvite reports (partyID, alreadyMember, err). Some backend versions
// acknowledge acceptance without echoing the party id; callers recover it via
// LookupInviteByToken in that case.
type Client interface {
	GetSession(ctx context.Context) (session.Session, bool, error)
	RefreshSession(ctx context.Context) (session.Session, error)
	SignOut(ctx context.Context) error
	ExchangeCode(ctx context.Context, code string) (session.Session, error)
	RedeemInvite(ctx context.Context, token string, idempotencyKey string) (partyID string, alreadyMember bool, err error)
	LookupInviteByToken(ctx context.Context, token string) (partyID string, err error)
}

// EventSource exposes the provider's ordered auth event stream.
// Events must be delivered in provider order with no drops; delivery is
// serial, never concurrent.
type EventSource interface {
	Events() <-chan Event
}
