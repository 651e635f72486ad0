// Package invite provides the deferred invite reference domain model.
package invite

import (
	"strings"

	apperrors "github.com/tylergberg/crew-core/internal/platform/errors"
)

// ErrEmptyReference indicates a reference carrying neither a token nor a party id.
var ErrEmptyReference = apperrors.New(apperrors.CodeInviteEmptyReference, "invite reference needs a token or a party id")

// Reference is a locally cached, unredeemed invitation.
//
// A reference may be partial: a party id can be learned before a token, or a
// token can arrive without the target party. At least one of Token/PartyID is
// present when stored.
type Reference struct {
	Token         string
	PartyID       string
	ReferrerEmail string
}

// Normalize trims a reference and rejects one with no usable fields.
func Normalize(ref Reference) (Reference, error) {
	ref.Token = strings.TrimSpace(ref.Token)
	ref.PartyID = strings.TrimSpace(ref.PartyID)
	ref.ReferrerEmail = strings.TrimSpace(ref.ReferrerEmail)
	if ref.Token == "" && ref.PartyID == "" {
		return Reference{}, ErrEmptyReference
	}
	return ref, nil
}

// IsZero reports whether the reference carries no fields at all.
func (r Reference) IsZero() bool {
	return r.Token == "" && r.PartyID == "" && r.ReferrerEmail == ""
}

// Outcome classifies the result of a redemption attempt.
type Outcome int

const (
	// OutcomeFailed indicates redemption did not confirm membership.
	OutcomeFailed Outcome = iota
	// OutcomeAccepted indicates the invite was accepted and membership created.
	OutcomeAccepted
	// OutcomeAlreadyMember indicates the user was already a member; a success.
	OutcomeAlreadyMember
)

// RedemptionResult is the consumed-once outcome of redeeming a token.
type RedemptionResult struct {
	Outcome Outcome
	PartyID string
	Err     error // set only when Outcome is OutcomeFailed
}

// Succeeded reports whether the result confirms membership.
func (r RedemptionResult) Succeeded() bool {
	return r.Outcome == OutcomeAccepted || r.Outcome == OutcomeAlreadyMember
}
