// Package redeem exchanges a cached invite token for confirmed party membership.
package redeem

import (
	"context"
	"errors"
	"strings"

	"github.com/tylergberg/crew-core/internal/backend"
	"github.com/tylergberg/crew-core/internal/invite"
	apperrors "github.com/tylergberg/crew-core/internal/platform/errors"
	"github.com/tylergberg/crew-core/internal/platform/id"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrEmptyToken indicates a redemption attempt without a token.
var ErrEmptyToken = apperrors.New(apperrors.CodeInviteTokenInvalid, "invite token is required")

// Redeemer performs invite redemption against the backend.
type Redeemer struct {
	client       backend.Client
	keyGenerator func() (string, error)
	tracer       trace.Tracer
}

// New creates a redeemer over the given backend client.
func New(client backend.Client) *Redeemer {
	return &Redeemer{
		client:       client,
		keyGenerator: id.NewID,
		tracer:       otel.Tracer("crew-core/invite/redeem"),
	}
}

// Redeem redeems the token and resolves the target party id.
//
// "Already a member" backend rejections are a success variant, never an
// error. When the primary call does not echo the party id, a lookup by token
// recovers it; that fallback is a compatibility shim for backend versions
// that only signal success, and the primary result stays authoritative.
func (r *Redeemer) Redeem(ctx context.Context, token string) invite.RedemptionResult {
	token = strings.TrimSpace(token)
	if token == "" {
		return invite.RedemptionResult{Outcome: invite.OutcomeFailed, Err: ErrEmptyToken}
	}

	ctx, span := r.tracer.Start(ctx, "invite.redeem")
	defer span.End()

	key, err := r.keyGenerator()
	if err != nil {
		reason := apperrors.Wrap(apperrors.CodeUnknown, "generate idempotency key", err)
		span.SetAttributes(attribute.String("redeem.error_code", string(reason.Code)))
		return invite.RedemptionResult{Outcome: invite.OutcomeFailed, Err: reason}
	}

	partyID, already, err := r.client.RedeemInvite(ctx, token, key)
	if err != nil {
		if errors.Is(err, apperrors.New(apperrors.CodeInviteAlreadyMember, "")) {
			already = true
		} else {
			span.SetAttributes(attribute.String("redeem.error_code", string(apperrors.CodeOf(err))))
			return invite.RedemptionResult{Outcome: invite.OutcomeFailed, Err: err}
		}
	}

	if partyID == "" {
		partyID, err = r.client.LookupInviteByToken(ctx, token)
		if err != nil || partyID == "" {
			reason := apperrors.Wrap(apperrors.CodeInvitePartyMissing, "recover party id for redeemed invite", err)
			span.SetAttributes(attribute.String("redeem.error_code", string(reason.Code)))
			return invite.RedemptionResult{Outcome: invite.OutcomeFailed, Err: reason}
		}
	}

	outcome := invite.OutcomeAccepted
	if already {
		outcome = invite.OutcomeAlreadyMember
	}
	span.SetAttributes(attribute.Bool("redeem.already_member", already))
	return invite.RedemptionResult{Outcome: outcome, PartyID: partyID}
}
