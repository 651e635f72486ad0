package orchestrator

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tylergberg/crew-core/internal/deeplink"
	"github.com/tylergberg/crew-core/internal/invite"
	"github.com/tylergberg/crew-core/internal/navigation"
	apperrors "github.com/tylergberg/crew-core/internal/platform/errors"
	"github.com/tylergberg/crew-core/internal/platform/timeouts"
	"github.com/tylergberg/crew-core/internal/session"
	"go.opentelemetry.io/otel/attribute"
)

// HandleLink is the single inbound entry point for universal/deep links.
//
// Auth-state-dependent intents (invite, auth callback, email verification)
// are resolved here against the state machine; state-independent direct opens
// write the navigator without consulting it. Malformed links are logged and
// ignored: stale or untrusted links must not crash or alarm.
func (o *Orchestrator) HandleLink(ctx context.Context, raw string) {
	ctx, span := o.tracer.Start(ctx, "deeplink.handle")
	defer span.End()

	intent := deeplink.Classify(raw)
	span.SetAttributes(attribute.String("deeplink.kind", intent.Kind.String()))

	switch intent.Kind {
	case deeplink.KindInvite:
		o.handleInviteLink(ctx, intent)

	case deeplink.KindAuthCallback:
		o.handleAuthCallback(ctx, intent.Code)

	case deeplink.KindEmailVerification:
		o.handleEmailVerification(ctx)

	case deeplink.KindPartyOpen:
		if o.State() == session.StateAuthenticated {
			o.nav.SetRoute(navigation.Party(intent.PartyID, intent.OpenChat))
			return
		}
		// A direct share link carries no token to defer.
		o.nav.SetRoute(navigation.Target{Route: navigation.RouteLogin})

	case deeplink.KindGameRecordingOpen:
		// The recording flow handles its own gating; route regardless of auth.
		o.nav.SetRoute(navigation.Target{Route: navigation.RouteGameRecording, Token: intent.Token})

	default:
		o.logger.Printf("WARN unrecognized link ignored: %q", raw)
	}
}

// handleInviteLink dispatches an invite intent against the current state.
func (o *Orchestrator) handleInviteLink(ctx context.Context, intent deeplink.Intent) {
	ref := invite.Reference{
		Token:         intent.Token,
		PartyID:       intent.PartyID,
		ReferrerEmail: intent.Email,
	}

	if o.State() != session.StateAuthenticated {
		// Defer: store the reference and send the user to sign in. The state
		// machine redeems it on the next entry to Authenticated.
		if err := o.invites.Store(ctx, ref); err != nil {
			o.logger.Printf("ERROR defer invite: %v", err)
			o.reportError(err)
		}
		o.nav.SetRoute(navigation.Target{Route: navigation.RouteLogin})
		return
	}

	if ref.PartyID != "" {
		// A direct party id means the user is already a member (returning
		// organizer); no redemption call.
		o.nav.SetRoute(navigation.Party(ref.PartyID, false))
		return
	}

	result := o.redeemer.Redeem(ctx, ref.Token)
	if !result.Succeeded() {
		o.reportError(result.Err)
		return
	}
	if err := o.invites.Clear(ctx); err != nil {
		o.logger.Printf("ERROR clear invite cache: %v", err)
	}
	if result.Outcome == invite.OutcomeAccepted {
		o.nav.ReportSuccess("Invite accepted", "You're in. Welcome to the party!")
	}
	o.nav.SetRoute(navigation.Party(result.PartyID, false))
}

// handleAuthCallback exchanges the code for a session, adopts it, re-runs the
// invite redemption check, and routes to the party or the dashboard.
func (o *Orchestrator) handleAuthCallback(ctx context.Context, code string) {
	exchanged, err := o.client.ExchangeCode(ctx, code)
	if err != nil {
		o.reportError(apperrors.Wrap(apperrors.CodeCodeExchangeFailed, "exchange auth code", err))
		return
	}
	routed, _, err := o.adoptSession(ctx, exchanged)
	if err != nil {
		o.reportError(apperrors.Wrap(apperrors.CodeCodeExchangeFailed, "adopt exchanged session", err))
		return
	}
	if !routed {
		o.nav.SetRoute(navigation.Target{Route: navigation.RouteDashboard})
	}
}

// handleEmailVerification waits, bounded, for the provider to establish a
// session out-of-band, then behaves like the auth callback's post-exchange
// step. If no session materializes within the wait, the failure is surfaced.
func (o *Orchestrator) handleEmailVerification(ctx context.Context) {
	probe := func() (session.Session, error) {
		sess, found, err := o.client.GetSession(ctx)
		if err != nil {
			return session.Session{}, err
		}
		if !found {
			return session.Session{}, apperrors.New(apperrors.CodeVerificationTimeout, "provider session not established yet")
		}
		return sess, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 250 * time.Millisecond

	established, err := backoff.Retry(ctx, probe,
		backoff.WithBackOff(expo),
		backoff.WithMaxElapsedTime(timeouts.VerificationWait),
	)
	if err != nil {
		o.reportError(apperrors.Wrap(apperrors.CodeVerificationTimeout, "wait for verified session", err))
		return
	}

	routed, _, err := o.adoptSession(ctx, established)
	if err != nil {
		o.reportError(err)
		return
	}
	if !routed {
		o.nav.SetRoute(navigation.Target{Route: navigation.RouteDashboard})
	}
}
