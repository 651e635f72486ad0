// Package orchestrator owns the authentication state machine and coordinates
// session persistence, provider events, deferred invite redemption, and the
// resulting navigation decision.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/tylergberg/crew-core/internal/backend"
	"github.com/tylergberg/crew-core/internal/invite"
	"github.com/tylergberg/crew-core/internal/navigation"
	apperrors "github.com/tylergberg/crew-core/internal/platform/errors"
	"github.com/tylergberg/crew-core/internal/platform/errors/i18n"
	"github.com/tylergberg/crew-core/internal/platform/timeouts"
	"github.com/tylergberg/crew-core/internal/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// SessionStore persists the session record in secure local storage.
type SessionStore interface {
	Save(ctx context.Context, sess session.Session) error
	Load(ctx context.Context) (session.Session, bool, error)
	Clear(ctx context.Context) error
}

// InviteCache persists the deferred invite reference in plain local storage.
type InviteCache interface {
	Store(ctx context.Context, ref invite.Reference) error
	Load(ctx context.Context) (invite.Reference, bool, error)
	Clear(ctx context.Context) error
}

// Redeemer exchanges an invite token for confirmed party membership.
type Redeemer interface {
	Redeem(ctx context.Context, token string) invite.RedemptionResult
}

// Deps are the collaborators the orchestrator coordinates. All are required
// except Locale, Clock, and Logger.
type Deps struct {
	Sessions  SessionStore
	Invites   InviteCache
	Redeemer  Redeemer
	Client    backend.Client
	Events    <-chan backend.Event
	Navigator *navigation.Navigator
	Locale    string
	Clock     func() time.Time
	Logger    *log.Logger
}

// Orchestrator is the single writer of auth state, the processed-invite
// guard, and the cached invite reference. All mutations happen under mu;
// async completions re-check the generation counter under mu before applying,
// so anything in flight across a transition is discarded rather than applied.
type Orchestrator struct {
	mu          sync.Mutex
	state       session.State
	current     session.Session
	generation  uint64
	inviteGuard bool

	sessions SessionStore
	invites  InviteCache
	redeemer Redeemer
	client   backend.Client
	events   <-chan backend.Event
	nav      *navigation.Navigator
	locale   string
	clock    func() time.Time
	logger   *log.Logger
	tracer   trace.Tracer

	background sync.WaitGroup
}

// New builds an orchestrator in the Restoring state.
func New(deps Deps) (*Orchestrator, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if deps.Invites == nil {
		return nil, errors.New("invite cache is required")
	}
	if deps.Redeemer == nil {
		return nil, errors.New("redeemer is required")
	}
	if deps.Client == nil {
		return nil, errors.New("backend client is required")
	}
	if deps.Navigator == nil {
		return nil, errors.New("navigator is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		state:    session.StateRestoring,
		sessions: deps.Sessions,
		invites:  deps.Invites,
		redeemer: deps.Redeemer,
		client:   deps.Client,
		events:   deps.Events,
		nav:      deps.Navigator,
		locale:   deps.Locale,
		clock:    clock,
		logger:   logger,
		tracer:   otel.Tracer("crew-core/orchestrator"),
	}, nil
}

// State returns the current auth state.
func (o *Orchestrator) State() session.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CurrentSession returns the current session when authenticated.
func (o *Orchestrator) CurrentSession() (session.Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != session.StateAuthenticated {
		return session.Session{}, false
	}
	return o.current, true
}

// Start restores persisted state and begins draining provider events.
// It is called once at process start.
func (o *Orchestrator) Start(ctx context.Context) {
	o.restore(ctx)
	if o.events != nil {
		o.background.Add(1)
		go func() {
			defer o.background.Done()
			o.pump(ctx)
		}()
	}
}

// Wait blocks until background work (event pump, corroboration, sign-out)
// has finished. Intended for shutdown after the Start context is cancelled.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

// restore reads the persisted session and resolves the initial state.
//
// A valid persisted session wins optimistically: the provider is corroborated
// in the background, but a transient corroboration failure never evicts the
// user. Only an explicit SignedOut/UserDeleted event or an expiry check does.
func (o *Orchestrator) restore(ctx context.Context) {
	o.mu.Lock()
	if o.state != session.StateRestoring {
		// Restoration already ran and resolved a resting state; running it
		// again must not spawn another corroboration attempt.
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	ctx, span := o.tracer.Start(ctx, "session.restore")
	defer span.End()

	persisted, found, err := o.sessions.Load(ctx)
	if err != nil {
		// Load failure is treated as absence, at a distinct severity from a
		// clean miss so monitoring can separate corruption from absence.
		o.logger.Printf("ERROR restore: load persisted session: %v", err)
	}
	if !found || !persisted.Valid(o.clock()) {
		if found {
			if err := o.sessions.Clear(ctx); err != nil {
				o.logger.Printf("ERROR restore: clear expired session: %v", err)
			}
		}
		o.mu.Lock()
		o.state = session.StateUnauthenticated
		o.current = session.Session{}
		o.generation++
		o.mu.Unlock()
		o.nav.SetRoute(navigation.Target{Route: navigation.RouteLogin})
		return
	}

	o.mu.Lock()
	o.state = session.StateAuthenticated
	o.current = persisted
	o.generation++
	gen := o.generation
	o.mu.Unlock()

	o.background.Add(1)
	go o.corroborate(ctx, gen)

	if routed := o.redeemPendingInvite(ctx); !routed {
		o.nav.SetRoute(navigation.Target{Route: navigation.RouteDashboard})
	}
}

// corroborate refreshes the session against the live provider, best-effort.
// A result that lands after a state transition is discarded via the
// generation check. Failures are swallowed in favor of the persisted record.
func (o *Orchestrator) corroborate(ctx context.Context, gen uint64) {
	defer o.background.Done()

	refreshCtx, cancel := context.WithTimeout(ctx, timeouts.SessionRefresh)
	defer cancel()
	refreshed, err := o.client.RefreshSession(refreshCtx)
	if err != nil {
		o.logger.Printf("WARN restore: session corroboration failed, keeping persisted session: %v", err)
		return
	}
	normalized, err := session.Normalize(refreshed)
	if err != nil {
		o.logger.Printf("WARN restore: corroboration returned unusable session: %v", err)
		return
	}

	o.mu.Lock()
	if o.generation != gen || o.state != session.StateAuthenticated {
		o.mu.Unlock()
		return
	}
	o.current = normalized
	o.mu.Unlock()

	if err := o.sessions.Save(ctx, normalized); err != nil {
		o.logger.Printf("ERROR restore: persist refreshed session: %v", err)
		return
	}

	// A transition may have landed while the save was in flight; the stale
	// copy must not outlive the state that superseded it. Re-check and
	// converge storage to whatever is current now.
	o.mu.Lock()
	if o.generation == gen {
		o.mu.Unlock()
		return
	}
	current := o.current
	authenticated := o.state == session.StateAuthenticated
	o.mu.Unlock()

	if authenticated {
		if err := o.sessions.Save(ctx, current); err != nil {
			o.logger.Printf("ERROR restore: re-persist current session: %v", err)
		}
		return
	}
	if err := o.sessions.Clear(ctx); err != nil {
		o.logger.Printf("ERROR restore: clear superseded session: %v", err)
	}
}

// adoptSession applies a newly obtained session: transition to Authenticated,
// persist wholesale, reset the invite guard on principal change, and run the
// invite redemption check. Returns whether a route was set and whether the
// orchestrator was already Authenticated. An unusable session is rejected
// with an error and leaves state untouched; callers surface it without
// routing anywhere.
func (o *Orchestrator) adoptSession(ctx context.Context, sess session.Session) (routed bool, wasAuthenticated bool, err error) {
	normalized, err := session.Normalize(sess)
	if err != nil {
		return false, false, err
	}

	o.mu.Lock()
	wasAuthenticated = o.state == session.StateAuthenticated
	if wasAuthenticated && o.current.UserID != normalized.UserID {
		// Different principal signed in: the invite guard is per-principal.
		o.inviteGuard = false
	}
	if !wasAuthenticated {
		o.inviteGuard = false
	}
	o.state = session.StateAuthenticated
	o.current = normalized
	o.generation++
	o.mu.Unlock()

	if err := o.sessions.Save(ctx, normalized); err != nil {
		// Failing to persist risks forcing re-authentication next launch, so
		// surface it as retryable rather than swallowing.
		o.logger.Printf("ERROR persist session: %v", err)
		o.reportError(apperrors.Wrap(apperrors.CodeSessionPersistFailed, "persist session", err))
	}

	return o.redeemPendingInvite(ctx), wasAuthenticated, nil
}

// redeemPendingInvite runs the invite redemption check for the current
// Authenticated state. Returns whether it set a navigation route.
//
// The processed-invite guard makes the check a no-op once it has redeemed for
// this principal. A failed redemption leaves the cache and guard untouched so
// a user-triggered retry is still allowed; retries are never automatic.
func (o *Orchestrator) redeemPendingInvite(ctx context.Context) bool {
	o.mu.Lock()
	if o.state != session.StateAuthenticated || o.inviteGuard {
		o.mu.Unlock()
		return false
	}
	gen := o.generation
	o.mu.Unlock()

	ref, found, err := o.invites.Load(ctx)
	if err != nil {
		o.logger.Printf("ERROR invite check: load cached reference: %v", err)
		return false
	}
	if !found {
		return false
	}

	// A reference with only a party id needs no redemption: the user already
	// holds a direct pointer to the party.
	if ref.Token == "" {
		o.mu.Lock()
		if o.generation != gen {
			o.mu.Unlock()
			return false
		}
		o.inviteGuard = true
		o.mu.Unlock()
		if err := o.invites.Clear(ctx); err != nil {
			o.logger.Printf("ERROR invite check: clear reference: %v", err)
		}
		o.nav.SetRoute(navigation.Party(ref.PartyID, false))
		return true
	}

	result := o.redeemer.Redeem(ctx, ref.Token)

	o.mu.Lock()
	if o.generation != gen || o.state != session.StateAuthenticated {
		o.mu.Unlock()
		return false
	}
	if !result.Succeeded() {
		o.mu.Unlock()
		o.reportError(result.Err)
		return false
	}
	o.inviteGuard = true
	o.mu.Unlock()

	// Cleared unconditionally once redemption succeeded, before any further
	// step can fail, to guarantee at-most-once redemption per link-open.
	if err := o.invites.Clear(ctx); err != nil {
		o.logger.Printf("ERROR invite check: clear redeemed reference: %v", err)
	}
	if result.Outcome == invite.OutcomeAccepted {
		o.nav.ReportSuccess("Invite accepted", "You're in. Welcome to the party!")
	}
	o.nav.SetRoute(navigation.Party(result.PartyID, false))
	return true
}

// Logout explicitly ends the current session.
//
// The state flips to LoggingOut and the generation is bumped first, so any
// in-flight restoration, refresh, or redemption completion is discarded. The
// remote sign-out is fire-and-forget: local state is already cleared and the
// user must not be blocked from leaving.
func (o *Orchestrator) Logout(ctx context.Context) {
	o.mu.Lock()
	o.state = session.StateLoggingOut
	o.current = session.Session{}
	o.inviteGuard = false
	o.generation++
	o.mu.Unlock()

	o.background.Add(1)
	go func() {
		defer o.background.Done()
		signOutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.BackendRequest)
		defer cancel()
		if err := o.client.SignOut(signOutCtx); err != nil {
			o.logger.Printf("WARN logout: remote sign-out failed: %v", err)
		}
	}()

	if err := o.sessions.Clear(ctx); err != nil {
		o.logger.Printf("ERROR logout: clear persisted session: %v", err)
	}
	// The invite cache is cleared on logout so a stale invite is never
	// applied to a different account after a switch.
	if err := o.invites.Clear(ctx); err != nil {
		o.logger.Printf("ERROR logout: clear invite cache: %v", err)
	}

	o.mu.Lock()
	o.state = session.StateUnauthenticated
	o.generation++
	o.mu.Unlock()
	o.nav.SetRoute(navigation.Target{Route: navigation.RouteLogin})
}

// reportError resolves a locale-appropriate message and publishes it through
// the navigator's transient error surface. The core never raises across the
// UI boundary.
func (o *Orchestrator) reportError(err error) {
	code := apperrors.CodeOf(err)
	metadata := map[string]string{}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) && domainErr.Metadata != nil {
		metadata = domainErr.Metadata
	}
	message := i18n.GetCatalog(o.locale).Format(string(code), metadata)
	o.logger.Printf("ERROR %s: %v", code, err)
	o.nav.ReportError(message)
}
