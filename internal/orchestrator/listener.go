package orchestrator

import (
	"context"

	"github.com/tylergberg/crew-core/internal/backend"
	"github.com/tylergberg/crew-core/internal/navigation"
	"github.com/tylergberg/crew-core/internal/session"
)

// pump drains provider events serially, in arrival order, until the context
// ends. Applying events one at a time on a single goroutine is what upholds
// the ordering guarantee: a SignedOut emitted before a later SignedIn can
// never be applied after it.
func (o *Orchestrator) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-o.events:
			if !ok {
				return
			}
			o.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent applies one typed auth provider event.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev backend.Event) {
	switch ev.Kind {
	case backend.EventSignedIn, backend.EventInitialSession, backend.EventTokenRefreshed, backend.EventUserUpdated:
		if ev.Session == nil {
			// An initial-session probe with no session carries no transition;
			// restoration already decided the resting state.
			return
		}
		routed, wasAuthenticated, err := o.adoptSession(ctx, *ev.Session)
		if err != nil {
			o.reportError(err)
			return
		}
		if !routed && !wasAuthenticated {
			// Fresh sign-in with no pending invite lands on the dashboard.
			// Refreshes of an existing session leave the route alone.
			o.nav.SetRoute(navigation.Target{Route: navigation.RouteDashboard})
		}

	case backend.EventSignedOut, backend.EventUserDeleted:
		o.mu.Lock()
		o.state = session.StateUnauthenticated
		o.current = session.Session{}
		o.inviteGuard = false
		o.generation++
		o.mu.Unlock()

		if err := o.sessions.Clear(ctx); err != nil {
			o.logger.Printf("ERROR signed out: clear persisted session: %v", err)
		}
		o.nav.SetRoute(navigation.Target{Route: navigation.RouteLogin})

	default:
		o.logger.Printf("WARN unhandled auth event kind %v", ev.Kind)
	}
}
