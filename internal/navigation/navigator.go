// Package navigation holds the single current route decision for the
// presentation layer.
package navigation

import "sync"

// Route identifies a navigation destination.
type Route int

const (
	// RouteDashboard is the authenticated home surface.
	RouteDashboard Route = iota
	// RouteParty opens one party, optionally on its chat tab.
	RouteParty
	// RouteLogin is the sign-in surface.
	RouteLogin
	// RouteSignup is the account creation surface.
	RouteSignup
	// RoutePhoneAuth is the phone verification surface.
	RoutePhoneAuth
	// RouteGameRecording opens the game recording flow by token.
	RouteGameRecording
)

// String returns the label for a route.
func (r Route) String() string {
	switch r {
	case RouteDashboard:
		return "DASHBOARD"
	case RouteParty:
		return "PARTY"
	case RouteLogin:
		return "LOGIN"
	case RouteSignup:
		return "SIGNUP"
	case RoutePhoneAuth:
		return "PHONE_AUTH"
	case RouteGameRecording:
		return "GAME_RECORDING"
	default:
		return "UNSPECIFIED"
	}
}

// Target is one resolved navigation decision.
type Target struct {
	Route    Route
	PartyID  string // RouteParty
	OpenChat bool   // RouteParty
	Token    string // RouteGameRecording
}

// Party builds a party target.
func Party(partyID string, openChat bool) Target {
	return Target{Route: RouteParty, PartyID: partyID, OpenChat: openChat}
}

// Notice is a fire-once success notification.
type Notice struct {
	Title   string
	Message string
}

// Navigator is the process-wide route holder. The orchestrator and link
// dispatch write it; the presentation layer observes it read-only. The most
// recent decision wins; targets are overwritten, never queued.
type Navigator struct {
	mu      sync.Mutex
	current Target
	subs    map[int]func(Target)
	nextSub int

	errMessage string
	errSet     bool
	success    Notice
	successSet bool
}

// New creates a navigator starting at the login route.
func New() *Navigator {
	return &Navigator{
		current: Target{Route: RouteLogin},
		subs:    map[int]func(Target){},
	}
}

// SetRoute publishes a new current route and notifies subscribers.
func (n *Navigator) SetRoute(target Target) {
	n.mu.Lock()
	n.current = target
	observers := make([]func(Target), 0, len(n.subs))
	for _, fn := range n.subs {
		observers = append(observers, fn)
	}
	n.mu.Unlock()

	for _, fn := range observers {
		fn(target)
	}
}

// CurrentRoute returns the most recently published target.
func (n *Navigator) CurrentRoute() Target {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Subscribe registers an observer for route changes and returns its cancel
// function. Observers are invoked after each publish, in no particular order.
func (n *Navigator) Subscribe(fn func(Target)) func() {
	n.mu.Lock()
	id := n.nextSub
	n.nextSub++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// ReportError publishes a transient user-visible error message. A newer
// message replaces an unconsumed one.
func (n *Navigator) ReportError(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errMessage = message
	n.errSet = true
}

// ConsumeError returns and clears the pending error message, if any.
func (n *Navigator) ConsumeError() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.errSet {
		return "", false
	}
	message := n.errMessage
	n.errMessage = ""
	n.errSet = false
	return message, true
}

// ReportSuccess publishes a transient success notice. A newer notice replaces
// an unconsumed one.
func (n *Navigator) ReportSuccess(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success = Notice{Title: title, Message: message}
	n.successSet = true
}

// ConsumeSuccess returns and clears the pending success notice, if any.
func (n *Navigator) ConsumeSuccess() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.successSet {
		return Notice{}, false
	}
	notice := n.success
	n.success = Notice{}
	n.successSet = false
	return notice, true
}
