package navigation

import "testing"

func TestSetRouteOverwrites(t *testing.T) {
	nav := New()
	if got := nav.CurrentRoute(); got.Route != RouteLogin {
		t.Fatalf("expected initial login route, got %v", got.Route)
	}

	nav.SetRoute(Target{Route: RouteDashboard})
	nav.SetRoute(Party("party-42", true))

	got := nav.CurrentRoute()
	if got.Route != RouteParty || got.PartyID != "party-42" || !got.OpenChat {
		t.Fatalf("expected most recent decision to win, got %+v", got)
	}
}

func TestSubscribeAndCancel(t *testing.T) {
	nav := New()

	var seen []Target
	cancel := nav.Subscribe(func(target Target) {
		seen = append(seen, target)
	})

	nav.SetRoute(Target{Route: RouteDashboard})
	cancel()
	nav.SetRoute(Target{Route: RouteSignup})

	if len(seen) != 1 {
		t.Fatalf("expected one observed route, got %d", len(seen))
	}
	if seen[0].Route != RouteDashboard {
		t.Fatalf("expected observed dashboard route, got %v", seen[0].Route)
	}
}

func TestErrorNoticeFiresOnce(t *testing.T) {
	nav := New()

	if _, ok := nav.ConsumeError(); ok {
		t.Fatal("expected no pending error")
	}

	nav.ReportError("first")
	nav.ReportError("second")

	message, ok := nav.ConsumeError()
	if !ok || message != "second" {
		t.Fatalf("expected latest error message, got %q ok=%v", message, ok)
	}
	if _, ok := nav.ConsumeError(); ok {
		t.Fatal("expected error to be consumed once")
	}
}

func TestSuccessNoticeFiresOnce(t *testing.T) {
	nav := New()

	nav.ReportSuccess("Invite accepted", "Welcome")
	notice, ok := nav.ConsumeSuccess()
	if !ok || notice.Title != "Invite accepted" || notice.Message != "Welcome" {
		t.Fatalf("unexpected notice %+v ok=%v", notice, ok)
	}
	if _, ok := nav.ConsumeSuccess(); ok {
		t.Fatal("expected success to be consumed once")
	}
}

func TestRouteLabels(t *testing.T) {
	tests := []struct {
		route Route
		want  string
	}{
		{RouteDashboard, "DASHBOARD"},
		{RouteParty, "PARTY"},
		{RouteLogin, "LOGIN"},
		{RouteSignup, "SIGNUP"},
		{RoutePhoneAuth, "PHONE_AUTH"},
		{RouteGameRecording, "GAME_RECORDING"},
		{Route(99), "UNSPECIFIED"},
	}
	for _, tc := range tests {
		if got := tc.route.String(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
