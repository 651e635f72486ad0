package deeplink

import "testing"

func TestClassifyTable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Intent
	}{
		{
			name: "invite with path token and email query",
			raw:  "/invite/abc123?email=a@b.com",
			want: Intent{Kind: KindInvite, Token: "abc123", Email: "a@b.com"},
		},
		{
			name: "invite with query token",
			raw:  "https://crew.app/invite?token=tok-9&partyId=p-1",
			want: Intent{Kind: KindInvite, Token: "tok-9", PartyID: "p-1"},
		},
		{
			name: "invite custom scheme",
			raw:  "crew://invite/TOK123",
			want: Intent{Kind: KindInvite, Token: "TOK123"},
		},
		{
			name: "invite without parameters",
			raw:  "/invite",
			want: Intent{Kind: KindUnrecognized},
		},
		{
			name: "party open with chat suffix",
			raw:  "/party/9f1c2d3e/chat",
			want: Intent{Kind: KindPartyOpen, PartyID: "9f1c2d3e", OpenChat: true},
		},
		{
			name: "party open plain",
			raw:  "https://crew.app/party/9f1c2d3e",
			want: Intent{Kind: KindPartyOpen, PartyID: "9f1c2d3e"},
		},
		{
			name: "auth callback",
			raw:  "/auth/callback?code=xyz",
			want: Intent{Kind: KindAuthCallback, Code: "xyz"},
		},
		{
			name: "auth callback without code",
			raw:  "/auth/callback",
			want: Intent{Kind: KindUnrecognized},
		},
		{
			name: "email verification v1 path",
			raw:  "/auth/v1/verify?token=vt-1",
			want: Intent{Kind: KindEmailVerification, Token: "vt-1"},
		},
		{
			name: "email verification short path",
			raw:  "/auth/verify",
			want: Intent{Kind: KindEmailVerification},
		},
		{
			name: "game recording open",
			raw:  "/game-record/rec-77",
			want: Intent{Kind: KindGameRecordingOpen, Token: "rec-77"},
		},
		{
			name: "unknown path",
			raw:  "/unknown/path",
			want: Intent{Kind: KindUnrecognized},
		},
		{
			name: "unparseable url",
			raw:  "http://bad url^%",
			want: Intent{Kind: KindUnrecognized},
		},
		{
			name: "empty input",
			raw:  "",
			want: Intent{Kind: KindUnrecognized},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.raw)
			if got != tc.want {
				t.Fatalf("Classify(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestClassifyTrailingSlash(t *testing.T) {
	got := Classify("/party/p-1/")
	if got.Kind != KindPartyOpen || got.PartyID != "p-1" || got.OpenChat {
		t.Fatalf("expected plain party open, got %+v", got)
	}
}

func TestKindLabels(t *testing.T) {
	if KindInvite.String() != "INVITE" {
		t.Fatalf("unexpected label %q", KindInvite.String())
	}
	if Kind(99).String() != "UNRECOGNIZED" {
		t.Fatalf("unexpected label for unknown kind %q", Kind(99).String())
	}
}
