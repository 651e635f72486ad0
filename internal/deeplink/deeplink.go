// Package deeplink classifies inbound universal/deep links into typed intents.
package deeplink

import (
	"net/url"
	"strings"
)

// Kind identifies the closed set of link intents.
type Kind int

const (
	// KindUnrecognized covers any link the core does not route.
	KindUnrecognized Kind = iota
	// KindInvite carries an invite token and/or target party id.
	KindInvite
	// KindAuthCallback carries an auth exchange code.
	KindAuthCallback
	// KindEmailVerification follows a verification email.
	KindEmailVerification
	// KindPartyOpen opens a party directly, optionally on its chat tab.
	KindPartyOpen
	// KindGameRecordingOpen opens a game recording flow by token.
	KindGameRecordingOpen
)

// String returns the label for a link kind.
func (k Kind) String() string {
	switch k {
	case KindInvite:
		return "INVITE"
	case KindAuthCallback:
		return "AUTH_CALLBACK"
	case KindEmailVerification:
		return "EMAIL_VERIFICATION"
	case KindPartyOpen:
		return "PARTY_OPEN"
	case KindGameRecordingOpen:
		return "GAME_RECORDING_OPEN"
	default:
		return "UNRECOGNIZED"
	}
}

// Intent is a classified link with its extracted parameters.
// Only the fields relevant to Kind are populated.
type Intent struct {
	Kind     Kind
	Token    string // invite, email verification, game recording
	PartyID  string // invite, party open
	Email    string // invite referrer email
	Code     string // auth callback exchange code
	OpenChat bool   // party open with /chat suffix
}

// Classify parses a raw URL into an intent. It is a pure function: it never
// touches auth state and never errors, mapping anything unparseable or
// unknown to KindUnrecognized.
func Classify(raw string) Intent {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Intent{Kind: KindUnrecognized}
	}

	path := parsed.Path
	// Custom-scheme links (crew://invite/abc) surface the first segment as
	// the URL host rather than the leading path element.
	if parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" && parsed.Host != "" {
		path = "/" + parsed.Host + path
	}
	path = strings.TrimRight(path, "/")
	query := parsed.Query()

	switch {
	case path == "/invite" || strings.HasPrefix(path, "/invite/"):
		intent := Intent{
			Kind:    KindInvite,
			Token:   query.Get("token"),
			PartyID: query.Get("partyId"),
			Email:   query.Get("email"),
		}
		if rest := strings.TrimPrefix(path, "/invite"); rest != "" && intent.Token == "" {
			intent.Token = firstSegment(rest)
		}
		if intent.Token == "" && intent.PartyID == "" {
			return Intent{Kind: KindUnrecognized}
		}
		return intent

	case path == "/auth/callback":
		code := query.Get("code")
		if code == "" {
			return Intent{Kind: KindUnrecognized}
		}
		return Intent{Kind: KindAuthCallback, Code: code}

	case path == "/auth/v1/verify" || path == "/auth/verify":
		return Intent{Kind: KindEmailVerification, Token: query.Get("token")}

	case strings.HasPrefix(path, "/party/"):
		rest := strings.TrimPrefix(path, "/party/")
		partyID := firstSegment("/" + rest)
		if partyID == "" {
			return Intent{Kind: KindUnrecognized}
		}
		openChat := strings.HasSuffix(rest, "/chat")
		return Intent{Kind: KindPartyOpen, PartyID: partyID, OpenChat: openChat}

	case strings.HasPrefix(path, "/game-record/"):
		token := firstSegment(strings.TrimPrefix(path, "/game-record"))
		if token == "" {
			return Intent{Kind: KindUnrecognized}
		}
		return Intent{Kind: KindGameRecordingOpen, Token: token}
	}

	return Intent{Kind: KindUnrecognized}
}

// firstSegment returns the first path segment of a "/a/b" style suffix.
func firstSegment(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}
