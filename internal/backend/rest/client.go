// Package rest implements the backend contract over the HTTP/JSON API.
//
// Auth endpoints live under /auth/v1 and invite procedures under
// /rest/v1/rpc, matching the hosted backend-as-a-service the mobile clients
// talk to. The client holds the provider-side token pair for authorized
// calls; the orchestrator remains the owner of the persisted session record.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tylergberg/crew-core/internal/backend"
	"github.com/tylergberg/crew-core/internal/platform/config"
	apperrors "github.com/tylergberg/crew-core/internal/platform/errors"
	"github.com/tylergberg/crew-core/internal/platform/timeouts"
	"github.com/tylergberg/crew-core/internal/session"
)

const eventBuffer = 64

// Config holds REST backend configuration.
type Config struct {
	BaseURL string `env:"CREW_API_URL"`
	APIKey  string `env:"CREW_API_KEY"`
}

// LoadConfigFromEnv reads and validates backend configuration.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("CREW_API_URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return Config{}, fmt.Errorf("CREW_API_URL is invalid: %w", err)
	}
	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("CREW_API_KEY is required")
	}
	return cfg, nil
}

// Client talks to the backend over HTTP/JSON and surfaces passively detected
// provider state changes (a revoked or deleted remote session) as events.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string

	mu      sync.Mutex
	current *session.Session

	events chan backend.Event
}

// New creates a REST client from config.
func New(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeouts.BackendRequest},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		events:     make(chan backend.Event, eventBuffer),
	}
}

// Events exposes the ordered provider event stream.
func (c *Client) Events() <-chan backend.Event {
	return c.events
}

// sessionPayload is the wire form of an auth session response.
type sessionPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID string `json:"id"`
	} `json:"user"`
}

func (p sessionPayload) toSession(now time.Time) session.Session {
	expiresAt := time.Unix(p.ExpiresAt, 0).UTC()
	if p.ExpiresAt == 0 {
		expiresAt = now.Add(time.Duration(p.ExpiresIn) * time.Second).UTC()
	}
	return session.Session{
		UserID:       p.User.ID,
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    expiresAt,
	}
}

// GetSession asks the provider whether the held credentials still map to a
// live session. With no held credentials it reports absence without a network
// call; a provider-side rejection of the held token also reports absence, so
// callers polling during a verification wait see a clean not-yet rather than
// a hard failure.
func (c *Client) GetSession(ctx context.Context) (session.Session, bool, error) {
	c.mu.Lock()
	var held session.Session
	hasHeld := c.current != nil
	if hasHeld {
		held = *c.current
	}
	c.mu.Unlock()
	if !hasHeld {
		return session.Session{}, false, nil
	}

	var payload struct {
		ID string `json:"id"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/auth/v1/user",
		map[string]string{"Authorization": "Bearer " + held.AccessToken}, nil, &payload)
	if err != nil {
		if errors.Is(err, apperrors.New(apperrors.CodeSessionExpired, "")) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, err
	}
	return held, true, nil
}

// RefreshSession exchanges the held refresh token for fresh credentials.
// It is idempotent and safe to call speculatively during restoration; with no
// held provider session it reports absence rather than failing hard.
func (c *Client) RefreshSession(ctx context.Context) (session.Session, error) {
	c.mu.Lock()
	var refreshToken string
	if c.current != nil {
		refreshToken = c.current.RefreshToken
	}
	c.mu.Unlock()
	if refreshToken == "" {
		return session.Session{}, apperrors.New(apperrors.CodeNotFound, "no provider session to refresh")
	}

	var payload sessionPayload
	err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", nil,
		map[string]string{"refresh_token": refreshToken}, &payload)
	if err != nil {
		return session.Session{}, err
	}
	refreshed := payload.toSession(time.Now())
	c.adopt(refreshed)
	return refreshed, nil
}

// ExchangeCode exchanges an auth-callback code for a session.
func (c *Client) ExchangeCode(ctx context.Context, code string) (session.Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return session.Session{}, apperrors.New(apperrors.CodeCodeExchangeFailed, "exchange code is required")
	}

	var payload sessionPayload
	err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=pkce", nil,
		map[string]string{"auth_code": code}, &payload)
	if err != nil {
		return session.Session{}, err
	}
	exchanged := payload.toSession(time.Now())
	c.adopt(exchanged)
	return exchanged, nil
}

// SignOut revokes the held provider session. Best-effort by contract: the
// caller treats failure as non-fatal.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	var accessToken string
	if c.current != nil {
		accessToken = c.current.AccessToken
	}
	c.current = nil
	c.mu.Unlock()
	if accessToken == "" {
		return nil
	}

	return c.doJSON(ctx, http.MethodPost, "/auth/v1/logout",
		map[string]string{"Authorization": "Bearer " + accessToken}, nil, nil)
}

// redeemPayload is the wire form of the invite redemption procedure result.
type redeemPayload struct {
	PartyID       string `json:"party_id"`
	AlreadyMember bool   `json:"already_member"`
}

// RedeemInvite calls the invite-acceptance procedure with the token.
// The party id may be empty: some backend versions only signal success.
func (c *Client) RedeemInvite(ctx context.Context, token string, idempotencyKey string) (string, bool, error) {
	headers := c.authHeaders()
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}

	var payload redeemPayload
	err := c.doJSON(ctx, http.MethodPost, "/rest/v1/rpc/redeem_invite", headers,
		map[string]string{"invite_token": token}, &payload)
	if err != nil {
		if errors.Is(err, apperrors.New(apperrors.CodeInviteAlreadyMember, "")) {
			return "", true, err
		}
		return "", false, err
	}
	return payload.PartyID, payload.AlreadyMember, nil
}

// LookupInviteByToken recovers the party id from the invite record resource.
// Used only when the redemption procedure does not echo the id.
func (c *Client) LookupInviteByToken(ctx context.Context, token string) (string, error) {
	path := "/rest/v1/invites?select=party_id&token=eq." + url.QueryEscape(token)
	var rows []struct {
		PartyID string `json:"party_id"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, c.authHeaders(), nil, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 || rows[0].PartyID == "" {
		return "", apperrors.New(apperrors.CodeNotFound, "invite record not found for token")
	}
	return rows[0].PartyID, nil
}

func (c *Client) adopt(sess session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := sess
	c.current = &copied
}

func (c *Client) authHeaders() map[string]string {
	headers := map[string]string{}
	c.mu.Lock()
	if c.current != nil && c.current.AccessToken != "" {
		headers["Authorization"] = "Bearer " + c.current.AccessToken
	}
	c.mu.Unlock()
	return headers
}

// errorPayload is the wire form of a backend error response.
type errorPayload struct {
	Message string `json:"message"`
	Msg     string `json:"msg"`
	Code    string `json:"code"`
}

func (p errorPayload) text() string {
	if p.Message != "" {
		return p.Message
	}
	return p.Msg
}

// doJSON performs one request and decodes the response into out when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, headers map[string]string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		rejection := c.classifyRejection(resp.StatusCode, raw)
		return rejection
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.CodeBackendRejected, "decode response body", err)
	}
	return nil
}

// classifyRejection maps an error response to the domain taxonomy. The
// "already a member" phrasing is distinguished so callers can remap it to a
// success variant, and a revoked or deleted remote session is surfaced as a
// provider event.
func (c *Client) classifyRejection(status int, raw []byte) error {
	var payload errorPayload
	_ = json.Unmarshal(raw, &payload)
	message := payload.text()
	lowered := strings.ToLower(message)

	switch {
	case strings.Contains(lowered, "already a member") || payload.Code == "duplicate_member":
		return apperrors.WithMetadata(apperrors.CodeInviteAlreadyMember, "backend reports existing membership",
			map[string]string{"Message": message})

	case status == http.StatusUnauthorized:
		c.mu.Lock()
		c.current = nil
		c.mu.Unlock()
		c.emit(backend.Event{Kind: backend.EventSignedOut})
		return apperrors.WithMetadata(apperrors.CodeSessionExpired, "backend rejected credentials",
			map[string]string{"Message": message})

	case status == http.StatusForbidden && strings.Contains(lowered, "user not found"):
		c.mu.Lock()
		c.current = nil
		c.mu.Unlock()
		c.emit(backend.Event{Kind: backend.EventUserDeleted})
		return apperrors.WithMetadata(apperrors.CodeSessionExpired, "backend reports deleted account",
			map[string]string{"Message": message})

	case status == http.StatusNotFound || status == http.StatusGone:
		return apperrors.WithMetadata(apperrors.CodeInviteTokenInvalid, "backend rejected token",
			map[string]string{"Message": message})

	default:
		return apperrors.WithMetadata(apperrors.CodeBackendRejected,
			fmt.Sprintf("backend rejected request with status %d", status),
			map[string]string{"Message": message})
	}
}

// classifyTransport maps a transport-layer failure to the domain taxonomy so
// the UI can show a retry affordance for connectivity problems.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.CodeNetworkTimeout, "request timed out", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return apperrors.Wrap(apperrors.CodeNetworkTimeout, "request timed out", err)
	}
	return apperrors.Wrap(apperrors.CodeNetworkUnavailable, "request failed", err)
}

// emit delivers a passively detected provider event. SignedOut and
// UserDeleted are idempotent signals, so when nothing is draining the stream
// the event is dropped rather than blocking the HTTP caller.
func (c *Client) emit(ev backend.Event) {
	select {
	case c.events <- ev:
	default:
	}
}

var _ backend.Client = (*Client)(nil)
var _ backend.EventSource = (*Client)(nil)
