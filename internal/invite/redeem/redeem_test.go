package redeem

import (
	"context"
	"errors"
	"testing"

	"github.com/tylergberg/crew-core/internal/invite"
	apperrors "github.com/tylergberg/crew-core/internal/platform/errors"
	"github.com/tylergberg/crew-core/internal/session"
)

type fakeClient struct {
	redeemPartyID string
	redeemAlready bool
	redeemErr     error
	redeemCalls   []string
	redeemKeys    []string

	lookupPartyID string
	lookupErr     error
	lookupCalls   []string
}

func (f *fakeClient) GetSession(context.Context) (session.Session, bool, error) {
	return session.Session{}, false, nil
}

func (f *fakeClient) RefreshSession(context.Context) (session.Session, error) {
	return session.Session{}, nil
}

func (f *fakeClient) SignOut(context.Context) error { return nil }

func (f *fakeClient) ExchangeCode(context.Context, string) (session.Session, error) {
	return session.Session{}, nil
}

func (f *fakeClient) RedeemInvite(_ context.Context, token, idempotencyKey string) (string, bool, error) {
	f.redeemCalls = append(f.redeemCalls, token)
	f.redeemKeys = append(f.redeemKeys, idempotencyKey)
	return f.redeemPartyID, f.redeemAlready, f.redeemErr
}

func (f *fakeClient) LookupInviteByToken(_ context.Context, token string) (string, error) {
	f.lookupCalls = append(f.lookupCalls, token)
	return f.lookupPartyID, f.lookupErr
}

func TestRedeemAccepted(t *testing.T) {
	client := &fakeClient{redeemPartyID: "party-42"}
	result := New(client).Redeem(context.Background(), "tok-1")

	if result.Outcome != invite.OutcomeAccepted {
		t.Fatalf("expected accepted, got %v", result.Outcome)
	}
	if result.PartyID != "party-42" {
		t.Fatalf("expected party-42, got %q", result.PartyID)
	}
	if len(client.lookupCalls) != 0 {
		t.Fatal("expected no lookup when party id is echoed")
	}
	if len(client.redeemKeys) != 1 || client.redeemKeys[0] == "" {
		t.Fatalf("expected an idempotency key, got %v", client.redeemKeys)
	}
}

func TestRedeemFallsBackToLookup(t *testing.T) {
	client := &fakeClient{lookupPartyID: "party-7"}
	result := New(client).Redeem(context.Background(), "tok-1")

	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.PartyID != "party-7" {
		t.Fatalf("expected party-7, got %q", result.PartyID)
	}
	if len(client.lookupCalls) != 1 || client.lookupCalls[0] != "tok-1" {
		t.Fatalf("unexpected lookup calls %v", client.lookupCalls)
	}
}

func TestRedeemAlreadyMemberFlag(t *testing.T) {
	client := &fakeClient{redeemPartyID: "party-3", redeemAlready: true}
	result := New(client).Redeem(context.Background(), "tok-1")

	if result.Outcome != invite.OutcomeAlreadyMember {
		t.Fatalf("expected already-member, got %v", result.Outcome)
	}
	if !result.Succeeded() {
		t.Fatal("already-member is a success variant")
	}
}

func TestRedeemAlreadyMemberRejection(t *testing.T) {
	client := &fakeClient{
		redeemErr:     apperrors.New(apperrors.CodeInviteAlreadyMember, "already a member"),
		lookupPartyID: "party-3",
	}
	result := New(client).Redeem(context.Background(), "tok-1")

	if result.Outcome != invite.OutcomeAlreadyMember {
		t.Fatalf("expected already-member, got %+v", result)
	}
	if result.PartyID != "party-3" {
		t.Fatalf("expected recovered party id, got %q", result.PartyID)
	}
	if result.Err != nil {
		t.Fatalf("already-member must not surface an error, got %v", result.Err)
	}
}

func TestRedeemBackendFailure(t *testing.T) {
	client := &fakeClient{redeemErr: apperrors.New(apperrors.CodeNetworkTimeout, "timeout")}
	result := New(client).Redeem(context.Background(), "tok-1")

	if result.Succeeded() {
		t.Fatal("expected failure")
	}
	if apperrors.CodeOf(result.Err) != apperrors.CodeNetworkTimeout {
		t.Fatalf("expected NETWORK_TIMEOUT, got %v", apperrors.CodeOf(result.Err))
	}
	if len(client.lookupCalls) != 0 {
		t.Fatal("expected no lookup after a hard failure")
	}
}

func TestRedeemFallbackFailure(t *testing.T) {
	client := &fakeClient{lookupErr: errors.New("gone")}
	result := New(client).Redeem(context.Background(), "tok-1")

	if result.Succeeded() {
		t.Fatal("expected failure")
	}
	if apperrors.CodeOf(result.Err) != apperrors.CodeInvitePartyMissing {
		t.Fatalf("expected INVITE_PARTY_MISSING, got %v", apperrors.CodeOf(result.Err))
	}
}

func TestRedeemFallbackEmptyPartyID(t *testing.T) {
	client := &fakeClient{}
	result := New(client).Redeem(context.Background(), "tok-1")

	if result.Succeeded() {
		t.Fatal("expected failure when no party id can be resolved")
	}
	if apperrors.CodeOf(result.Err) != apperrors.CodeInvitePartyMissing {
		t.Fatalf("expected INVITE_PARTY_MISSING, got %v", apperrors.CodeOf(result.Err))
	}
}

func TestRedeemEmptyToken(t *testing.T) {
	client := &fakeClient{}
	result := New(client).Redeem(context.Background(), "   ")

	if result.Succeeded() {
		t.Fatal("expected failure")
	}
	if !errors.Is(result.Err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", result.Err)
	}
	if len(client.redeemCalls) != 0 {
		t.Fatal("expected no backend call for an empty token")
	}
}

func TestRedeemKeyGenerationFailure(t *testing.T) {
	client := &fakeClient{redeemPartyID: "party-1"}
	r := New(client)
	r.keyGenerator = func() (string, error) { return "", errors.New("entropy exhausted") }

	result := r.Redeem(context.Background(), "tok-1")
	if result.Succeeded() {
		t.Fatal("expected failure when no idempotency key can be generated")
	}
	if len(client.redeemCalls) != 0 {
		t.Fatal("expected no backend call without an idempotency key")
	}
}

func TestRedeemFreshIdempotencyKeyPerAttempt(t *testing.T) {
	client := &fakeClient{redeemPartyID: "party-1"}
	r := New(client)
	r.Redeem(context.Background(), "tok-1")
	r.Redeem(context.Background(), "tok-1")

	if len(client.redeemKeys) != 2 {
		t.Fatalf("expected two attempts, got %d", len(client.redeemKeys))
	}
	if client.redeemKeys[0] == client.redeemKeys[1] {
		t.Fatal("expected a fresh idempotency key per attempt")
	}
}
