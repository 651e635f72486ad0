package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(CodeNetworkTimeout, "request timed out", errors.New("deadline"))
	if !errors.Is(err, New(CodeNetworkTimeout, "")) {
		t.Fatal("expected match by code")
	}
	if errors.Is(err, New(CodeNetworkUnavailable, "")) {
		t.Fatal("expected no match for different code")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeStorageUnavailable, "put session envelope", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeSessionExpired, "expired"))
	if got := CodeOf(err); got != CodeSessionExpired {
		t.Fatalf("expected CodeSessionExpired, got %v", got)
	}
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected CodeUnknown, got %v", got)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Fatalf("expected CodeUnknown for nil, got %v", got)
	}
}

func TestRetryable(t *testing.T) {
	if !CodeNetworkTimeout.Retryable() {
		t.Fatal("network timeout should be retryable")
	}
	if !CodeSessionPersistFailed.Retryable() {
		t.Fatal("persist failure should be retryable")
	}
	if CodeInviteTokenInvalid.Retryable() {
		t.Fatal("invalid token should not be retryable")
	}
}

func TestWithMetadata(t *testing.T) {
	err := WithMetadata(CodeBackendRejected, "rejected", map[string]string{"Message": "nope"})
	if err.Metadata["Message"] != "nope" {
		t.Fatalf("unexpected metadata %+v", err.Metadata)
	}
	if err.Error() != "rejected" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
