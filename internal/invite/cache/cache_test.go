package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tylergberg/crew-core/internal/invite"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "invites.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	want := invite.Reference{Token: "tok-abc", PartyID: "party-1", ReferrerEmail: "friend@example.com"}
	if err := c.Store(ctx, want); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, found, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("expected stored reference")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLoadAbsence(t *testing.T) {
	c := openTestCache(t)
	_, found, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("expected empty cache")
	}
}

func TestStorePartialReference(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Store(ctx, invite.Reference{PartyID: "party-9"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, found, err := c.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got.PartyID != "party-9" || got.Token != "" {
		t.Fatalf("unexpected reference %+v", got)
	}
}

func TestStoreMergesOverExistingFields(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Store(ctx, invite.Reference{Token: "tok-1", ReferrerEmail: "a@example.com"}); err != nil {
		t.Fatalf("store first: %v", err)
	}
	// A later link that only names the party keeps the earlier token.
	if err := c.Store(ctx, invite.Reference{PartyID: "party-3"}); err != nil {
		t.Fatalf("store second: %v", err)
	}

	got, found, err := c.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	want := invite.Reference{Token: "tok-1", PartyID: "party-3", ReferrerEmail: "a@example.com"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestStoreOverwritesField(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Store(ctx, invite.Reference{Token: "tok-old"}); err != nil {
		t.Fatalf("store first: %v", err)
	}
	if err := c.Store(ctx, invite.Reference{Token: "tok-new"}); err != nil {
		t.Fatalf("store second: %v", err)
	}

	got, _, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Token != "tok-new" {
		t.Fatalf("expected newest token, got %q", got.Token)
	}
}

func TestStoreRejectsEmptyReference(t *testing.T) {
	c := openTestCache(t)
	if err := c.Store(context.Background(), invite.Reference{ReferrerEmail: "x@example.com"}); err == nil {
		t.Fatal("expected error for reference without token or party id")
	}
}

func TestClear(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Store(ctx, invite.Reference{Token: "tok-1", PartyID: "party-1"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	_, found, err := c.Load(ctx)
	if err != nil || found {
		t.Fatalf("expected empty cache after clear: found=%v err=%v", found, err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear empty: %v", err)
	}
}
