package crewd

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"strings"
	"testing"
)

func TestParseConfig(t *testing.T) {
	fs := flag.NewFlagSet("crewd", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-locale", "pt-BR"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Locale != "pt-BR" {
		t.Fatalf("expected pt-BR locale, got %q", cfg.Locale)
	}

	fs = flag.NewFlagSet("crewd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, []string{"-bogus"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestRunAppliesLocaleOverride(t *testing.T) {
	t.Setenv("CREW_LOCALE", "en-US")
	t.Setenv("CREW_SESSION_HMAC_KEY", "")

	err := Run(context.Background(), Config{Locale: "pt-BR"}, strings.NewReader(""), log.New(io.Discard, "", 0))
	if err == nil {
		t.Fatal("expected configuration error with no HMAC key")
	}
	if got := os.Getenv("CREW_LOCALE"); got != "pt-BR" {
		t.Fatalf("expected locale override applied before startup, got %q", got)
	}
}
