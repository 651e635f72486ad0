// Package app assembles the core: configuration, local stores, the backend
// client, and the orchestrator. Lifecycle is owned here by the composition
// root; nothing in the core relies on process-wide singletons.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tylergberg/crew-core/internal/backend/rest"
	"github.com/tylergberg/crew-core/internal/invite/cache"
	"github.com/tylergberg/crew-core/internal/invite/redeem"
	"github.com/tylergberg/crew-core/internal/navigation"
	"github.com/tylergberg/crew-core/internal/orchestrator"
	"github.com/tylergberg/crew-core/internal/platform/config"
	platformotel "github.com/tylergberg/crew-core/internal/platform/otel"
	"github.com/tylergberg/crew-core/internal/session/securestore"
)

// Config holds core configuration from the environment.
type Config struct {
	SessionDBPath  string `env:"CREW_SESSION_DB"       envDefault:"crew-session.db"`
	InviteDBPath   string `env:"CREW_INVITE_DB"        envDefault:"crew-invites.db"`
	SessionHMACKey string `env:"CREW_SESSION_HMAC_KEY"`
	Locale         string `env:"CREW_LOCALE"           envDefault:"en-US"`
}

// LoadConfigFromEnv reads and validates app configuration.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.SessionHMACKey) == "" {
		return Config{}, fmt.Errorf("CREW_SESSION_HMAC_KEY is required")
	}
	return cfg, nil
}

// App owns the assembled core and its resources.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	Navigator    *navigation.Navigator

	secure       *securestore.Store
	invites      *cache.Cache
	otelShutdown func(context.Context) error
}

// New builds the core from environment configuration.
func New(ctx context.Context, logger *log.Logger) (*App, error) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	backendCfg, err := rest.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	otelShutdown, err := platformotel.Setup(ctx, "crew-core")
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	secure, err := securestore.Open(cfg.SessionDBPath, cfg.SessionHMACKey)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("open secure session store: %w", err)
	}
	invites, err := cache.Open(cfg.InviteDBPath)
	if err != nil {
		_ = secure.Close()
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("open invite cache: %w", err)
	}

	client := rest.New(backendCfg)
	nav := navigation.New()

	orch, err := orchestrator.New(orchestrator.Deps{
		Sessions:  secure,
		Invites:   invites,
		Redeemer:  redeem.New(client),
		Client:    client,
		Events:    client.Events(),
		Navigator: nav,
		Locale:    cfg.Locale,
		Clock:     time.Now,
		Logger:    logger,
	})
	if err != nil {
		_ = invites.Close()
		_ = secure.Close()
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}

	return &App{
		Orchestrator: orch,
		Navigator:    nav,
		secure:       secure,
		invites:      invites,
		otelShutdown: otelShutdown,
	}, nil
}

// Start restores the session and begins draining provider events.
func (a *App) Start(ctx context.Context) {
	a.Orchestrator.Start(ctx)
}

// Close waits for background work and releases resources.
func (a *App) Close(ctx context.Context) error {
	a.Orchestrator.Wait()
	var firstErr error
	if err := a.invites.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.secure.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.otelShutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
