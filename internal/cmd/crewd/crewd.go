// Package crewd runs the core as a standalone daemon for development and
// driver use: deep links arrive one per line on stdin, and route decisions
// plus transient notices are echoed to the log.
package crewd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/tylergberg/crew-core/internal/app"
	"github.com/tylergberg/crew-core/internal/navigation"
)

// Config holds crewd command configuration.
type Config struct {
	Locale string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{}
	fs.StringVar(&cfg.Locale, "locale", "", "override CREW_LOCALE for user-facing messages")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the core and dispatches links from in until EOF or ctx end.
func Run(ctx context.Context, cfg Config, in io.Reader, logger *log.Logger) error {
	if cfg.Locale != "" {
		if err := os.Setenv("CREW_LOCALE", cfg.Locale); err != nil {
			return fmt.Errorf("set locale: %w", err)
		}
	}

	core, err := app.New(ctx, logger)
	if err != nil {
		return fmt.Errorf("build core: %w", err)
	}

	unsubscribe := core.Navigator.Subscribe(func(target navigation.Target) {
		logger.Printf("route -> %s %s", target.Route, routeDetail(target))
	})
	defer unsubscribe()

	core.Start(ctx)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "logout" {
			core.Orchestrator.Logout(ctx)
		} else {
			core.Orchestrator.HandleLink(ctx, line)
		}
		drainNotices(core.Navigator, logger)
	}
	if err := scanner.Err(); err != nil {
		logger.Printf("WARN read links: %v", err)
	}

	return core.Close(context.WithoutCancel(ctx))
}

func routeDetail(target navigation.Target) string {
	switch target.Route {
	case navigation.RouteParty:
		if target.OpenChat {
			return target.PartyID + " (chat)"
		}
		return target.PartyID
	case navigation.RouteGameRecording:
		return target.Token
	default:
		return ""
	}
}

func drainNotices(nav *navigation.Navigator, logger *log.Logger) {
	if message, ok := nav.ConsumeError(); ok {
		logger.Printf("error: %s", message)
	}
	if notice, ok := nav.ConsumeSuccess(); ok {
		logger.Printf("success: %s: %s", notice.Title, notice.Message)
	}
}
