package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/player"
	"github.com/orgball2608/insta-story-player/internal/player/playerimpl"
	"github.com/orgball2608/insta-story-player/internal/repositories/story"
	"github.com/orgball2608/insta-story-player/internal/repositories/storyview"
	"github.com/orgball2608/insta-story-player/internal/tracker"
	"github.com/orgball2608/insta-story-player/internal/viewer"
	"github.com/orgball2608/insta-story-player/pkg/config"
	"github.com/orgball2608/insta-story-player/pkg/logger"
	"github.com/orgball2608/insta-story-player/pkg/retry"
)

func main() {
	username := flag.String("user", "", "instagram username whose stories are played")
	viewerName := flag.String("viewer", "", "identity views are recorded under (default $USER)")
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()

	viewerID := viewerIdentity(*viewerName, os.Getenv)
	if err := run(strings.TrimPrefix(*username, "@"), viewerID, *logPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// viewerIdentity names the local person watching, not the story owner.
func viewerIdentity(name string, getenv func(string) string) string {
	if name == "" {
		name = getenv("USER")
	}
	if name == "" {
		name = "anonymous"
	}
	return "terminal:" + name
}

func run(username, viewerID, logPath string) error {
	if username == "" {
		return fmt.Errorf("usage: viewer -user <username>")
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	var out io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	log := logger.New(logger.Opts{Env: "production", Out: out})

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()

	clock := clockwork.NewRealClock()
	stories, err := story.NewPgxRepository(pool, log).ListActive(ctx, username, clock.Now().Add(-cfg.Cleanup.StoryTTL))
	if err != nil {
		return err
	}
	if len(stories) == 0 {
		return fmt.Errorf("@%s has no active stories", username)
	}
	items := domain.Items(stories, cfg.Player.ImageDuration, cfg.Player.VideoFallbackDuration)

	views, err := tracker.NewTracker(log, storyview.NewPgxRepository(pool, log), retry.DefaultConfig())
	if err != nil {
		return err
	}
	defer views.Stop()

	bridge := viewer.NewEventBridge(64)
	factory := playerimpl.NewWithSettings(clock, log, playerimpl.SettingsFromConfig(cfg), bridge, views)

	session, err := factory.NewSession(items, player.WithViewer(viewerID))
	if err != nil {
		return err
	}
	defer session.Close()

	prober := viewer.NewHTTPProber(&http.Client{Timeout: 10 * time.Second}, log, retry.DefaultConfig())
	model := viewer.New(username, items, session, bridge.Events(), prober)

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("viewer failed: %w", err)
	}
	return nil
}
