package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/insta-story-player/internal/cleanup"
	"github.com/orgball2608/insta-story-player/internal/command"
	"github.com/orgball2608/insta-story-player/internal/command/commandimpl"
	"github.com/orgball2608/insta-story-player/internal/ingest/ingestimpl"
	"github.com/orgball2608/insta-story-player/internal/metrics"
	"github.com/orgball2608/insta-story-player/internal/migrations"
	"github.com/orgball2608/insta-story-player/internal/player"
	"github.com/orgball2608/insta-story-player/internal/player/playerimpl"
	repositories "github.com/orgball2608/insta-story-player/internal/repositories/fx"
	"github.com/orgball2608/insta-story-player/internal/telegram"
	"github.com/orgball2608/insta-story-player/internal/telegram/telegramimpl"
	"github.com/orgball2608/insta-story-player/internal/tracker"
	"github.com/orgball2608/insta-story-player/pkg/config"
	"github.com/orgball2608/insta-story-player/pkg/logger"
	"github.com/orgball2608/insta-story-player/pkg/pgx"
	"go.uber.org/fx"
)

const commandRestartDelay = 5 * time.Second

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		clockwork.NewRealClock,
		func(pool *pgxpool.Pool) Pinger { return pool },
	),
	pgx.Module,
	repositories.Module,
	metrics.Module,
	tracker.Module,
	fx.Provide(
		fx.Annotate(
			playerimpl.New,
			fx.As(new(player.Factory)),
		),
		cleanup.New,
	),
	ingestimpl.Module,
	telegramimpl.Module,
	commandimpl.Module,
	fx.Invoke(runMigrations),
	fx.Invoke(startHttpServer),
	fx.Invoke(run),
)

func runMigrations(lc fx.Lifecycle, log logger.Logger, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			db, err := migrations.Open(cfg.GetDSN())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrations.Run(ctx, db, "up"); err != nil {
				return err
			}
			log.Info("Migrations applied")
			return nil
		},
	})
}

func run(lc fx.Lifecycle, log logger.Logger, clock clockwork.Clock, tgClient telegram.Client,
	cmdClient command.Client, cleaner *cleanup.Cleaner) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := cleaner.Start(ctx); err != nil {
				log.Error("Schedule cleanup error", "Error", err)
				tgClient.SendMessageToUser("Schedule cleanup error: " + err.Error())
			}

			go handleCommands(ctx, log, clock, tgClient, cmdClient)

			tgClient.SendMessageToUser("Story player started")
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// handleCommands restarts the command loop until ctx is done.
func handleCommands(ctx context.Context, log logger.Logger, clock clockwork.Clock, tgClient telegram.Client, cmdClient command.Client) {
	for {
		err := cmdClient.HandleCommand(ctx)
		if ctx.Err() != nil {
			return
		}

		log.Error("Command error", "Error", err)
		tgClient.SendMessageToUser("Command error: " + err.Error())

		select {
		case <-ctx.Done():
			return
		case <-clock.After(commandRestartDelay):
		}
	}
}
