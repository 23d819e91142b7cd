package commandimpl

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/insta-story-player/internal/command"
	"github.com/orgball2608/insta-story-player/internal/player"
	"github.com/orgball2608/insta-story-player/internal/ratelimit"
	"github.com/orgball2608/insta-story-player/internal/repositories/story"
	"github.com/orgball2608/insta-story-player/internal/repositories/storyview"
	"github.com/orgball2608/insta-story-player/internal/telegram"
	"github.com/orgball2608/insta-story-player/pkg/config"
	"github.com/orgball2608/insta-story-player/pkg/logger"
	"github.com/orgball2608/insta-story-player/pkg/retry"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Telegram  telegram.Client
	Player    player.Factory
	StoryRepo story.Repository
	ViewsRepo storyview.Repository
	Clock     clockwork.Clock
	Logger    logger.Logger
	Config    *config.Config
}

type CommandImpl struct {
	Telegram  telegram.Client
	Player    player.Factory
	StoryRepo story.Repository
	ViewsRepo storyview.Repository
	Clock     clockwork.Clock
	Logger    logger.Logger
	Config    *config.Config

	limiter    ratelimit.Limiter
	cmdLimiter ratelimit.Limiter
	retryCfg   retry.Config

	mu      sync.Mutex
	watches map[int64]*watch
	wg      sync.WaitGroup
}

func New(opts Opts) *CommandImpl {
	return &CommandImpl{
		Telegram:   opts.Telegram,
		Player:     opts.Player,
		StoryRepo:  opts.StoryRepo,
		ViewsRepo:  opts.ViewsRepo,
		Clock:      opts.Clock,
		Logger:     opts.Logger.WithComponent("Command"),
		Config:     opts.Config,
		limiter:    ratelimit.NewInMemoryLimiter(opts.Clock, 1, opts.Config.Player.RefreshInterval, 1),
		cmdLimiter: ratelimit.NewInMemoryLimiter(opts.Clock, 10, time.Minute, 5),
		retryCfg:   retry.DefaultConfig(),
		watches:    make(map[int64]*watch),
	}
}

var _ command.Client = (*CommandImpl)(nil)

var Module = fx.Provide(
	fx.Annotate(
		New,
		fx.As(new(command.Client)),
	),
)
