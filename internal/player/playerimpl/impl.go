package playerimpl

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/player"
	"github.com/orgball2608/insta-story-player/pkg/config"
	apperrors "github.com/orgball2608/insta-story-player/pkg/errors"
	"github.com/orgball2608/insta-story-player/pkg/logger"
	"go.uber.org/fx"
)

// Settings tunes the controller. A zero ReadyTimeout waits forever for
// readiness.
type Settings struct {
	MaxVideoDuration time.Duration
	ReadyTimeout     time.Duration
	StallPolicy      player.StallPolicy
}

func DefaultSettings() Settings {
	return Settings{
		MaxVideoDuration: 60 * time.Second,
		ReadyTimeout:     15 * time.Second,
		StallPolicy:      player.StallSkip,
	}
}

func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	if cfg.Player.MaxVideoDuration > 0 {
		s.MaxVideoDuration = cfg.Player.MaxVideoDuration
	}
	s.ReadyTimeout = cfg.Player.ReadyTimeout
	if cfg.Player.StallPolicy == string(player.StallAbort) {
		s.StallPolicy = player.StallAbort
	}
	return s
}

type Opts struct {
	fx.In

	Config    *config.Config
	Logger    logger.Logger
	Clock     clockwork.Clock
	Observers []player.Observer `group:"player_observers"`
}

type PlayerImpl struct {
	clock     clockwork.Clock
	logger    logger.Logger
	settings  Settings
	observers []player.Observer
	validate  *validator.Validate
}

func New(opts Opts) *PlayerImpl {
	return NewWithSettings(opts.Clock, opts.Logger, SettingsFromConfig(opts.Config), opts.Observers...)
}

// NewWithSettings builds a factory whose sessions report to observers in
// addition to the observers passed per session.
func NewWithSettings(clock clockwork.Clock, log logger.Logger, settings Settings, observers ...player.Observer) *PlayerImpl {
	return &PlayerImpl{
		clock:     clock,
		logger:    log.WithComponent("Player"),
		settings:  settings,
		observers: observers,
		validate:  validator.New(),
	}
}

var _ player.Factory = (*PlayerImpl)(nil)

func (p *PlayerImpl) NewSession(items []domain.StoryItem, opts ...player.SessionOption) (player.Session, error) {
	if len(items) == 0 {
		return nil, apperrors.WrapWithCode(player.ErrEmptySession, apperrors.CodePlayerEmptySession, "cannot start story session")
	}

	for i, item := range items {
		if err := p.validate.Struct(item); err != nil {
			return nil, apperrors.WrapWithCode(
				fmt.Errorf("%w: item %d: %v", player.ErrInvalidItem, i, err),
				apperrors.CodePlayerInvalidItem,
				"cannot start story session",
			)
		}
	}

	var o player.SessionOptions
	for _, opt := range opts {
		opt(&o)
	}

	observers := make([]player.Observer, 0, len(p.observers)+len(o.Observers))
	observers = append(observers, p.observers...)
	observers = append(observers, o.Observers...)

	return newSession(p.clock, p.logger, p.settings, items, o.Viewer, observers, o.OnFinish), nil
}
