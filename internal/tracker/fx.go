package tracker

import (
	"github.com/orgball2608/insta-story-player/internal/player"
	"go.uber.org/fx"
)

func asObserver(t *Tracker) player.Observer {
	return t
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(
		fx.Annotate(
			asObserver,
			fx.ResultTags(`group:"player_observers"`),
		),
	),
)
