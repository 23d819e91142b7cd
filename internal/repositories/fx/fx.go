package fx

import (
	"github.com/orgball2608/insta-story-player/internal/repositories/story"
	"github.com/orgball2608/insta-story-player/internal/repositories/storyview"
	"go.uber.org/fx"
)

var Module = fx.Options(
	story.Module,
	storyview.Module,
)
