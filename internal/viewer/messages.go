package viewer

import (
	"time"

	"github.com/orgball2608/insta-story-player/internal/player"
)

// TickMsg redraws the progress bars.
type TickMsg time.Time

// EventMsg wraps a session event forwarded by the bridge.
type EventMsg struct {
	Event player.Event
}

// ProbedMsg carries the outcome of loading one item's media.
type ProbedMsg struct {
	Index    int
	Duration time.Duration
	Err      error
}
