package viewer

import "github.com/orgball2608/insta-story-player/internal/player"

// EventBridge forwards session events into the bubbletea loop. Sends never
// block the session; a dropped event is recovered by the next tick, which
// re-reads the snapshot.
type EventBridge struct {
	ch chan player.Event
}

func NewEventBridge(size int) *EventBridge {
	return &EventBridge{ch: make(chan player.Event, size)}
}

func (b *EventBridge) OnEvent(ev player.Event) {
	select {
	case b.ch <- ev:
	default:
	}
}

func (b *EventBridge) Events() <-chan player.Event {
	return b.ch
}
