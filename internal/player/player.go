package player

import (
	"errors"
	"time"

	"github.com/orgball2608/insta-story-player/internal/domain"
)

var (
	ErrEmptySession    = errors.New("story session has no items")
	ErrInvalidItem     = errors.New("invalid story item")
	ErrIndexOutOfRange = errors.New("story index out of range")
	ErrReadyTimeout    = errors.New("story media was not ready in time")
)

// Phase is the timer phase of the active item.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhasePaused
	PhaseAdvancing
	PhaseFinished
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseAdvancing:
		return "advancing"
	case PhaseFinished:
		return "finished"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseClosed
}

// StallPolicy decides what happens when an item never signals readiness.
type StallPolicy string

const (
	StallSkip  StallPolicy = "skip"
	StallAbort StallPolicy = "abort"
)

type EventType int

const (
	EventOpened EventType = iota
	EventStarted
	EventPaused
	EventResumed
	EventCompleted
	EventSkipped
	EventStalled
	EventIndexChanged
	EventFinished
	EventClosed
)

func (t EventType) String() string {
	switch t {
	case EventOpened:
		return "opened"
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventCompleted:
		return "completed"
	case EventSkipped:
		return "skipped"
	case EventStalled:
		return "stalled"
	case EventIndexChanged:
		return "index_changed"
	case EventFinished:
		return "finished"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is emitted on every session transition, in transition order.
type Event struct {
	Type      EventType
	SessionID string
	Viewer    string
	Index     int
	Total     int
	Item      domain.StoryItem
	Elapsed   time.Duration
	Allocated time.Duration
	Err       error
	At        time.Time
}

type Observer interface {
	OnEvent(ev Event)
}

type ObserverFunc func(ev Event)

func (f ObserverFunc) OnEvent(ev Event) {
	f(ev)
}

// Snapshot is a consistent read of a session's state.
type Snapshot struct {
	SessionID string
	Index     int
	Total     int
	Phase     Phase
	Elapsed   time.Duration
	Allocated time.Duration
	Progress  []float64
}

// Session plays one fixed, ordered list of story items.
type Session interface {
	ID() string
	// MarkReady signals that the media of item index finished loading.
	// mediaDuration is the playback length reported by the media layer,
	// or zero when unknown.
	MarkReady(index int, mediaDuration time.Duration) error
	PressIn()
	PressOut()
	Skip()
	Close()
	ActiveIndex() int
	Progress() []float64
	Snapshot() Snapshot
	// Done is closed once the session is finished or closed.
	Done() <-chan struct{}
}

type Factory interface {
	NewSession(items []domain.StoryItem, opts ...SessionOption) (Session, error)
}

type SessionOptions struct {
	Viewer    string
	Observers []Observer
	OnFinish  func(err error)
}

type SessionOption func(*SessionOptions)

// WithViewer tags every event of the session with the viewer identity.
func WithViewer(viewer string) SessionOption {
	return func(o *SessionOptions) {
		o.Viewer = viewer
	}
}

func WithObserver(observer Observer) SessionOption {
	return func(o *SessionOptions) {
		o.Observers = append(o.Observers, observer)
	}
}

// WithOnFinish registers the callback invoked exactly once when the last
// item completes. err is non-nil when the session was aborted.
func WithOnFinish(fn func(err error)) SessionOption {
	return func(o *SessionOptions) {
		o.OnFinish = fn
	}
}
