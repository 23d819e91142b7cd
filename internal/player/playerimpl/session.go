package playerimpl

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/player"
	apperrors "github.com/orgball2608/insta-story-player/pkg/errors"
	"github.com/orgball2608/insta-story-player/pkg/logger"
)

// Session is the playback controller of one viewing session.
//
// All transitions happen under mu. Events are queued while the lock is held
// and delivered afterwards by whichever goroutine finds the queue idle, so
// observers see them in transition order and may call back into the session.
type Session struct {
	id        string
	viewer    string
	items     []domain.StoryItem
	clock     clockwork.Clock
	logger    logger.Logger
	settings  Settings
	observers []player.Observer
	onFinish  func(error)

	mu        sync.Mutex
	index     int
	allocated time.Duration
	state     state
	// ready holds readiness that arrived before its item became active,
	// keyed by index, valued by the reported media duration.
	ready map[int]time.Duration

	// The single timer slot. gen invalidates callbacks of replaced timers.
	timer clockwork.Timer
	gen   uint64

	pending  []player.Event
	draining bool
	done     chan struct{}
}

var _ player.Session = (*Session)(nil)

func newSession(
	clock clockwork.Clock,
	log logger.Logger,
	settings Settings,
	items []domain.StoryItem,
	viewer string,
	observers []player.Observer,
	onFinish func(error),
) *Session {
	s := &Session{
		id:        uuid.NewString(),
		viewer:    viewer,
		items:     append([]domain.StoryItem(nil), items...),
		clock:     clock,
		settings:  settings,
		observers: observers,
		onFinish:  onFinish,
		allocated: items[0].NominalDuration,
		state:     idleState{},
		ready:     make(map[int]time.Duration),
		done:      make(chan struct{}),
	}
	s.logger = log.WithComponent("Session")

	s.mu.Lock()
	defer s.unlockAndDispatch()

	s.logger.Debug("Story session opened", "session_id", s.id, "items", len(items), "viewer", viewer)
	s.emit(player.EventOpened, nil)
	s.enterIdle(0)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) MarkReady(index int, mediaDuration time.Duration) error {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if index < 0 || index >= len(s.items) {
		return apperrors.WrapWithCode(
			fmt.Errorf("%w: %d not in [0, %d)", player.ErrIndexOutOfRange, index, len(s.items)),
			apperrors.CodePlayerIndexRange,
			"cannot mark story ready",
		)
	}
	if s.state.phase().Terminal() || index < s.index {
		return nil
	}
	if index > s.index {
		s.ready[index] = mediaDuration
		return nil
	}
	if _, ok := s.state.(idleState); !ok {
		return nil
	}

	s.start(mediaDuration)
	return nil
}

func (s *Session) PressIn() {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	running, ok := s.state.(runningState)
	if !ok {
		return
	}

	elapsed := running.elapsed(s.clock.Now(), s.allocated)
	if elapsed >= s.allocated {
		// The allocation ran out before the hold; completion wins.
		s.complete()
		return
	}

	s.cancelTimer()
	s.state = pausedState{elapsedBeforePause: elapsed}
	s.emit(player.EventPaused, nil)
}

func (s *Session) PressOut() {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	paused, ok := s.state.(pausedState)
	if !ok {
		return
	}

	s.state = runningState{startedAt: s.clock.Now(), base: paused.elapsedBeforePause}
	s.armTimer(s.allocated-paused.elapsedBeforePause, s.onCompleteTimer)
	s.emit(player.EventResumed, nil)
}

// Skip forces completion of the active item.
func (s *Session) Skip() {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if s.state.phase().Terminal() {
		return
	}

	watched := s.state.elapsed(s.clock.Now(), s.allocated)
	s.cancelTimer()
	s.state = advancingState{watched: watched}
	s.emit(player.EventSkipped, nil)
	s.state = advancingState{watched: s.allocated}
	s.advance()
}

// Close tears the session down. Pending timers are cancelled and no event
// follows EventClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if s.state.phase().Terminal() {
		return
	}

	watched := s.state.elapsed(s.clock.Now(), s.allocated)
	s.cancelTimer()
	s.state = closedState{watched: watched}
	s.ready = nil
	close(s.done)
	s.logger.Debug("Story session closed", "session_id", s.id, "index", s.index)
	s.emit(player.EventClosed, nil)
}

func (s *Session) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Session) Progress() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress(s.clock.Now())
}

func (s *Session) Snapshot() player.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	return player.Snapshot{
		SessionID: s.id,
		Index:     s.index,
		Total:     len(s.items),
		Phase:     s.state.phase(),
		Elapsed:   s.state.elapsed(now, s.allocated),
		Allocated: s.allocated,
		Progress:  s.progress(now),
	}
}

func (s *Session) progress(now time.Time) []float64 {
	out := make([]float64, len(s.items))
	for i := 0; i < s.index; i++ {
		out[i] = 1
	}
	out[s.index] = fraction(s.state.elapsed(now, s.allocated), s.allocated)
	return out
}

// enterIdle makes index the active item with a fresh timer state.
func (s *Session) enterIdle(index int) {
	s.cancelTimer()
	s.index = index
	s.allocated = s.items[index].NominalDuration
	s.state = idleState{}

	if index > 0 {
		s.emit(player.EventIndexChanged, nil)
	}

	if d, ok := s.ready[index]; ok {
		s.start(d)
		return
	}

	if s.settings.ReadyTimeout > 0 {
		s.armTimer(s.settings.ReadyTimeout, s.onReadyTimeout)
	}
}

func (s *Session) start(mediaDuration time.Duration) {
	delete(s.ready, s.index)
	s.allocated = s.allocationFor(s.items[s.index], mediaDuration)
	s.state = runningState{startedAt: s.clock.Now()}
	s.armTimer(s.allocated, s.onCompleteTimer)
	s.emit(player.EventStarted, nil)
}

// allocationFor reconciles a video's slot with the duration its media
// reported. Images keep their nominal duration.
func (s *Session) allocationFor(item domain.StoryItem, mediaDuration time.Duration) time.Duration {
	if !item.IsVideo() || mediaDuration <= 0 {
		return item.NominalDuration
	}
	if s.settings.MaxVideoDuration > 0 && mediaDuration > s.settings.MaxVideoDuration {
		return s.settings.MaxVideoDuration
	}
	return mediaDuration
}

func (s *Session) complete() {
	s.cancelTimer()
	s.state = advancingState{watched: s.allocated}
	s.emit(player.EventCompleted, nil)
	s.advance()
}

// advance leaves the advancing state: the next item goes idle, or the
// session finishes after the last one.
func (s *Session) advance() {
	if s.index < len(s.items)-1 {
		s.enterIdle(s.index + 1)
		return
	}
	s.finish(nil)
}

// finish is the terminal transition. The active index stays where it is.
func (s *Session) finish(err error) {
	watched := s.state.elapsed(s.clock.Now(), s.allocated)
	s.cancelTimer()
	s.state = finishedState{watched: watched, err: err}
	s.ready = nil
	close(s.done)
	s.logger.Info("Story session finished", "session_id", s.id, "items", len(s.items), "error", err)
	s.emit(player.EventFinished, err)
}

func (s *Session) onCompleteTimer(gen uint64) {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if gen != s.gen {
		return
	}
	s.timer = nil

	if _, ok := s.state.(runningState); !ok {
		return
	}
	s.complete()
}

func (s *Session) onReadyTimeout(gen uint64) {
	s.mu.Lock()
	defer s.unlockAndDispatch()

	if gen != s.gen {
		return
	}
	s.timer = nil

	if _, ok := s.state.(idleState); !ok {
		return
	}

	s.logger.Warn("Story media not ready in time",
		"session_id", s.id,
		"index", s.index,
		"story_id", s.items[s.index].ID,
		"timeout", s.settings.ReadyTimeout,
		"policy", s.settings.StallPolicy,
	)

	s.state = advancingState{}
	s.emit(player.EventStalled, nil)

	if s.settings.StallPolicy == player.StallAbort {
		s.finish(apperrors.WrapWithCode(player.ErrReadyTimeout, apperrors.CodePlayerReadyTimeout, "story session aborted"))
		return
	}
	s.advance()
}

// armTimer replaces the timer slot with a new timer.
func (s *Session) armTimer(d time.Duration, fire func(gen uint64)) {
	s.cancelTimer()
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() {
		fire(gen)
	})
}

func (s *Session) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Session) emit(t player.EventType, err error) {
	item := s.items[s.index]
	s.pending = append(s.pending, player.Event{
		Type:      t,
		SessionID: s.id,
		Viewer:    s.viewer,
		Index:     s.index,
		Total:     len(s.items),
		Item:      item,
		Elapsed:   s.state.elapsed(s.clock.Now(), s.allocated),
		Allocated: s.allocated,
		Err:       err,
		At:        s.clock.Now(),
	})
}

// unlockAndDispatch releases mu and drains the event queue unless another
// goroutine is already draining it.
func (s *Session) unlockAndDispatch() {
	if s.draining {
		s.mu.Unlock()
		return
	}

	s.draining = true
	for len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
		s.deliver(ev)
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

func (s *Session) deliver(ev player.Event) {
	for _, o := range s.observers {
		s.notify(o, ev)
	}

	if ev.Type == player.EventFinished && s.onFinish != nil {
		s.onFinish(ev.Err)
	}
}

func (s *Session) notify(o player.Observer, ev player.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in session observer",
				"session_id", s.id,
				"event", ev.Type.String(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	o.OnEvent(ev)
}
