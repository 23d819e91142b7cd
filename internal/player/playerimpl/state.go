package playerimpl

import (
	"time"

	"github.com/orgball2608/insta-story-player/internal/player"
)

// state is the timer state of the active item. Exactly one variant is live
// per session.
type state interface {
	phase() player.Phase
	elapsed(now time.Time, allocated time.Duration) time.Duration
}

// idleState waits for the readiness signal of the active item.
type idleState struct{}

// runningState counts watched time from startedAt on top of base, the
// elapsed time carried over from earlier pause/resume cycles.
type runningState struct {
	startedAt time.Time
	base      time.Duration
}

type pausedState struct {
	elapsedBeforePause time.Duration
}

// advancingState freezes the item that is being left.
type advancingState struct {
	watched time.Duration
}

type finishedState struct {
	watched time.Duration
	err     error
}

type closedState struct {
	watched time.Duration
}

func (idleState) phase() player.Phase      { return player.PhaseIdle }
func (runningState) phase() player.Phase   { return player.PhaseRunning }
func (pausedState) phase() player.Phase    { return player.PhasePaused }
func (advancingState) phase() player.Phase { return player.PhaseAdvancing }
func (finishedState) phase() player.Phase  { return player.PhaseFinished }
func (closedState) phase() player.Phase    { return player.PhaseClosed }

func (idleState) elapsed(time.Time, time.Duration) time.Duration { return 0 }

func (s runningState) elapsed(now time.Time, allocated time.Duration) time.Duration {
	d := now.Sub(s.startedAt)
	if d < 0 {
		d = 0
	}
	return clamp(s.base+d, allocated)
}

func (s pausedState) elapsed(_ time.Time, allocated time.Duration) time.Duration {
	return clamp(s.elapsedBeforePause, allocated)
}

func (s advancingState) elapsed(_ time.Time, allocated time.Duration) time.Duration {
	return clamp(s.watched, allocated)
}

func (s finishedState) elapsed(_ time.Time, allocated time.Duration) time.Duration {
	return clamp(s.watched, allocated)
}

func (s closedState) elapsed(_ time.Time, allocated time.Duration) time.Duration {
	return clamp(s.watched, allocated)
}

func clamp(d, limit time.Duration) time.Duration {
	if d > limit {
		return limit
	}
	if d < 0 {
		return 0
	}
	return d
}

// fraction maps watched time onto [0, 1].
func fraction(elapsed, allocated time.Duration) float64 {
	if allocated <= 0 {
		return 0
	}
	f := float64(elapsed) / float64(allocated)
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}
