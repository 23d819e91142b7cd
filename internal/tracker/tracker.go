package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/player"
	"github.com/orgball2608/insta-story-player/internal/repositories/storyview"
	"github.com/orgball2608/insta-story-player/pkg/logger"
	"github.com/orgball2608/insta-story-player/pkg/retry"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/fx"
)

const (
	poolSize      = 5
	recordTimeout = 10 * time.Second
)

type Opts struct {
	fx.In
	LC        fx.Lifecycle
	Logger    logger.Logger
	ViewsRepo storyview.Repository
}

// Tracker persists how much of each story a viewer watched. Writes run on
// a worker pool so observers never block the session.
type Tracker struct {
	logger   logger.Logger
	repo     storyview.Repository
	pool     *ants.Pool
	retryCfg retry.Config

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func New(opts Opts) (*Tracker, error) {
	t, err := NewTracker(opts.Logger, opts.ViewsRepo, retry.DefaultConfig())
	if err != nil {
		return nil, err
	}

	opts.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			t.Stop()
			return nil
		},
	})

	return t, nil
}

func NewTracker(log logger.Logger, repo storyview.Repository, retryCfg retry.Config) (*Tracker, error) {
	pool, err := ants.NewPool(poolSize, ants.WithPreAlloc(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create tracker pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		logger:   log.WithComponent("Tracker"),
		repo:     repo,
		pool:     pool,
		retryCfg: retryCfg,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

var _ player.Observer = (*Tracker)(nil)

func (t *Tracker) OnEvent(ev player.Event) {
	view, ok := viewFromEvent(ev)
	if !ok {
		return
	}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		t.logger.Warn("Tracker stopped, dropping story view", "story_id", view.StoryID, "viewer", view.Viewer)
		return
	}
	t.wg.Add(1)
	t.mu.Unlock()

	err := t.pool.Submit(func() {
		defer t.wg.Done()
		t.record(view)
	})
	if err != nil {
		t.wg.Done()
		t.logger.Error("Failed to submit view to ants pool", "story_id", view.StoryID, "error", err)
	}
}

// viewFromEvent maps the events that leave an item to the view they
// produce. Closing mid-item records a partial view.
func viewFromEvent(ev player.Event) (domain.StoryView, bool) {
	if ev.Viewer == "" {
		return domain.StoryView{}, false
	}

	switch ev.Type {
	case player.EventCompleted, player.EventSkipped, player.EventStalled:
	case player.EventClosed:
		if ev.Elapsed <= 0 {
			return domain.StoryView{}, false
		}
	default:
		return domain.StoryView{}, false
	}

	return domain.StoryView{
		StoryID:   ev.Item.ID,
		Viewer:    ev.Viewer,
		Watched:   ev.Elapsed,
		Completed: ev.Type == player.EventCompleted,
		ViewedAt:  ev.At,
	}, true
}

func (t *Tracker) record(view domain.StoryView) {
	ctx, cancel := context.WithTimeout(t.ctx, recordTimeout)
	defer cancel()

	err := retry.Do(ctx, t.logger, "record_story_view", func() error {
		return t.repo.Record(ctx, view)
	}, t.retryCfg)
	if err != nil {
		t.logger.Error("Failed to record story view",
			"story_id", view.StoryID,
			"viewer", view.Viewer,
			"error", err,
		)
		return
	}

	t.logger.Debug("Story view recorded",
		"story_id", view.StoryID,
		"viewer", view.Viewer,
		"watched", view.Watched,
		"completed", view.Completed,
	)
}

// Wait blocks until every submitted view has been written or given up on.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Stop drains pending writes and releases the pool. Views arriving after
// Stop are dropped.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()

	t.Wait()
	t.cancel()
	t.pool.Release()
}
