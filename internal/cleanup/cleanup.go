package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/insta-story-player/internal/repositories/story"
	"github.com/orgball2608/insta-story-player/internal/repositories/storyview"
	"github.com/orgball2608/insta-story-player/pkg/config"
	"github.com/orgball2608/insta-story-player/pkg/logger"
	"go.uber.org/fx"
)

const runTimeout = 5 * time.Minute

type Opts struct {
	fx.In

	Config    *config.Config
	Logger    logger.Logger
	Clock     clockwork.Clock
	StoryRepo story.Repository
	ViewsRepo storyview.Repository
}

// Cleaner expires stories past their TTL and views past their retention.
type Cleaner struct {
	logger        logger.Logger
	clock         clockwork.Clock
	location      *time.Location
	storyTTL      time.Duration
	viewRetention time.Duration
	storyRepo     story.Repository
	viewsRepo     storyview.Repository

	job gocron.Job
}

func New(opts Opts) *Cleaner {
	log := opts.Logger.WithComponent("Cleanup")

	loc, err := time.LoadLocation(opts.Config.Cleanup.Location)
	if err != nil {
		log.Warn("Failed to load cleanup timezone, using local timezone", "location", opts.Config.Cleanup.Location, "error", err)
		loc = time.Local
	}

	return &Cleaner{
		logger:        log,
		clock:         opts.Clock,
		location:      loc,
		storyTTL:      opts.Config.Cleanup.StoryTTL,
		viewRetention: opts.Config.Cleanup.ViewRetention,
		storyRepo:     opts.StoryRepo,
		viewsRepo:     opts.ViewsRepo,
	}
}

// Start schedules the daily cleanup at 03:00 and stops it when ctx is done.
func (c *Cleaner) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(c.location),
		gocron.WithClock(c.clock),
	)
	if err != nil {
		return fmt.Errorf("failed to create cleanup scheduler: %w", err)
	}

	c.job, err = scheduler.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0)),
		),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				c.logger.Info("Context cancelled, skipping cleanup run")
				return
			}
			if _, _, err := c.RunOnce(ctx); err != nil {
				c.logger.Error("Scheduled cleanup failed", "error", err)
			}
		}),
		gocron.WithName("story-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	scheduler.Start()
	c.logger.Info("Cleanup scheduled", "story_ttl", c.storyTTL, "view_retention", c.viewRetention, "location", c.location.String())

	go func() {
		<-ctx.Done()
		c.logger.Info("Stopping cleanup scheduler")
		if err := scheduler.Shutdown(); err != nil {
			c.logger.Error("Failed to shut down cleanup scheduler", "error", err)
		}
	}()

	return nil
}

// NextRun reports when the scheduled cleanup fires next.
func (c *Cleaner) NextRun() (time.Time, error) {
	if c.job == nil {
		return time.Time{}, fmt.Errorf("cleanup is not scheduled")
	}
	return c.job.NextRun()
}

// RunOnce deletes expired stories and views. A zero TTL or retention keeps
// the corresponding rows forever.
func (c *Cleaner) RunOnce(ctx context.Context) (stories, views int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	now := c.clock.Now()
	c.logger.Info("Starting cleanup run")

	if c.storyTTL > 0 {
		stories, err = c.storyRepo.DeleteOlderThan(ctx, now.Add(-c.storyTTL))
		if err != nil {
			return 0, 0, fmt.Errorf("failed to delete expired stories: %w", err)
		}
	}

	if c.viewRetention > 0 {
		views, err = c.viewsRepo.DeleteOlderThan(ctx, now.Add(-c.viewRetention))
		if err != nil {
			return stories, 0, fmt.Errorf("failed to delete old story views: %w", err)
		}
	}

	c.logger.Info("Cleanup completed successfully", "stories_deleted", stories, "views_deleted", views)
	return stories, views, nil
}
