package ingestimpl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/ingest"
	"github.com/orgball2608/insta-story-player/internal/repositories/story"
	"github.com/orgball2608/insta-story-player/pkg/logger"
	"go.uber.org/fx"
)

const (
	maxConcurrent = 4
	writeTimeout  = 5 * time.Second
)

type Opts struct {
	fx.In

	Logger    logger.Logger
	Clock     clockwork.Clock
	StoryRepo story.Repository
}

type IngestImpl struct {
	logger    logger.Logger
	clock     clockwork.Clock
	storyRepo story.Repository
	validate  *validator.Validate
}

func New(opts Opts) *IngestImpl {
	return &IngestImpl{
		logger:    opts.Logger.WithComponent("Ingest"),
		clock:     opts.Clock,
		storyRepo: opts.StoryRepo,
		validate:  validator.New(),
	}
}

var _ ingest.Client = (*IngestImpl)(nil)

var Module = fx.Provide(
	fx.Annotate(
		New,
		fx.As(new(ingest.Client)),
	),
)

type outcome int

const (
	outcomeImported outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (i *IngestImpl) Import(ctx context.Context, stories []ingest.StoryInput) (ingest.Result, error) {
	if len(stories) == 0 {
		return ingest.Result{}, ingest.ErrEmptyBatch
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		semaphore = make(chan struct{}, maxConcurrent)
		result    = ingest.Result{Total: len(stories)}
	)

	for _, in := range stories {
		wg.Add(1)
		go func(in ingest.StoryInput) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			o, err := i.importOne(ctx, in)

			mu.Lock()
			defer mu.Unlock()
			switch o {
			case outcomeImported:
				result.Imported++
			case outcomeSkipped:
				result.Skipped++
			case outcomeFailed:
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", in.StoryID, err))
			}
		}(in)
	}

	wg.Wait()

	i.logger.Info("Story import completed",
		"total", result.Total,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (i *IngestImpl) importOne(ctx context.Context, in ingest.StoryInput) (outcome, error) {
	if err := i.validate.Struct(in); err != nil {
		return outcomeFailed, fmt.Errorf("invalid story: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	exists, err := i.storyExists(ctx, in.StoryID)
	if err != nil {
		return outcomeFailed, fmt.Errorf("failed to check story existence: %w", err)
	}
	if exists {
		i.logger.Debug("Story already stored", "story_id", in.StoryID)
		return outcomeSkipped, nil
	}

	if err := i.storyRepo.Create(ctx, i.toStory(in)); err != nil {
		if errors.Is(err, story.ErrAlreadyExists) {
			return outcomeSkipped, nil
		}
		i.logger.Error("Failed to save story", "story_id", in.StoryID, "error", err)
		return outcomeFailed, fmt.Errorf("failed to save story: %w", err)
	}

	return outcomeImported, nil
}

func (i *IngestImpl) storyExists(ctx context.Context, storyID string) (bool, error) {
	_, err := i.storyRepo.GetByStoryID(ctx, storyID)
	if err != nil {
		if errors.Is(err, story.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (i *IngestImpl) toStory(in ingest.StoryInput) domain.Story {
	takenAt := in.TakenAt
	if takenAt.IsZero() {
		takenAt = i.clock.Now()
	}

	return domain.Story{
		StoryID:   in.StoryID,
		UserName:  strings.TrimPrefix(in.Username, "@"),
		MediaKind: domain.MediaKind(in.MediaKind),
		MediaURL:  in.MediaURL,
		Caption:   in.Caption,
		Duration:  time.Duration(in.DurationMs) * time.Millisecond,
		TakenAt:   takenAt,
	}
}
