package storyview

import (
	"context"
	"errors"
	"time"

	"github.com/orgball2608/insta-story-player/internal/domain"
)

var ErrCannotRecord = errors.New("error record story view")

//go:generate go run go.uber.org/mock/mockgen -source=storyview.go -destination=mocks/mock.go

type Repository interface {
	// Record upserts the view of (StoryID, Viewer). The stored watched time
	// never decreases and a completed view stays completed.
	Record(ctx context.Context, view domain.StoryView) error
	ListByViewer(ctx context.Context, viewer string, limit uint64) ([]*domain.StoryView, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
