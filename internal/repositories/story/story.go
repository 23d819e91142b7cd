package story

import (
	"context"
	"errors"
	"time"

	"github.com/orgball2608/insta-story-player/internal/domain"
)

var ErrNotFound = errors.New("story not found")
var ErrCannotCreate = errors.New("error create story")
var ErrAlreadyExists = errors.New("story already exists")

//go:generate go run go.uber.org/mock/mockgen -source=story.go -destination=mocks/mock.go

type Repository interface {
	GetByStoryID(ctx context.Context, storyID string) (*domain.Story, error)
	// ListActive returns the stories of username taken after since, oldest
	// first. This is the playback order of a session.
	ListActive(ctx context.Context, username string, since time.Time) ([]*domain.Story, error)
	Create(ctx context.Context, story domain.Story) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
