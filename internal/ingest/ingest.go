package ingest

import (
	"context"
	"errors"
	"time"
)

var ErrEmptyBatch = errors.New("no stories to import")

// StoryInput is one story as it arrives from a feed.
type StoryInput struct {
	StoryID    string    `json:"story_id" validate:"required"`
	Username   string    `json:"username" validate:"required"`
	MediaKind  string    `json:"media_kind" validate:"oneof=image video"`
	MediaURL   string    `json:"media_url" validate:"required,url"`
	Caption    string    `json:"caption"`
	DurationMs int64     `json:"duration_ms" validate:"gte=0"`
	TakenAt    time.Time `json:"taken_at"`
}

type Result struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

//go:generate go run go.uber.org/mock/mockgen -source=ingest.go -destination=mocks/mock.go

type Client interface {
	// Import stores the stories that are not stored yet. Invalid and failed
	// stories are counted in the result; only an empty batch is an error.
	Import(ctx context.Context, stories []StoryInput) (Result, error)
}
