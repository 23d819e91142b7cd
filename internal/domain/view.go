package domain

import "time"

// StoryView records how much of a story a viewer watched.
type StoryView struct {
	ID        int
	StoryID   string
	Viewer    string
	Watched   time.Duration
	Completed bool
	ViewedAt  time.Time
}
