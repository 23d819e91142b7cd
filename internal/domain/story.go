package domain

import "time"

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// StoryItem is one time-boxed media unit of a viewing session.
type StoryItem struct {
	ID              string        `validate:"required"`
	Username        string
	Kind            MediaKind     `validate:"oneof=image video"`
	MediaURL        string        `validate:"required"`
	Caption         string
	NominalDuration time.Duration `validate:"gt=0"`
	TakenAt         time.Time
}

func (i StoryItem) IsVideo() bool {
	return i.Kind == MediaKindVideo
}

// Story is the persisted form of a story item.
type Story struct {
	ID        int
	StoryID   string
	UserName  string
	MediaKind MediaKind
	MediaURL  string
	Caption   string
	Duration  time.Duration // zero when unknown
	TakenAt   time.Time
	CreatedAt time.Time
}

// Item converts a stored story into a playable item. Images always get
// imageDuration; videos keep their stored duration and fall back to
// videoFallback when it is unknown.
func (s Story) Item(imageDuration, videoFallback time.Duration) StoryItem {
	d := imageDuration
	if s.MediaKind == MediaKindVideo {
		d = videoFallback
		if s.Duration > 0 {
			d = s.Duration
		}
	}

	return StoryItem{
		ID:              s.StoryID,
		Username:        s.UserName,
		Kind:            s.MediaKind,
		MediaURL:        s.MediaURL,
		Caption:         s.Caption,
		NominalDuration: d,
		TakenAt:         s.TakenAt,
	}
}

func Items(stories []*Story, imageDuration, videoFallback time.Duration) []StoryItem {
	items := make([]StoryItem, 0, len(stories))
	for _, s := range stories {
		items = append(items, s.Item(imageDuration, videoFallback))
	}
	return items
}
