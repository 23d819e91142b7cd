package story

import (
	"testing"
	"time"

	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListActiveQuery(t *testing.T) {
	since := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	query, args, err := listActiveQuery("alice", since).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, story_id, username, media_kind, media_url, caption, duration_ms, taken_at, created_at "+
			"FROM stories WHERE username = $1 AND taken_at > $2 ORDER BY taken_at ASC, id ASC",
		query,
	)
	assert.Equal(t, []interface{}{"alice", since}, args)
}

func TestGetByStoryIDQuery(t *testing.T) {
	query, args, err := getByStoryIDQuery("3141").ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "FROM stories WHERE story_id = $1")
	assert.Equal(t, []interface{}{"3141"}, args)
}

func TestCreateQueryStoresDurationInMilliseconds(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	story := domain.Story{
		StoryID:   "3141",
		UserName:  "alice",
		MediaKind: domain.MediaKindVideo,
		MediaURL:  "https://cdn.example.com/3141.mp4",
		Duration:  12500 * time.Millisecond,
		TakenAt:   now.Add(-time.Hour),
	}

	query, args, err := createQuery(story, now).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO stories (story_id,username,media_kind,media_url,caption,duration_ms,taken_at,created_at) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8)",
		query,
	)
	require.Len(t, args, 8)
	assert.Equal(t, "video", args[2])
	assert.Equal(t, int64(12500), args[5])
	assert.Equal(t, now, args[7])
}

func TestDeleteOlderThanQuery(t *testing.T) {
	cutoff := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	query, args, err := deleteOlderThanQuery(cutoff).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM stories WHERE taken_at < $1", query)
	assert.Equal(t, []interface{}{cutoff}, args)
}
