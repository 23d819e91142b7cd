package story

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/repositories"
	"github.com/orgball2608/insta-story-player/pkg/logger"
)

const table = "stories"

var columns = []string{"id", "story_id", "username", "media_kind", "media_url", "caption", "duration_ms", "taken_at", "created_at"}

type PgxRepository struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

func NewPgxRepository(pool *pgxpool.Pool, logger logger.Logger) *PgxRepository {
	return &PgxRepository{
		pool:   pool,
		logger: logger.WithComponent("StoryRepo"),
	}
}

var _ Repository = (*PgxRepository)(nil)

func getByStoryIDQuery(storyID string) sq.SelectBuilder {
	return repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"story_id": storyID})
}

func listActiveQuery(username string, since time.Time) sq.SelectBuilder {
	return repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"username": username}).
		Where(sq.Gt{"taken_at": since}).
		OrderBy("taken_at ASC", "id ASC")
}

func createQuery(story domain.Story, now time.Time) sq.InsertBuilder {
	return repositories.SqBuilder.
		Insert(table).
		Columns("story_id", "username", "media_kind", "media_url", "caption", "duration_ms", "taken_at", "created_at").
		Values(
			story.StoryID,
			story.UserName,
			string(story.MediaKind),
			story.MediaURL,
			story.Caption,
			story.Duration.Milliseconds(),
			story.TakenAt,
			now,
		)
}

func deleteOlderThanQuery(cutoff time.Time) sq.DeleteBuilder {
	return repositories.SqBuilder.
		Delete(table).
		Where(sq.Lt{"taken_at": cutoff})
}

func (r *PgxRepository) GetByStoryID(ctx context.Context, storyID string) (*domain.Story, error) {
	query, args, err := getByStoryIDQuery(storyID).ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	story, err := scanStory(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get story by story id: %w", err)
	}

	return story, nil
}

func (r *PgxRepository) ListActive(ctx context.Context, username string, since time.Time) ([]*domain.Story, error) {
	query, args, err := listActiveQuery(username, since).ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active stories: %w", err)
	}
	defer rows.Close()

	var stories []*domain.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		stories = append(stories, story)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating story rows: %w", err)
	}

	r.logger.Debug("Loaded active stories", "username", username, "count", len(stories))
	return stories, nil
}

func (r *PgxRepository) Create(ctx context.Context, story domain.Story) error {
	query, args, err := createQuery(story, time.Now()).ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return errors.Join(err, ErrCannotCreate)
	}

	return nil
}

func (r *PgxRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := deleteOlderThanQuery(cutoff).ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old stories: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanStory(row pgx.Row) (*domain.Story, error) {
	var (
		story      domain.Story
		kind       string
		durationMs int64
	)

	err := row.Scan(
		&story.ID,
		&story.StoryID,
		&story.UserName,
		&kind,
		&story.MediaURL,
		&story.Caption,
		&durationMs,
		&story.TakenAt,
		&story.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	story.MediaKind = domain.MediaKind(kind)
	story.Duration = time.Duration(durationMs) * time.Millisecond
	return &story, nil
}
