package storyview

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/repositories"
	"github.com/orgball2608/insta-story-player/pkg/logger"
)

const table = "story_views"

const upsertSuffix = "ON CONFLICT (story_id, viewer) DO UPDATE SET " +
	"watched_ms = GREATEST(story_views.watched_ms, EXCLUDED.watched_ms), " +
	"completed = story_views.completed OR EXCLUDED.completed, " +
	"viewed_at = EXCLUDED.viewed_at"

type PgxRepository struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

func NewPgxRepository(pool *pgxpool.Pool, logger logger.Logger) *PgxRepository {
	return &PgxRepository{
		pool:   pool,
		logger: logger.WithComponent("StoryViewRepo"),
	}
}

var _ Repository = (*PgxRepository)(nil)

func recordQuery(view domain.StoryView) sq.InsertBuilder {
	return repositories.SqBuilder.
		Insert(table).
		Columns("story_id", "viewer", "watched_ms", "completed", "viewed_at").
		Values(view.StoryID, view.Viewer, view.Watched.Milliseconds(), view.Completed, view.ViewedAt).
		Suffix(upsertSuffix)
}

func listByViewerQuery(viewer string, limit uint64) sq.SelectBuilder {
	q := repositories.SqBuilder.
		Select("id", "story_id", "viewer", "watched_ms", "completed", "viewed_at").
		From(table).
		Where(sq.Eq{"viewer": viewer}).
		OrderBy("viewed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

func deleteOlderThanQuery(cutoff time.Time) sq.DeleteBuilder {
	return repositories.SqBuilder.
		Delete(table).
		Where(sq.Lt{"viewed_at": cutoff})
}

func (r *PgxRepository) Record(ctx context.Context, view domain.StoryView) error {
	query, args, err := recordQuery(view).ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return errors.Join(err, ErrCannotRecord)
	}

	return nil
}

func (r *PgxRepository) ListByViewer(ctx context.Context, viewer string, limit uint64) ([]*domain.StoryView, error) {
	query, args, err := listByViewerQuery(viewer, limit).ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query story views: %w", err)
	}
	defer rows.Close()

	var views []*domain.StoryView
	for rows.Next() {
		var (
			view      domain.StoryView
			watchedMs int64
		)
		if err := rows.Scan(&view.ID, &view.StoryID, &view.Viewer, &watchedMs, &view.Completed, &view.ViewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story view row: %w", err)
		}
		view.Watched = time.Duration(watchedMs) * time.Millisecond
		views = append(views, &view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating story view rows: %w", err)
	}

	return views, nil
}

func (r *PgxRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := deleteOlderThanQuery(cutoff).ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old story views: %w", err)
	}

	r.logger.Debug("Deleted old story views", "cutoff", cutoff, "rows", tag.RowsAffected())
	return tag.RowsAffected(), nil
}
