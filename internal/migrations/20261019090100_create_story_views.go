package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateStoryViews, downCreateStoryViews)
}

func upCreateStoryViews(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE story_views (
		id         SERIAL PRIMARY KEY,
		story_id   VARCHAR NOT NULL,
		viewer     VARCHAR NOT NULL,
		watched_ms BIGINT NOT NULL DEFAULT 0,
		completed  BOOLEAN NOT NULL DEFAULT FALSE,
		viewed_at  TIMESTAMP WITH TIME ZONE NOT NULL,
		UNIQUE (story_id, viewer)
	);
	CREATE INDEX story_views_viewer_viewed_at_idx ON story_views (viewer, viewed_at);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCreateStoryViews(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE story_views;`)
	if err != nil {
		return err
	}
	return nil
}
