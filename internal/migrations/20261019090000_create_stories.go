package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateStories, downCreateStories)
}

func upCreateStories(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE stories (
		id          SERIAL PRIMARY KEY,
		story_id    VARCHAR NOT NULL UNIQUE,
		username    VARCHAR NOT NULL,
		media_kind  VARCHAR(8) NOT NULL CHECK (media_kind IN ('image', 'video')),
		media_url   TEXT NOT NULL,
		caption     TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL DEFAULT 0,
		taken_at    TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	CREATE INDEX stories_username_taken_at_idx ON stories (username, taken_at);
	`)
	return err
}

func downCreateStories(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE stories;`)
	return err
}
