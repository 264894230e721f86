package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureChannelAuthSchema creates the credential store table when missing and
// adds newer columns. Safe to call at startup.
func EnsureChannelAuthSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS channel_auth (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		google_client_id TEXT NOT NULL DEFAULT '',
		google_client_secret TEXT NOT NULL DEFAULT '',
		google_redirect_uri TEXT NOT NULL DEFAULT '',
		access_token TEXT,
		token_expires_at TIMESTAMPTZ,
		refresh_token TEXT,
		auth_status TEXT NOT NULL DEFAULT 'pending',
		is_connected BOOLEAN NOT NULL DEFAULT FALSE,
		channel_id TEXT,
		channel_title TEXT,
		channel_thumbnail TEXT,
		subscriber_count BIGINT NOT NULL DEFAULT 0,
		video_count BIGINT NOT NULL DEFAULT 0,
		linked_source_account_id TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating channel_auth table failed: %w", err)
	}

	checks := []struct {
		table  string
		column string
		ddl    string
	}{
		{"channel_auth", "linked_source_account_id", "ALTER TABLE channel_auth ADD COLUMN linked_source_account_id TEXT"},
		{"channel_auth", "channel_thumbnail", "ALTER TABLE channel_auth ADD COLUMN channel_thumbnail TEXT"},
	}

	for _, c := range checks {
		exists, err := columnExists(ctx, db, c.table, c.column)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, c.ddl); err != nil {
				return fmt.Errorf("adding column %s.%s failed: %w", c.table, c.column, err)
			}
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2`, table, column)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
