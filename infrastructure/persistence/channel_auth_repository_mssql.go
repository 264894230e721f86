package persistence

import (
	"context"
	"database/sql"
	"time"

	"clipbridge-api/domain/model"
)

// ChannelAuthRepositoryMSSQL is the Azure SQL twin of the credential store.
type ChannelAuthRepositoryMSSQL struct{ db *sql.DB }

func NewChannelAuthRepositoryMSSQL(db *sql.DB) *ChannelAuthRepositoryMSSQL {
	return &ChannelAuthRepositoryMSSQL{db: db}
}

func (r *ChannelAuthRepositoryMSSQL) GetByID(ctx context.Context, id string) (*model.ChannelAuth, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+channelAuthColumns+` FROM channel_auth WHERE id=@p1`, id)
	rec, err := scanChannelAuth(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (r *ChannelAuthRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]*model.ChannelAuth, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+channelAuthColumns+` FROM channel_auth WHERE user_id=@p1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ChannelAuth
	for rows.Next() {
		rec, err := scanChannelAuth(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *ChannelAuthRepositoryMSSQL) Create(ctx context.Context, rec *model.ChannelAuth) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.AuthStatus == "" {
		rec.AuthStatus = model.AuthStatusPending
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO channel_auth (id, user_id, google_client_id, google_client_secret, google_redirect_uri,
			auth_status, is_connected, linked_source_account_id, created_at, updated_at)
		 VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10)`,
		rec.ID, rec.UserID, rec.GoogleClientID, rec.GoogleClientSecret, rec.GoogleRedirectURI,
		string(rec.AuthStatus), rec.IsConnected, rec.LinkedSourceAccountID, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (r *ChannelAuthRepositoryMSSQL) UpdateStatus(ctx context.Context, id string, status model.AuthStatus, isConnected bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE channel_auth SET auth_status=@p2, is_connected=@p3, updated_at=@p4 WHERE id=@p1`,
		id, string(status), isConnected, time.Now().UTC())
	return err
}

func (r *ChannelAuthRepositoryMSSQL) UpdateTokens(ctx context.Context, id, accessToken string, expiresAt time.Time, refreshToken string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE channel_auth SET
			access_token=@p2,
			token_expires_at=@p3,
			refresh_token=CASE WHEN @p4 = '' THEN refresh_token ELSE @p4 END,
			updated_at=@p5
		 WHERE id=@p1`,
		id, accessToken, expiresAt, refreshToken, time.Now().UTC())
	return err
}

func (r *ChannelAuthRepositoryMSSQL) UpdateChannelInfo(ctx context.Context, id string, info model.ChannelSnapshot) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE channel_auth SET
			auth_status=@p2, is_connected=1,
			channel_id=@p3, channel_title=@p4, channel_thumbnail=@p5,
			subscriber_count=@p6, video_count=@p7, updated_at=@p8
		 WHERE id=@p1`,
		id, string(model.AuthStatusConnected), info.ChannelID, info.Title, info.Thumbnail,
		info.SubscriberCount, info.VideoCount, time.Now().UTC())
	return err
}
