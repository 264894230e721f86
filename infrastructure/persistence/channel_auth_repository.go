package persistence

import (
	"context"
	"database/sql"
	"time"

	"clipbridge-api/domain/model"
)

// ChannelAuthRepository is the PostgreSQL credential store.
type ChannelAuthRepository struct{ db *sql.DB }

func NewChannelAuthRepository(db *sql.DB) *ChannelAuthRepository {
	return &ChannelAuthRepository{db: db}
}

const channelAuthColumns = `id, user_id, google_client_id, google_client_secret, google_redirect_uri,
	access_token, token_expires_at, refresh_token, auth_status, is_connected,
	channel_id, channel_title, channel_thumbnail, subscriber_count, video_count,
	linked_source_account_id, created_at, updated_at`

func (r *ChannelAuthRepository) GetByID(ctx context.Context, id string) (*model.ChannelAuth, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+channelAuthColumns+` FROM channel_auth WHERE id=$1`, id)
	rec, err := scanChannelAuth(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (r *ChannelAuthRepository) ListByUser(ctx context.Context, userID string) ([]*model.ChannelAuth, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+channelAuthColumns+` FROM channel_auth WHERE user_id=$1 ORDER BY created_at`, userID)
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

func (r *ChannelAuthRepository) Create(ctx context.Context, rec *model.ChannelAuth) error {
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
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.UserID, rec.GoogleClientID, rec.GoogleClientSecret, rec.GoogleRedirectURI,
		rec.AuthStatus, rec.IsConnected, rec.LinkedSourceAccountID, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (r *ChannelAuthRepository) UpdateStatus(ctx context.Context, id string, status model.AuthStatus, isConnected bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE channel_auth SET auth_status=$2, is_connected=$3, updated_at=$4 WHERE id=$1`,
		id, status, isConnected, time.Now().UTC())
	return err
}

// UpdateTokens writes the access token and expiry together. The refresh token
// is sticky: Google omits it on most re-authorizations, so an empty value
// keeps whatever is stored.
func (r *ChannelAuthRepository) UpdateTokens(ctx context.Context, id, accessToken string, expiresAt time.Time, refreshToken string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE channel_auth SET
			access_token=$2,
			token_expires_at=$3,
			refresh_token=CASE WHEN $4 = '' THEN refresh_token ELSE $4 END,
			updated_at=$5
		 WHERE id=$1`,
		id, accessToken, expiresAt, refreshToken, time.Now().UTC())
	return err
}

func (r *ChannelAuthRepository) UpdateChannelInfo(ctx context.Context, id string, info model.ChannelSnapshot) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE channel_auth SET
			auth_status=$2, is_connected=TRUE,
			channel_id=$3, channel_title=$4, channel_thumbnail=$5,
			subscriber_count=$6, video_count=$7, updated_at=$8
		 WHERE id=$1`,
		id, model.AuthStatusConnected, info.ChannelID, info.Title, info.Thumbnail,
		info.SubscriberCount, info.VideoCount, time.Now().UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChannelAuth(row rowScanner) (*model.ChannelAuth, error) {
	rec := &model.ChannelAuth{}
	var (
		expiresAt                          sql.NullTime
		accessToken, refreshToken          sql.NullString
		channelID, channelTitle, thumbnail sql.NullString
		linkedSource                       sql.NullString
		status                             string
	)
	if err := row.Scan(
		&rec.ID, &rec.UserID, &rec.GoogleClientID, &rec.GoogleClientSecret, &rec.GoogleRedirectURI,
		&accessToken, &expiresAt, &refreshToken, &status, &rec.IsConnected,
		&channelID, &channelTitle, &thumbnail, &rec.SubscriberCount, &rec.VideoCount,
		&linkedSource, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.AuthStatus = model.AuthStatus(status)
	rec.AccessToken = accessToken.String
	rec.RefreshToken = refreshToken.String
	if expiresAt.Valid {
		rec.TokenExpiresAt = &expiresAt.Time
	}
	if channelID.Valid {
		v := channelID.String
		rec.ChannelID = &v
	}
	if channelTitle.Valid {
		v := channelTitle.String
		rec.ChannelTitle = &v
	}
	if thumbnail.Valid {
		v := thumbnail.String
		rec.ChannelThumbnail = &v
	}
	if linkedSource.Valid {
		v := linkedSource.String
		rec.LinkedSourceAccountID = &v
	}
	return rec, nil
}
