package repository

import (
	"context"
	"time"

	"clipbridge-api/domain/model"
)

// IChannelAuth is the credential store: one row per connected YouTube channel.
// GetByID returns (nil, nil) when the channel does not exist.
type IChannelAuth interface {
	GetByID(ctx context.Context, id string) (*model.ChannelAuth, error)
	ListByUser(ctx context.Context, userID string) ([]*model.ChannelAuth, error)
	Create(ctx context.Context, rec *model.ChannelAuth) error

	UpdateStatus(ctx context.Context, id string, status model.AuthStatus, isConnected bool) error

	// UpdateTokens writes accessToken and expiry together. refreshToken is
	// sticky: an empty value leaves the stored refresh token untouched.
	UpdateTokens(ctx context.Context, id, accessToken string, expiresAt time.Time, refreshToken string) error

	// UpdateChannelInfo caches discovered channel metadata and marks the
	// record connected.
	UpdateChannelInfo(ctx context.Context, id string, info model.ChannelSnapshot) error
}
