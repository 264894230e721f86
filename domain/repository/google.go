package repository

import (
	"context"

	"clipbridge-api/domain/model"
)

// IGoogleOAuth talks to Google's OAuth 2.0 authorization and token endpoints
// using a channel's own client credentials.
type IGoogleOAuth interface {
	// AuthCodeURL builds the consent URL with access_type=offline and
	// prompt=consent so Google issues a refresh token on every authorization.
	AuthCodeURL(creds model.ClientCredentials, state string) string

	// Exchange trades an authorization code for tokens. The redirect URI in
	// creds must exactly match the one used to build the consent URL.
	Exchange(ctx context.Context, creds model.ClientCredentials, code string) (*model.TokenSet, error)

	// Refresh mints a new access token. Failures carrying a token endpoint
	// error code surface as *model.GoogleOAuthError.
	Refresh(ctx context.Context, creds model.ClientCredentials, refreshToken string) (*model.TokenSet, error)
}

// IYouTubeChannel is the slice of the YouTube Data API this service needs.
type IYouTubeChannel interface {
	// GetMyChannel lists the authenticated account's channels and returns the
	// first one, or (nil, nil) when the account has no channel yet.
	GetMyChannel(ctx context.Context, accessToken string) (*model.ChannelSnapshot, error)
}

// IAuthEvent is the append-only audit log of status transitions.
type IAuthEvent interface {
	Insert(ctx context.Context, event *model.AuthEvent) error
	ListByChannel(ctx context.Context, channelID string, limit int64) ([]*model.AuthEvent, error)
}
