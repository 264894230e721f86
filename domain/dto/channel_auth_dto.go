package dto

import "time"

// AuthActionRequest is the body accepted by the dispatch endpoint. Every field
// except Action may also arrive as a query parameter.
type AuthActionRequest struct {
	Action      string `json:"action" form:"action"`
	ChannelID   string `json:"channel_id" form:"channel_id"`
	RedirectURL string `json:"redirect_url,omitempty" form:"redirect_url"`
	Code        string `json:"code,omitempty" form:"code"`
	State       string `json:"state,omitempty" form:"state"`
	Error       string `json:"error,omitempty" form:"error"`
}

// StartAuthResponse carries the Google consent URL the caller opens in a popup.
type StartAuthResponse struct {
	OAuthURL string `json:"oauth_url"`
}

// RefreshTokenResponse is the success shape of the refresh-token operation.
type RefreshTokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CheckChannelResponse reports whether a YouTube channel exists yet for an
// authorized Google account. AuthStatus lets pollers notice the record leaving
// no_channel through some other path.
type CheckChannelResponse struct {
	Found        bool   `json:"found"`
	ChannelID    string `json:"channel_id,omitempty"`
	ChannelTitle string `json:"channel_title,omitempty"`
	AuthStatus   string `json:"auth_status"`
	Error        string `json:"error,omitempty"`
}

// AuthStatusResponse is the poll target the authorization orchestrator reads.
type AuthStatusResponse struct {
	ChannelID   string `json:"channel_id"`
	AuthStatus  string `json:"auth_status"`
	IsConnected bool   `json:"is_connected"`
}

// CreateChannelRequest registers a channel with its own Google OAuth app.
type CreateChannelRequest struct {
	GoogleClientID        string `json:"google_client_id" binding:"required"`
	GoogleClientSecret    string `json:"google_client_secret" binding:"required"`
	GoogleRedirectURI     string `json:"google_redirect_uri,omitempty"`
	LinkedSourceAccountID string `json:"linked_source_account_id,omitempty"`
}

// UploadTokenResponse hands the upload pipeline a token valid for immediate use.
type UploadTokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
