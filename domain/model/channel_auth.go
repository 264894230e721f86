package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// AuthStatus tracks where a channel sits in the authorization lifecycle.
type AuthStatus string

const (
	AuthStatusPending      AuthStatus = "pending"
	AuthStatusAuthorizing  AuthStatus = "authorizing"
	AuthStatusConnected    AuthStatus = "connected"
	AuthStatusNoChannel    AuthStatus = "no_channel"
	AuthStatusFailed       AuthStatus = "failed"
	AuthStatusTokenRevoked AuthStatus = "token_revoked"
)

// Settled reports whether the status is past the in-flight phase of an
// authorization attempt.
func (s AuthStatus) Settled() bool {
	return s != AuthStatusPending && s != AuthStatusAuthorizing
}

// ChannelAuth is one connected YouTube channel owned by a tenant. Every channel
// carries its own Google OAuth client credentials; there is no platform-wide app.
type ChannelAuth struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"user_id"`
	GoogleClientID        string     `json:"google_client_id"`
	GoogleClientSecret    string     `json:"-"`
	GoogleRedirectURI     string     `json:"google_redirect_uri"`
	AccessToken           string     `json:"-"`
	TokenExpiresAt        *time.Time `json:"token_expires_at,omitempty"`
	RefreshToken          string     `json:"-"`
	AuthStatus            AuthStatus `json:"auth_status"`
	IsConnected           bool       `json:"is_connected"`
	ChannelID             *string    `json:"channel_id,omitempty"`
	ChannelTitle          *string    `json:"channel_title,omitempty"`
	ChannelThumbnail      *string    `json:"channel_thumbnail,omitempty"`
	SubscriberCount       int64      `json:"subscriber_count"`
	VideoCount            int64      `json:"video_count"`
	LinkedSourceAccountID *string    `json:"linked_source_account_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// TokenExpired reports whether the stored access token has passed its expiry.
// A record with no expiry is treated as expired so the first use refreshes.
func (c *ChannelAuth) TokenExpired(now time.Time) bool {
	return c.TokenExpiresAt == nil || !now.Before(*c.TokenExpiresAt)
}

// ClientCredentials is the per-channel Google OAuth app identity.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Credentials extracts the channel's OAuth client identity, falling back to
// defaultRedirect when the channel never registered its own redirect URI.
func (c *ChannelAuth) Credentials(defaultRedirect string) ClientCredentials {
	redirect := c.GoogleRedirectURI
	if redirect == "" {
		redirect = defaultRedirect
	}
	return ClientCredentials{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		RedirectURI:  redirect,
	}
}

// TokenSet is the outcome of a Google token endpoint call. RefreshToken is
// empty on most re-authorizations; callers must treat it as sticky.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ChannelSnapshot is the cached YouTube channel metadata captured on discovery.
type ChannelSnapshot struct {
	ChannelID       string `json:"channel_id"`
	Title           string `json:"title"`
	Thumbnail       string `json:"thumbnail"`
	SubscriberCount int64  `json:"subscriber_count"`
	VideoCount      int64  `json:"video_count"`
}

// AuthorizationState is the context round-tripped through Google's state
// parameter so the callback can recover it without a server-side session.
// It is reversibly encoded, not signed.
type AuthorizationState struct {
	ChannelID   string    `json:"channel_id"`
	UserID      string    `json:"user_id"`
	RedirectURL string    `json:"redirect_url,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Encode serializes the state as base64url JSON.
func (s AuthorizationState) Encode() string {
	b, _ := json.Marshal(s)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeAuthorizationState reverses Encode.
func DecodeAuthorizationState(raw string) (AuthorizationState, error) {
	var s AuthorizationState
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return s, fmt.Errorf("decoding state: %w", err)
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("decoding state: %w", err)
	}
	if s.ChannelID == "" {
		return s, fmt.Errorf("decoding state: missing channel id")
	}
	return s, nil
}

// GoogleOAuthError is a structured error from Google's token endpoint,
// carrying the RFC 6749 error code used to classify revocation.
type GoogleOAuthError struct {
	Code        string
	Description string
}

func (e *GoogleOAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("google oauth error %q: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("google oauth error %q", e.Code)
}
