package google

import (
	"context"
	"errors"
	"fmt"

	"clipbridge-api/domain/model"
	"clipbridge-api/domain/repository"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// Scopes are fixed per authorization; every channel consents to read + upload.
var Scopes = []string{
	youtube.YoutubeReadonlyScope,
	youtube.YoutubeUploadScope,
}

// OAuthClient talks to Google's OAuth endpoints with per-channel client
// credentials. It holds no state of its own; each call builds the
// oauth2.Config for the channel it serves.
type OAuthClient struct{}

func NewOAuthClient() repository.IGoogleOAuth {
	return &OAuthClient{}
}

func oauthConfig(creds model.ClientCredentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// AuthCodeURL builds the consent URL. prompt=consent forces Google to issue a
// refresh token on every authorization, not just the first.
func (c *OAuthClient) AuthCodeURL(creds model.ClientCredentials, state string) string {
	return oauthConfig(creds).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (c *OAuthClient) Exchange(ctx context.Context, creds model.ClientCredentials, code string) (*model.TokenSet, error) {
	token, err := oauthConfig(creds).Exchange(ctx, code)
	if err != nil {
		return nil, asOAuthError(err, "exchanging authorization code")
	}
	return &model.TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

func (c *OAuthClient) Refresh(ctx context.Context, creds model.ClientCredentials, refreshToken string) (*model.TokenSet, error) {
	source := oauthConfig(creds).TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, asOAuthError(err, "refreshing access token")
	}
	return &model.TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

// asOAuthError surfaces the token endpoint's RFC 6749 error code so callers
// can tell a revoked grant apart from a transient failure.
func asOAuthError(err error, op string) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
		return &model.GoogleOAuthError{
			Code:        retrieveErr.ErrorCode,
			Description: retrieveErr.ErrorDescription,
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
