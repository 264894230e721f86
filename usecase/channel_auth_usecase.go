package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clipbridge-api/domain/dto"
	"clipbridge-api/domain/model"
	"clipbridge-api/domain/repository"
	"clipbridge-api/infrastructure/cache"
	"clipbridge-api/infrastructure/logger"
	"clipbridge-api/infrastructure/pubsub"
	"clipbridge-api/infrastructure/servicebus"
)

var (
	ErrChannelNotFound      = errors.New("channel not found")
	ErrMissingCredentials   = errors.New("channel has no google client credentials")
	ErrInvalidState         = errors.New("invalid authorization state")
	ErrTokenExchangeFailed  = errors.New("token exchange failed")
	ErrChannelNotConfigured = errors.New("channel is missing refresh token or client credentials")
	ErrTokenRevoked         = errors.New("refresh token revoked")
)

// revokedErrorCodes are the token endpoint error codes that mean the grant
// itself is dead. Everything else is treated as transient.
var revokedErrorCodes = map[string]struct{}{
	"invalid_grant":       {},
	"unauthorized_client": {},
	"access_denied":       {},
}

// CallbackResult is what the OAuth callback renders into the popup's
// completion page. The callback can never answer JSON, so this never carries
// a Go error; failures become Type oauth-error with a readable message.
type CallbackResult struct {
	Type         string
	ChannelID    string
	ChannelTitle string
	AuthStatus   model.AuthStatus
	Error        string
	RedirectURL  string
}

const (
	CallbackSuccess = "oauth-success"
	CallbackError   = "oauth-error"
)

type IChannelAuthUsecase interface {
	StartAuth(ctx context.Context, channelID, redirectURL string) (*dto.StartAuthResponse, error)
	HandleCallback(ctx context.Context, code, state, oauthError string) CallbackResult
	RefreshToken(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error)
	CheckChannel(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error)

	CreateChannel(ctx context.Context, userID string, req *dto.CreateChannelRequest) (*model.ChannelAuth, error)
	ListChannels(ctx context.Context, userID string) ([]*model.ChannelAuth, error)
	GetChannel(ctx context.Context, channelID string) (*model.ChannelAuth, error)
	GetAuthStatus(ctx context.Context, channelID string) (*dto.AuthStatusResponse, error)
	GetAuthEvents(ctx context.Context, channelID string, limit int64) ([]*model.AuthEvent, error)
}

type ChannelAuthUsecase struct {
	channelAuthRepo repository.IChannelAuth
	googleOAuth     repository.IGoogleOAuth
	youtubeChannel  repository.IYouTubeChannel
	authEventRepo   repository.IAuthEvent
	statusCache     cache.IChannelStatusCache
	eventPublisher  pubsub.IAuthEventPublisher
	uploadNotifier  servicebus.IUploadNotifier
	defaultRedirect string
	now             func() time.Time
}

func NewChannelAuthUsecase(
	channelAuthRepo repository.IChannelAuth,
	googleOAuth repository.IGoogleOAuth,
	youtubeChannel repository.IYouTubeChannel,
	authEventRepo repository.IAuthEvent,
	statusCache cache.IChannelStatusCache,
	eventPublisher pubsub.IAuthEventPublisher,
	uploadNotifier servicebus.IUploadNotifier,
	defaultRedirect string,
) IChannelAuthUsecase {
	return &ChannelAuthUsecase{
		channelAuthRepo: channelAuthRepo,
		googleOAuth:     googleOAuth,
		youtubeChannel:  youtubeChannel,
		authEventRepo:   authEventRepo,
		statusCache:     statusCache,
		eventPublisher:  eventPublisher,
		uploadNotifier:  uploadNotifier,
		defaultRedirect: defaultRedirect,
		now:             time.Now,
	}
}

// StartAuth builds the Google consent URL for one channel and marks the
// record authorizing. The caller opens the URL, typically in a popup.
func (u *ChannelAuthUsecase) StartAuth(ctx context.Context, channelID, redirectURL string) (*dto.StartAuthResponse, error) {
	rec, err := u.channelAuthRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrChannelNotFound
	}
	if rec.GoogleClientID == "" {
		return nil, ErrMissingCredentials
	}

	state := model.AuthorizationState{
		ChannelID:   rec.ID,
		UserID:      rec.UserID,
		RedirectURL: redirectURL,
		IssuedAt:    u.now().UTC(),
	}
	oauthURL := u.googleOAuth.AuthCodeURL(rec.Credentials(u.defaultRedirect), state.Encode())

	if err := u.transition(ctx, rec, model.AuthStatusAuthorizing, false, ""); err != nil {
		return nil, err
	}
	return &dto.StartAuthResponse{OAuthURL: oauthURL}, nil
}

// HandleCallback finishes one authorization attempt. It never returns an
// error: the callback is a browser navigation target, so every failure is
// folded into an oauth-error result for the completion page.
func (u *ChannelAuthUsecase) HandleCallback(ctx context.Context, code, rawState, oauthError string) CallbackResult {
	lg := logger.GetLogger()

	if oauthError != "" {
		result := CallbackResult{Type: CallbackError, Error: oauthError}
		// Google reported the failure before any exchange; put the record
		// back into a settled state so pollers don't wait out the clock.
		if state, err := model.DecodeAuthorizationState(rawState); err == nil {
			result.ChannelID = state.ChannelID
			result.RedirectURL = state.RedirectURL
			if rec, recErr := u.channelAuthRepo.GetByID(ctx, state.ChannelID); recErr == nil && rec != nil {
				if err := u.transition(ctx, rec, model.AuthStatusFailed, false, oauthError); err != nil {
					lg.WithField("error", err).Error("failed settling record after consent error")
				}
				result.AuthStatus = model.AuthStatusFailed
			}
		}
		return result
	}

	state, err := model.DecodeAuthorizationState(rawState)
	if err != nil {
		return CallbackResult{Type: CallbackError, Error: ErrInvalidState.Error()}
	}

	rec, err := u.channelAuthRepo.GetByID(ctx, state.ChannelID)
	if err != nil || rec == nil {
		return CallbackResult{Type: CallbackError, ChannelID: state.ChannelID, RedirectURL: state.RedirectURL, Error: ErrChannelNotFound.Error()}
	}
	result := CallbackResult{ChannelID: rec.ID, RedirectURL: state.RedirectURL}
	if rec.GoogleClientSecret == "" {
		result.Type = CallbackError
		result.Error = ErrMissingCredentials.Error()
		return result
	}

	// The redirect URI must be byte-identical to the one start-auth used or
	// Google rejects the code.
	tokens, err := u.googleOAuth.Exchange(ctx, rec.Credentials(u.defaultRedirect), code)
	if err != nil {
		lg.WithField("error", err).WithField("channel_id", rec.ID).Error("authorization code exchange failed")
		if terr := u.transition(ctx, rec, model.AuthStatusFailed, false, err.Error()); terr != nil {
			lg.WithField("error", terr).Error("failed settling record after exchange error")
		}
		result.Type = CallbackError
		result.AuthStatus = model.AuthStatusFailed
		result.Error = ErrTokenExchangeFailed.Error()
		return result
	}

	if err := u.channelAuthRepo.UpdateTokens(ctx, rec.ID, tokens.AccessToken, tokens.ExpiresAt, tokens.RefreshToken); err != nil {
		lg.WithField("error", err).Error("failed persisting tokens")
		result.Type = CallbackError
		result.Error = "failed persisting tokens"
		return result
	}
	u.statusCache.Invalidate(ctx, rec.ID)

	snapshot, err := u.youtubeChannel.GetMyChannel(ctx, tokens.AccessToken)
	if err != nil {
		lg.WithField("error", err).WithField("channel_id", rec.ID).Error("channel lookup failed after exchange")
		if terr := u.transition(ctx, rec, model.AuthStatusFailed, false, err.Error()); terr != nil {
			lg.WithField("error", terr).Error("failed settling record after lookup error")
		}
		result.Type = CallbackError
		result.AuthStatus = model.AuthStatusFailed
		result.Error = "failed reading YouTube channel"
		return result
	}

	if snapshot == nil {
		// Tokens are good but the Google account has no YouTube channel yet.
		// Discovery polling takes it from here.
		if err := u.transition(ctx, rec, model.AuthStatusNoChannel, false, ""); err != nil {
			lg.WithField("error", err).Error("failed marking record no_channel")
		}
		result.Type = CallbackSuccess
		result.AuthStatus = model.AuthStatusNoChannel
		return result
	}

	if err := u.connect(ctx, rec, snapshot); err != nil {
		lg.WithField("error", err).Error("failed marking record connected")
		result.Type = CallbackError
		result.Error = "failed persisting channel metadata"
		return result
	}
	result.Type = CallbackSuccess
	result.AuthStatus = model.AuthStatusConnected
	result.ChannelTitle = snapshot.Title
	return result
}

// RefreshToken mints a fresh access token from the stored refresh token.
// A revoked grant surfaces as ErrTokenRevoked after the record is flipped to
// token_revoked; any other failure leaves the record untouched.
func (u *ChannelAuthUsecase) RefreshToken(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error) {
	rec, err := u.channelAuthRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrChannelNotFound
	}
	if rec.RefreshToken == "" || rec.GoogleClientID == "" || rec.GoogleClientSecret == "" {
		return nil, ErrChannelNotConfigured
	}

	tokens, err := u.googleOAuth.Refresh(ctx, rec.Credentials(u.defaultRedirect), rec.RefreshToken)
	if err != nil {
		if isRevocation(err) {
			if terr := u.transition(ctx, rec, model.AuthStatusTokenRevoked, false, err.Error()); terr != nil {
				logger.GetLogger().WithField("error", terr).Error("failed marking record token_revoked")
			}
			return nil, fmt.Errorf("%w: %v", ErrTokenRevoked, err)
		}
		return nil, err
	}

	if err := u.channelAuthRepo.UpdateTokens(ctx, rec.ID, tokens.AccessToken, tokens.ExpiresAt, tokens.RefreshToken); err != nil {
		return nil, err
	}
	u.statusCache.Invalidate(ctx, rec.ID)
	return &dto.RefreshTokenResponse{AccessToken: tokens.AccessToken, ExpiresAt: tokens.ExpiresAt}, nil
}

// CheckChannel re-queries YouTube for a channel stuck in no_channel. Any
// other status short-circuits with zero external calls.
func (u *ChannelAuthUsecase) CheckChannel(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error) {
	rec, err := u.channelAuthRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrChannelNotFound
	}

	if rec.AuthStatus != model.AuthStatusNoChannel {
		resp := &dto.CheckChannelResponse{
			Found:      rec.AuthStatus == model.AuthStatusConnected,
			AuthStatus: string(rec.AuthStatus),
		}
		if resp.Found {
			if rec.ChannelID != nil {
				resp.ChannelID = *rec.ChannelID
			}
			if rec.ChannelTitle != nil {
				resp.ChannelTitle = *rec.ChannelTitle
			}
		}
		return resp, nil
	}

	accessToken := rec.AccessToken
	if rec.TokenExpired(u.now()) {
		tokens, err := u.googleOAuth.Refresh(ctx, rec.Credentials(u.defaultRedirect), rec.RefreshToken)
		if err != nil {
			return &dto.CheckChannelResponse{
				Found:      false,
				AuthStatus: string(rec.AuthStatus),
				Error:      err.Error(),
			}, nil
		}
		if err := u.channelAuthRepo.UpdateTokens(ctx, rec.ID, tokens.AccessToken, tokens.ExpiresAt, tokens.RefreshToken); err != nil {
			return nil, err
		}
		accessToken = tokens.AccessToken
	}

	snapshot, err := u.youtubeChannel.GetMyChannel(ctx, accessToken)
	if err != nil {
		return &dto.CheckChannelResponse{
			Found:      false,
			AuthStatus: string(rec.AuthStatus),
			Error:      err.Error(),
		}, nil
	}
	if snapshot == nil {
		return &dto.CheckChannelResponse{Found: false, AuthStatus: string(rec.AuthStatus)}, nil
	}

	if err := u.connect(ctx, rec, snapshot); err != nil {
		return nil, err
	}
	return &dto.CheckChannelResponse{
		Found:        true,
		ChannelID:    snapshot.ChannelID,
		ChannelTitle: snapshot.Title,
		AuthStatus:   string(model.AuthStatusConnected),
	}, nil
}

func (u *ChannelAuthUsecase) CreateChannel(ctx context.Context, userID string, req *dto.CreateChannelRequest) (*model.ChannelAuth, error) {
	now := u.now().UTC()
	rec := &model.ChannelAuth{
		ID:                 uuid.NewString(),
		UserID:             userID,
		GoogleClientID:     req.GoogleClientID,
		GoogleClientSecret: req.GoogleClientSecret,
		GoogleRedirectURI:  req.GoogleRedirectURI,
		AuthStatus:         model.AuthStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.LinkedSourceAccountID != "" {
		rec.LinkedSourceAccountID = &req.LinkedSourceAccountID
	}
	if err := u.channelAuthRepo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (u *ChannelAuthUsecase) ListChannels(ctx context.Context, userID string) ([]*model.ChannelAuth, error) {
	return u.channelAuthRepo.ListByUser(ctx, userID)
}

func (u *ChannelAuthUsecase) GetChannel(ctx context.Context, channelID string) (*model.ChannelAuth, error) {
	if rec, ok := u.statusCache.Get(ctx, channelID); ok {
		return rec, nil
	}
	rec, err := u.channelAuthRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrChannelNotFound
	}
	u.statusCache.Set(ctx, rec)
	return rec, nil
}

func (u *ChannelAuthUsecase) GetAuthStatus(ctx context.Context, channelID string) (*dto.AuthStatusResponse, error) {
	rec, err := u.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return &dto.AuthStatusResponse{
		ChannelID:   rec.ID,
		AuthStatus:  string(rec.AuthStatus),
		IsConnected: rec.IsConnected,
	}, nil
}

func (u *ChannelAuthUsecase) GetAuthEvents(ctx context.Context, channelID string, limit int64) ([]*model.AuthEvent, error) {
	return u.authEventRepo.ListByChannel(ctx, channelID, limit)
}

// connect caches the discovered channel metadata and flips the record to
// connected, then fans the transition out.
func (u *ChannelAuthUsecase) connect(ctx context.Context, rec *model.ChannelAuth, snapshot *model.ChannelSnapshot) error {
	if err := u.channelAuthRepo.UpdateChannelInfo(ctx, rec.ID, *snapshot); err != nil {
		return err
	}
	u.fanOut(ctx, rec, model.AuthStatusConnected, "")
	return nil
}

// transition persists a status change and fans it out to the audit log, the
// event topic and the upload queue. Fan-out is best effort.
func (u *ChannelAuthUsecase) transition(ctx context.Context, rec *model.ChannelAuth, to model.AuthStatus, isConnected bool, reason string) error {
	if err := u.channelAuthRepo.UpdateStatus(ctx, rec.ID, to, isConnected); err != nil {
		return err
	}
	u.fanOut(ctx, rec, to, reason)
	return nil
}

func (u *ChannelAuthUsecase) fanOut(ctx context.Context, rec *model.ChannelAuth, to model.AuthStatus, reason string) {
	lg := logger.GetLogger()
	u.statusCache.Invalidate(ctx, rec.ID)

	event := model.AuthEvent{
		ChannelID: rec.ID,
		UserID:    rec.UserID,
		From:      rec.AuthStatus,
		To:        to,
		Reason:    reason,
		CreatedAt: u.now().UTC(),
	}
	if err := u.authEventRepo.Insert(ctx, &event); err != nil {
		lg.WithField("error", err).Warn("failed recording auth event")
	}
	if _, err := u.eventPublisher.PublishAuthEvent(ctx, event); err != nil {
		lg.WithField("error", err).Warn("failed publishing auth event")
	}

	switch to {
	case model.AuthStatusConnected:
		if err := u.uploadNotifier.NotifyChannelReady(ctx, rec.ID); err != nil {
			lg.WithField("error", err).Warn("failed notifying upload pipeline")
		}
	case model.AuthStatusTokenRevoked:
		if err := u.uploadNotifier.NotifyChannelSuspended(ctx, rec.ID, string(to)); err != nil {
			lg.WithField("error", err).Warn("failed notifying upload pipeline")
		}
	}
}

// isRevocation classifies a refresh failure. Only explicit token endpoint
// codes count; network errors never flip a channel to token_revoked.
func isRevocation(err error) bool {
	var oauthErr *model.GoogleOAuthError
	if !errors.As(err, &oauthErr) {
		return false
	}
	_, revoked := revokedErrorCodes[oauthErr.Code]
	return revoked
}
