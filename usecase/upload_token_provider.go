package usecase

import (
	"context"
	"time"

	"clipbridge-api/domain/dto"
	"clipbridge-api/domain/model"
	"clipbridge-api/domain/repository"
)

// tokenRefreshSkew refreshes slightly early so a token handed to the upload
// pipeline doesn't expire mid-upload.
const tokenRefreshSkew = 60 * time.Second

// UploadTokenProvider hands the upload pipeline access tokens that are valid
// for immediate use, refreshing proactively when the stored one is stale.
// ErrTokenRevoked is fatal for the channel; any other refresh failure is
// retryable by the caller.
type IUploadTokenProvider interface {
	EnsureFreshAccessToken(ctx context.Context, channelID string) (*dto.UploadTokenResponse, error)
}

type UploadTokenProvider struct {
	channelAuthRepo repository.IChannelAuth
	channelAuth     IChannelAuthUsecase
	now             func() time.Time
}

func NewUploadTokenProvider(channelAuthRepo repository.IChannelAuth, channelAuth IChannelAuthUsecase) IUploadTokenProvider {
	return &UploadTokenProvider{
		channelAuthRepo: channelAuthRepo,
		channelAuth:     channelAuth,
		now:             time.Now,
	}
}

func (p *UploadTokenProvider) EnsureFreshAccessToken(ctx context.Context, channelID string) (*dto.UploadTokenResponse, error) {
	rec, err := p.channelAuthRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrChannelNotFound
	}
	if rec.AuthStatus == model.AuthStatusTokenRevoked {
		return nil, ErrTokenRevoked
	}

	if rec.AccessToken != "" && !rec.TokenExpired(p.now().Add(tokenRefreshSkew)) {
		return &dto.UploadTokenResponse{
			AccessToken: rec.AccessToken,
			ExpiresAt:   *rec.TokenExpiresAt,
		}, nil
	}

	refreshed, err := p.channelAuth.RefreshToken(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return &dto.UploadTokenResponse{
		AccessToken: refreshed.AccessToken,
		ExpiresAt:   refreshed.ExpiresAt,
	}, nil
}
