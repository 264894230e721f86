package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clipbridge-api/domain/dto"
	"clipbridge-api/domain/model"
	"clipbridge-api/usecase"
)

// stubAuthUsecase overrides only RefreshToken; the provider touches nothing
// else on the interface.
type stubAuthUsecase struct {
	usecase.IChannelAuthUsecase
	refresh func(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error)
}

func (s *stubAuthUsecase) RefreshToken(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error) {
	return s.refresh(ctx, channelID)
}

func TestUploadTokenProvider_ReturnsStoredTokenWhileFresh(t *testing.T) {
	repo := new(MockChannelAuthRepo)
	rec := connectedRecord()
	rec.AccessToken = "at-stored"
	expiry := time.Now().Add(30 * time.Minute)
	rec.TokenExpiresAt = &expiry
	repo.On("GetByID", mock.Anything, "ch1").Return(rec, nil)

	provider := usecase.NewUploadTokenProvider(repo, &stubAuthUsecase{
		refresh: func(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error) {
			t.Fatal("refresh must not run for a fresh token")
			return nil, nil
		},
	})

	token, err := provider.EnsureFreshAccessToken(context.Background(), "ch1")

	require.NoError(t, err)
	assert.Equal(t, "at-stored", token.AccessToken)
}

func TestUploadTokenProvider_RefreshesStaleToken(t *testing.T) {
	repo := new(MockChannelAuthRepo)
	rec := connectedRecord()
	rec.AccessToken = "at-stale"
	expiry := time.Now().Add(10 * time.Second)
	rec.TokenExpiresAt = &expiry
	repo.On("GetByID", mock.Anything, "ch1").Return(rec, nil)

	newExpiry := time.Now().Add(time.Hour)
	provider := usecase.NewUploadTokenProvider(repo, &stubAuthUsecase{
		refresh: func(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error) {
			return &dto.RefreshTokenResponse{AccessToken: "at-fresh", ExpiresAt: newExpiry}, nil
		},
	})

	token, err := provider.EnsureFreshAccessToken(context.Background(), "ch1")

	require.NoError(t, err)
	assert.Equal(t, "at-fresh", token.AccessToken)
	assert.Equal(t, newExpiry, token.ExpiresAt)
}

func TestUploadTokenProvider_RevokedChannelIsFatal(t *testing.T) {
	repo := new(MockChannelAuthRepo)
	rec := connectedRecord()
	rec.AuthStatus = model.AuthStatusTokenRevoked
	repo.On("GetByID", mock.Anything, "ch1").Return(rec, nil)

	provider := usecase.NewUploadTokenProvider(repo, &stubAuthUsecase{
		refresh: func(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error) {
			t.Fatal("refresh must not run for a revoked channel")
			return nil, nil
		},
	})

	_, err := provider.EnsureFreshAccessToken(context.Background(), "ch1")

	assert.ErrorIs(t, err, usecase.ErrTokenRevoked)
}

func TestUploadTokenProvider_TransientRefreshFailureIsRetryable(t *testing.T) {
	repo := new(MockChannelAuthRepo)
	rec := connectedRecord()
	repo.On("GetByID", mock.Anything, "ch1").Return(rec, nil)

	provider := usecase.NewUploadTokenProvider(repo, &stubAuthUsecase{
		refresh: func(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	})

	_, err := provider.EnsureFreshAccessToken(context.Background(), "ch1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, usecase.ErrTokenRevoked)
}
