package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipbridge-api/domain/dto"
	"clipbridge-api/domain/model"
	handlers "clipbridge-api/interfaces/http"
	"clipbridge-api/usecase"
)

// stubAuthUsecase overrides only the methods a test exercises.
type stubAuthUsecase struct {
	usecase.IChannelAuthUsecase
	startAuth      func(ctx context.Context, channelID, redirectURL string) (*dto.StartAuthResponse, error)
	refreshToken   func(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error)
	checkChannel   func(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error)
	handleCallback func(ctx context.Context, code, state, oauthError string) usecase.CallbackResult
}

func (s *stubAuthUsecase) StartAuth(ctx context.Context, channelID, redirectURL string) (*dto.StartAuthResponse, error) {
	return s.startAuth(ctx, channelID, redirectURL)
}

func (s *stubAuthUsecase) RefreshToken(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error) {
	return s.refreshToken(ctx, channelID)
}

func (s *stubAuthUsecase) CheckChannel(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error) {
	return s.checkChannel(ctx, channelID)
}

func (s *stubAuthUsecase) HandleCallback(ctx context.Context, code, state, oauthError string) usecase.CallbackResult {
	return s.handleCallback(ctx, code, state, oauthError)
}

func newAuthRouter(stub *stubAuthUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := handlers.NewChannelAuthHandler(stub)
	router.GET("/auth/youtube", handler.Dispatch)
	router.POST("/auth/youtube", handler.Dispatch)
	router.GET("/auth/youtube/callback", handler.Callback)
	return router
}

func TestDispatch_StartAuthFromQuery(t *testing.T) {
	stub := &stubAuthUsecase{
		startAuth: func(ctx context.Context, channelID, redirectURL string) (*dto.StartAuthResponse, error) {
			assert.Equal(t, "ch1", channelID)
			assert.Equal(t, "/dashboard", redirectURL)
			return &dto.StartAuthResponse{OAuthURL: "https://accounts.google.com/o/oauth2/auth?client_id=x"}, nil
		},
	}
	router := newAuthRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/youtube?action=start-auth&channel_id=ch1&redirect_url=/dashboard", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body dto.StartAuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.OAuthURL, "accounts.google.com")
}

func TestDispatch_StartAuthFromJSONBody(t *testing.T) {
	stub := &stubAuthUsecase{
		startAuth: func(ctx context.Context, channelID, redirectURL string) (*dto.StartAuthResponse, error) {
			assert.Equal(t, "ch1", channelID)
			return &dto.StartAuthResponse{OAuthURL: "https://accounts.google.com/o/oauth2/auth"}, nil
		},
	}
	router := newAuthRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/youtube",
		strings.NewReader(`{"action":"start-auth","channel_id":"ch1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDispatch_StartAuthChannelNotFound(t *testing.T) {
	stub := &stubAuthUsecase{
		startAuth: func(ctx context.Context, channelID, redirectURL string) (*dto.StartAuthResponse, error) {
			return nil, usecase.ErrChannelNotFound
		},
	}
	router := newAuthRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/youtube?action=start-auth&channel_id=missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatch_UnknownAction(t *testing.T) {
	router := newAuthRouter(&stubAuthUsecase{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/youtube?action=frobnicate", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatch_RefreshTokenRevoked(t *testing.T) {
	stub := &stubAuthUsecase{
		refreshToken: func(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error) {
			return nil, usecase.ErrTokenRevoked
		},
	}
	router := newAuthRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/youtube?action=refresh-token&channel_id=ch1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["revoked"])
}

func TestDispatch_RefreshTokenTransientFailure(t *testing.T) {
	stub := &stubAuthUsecase{
		refreshToken: func(ctx context.Context, channelID string) (*dto.RefreshTokenResponse, error) {
			return nil, context.DeadlineExceeded
		},
	}
	router := newAuthRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/youtube?action=refresh-token&channel_id=ch1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["revoked"])
}

func TestDispatch_CheckChannel(t *testing.T) {
	stub := &stubAuthUsecase{
		checkChannel: func(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error) {
			return &dto.CheckChannelResponse{Found: true, ChannelID: "UC123", AuthStatus: "connected"}, nil
		},
	}
	router := newAuthRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/youtube?action=check-channel&channel_id=ch1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body dto.CheckChannelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Found)
}

func TestCallback_SuccessPagePostsMessageAndCloses(t *testing.T) {
	stub := &stubAuthUsecase{
		handleCallback: func(ctx context.Context, code, state, oauthError string) usecase.CallbackResult {
			assert.Equal(t, "code-1", code)
			return usecase.CallbackResult{
				Type:         usecase.CallbackSuccess,
				ChannelID:    "ch1",
				ChannelTitle: "Clips Daily",
				AuthStatus:   model.AuthStatusConnected,
			}
		},
	}
	router := newAuthRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/youtube/callback?code=code-1&state=s", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	page := w.Body.String()
	assert.Contains(t, page, "oauth-success")
	assert.Contains(t, page, "Clips Daily")
	assert.Contains(t, page, "window.opener.postMessage")
	assert.Contains(t, page, "window.close()")
}

func TestCallback_ErrorPageFailsClosed(t *testing.T) {
	stub := &stubAuthUsecase{
		handleCallback: func(ctx context.Context, code, state, oauthError string) usecase.CallbackResult {
			return usecase.CallbackResult{Type: usecase.CallbackError, Error: "access_denied"}
		},
	}
	router := newAuthRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/youtube/callback?error=access_denied&state=s", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()
	assert.Contains(t, page, "oauth-error")
	assert.Contains(t, page, "access_denied")
	// Closing is gated on having an opener; a direct navigation keeps the
	// message on screen.
	assert.Contains(t, page, "if (window.opener)")
}
