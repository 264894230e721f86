package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clipbridge-api/domain/dto"
	"clipbridge-api/infrastructure/logger"
	"clipbridge-api/usecase"
)

type IChannelHandler interface {
	Create(ctx *gin.Context)
	List(ctx *gin.Context)
	Get(ctx *gin.Context)
	AuthStatus(ctx *gin.Context)
	AuthEvents(ctx *gin.Context)
	UploadToken(ctx *gin.Context)
}

type ChannelHandler struct {
	channelAuthUsecase usecase.IChannelAuthUsecase
	tokenProvider      usecase.IUploadTokenProvider
}

func NewChannelHandler(channelAuthUsecase usecase.IChannelAuthUsecase, tokenProvider usecase.IUploadTokenProvider) IChannelHandler {
	return &ChannelHandler{
		channelAuthUsecase: channelAuthUsecase,
		tokenProvider:      tokenProvider,
	}
}

// Create handles POST /api/channels.
func (h *ChannelHandler) Create(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}

	var req dto.CreateChannelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.channelAuthUsecase.CreateChannel(ctx.Request.Context(), userID, &req)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("user_id", userID).Error("create channel failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ctx.JSON(http.StatusCreated, rec)
}

// List handles GET /api/channels.
func (h *ChannelHandler) List(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}

	channels, err := h.channelAuthUsecase.ListChannels(ctx.Request.Context(), userID)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("user_id", userID).Error("list channels failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"channels": channels})
}

// Get handles GET /api/channels/:channelId.
func (h *ChannelHandler) Get(ctx *gin.Context) {
	rec, err := h.channelAuthUsecase.GetChannel(ctx.Request.Context(), ctx.Param("channelId"))
	if err != nil {
		if errors.Is(err, usecase.ErrChannelNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.GetLogger().WithField("error", err).Error("get channel failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ctx.JSON(http.StatusOK, rec)
}

// AuthStatus handles GET /api/channels/:channelId/auth-status, the poll
// target the authorization orchestrator watches.
func (h *ChannelHandler) AuthStatus(ctx *gin.Context) {
	resp, err := h.channelAuthUsecase.GetAuthStatus(ctx.Request.Context(), ctx.Param("channelId"))
	if err != nil {
		if errors.Is(err, usecase.ErrChannelNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.GetLogger().WithField("error", err).Error("auth status failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// AuthEvents handles GET /api/channels/:channelId/auth-events.
func (h *ChannelHandler) AuthEvents(ctx *gin.Context) {
	events, err := h.channelAuthUsecase.GetAuthEvents(ctx.Request.Context(), ctx.Param("channelId"), 50)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("auth events failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"events": events})
}

// UploadToken handles POST /api/channels/:channelId/upload-token. A revoked
// channel is fatal for the pipeline; any other failure is retryable.
func (h *ChannelHandler) UploadToken(ctx *gin.Context) {
	token, err := h.tokenProvider.EnsureFreshAccessToken(ctx.Request.Context(), ctx.Param("channelId"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrChannelNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrChannelNotConfigured):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrTokenRevoked):
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "revoked": true})
		default:
			ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "revoked": false})
		}
		return
	}
	ctx.JSON(http.StatusOK, token)
}
