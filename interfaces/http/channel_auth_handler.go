package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"clipbridge-api/domain/dto"
	"clipbridge-api/infrastructure/logger"
	"clipbridge-api/usecase"
)

type IChannelAuthHandler interface {
	Dispatch(ctx *gin.Context)
	Callback(ctx *gin.Context)
}

type ChannelAuthHandler struct {
	channelAuthUsecase usecase.IChannelAuthUsecase
}

func NewChannelAuthHandler(channelAuthUsecase usecase.IChannelAuthUsecase) IChannelAuthHandler {
	return &ChannelAuthHandler{channelAuthUsecase: channelAuthUsecase}
}

// Dispatch handles GET/POST /auth/youtube. The operation is selected by an
// action parameter carried in the query string or a JSON body.
func (h *ChannelAuthHandler) Dispatch(ctx *gin.Context) {
	var req dto.AuthActionRequest
	if ctx.Request.Method == http.MethodPost && ctx.ContentType() == "application/json" {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Action == "" {
		req.Action = ctx.Query("action")
	}
	if req.ChannelID == "" {
		req.ChannelID = ctx.Query("channel_id")
	}
	if req.RedirectURL == "" {
		req.RedirectURL = ctx.Query("redirect_url")
	}

	switch req.Action {
	case "start-auth":
		h.startAuth(ctx, req)
	case "refresh-token":
		h.refreshToken(ctx, req)
	case "check-channel":
		h.checkChannel(ctx, req)
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown action %q", req.Action)})
	}
}

func (h *ChannelAuthHandler) startAuth(ctx *gin.Context, req dto.AuthActionRequest) {
	resp, err := h.channelAuthUsecase.StartAuth(ctx.Request.Context(), req.ChannelID, req.RedirectURL)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrChannelNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrMissingCredentials):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.GetLogger().WithField("error", err).Error("start-auth failed")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func (h *ChannelAuthHandler) refreshToken(ctx *gin.Context, req dto.AuthActionRequest) {
	resp, err := h.channelAuthUsecase.RefreshToken(ctx.Request.Context(), req.ChannelID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrChannelNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrChannelNotConfigured):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrTokenRevoked):
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "revoked": true})
		default:
			// Transient. The caller retries; the record is untouched.
			ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "revoked": false})
		}
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func (h *ChannelAuthHandler) checkChannel(ctx *gin.Context, req dto.AuthActionRequest) {
	resp, err := h.channelAuthUsecase.CheckChannel(ctx.Request.Context(), req.ChannelID)
	if err != nil {
		if errors.Is(err, usecase.ErrChannelNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.GetLogger().WithField("error", err).Error("check-channel failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Callback handles GET /auth/youtube/callback. It is loaded as a popup
// navigation target, so the response is always an HTML completion page that
// messages the opener window; it can never answer JSON.
func (h *ChannelAuthHandler) Callback(ctx *gin.Context) {
	result := h.channelAuthUsecase.HandleCallback(
		ctx.Request.Context(),
		ctx.Query("code"),
		ctx.Query("state"),
		ctx.Query("error"),
	)
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", completionPage(result))
}

// completionPage renders the page that posts the result to the opener and
// closes itself. Without an opener the success page still closes; the error
// page fails closed, leaving a readable message for manual close.
func completionPage(result usecase.CallbackResult) []byte {
	payload := map[string]interface{}{"type": result.Type}
	if result.Type == usecase.CallbackSuccess {
		payload["channelId"] = result.ChannelID
		payload["channelTitle"] = result.ChannelTitle
		payload["authStatus"] = string(result.AuthStatus)
	} else {
		payload["error"] = result.Error
	}
	message, _ := json.Marshal(payload)

	if result.Type == usecase.CallbackSuccess {
		return []byte(fmt.Sprintf(`<!DOCTYPE html><html><head><title>YouTube Connected</title></head><body>
<p>Authorization complete. This window will close.</p>
<script>
if (window.opener) { window.opener.postMessage(%s, '*'); }
setTimeout(function () { window.close(); }, 1500);
</script></body></html>`, message))
	}

	escaped, _ := json.Marshal(result.Error)
	return []byte(fmt.Sprintf(`<!DOCTYPE html><html><head><title>YouTube Authorization Failed</title></head><body>
<p id="msg">Authorization failed.</p>
<script>
document.getElementById('msg').textContent = 'Authorization failed: ' + %s + '. You can close this window.';
if (window.opener) { window.opener.postMessage(%s, '*'); setTimeout(function () { window.close(); }, 1500); }
</script></body></html>`, escaped, message))
}
