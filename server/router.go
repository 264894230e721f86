package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"clipbridge-api/infrastructure/configuration"
	httpHandler "clipbridge-api/interfaces/http"
	"clipbridge-api/interfaces/middleware"
)

func InitiateRouter(
	channelAuthHandler httpHandler.IChannelAuthHandler,
	channelHandler httpHandler.IChannelHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	allowOrigins := configuration.C.Cors.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:4200", "https://localhost:4200"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// OAuth gateway. The popup callback must stay outside the JWT wall:
	// Google navigates to it directly.
	router.GET("/auth/youtube", channelAuthHandler.Dispatch)
	router.POST("/auth/youtube", channelAuthHandler.Dispatch)
	router.GET("/auth/youtube/callback", channelAuthHandler.Callback)

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("api")
	api.Use(middleware.Auth())

	api.POST("/channels", channelHandler.Create)
	api.GET("/channels", channelHandler.List)
	api.GET("/channels/:channelId", channelHandler.Get)
	api.GET("/channels/:channelId/auth-status", channelHandler.AuthStatus)
	api.GET("/channels/:channelId/auth-events", channelHandler.AuthEvents)
	api.POST("/channels/:channelId/upload-token", channelHandler.UploadToken)

	return router
}
