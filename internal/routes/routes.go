package routes

import (
	"github.com/gin-gonic/gin"

	"mentorhub_backend/internal/handlers"
	"mentorhub_backend/internal/logger"
	"mentorhub_backend/internal/middleware"
	"mentorhub_backend/ws"
)

// RegisterRoutes wires the HTTP API and the WebSocket endpoint.
func RegisterRoutes(
	router *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.Handler,
) {
	api := router.Group("/api/v1")
	{
		appHandlers.ChatHandler.RegisterRoutes(api)
		appHandlers.NotificationHandler.RegisterRoutes(api)
	}

	// Ingress for domain events emitted by sibling services.
	internal := router.Group("/internal")
	{
		appHandlers.EventHandler.RegisterRoutes(internal)
	}

	wsGroup := router.Group("/ws")
	wsGroup.Use(middleware.WSAuthMiddleware())
	{
		wsGroup.GET("", wsHandler.ServeWS)
	}
	logger.Info("WebSocket route /ws registered")
}
