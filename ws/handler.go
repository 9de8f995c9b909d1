package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/logger"
	"mentorhub_backend/internal/services"
	serviceschat "mentorhub_backend/internal/services/chat"
)

// Handler upgrades authenticated HTTP requests to socket connections and
// hands them to the manager.
type Handler struct {
	manager       *Manager
	chat          *serviceschat.ChatService
	reactions     *serviceschat.ReactionService
	notifications services.NotificationService
	typing        *TypingCoordinator
	upgrader      websocket.Upgrader
}

func NewHandler(
	cfg *config.Config,
	manager *Manager,
	chatSvc *serviceschat.ChatService,
	reactionSvc *serviceschat.ReactionService,
	notificationSvc services.NotificationService,
	typing *TypingCoordinator,
) *Handler {
	return &Handler{
		manager:       manager,
		chat:          chatSvc,
		reactions:     reactionSvc,
		notifications: notificationSvc,
		typing:        typing,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				// Auth happens in middleware before the upgrade; origin
				// allow-listing belongs to the fronting proxy.
				return true
			},
		},
	}
}

// ServeWS expects WSAuthMiddleware to have run: userID/userName are in the
// gin context.
func (h *Handler) ServeWS(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws: upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := newClient(
		userID,
		c.GetString("userName"),
		conn,
		h.manager,
		h.chat,
		h.reactions,
		h.notifications,
		h.typing,
	)

	h.manager.register <- client

	go client.readPump()
	go client.writePump()
}
