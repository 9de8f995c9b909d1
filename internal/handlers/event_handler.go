package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorhub_backend/internal/middleware"
	"mentorhub_backend/internal/services"
)

// EventHandler is the ingress for platform events (likes, comments, follows,
// mentions) emitted by sibling services. Each accepted event is turned into a
// notification through the fan-out pipeline; duplicate event keys are
// swallowed so producers can retry safely.
type EventHandler struct {
	*BaseHandler
	notifications services.NotificationService
}

func NewEventHandler(base *BaseHandler, notifications services.NotificationService) *EventHandler {
	return &EventHandler{
		BaseHandler:   base,
		notifications: notifications,
	}
}

func (h *EventHandler) RegisterRoutes(r *gin.RouterGroup) {
	events := r.Group("/events")
	events.Use(middleware.InternalAuthMiddleware())
	{
		events.POST("", h.IngestEvent)
	}
}

type IngestEventRequest struct {
	Type            string                 `json:"type" validate:"required"`
	RecipientID     string                 `json:"recipient_id" validate:"required,uuid"`
	SenderID        string                 `json:"sender_id" validate:"omitempty,uuid"`
	RelatedEntityID string                 `json:"related_entity_id"`
	EventKey        string                 `json:"event_key"`
	Data            map[string]interface{} `json:"data"`
}

func (h *EventHandler) IngestEvent(c *gin.Context) {
	var req IngestEventRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	notification, err := h.notifications.CreateNotification(services.CreateNotificationInput{
		RecipientID:     req.RecipientID,
		SenderID:        req.SenderID,
		Type:            req.Type,
		RelatedEntityID: req.RelatedEntityID,
		EventKey:        req.EventKey,
		Data:            req.Data,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	// nil with no error means the event was suppressed: recipient opted out
	// or the event key was already processed.
	if notification == nil {
		c.JSON(http.StatusOK, gin.H{"accepted": true, "suppressed": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"accepted": true, "notification": notification})
}
