package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorhub_backend/internal/middleware"
	"mentorhub_backend/internal/models"
	"mentorhub_backend/internal/repositories"
	"mentorhub_backend/internal/services"
	"mentorhub_backend/pkg/apperrors"
)

type NotificationHandler struct {
	*BaseHandler
	notifications services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notifications services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:   base,
		notifications: notifications,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", h.GetUserNotifications)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.PUT("/:notificationId/read", h.MarkAsRead)
		notifications.PUT("/read-all", h.MarkAllAsRead)
		notifications.PUT("/preferences", h.SetPreference)
	}
}

func (h *NotificationHandler) GetUserNotifications(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	page, pageSize := ParsePagination(c)
	criteria := repositories.NotificationCriteria{
		UnreadOnly: c.Query("unread_only") == "true",
		Type:       c.Query("type"),
		Page:       page,
		PageSize:   pageSize,
	}
	if criteria.Type != "" && !models.IsValidNotificationType(criteria.Type) {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Unknown notification type: "+criteria.Type))
		return
	}

	notifications, total, err := h.notifications.GetUserNotifications(userID, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
	})
}

func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	count, err := h.notifications.GetUnreadCount(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	notificationID := c.Param("notificationId")

	if err := h.notifications.MarkAsRead(userID, notificationID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkAllAsRead(userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type SetPreferenceRequest struct {
	Type    string `json:"type" validate:"required"`
	Enabled *bool  `json:"enabled" validate:"required"`
}

// SetPreference upserts a per-type opt-out. A user with no stored preference
// row receives everything.
func (h *NotificationHandler) SetPreference(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req SetPreferenceRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.notifications.SetPreference(userID, req.Type, *req.Enabled); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
