package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorhub_backend/internal/middleware"
	serviceschat "mentorhub_backend/internal/services/chat"
	"mentorhub_backend/pkg/apperrors"
)

type ChatHandler struct {
	*BaseHandler
	chat      *serviceschat.ChatService
	reactions *serviceschat.ReactionService
}

func NewChatHandler(base *BaseHandler, chat *serviceschat.ChatService, reactions *serviceschat.ReactionService) *ChatHandler {
	return &ChatHandler{
		BaseHandler: base,
		chat:        chat,
		reactions:   reactions,
	}
}

func (h *ChatHandler) RegisterRoutes(r *gin.RouterGroup) {
	chat := r.Group("/chat")
	chat.Use(middleware.AuthMiddleware())
	{
		chat.GET("/conversations", h.ListConversations)
		chat.POST("/conversations", h.CreateConversation)
		chat.GET("/conversations/:conversationId/messages", h.GetMessages)
		chat.PUT("/conversations/:conversationId/read-all", h.MarkAllRead)
		chat.GET("/conversations/:conversationId/unread-count", h.GetUnreadCount)
		chat.GET("/messages/:messageId/reactions", h.GetMessageReactions)
	}
}

type CreateConversationRequest struct {
	PartnerID string `json:"partner_id" validate:"required,uuid"`
}

// CreateConversation returns the existing conversation with the partner or
// creates one. The endpoint is idempotent for a given user pair.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req CreateConversationRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}
	if req.PartnerID == userID {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Cannot start a conversation with yourself"))
		return
	}

	conv, err := h.chat.GetOrCreateConversation(userID, req.PartnerID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation": conv,
		"room_id":      conv.RoomIDFor(),
	})
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	conversations, err := h.chat.ListConversations(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetMessages returns conversation history ordered by sequence number
// ascending, paginated.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	conversationID := c.Param("conversationId")
	page, pageSize := ParsePagination(c)

	messages, total, err := h.chat.GetMessages(userID, conversationID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":  messages,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// MarkAllRead marks every unread message addressed to the caller in the
// conversation as read.
func (h *ChatHandler) MarkAllRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	conversationID := c.Param("conversationId")

	if err := h.chat.MarkAllRead(userID, conversationID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ChatHandler) GetUnreadCount(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	conversationID := c.Param("conversationId")

	count, err := h.chat.UnreadCount(userID, conversationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (h *ChatHandler) GetMessageReactions(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}
	messageID := c.Param("messageId")

	aggregate, err := h.reactions.Aggregate(messageID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": aggregate})
}
