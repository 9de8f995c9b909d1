package ws

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"mentorhub_backend/internal/logger"
	"mentorhub_backend/internal/models"
	modelChat "mentorhub_backend/internal/models/chat"
	"mentorhub_backend/internal/services"
	serviceschat "mentorhub_backend/internal/services/chat"
	"mentorhub_backend/pkg/apperrors"
)

// Client is one authenticated socket connection. Event handlers run to
// completion on the read pump goroutine; outgoing traffic goes through the
// buffered Send channel drained by the write pump.
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn
	Send chan OutgoingEvent

	done      chan struct{}
	closeOnce sync.Once

	manager       *Manager
	chat          *serviceschat.ChatService
	reactions     *serviceschat.ReactionService
	notifications services.NotificationService
	typing        *TypingCoordinator
}

func newClient(
	userID, name string,
	conn *websocket.Conn,
	manager *Manager,
	chatSvc *serviceschat.ChatService,
	reactionSvc *serviceschat.ReactionService,
	notificationSvc services.NotificationService,
	typing *TypingCoordinator,
) *Client {
	return &Client{
		ID:            userID,
		Name:          name,
		Conn:          conn,
		Send:          make(chan OutgoingEvent, manager.sendQueueSize),
		done:          make(chan struct{}),
		manager:       manager,
		chat:          chatSvc,
		reactions:     reactionSvc,
		notifications: notificationSvc,
		typing:        typing,
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue offers an event to the write pump without blocking. False means
// the client is gone or too slow to keep.
func (c *Client) enqueue(ev OutgoingEvent) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- ev:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		// The client's own stop_typing will never arrive now; flush fires the
		// synthetic one for every burst still active.
		c.typing.FlushAllFor(c.ID)
		c.manager.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws: read error", "user_id", c.ID, "error", err)
			}
			return
		}

		var ev IncomingEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			logger.Warn("ws: malformed event envelope", "user_id", c.ID, "error", err)
			c.sendError(apperrors.CodeValidationFailed, "malformed event envelope")
			continue
		}

		c.handleEvent(ev)
	}
}

func (c *Client) writePump() {
	defer c.Conn.Close()
	for {
		select {
		case ev := <-c.Send:
			if err := c.Conn.WriteJSON(ev); err != nil {
				logger.Warn("ws: write error", "user_id", c.ID, "error", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) handleEvent(ev IncomingEvent) {
	switch ev.Event {
	case EventJoinRoom:
		c.handleJoinRoom(ev.Data)
	case EventLeaveRoom:
		c.handleLeaveRoom(ev.Data)
	case EventSendMessage:
		c.handleSendMessage(ev.Data)
	case EventMarkMessageRead:
		c.handleMarkRead(ev.Data)
	case EventTyping:
		c.handleTyping(ev.Data, true)
	case EventStopTyping:
		c.handleTyping(ev.Data, false)
	case EventAddReaction:
		c.handleAddReaction(ev.Data)
	case EventRemoveReaction:
		c.handleRemoveReaction(ev.Data)
	default:
		logger.Debug("ws: unhandled event", "event", ev.Event, "user_id", c.ID)
	}
}

// roomMember checks that this connection's user is one of the two
// participants encoded in the derived room id.
func roomMember(roomID, userID string) bool {
	parts := strings.SplitN(roomID, ":", 2)
	return len(parts) == 2 && (parts[0] == userID || parts[1] == userID)
}

func (c *Client) handleJoinRoom(data json.RawMessage) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomID == "" {
		c.sendError(apperrors.CodeValidationFailed, "invalid join_room payload")
		return
	}
	if !roomMember(payload.RoomID, c.ID) {
		c.sendError(apperrors.CodeForbidden, "not a member of this room")
		return
	}

	c.manager.JoinRoom(payload.RoomID, c.ID)
	c.enqueue(OutgoingEvent{Event: EventJoinedRoom, Data: JoinRoomPayload{RoomID: payload.RoomID}})
}

func (c *Client) handleLeaveRoom(data json.RawMessage) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomID == "" {
		return
	}
	c.typing.Flush(payload.RoomID, c.ID)
	c.manager.LeaveRoom(payload.RoomID, c.ID)
}

func (c *Client) handleSendMessage(data json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.sendError(apperrors.CodeValidationFailed, "invalid send_message payload")
		return
	}

	result, err := c.chat.SendMessage(serviceschat.SendMessageInput{
		ConversationID: payload.ConversationID,
		SenderID:       c.ID,
		Content:        payload.Text,
		CorrelationID:  payload.CorrelationID,
	})
	if err != nil {
		// Persistence and validation failures are acked to the sender with a
		// reason; a silent drop would strand the client in "sending".
		c.sendMessageError(payload.CorrelationID, err)
		return
	}

	msg := result.Message

	// Room identity is derived from the conversation, never taken from the
	// payload: a forged room id must not leak the message into an unrelated
	// room or skew the delivered decision.
	conv, err := c.chat.GetConversation(c.ID, msg.ConversationID)
	if err != nil {
		c.sendMessageError(payload.CorrelationID, err)
		return
	}
	roomID := conv.RoomIDFor()
	partnerID := conv.PartnerOf(c.ID)

	if result.Duplicate {
		// Replay: re-ack the canonical record, nothing new to broadcast.
		c.ackDelivered(msg)
		return
	}

	// The recipient only counts as delivered-to if their socket actually
	// accepted the broadcast; room membership alone is not enough, a slow
	// client dropped mid-broadcast never saw the message.
	reached := c.manager.BroadcastToRoom(roomID, EventReceiveMessage, NewMessageView(msg, roomID), c.ID)
	delivered := partnerID != "" && lo.Contains(reached, partnerID)
	if delivered {
		if err := c.chat.MarkDelivered(msg.ID); err != nil {
			logger.Error("ws: mark delivered failed", "message_id", msg.ID, "error", err)
		} else {
			msg.Status = modelChat.MessageStatusDelivered
		}
	}
	c.ackDelivered(msg)

	// Recipients the broadcast did not reach get a push on their
	// notification channel instead.
	if partnerID != "" && !delivered {
		if _, err := c.notifications.CreateNotification(services.CreateNotificationInput{
			RecipientID:     partnerID,
			SenderID:        c.ID,
			Type:            models.NotificationTypeMessage,
			RelatedEntityID: msg.ConversationID,
			EventKey:        "message:" + msg.ID,
		}); err != nil {
			logger.Error("ws: message notification failed", "message_id", msg.ID, "error", err)
		}
	}
}

func (c *Client) ackDelivered(msg *modelChat.Message) {
	c.enqueue(OutgoingEvent{Event: EventMessageDelivered, Data: DeliveredPayload{
		CorrelationID: msg.CorrelationID,
		MessageID:     msg.ID,
		Status:        msg.Status,
		Seq:           msg.Seq,
		Timestamp:     msg.CreatedAt,
	}})
}

func (c *Client) handleMarkRead(data json.RawMessage) {
	var payload MarkReadPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.MessageID == "" {
		c.sendError(apperrors.CodeValidationFailed, "invalid mark_message_read payload")
		return
	}

	msg, err := c.chat.MarkRead(c.ID, payload.MessageID)
	if err != nil {
		logger.Warn("ws: mark read failed", "message_id", payload.MessageID, "user_id", c.ID, "error", err)
		return
	}

	readAt := time.Now()
	if msg.ReadAt != nil {
		readAt = *msg.ReadAt
	}
	roomID := modelChat.RoomID(c.ID, msg.SenderID)
	c.manager.BroadcastToRoom(roomID, EventMessageRead, MessageReadPayload{
		MessageID: msg.ID,
		ReadBy:    c.ID,
		ReadAt:    readAt,
	})
}

// handleTyping relays a typing signal to the other room members. The server
// keeps no typing state beyond the auto-expiry timer that synthesizes a
// stop_typing if the client's own stop never arrives.
func (c *Client) handleTyping(data json.RawMessage, start bool) {
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomID == "" {
		return
	}
	if !roomMember(payload.RoomID, c.ID) {
		return
	}

	signal := TypingPayload{RoomID: payload.RoomID, UserID: c.ID}
	if start {
		c.typing.Start(payload.RoomID, c.ID)
		c.manager.BroadcastToRoom(payload.RoomID, EventTyping, signal, c.ID)
	} else {
		c.typing.Stop(payload.RoomID, c.ID)
		c.manager.BroadcastToRoom(payload.RoomID, EventStopTyping, signal, c.ID)
	}
}

func (c *Client) handleAddReaction(data json.RawMessage) {
	var payload ReactionPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.MessageID == "" {
		c.sendError(apperrors.CodeValidationFailed, "invalid add_reaction payload")
		return
	}

	if _, err := c.reactions.Set(c.ID, payload.MessageID, payload.Emoji); err != nil {
		c.sendError(apperrors.CodeInvalidOperation, "failed to add reaction")
		return
	}
	c.broadcastReactionDelta(payload.RoomID, payload.MessageID, payload.Emoji, false)
}

func (c *Client) handleRemoveReaction(data json.RawMessage) {
	var payload ReactionPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.MessageID == "" {
		return
	}
	if _, err := c.reactions.Remove(c.ID, payload.MessageID); err != nil {
		return
	}
	c.broadcastReactionDelta(payload.RoomID, payload.MessageID, "", true)
}

func (c *Client) broadcastReactionDelta(roomID, messageID, emoji string, removed bool) {
	aggregate, err := c.reactions.Aggregate(messageID)
	if err != nil {
		logger.Error("ws: reaction aggregate failed", "message_id", messageID, "error", err)
		return
	}
	c.manager.BroadcastToRoom(roomID, EventMessageReaction, MessageReactionPayload{
		MessageID: messageID,
		UserID:    c.ID,
		Emoji:     emoji,
		Removed:   removed,
		Reactions: aggregate,
	})
}

func (c *Client) sendError(code apperrors.ErrorCode, reason string) {
	c.enqueue(OutgoingEvent{Event: EventError, Data: ErrorPayload{Code: string(code), Reason: reason}})
}

func (c *Client) sendMessageError(correlationID string, err error) {
	code := apperrors.CodeSendFailed
	reason := "failed to send message"
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		code = appErr.Code
		reason = appErr.Message
	}
	logger.Error("ws: send failed", "user_id", c.ID, "correlation_id", correlationID, "error", err)
	c.enqueue(OutgoingEvent{Event: EventMessageError, Data: MessageErrorPayload{
		CorrelationID: correlationID,
		Code:          string(code),
		Reason:        reason,
	}})
}
