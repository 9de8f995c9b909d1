package ws

import (
	"encoding/json"
	"time"

	"mentorhub_backend/internal/models"
	modelChat "mentorhub_backend/internal/models/chat"
	serviceschat "mentorhub_backend/internal/services/chat"
)

// Socket event names. Client->server events arrive as {"event": ..., "data":
// ...} envelopes; server->client traffic uses the same shape.
const (
	EventJoinRoom   = "join_room"
	EventLeaveRoom  = "leave_room"
	EventJoinedRoom = "joined_room"

	EventSendMessage      = "send_message"
	EventReceiveMessage   = "receive_message"
	EventMessageDelivered = "message_delivered"
	EventMarkMessageRead  = "mark_message_read"
	EventMessageRead      = "message_read"
	EventMessageError     = "message_error"

	EventTyping     = "typing"
	EventStopTyping = "stop_typing"

	EventAddReaction     = "add_reaction"
	EventRemoveReaction  = "remove_reaction"
	EventMessageReaction = "message_reaction"

	EventUserStatusChange = "user_status_change"
	EventNotification     = "notification"

	EventError = "error"
)

// IncomingEvent is the raw client->server envelope.
type IncomingEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutgoingEvent is the server->client envelope.
type OutgoingEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
}

// SendMessagePayload carries a message intent. RoomID is accepted for wire
// compatibility but ignored; the server derives the room from the
// conversation.
type SendMessagePayload struct {
	RoomID         string `json:"room_id"`
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	CorrelationID  string `json:"correlation_id"`
}

// MessageView is the wire form of a stored message.
type MessageView struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	RoomID         string    `json:"room_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	Seq            int64     `json:"seq"`
	Status         string    `json:"status"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewMessageView(msg *modelChat.Message, roomID string) MessageView {
	return MessageView{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		RoomID:         roomID,
		SenderID:       msg.SenderID,
		Text:           msg.Content,
		Seq:            msg.Seq,
		Status:         msg.Status,
		Read:           msg.Read,
		CreatedAt:      msg.CreatedAt,
	}
}

// DeliveredPayload acks a send back to the sender, correlating the canonical
// id to the client-generated one.
type DeliveredPayload struct {
	CorrelationID string    `json:"correlation_id"`
	MessageID     string    `json:"message_id"`
	Status        string    `json:"status"`
	Seq           int64     `json:"seq"`
	Timestamp     time.Time `json:"timestamp"`
}

// MessageErrorPayload tells the sender a send failed and why. Failures are
// always acked, never dropped server-side.
type MessageErrorPayload struct {
	CorrelationID string `json:"correlation_id"`
	Code          string `json:"code"`
	Reason        string `json:"reason"`
}

type MarkReadPayload struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
}

type MessageReadPayload struct {
	MessageID string    `json:"message_id"`
	ReadBy    string    `json:"read_by"`
	ReadAt    time.Time `json:"read_at"`
}

type TypingPayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

type ReactionPayload struct {
	MessageID string `json:"message_id"`
	RoomID    string `json:"room_id"`
	Emoji     string `json:"emoji"`
}

// MessageReactionPayload is the reaction delta broadcast to the room,
// carrying the fresh aggregate so clients do not have to recompute.
type MessageReactionPayload struct {
	MessageID string                    `json:"message_id"`
	UserID    string                    `json:"user_id"`
	Emoji     string                    `json:"emoji,omitempty"`
	Removed   bool                      `json:"removed,omitempty"`
	Reactions []serviceschat.EmojiCount `json:"reactions"`
}

type StatusChangePayload struct {
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type NotificationPayload struct {
	Notification *models.Notification `json:"notification"`
}

type ErrorPayload struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}
