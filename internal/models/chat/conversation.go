package chat

import (
	"strings"
	"time"
)

// Conversation is a persisted 1:1 thread. The participant pair is normalized
// so UserAID < UserBID lexicographically; together with the unique index this
// guarantees exactly one conversation per unordered pair.
type Conversation struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserAID string `gorm:"not null;uniqueIndex:ux_conversation_pair,priority:1"`
	UserBID string `gorm:"not null;uniqueIndex:ux_conversation_pair,priority:2"`

	LastMessageID *string `gorm:"index"`
	LastMessageAt *time.Time
	// LastSeq is the high-water mark of the server-issued message sequence.
	// It is advanced inside the send transaction, never by clients.
	LastSeq int64 `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	LastMessage *Message `gorm:"foreignKey:LastMessageID"`
}

func (Conversation) TableName() string {
	return "chat.conversations"
}

// NormalizePair orders a participant pair for storage.
func NormalizePair(a, b string) (string, string) {
	if strings.Compare(a, b) <= 0 {
		return a, b
	}
	return b, a
}

// RoomID derives the live room identity for a participant pair. It is not
// stored anywhere: RoomID(a, b) == RoomID(b, a) by construction.
func RoomID(a, b string) string {
	x, y := NormalizePair(a, b)
	return x + ":" + y
}

// RoomIDFor returns the room identity of an existing conversation.
func (c *Conversation) RoomIDFor() string {
	return RoomID(c.UserAID, c.UserBID)
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// PartnerOf returns the other participant, or "" if userID is not a member.
func (c *Conversation) PartnerOf(userID string) string {
	switch userID {
	case c.UserAID:
		return c.UserBID
	case c.UserBID:
		return c.UserAID
	}
	return ""
}
