package chat

import "time"

// Message delivery lifecycle. Sent means persisted and acked to the sender;
// Delivered means the recipient's socket received it while connected; Read
// means the recipient explicitly marked it. The payload (content, sender,
// created_at) is immutable after persistence; only Status and Read move.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

type Message struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ConversationID string `gorm:"not null;index;uniqueIndex:ux_message_seq,priority:1;uniqueIndex:ux_message_correlation,priority:1"`
	SenderID       string `gorm:"index;not null"`
	Content        string `gorm:"type:text;not null"`
	// Seq is the server-issued per-conversation ordering. Client timestamps
	// are untrusted for ordering.
	Seq int64 `gorm:"not null;uniqueIndex:ux_message_seq,priority:2"`
	// CorrelationID is the client-generated id used to match the sender's
	// provisional copy to this canonical record. Unique per conversation so a
	// replayed send never creates a second record.
	CorrelationID string `gorm:"not null;uniqueIndex:ux_message_correlation,priority:2"`

	Status string `gorm:"default:'sent'"`
	Read   bool   `gorm:"default:false"`
	ReadAt *time.Time

	CreatedAt time.Time

	Reactions    []MessageReaction    `gorm:"foreignKey:MessageID"`
	ReadReceipts []MessageReadReceipt `gorm:"foreignKey:MessageID"`
}

func (Message) TableName() string {
	return "chat.messages"
}
