package chat

import "time"

// MessageReaction holds one user's active reaction to a message. The unique
// index enforces the one-reaction-per-user-per-message policy: setting a new
// emoji replaces the previous row.
type MessageReaction struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	MessageID string `gorm:"not null;uniqueIndex:ux_reaction_user_message,priority:1"`
	UserID    string `gorm:"not null;uniqueIndex:ux_reaction_user_message,priority:2"`
	Emoji     string `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time
}

func (MessageReaction) TableName() string {
	return "chat.message_reactions"
}
