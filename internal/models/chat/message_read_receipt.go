package chat

import "time"

type MessageReadReceipt struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	MessageID string `gorm:"not null;uniqueIndex:ux_receipt_user_message,priority:1"`
	UserID    string `gorm:"not null;uniqueIndex:ux_receipt_user_message,priority:2"`
	ReadAt    time.Time
}

func (MessageReadReceipt) TableName() string {
	return "chat.message_read_receipts"
}
