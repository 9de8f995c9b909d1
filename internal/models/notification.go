package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types produced by platform domain events.
const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeFollow  = "follow"
	NotificationTypeMessage = "message"
	NotificationTypeMention = "mention"
)

type Notification struct {
	BaseModel
	RecipientID string `gorm:"not null;index"`
	SenderID    string `gorm:"index"`
	Type        string `gorm:"not null"`
	Content     string `gorm:"not null"`
	// RelatedEntityID points at the post/comment/conversation the event
	// happened on, so the UI can deep-link.
	RelatedEntityID string
	Data            datatypes.JSON `gorm:"type:jsonb"`
	// EventKey deduplicates fan-out: the same domain event delivered twice
	// must not produce two notifications. Empty means no dedup requested.
	EventKey *string `gorm:"uniqueIndex"`
	IsRead   bool    `gorm:"default:false"`
	ReadAt   *time.Time

	Sender *User `gorm:"foreignKey:SenderID"`
}

// NotificationPreference is a per-user, per-type opt-out. A missing row
// means the type is enabled.
type NotificationPreference struct {
	BaseModel
	UserID  string `gorm:"not null;uniqueIndex:ux_notification_pref,priority:1"`
	Type    string `gorm:"not null;uniqueIndex:ux_notification_pref,priority:2"`
	Enabled bool   `gorm:"default:true"`
}

func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationTypeLike, NotificationTypeComment, NotificationTypeFollow,
		NotificationTypeMessage, NotificationTypeMention:
		return true
	}
	return false
}
