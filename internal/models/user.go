package models

// User mirrors the identity records owned by the platform's auth service.
// The messaging core reads it for auth claims, presence subscriber lookups
// and notification template rendering; it never creates or mutates users.
type User struct {
	BaseModel
	Email       string `gorm:"uniqueIndex;not null"`
	DisplayName string `gorm:"not null"`
	AvatarURL   string
}
