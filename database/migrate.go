package database

import (
	"gorm.io/gorm"

	"mentorhub_backend/internal/models"
	chatmodels "mentorhub_backend/internal/models/chat"
)

// AutoMigrate creates or updates the schema for every persisted model. The
// chat tables live in the "chat" schema; it must exist before migration runs.
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE SCHEMA IF NOT EXISTS chat`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.NotificationPreference{},
		&chatmodels.Conversation{},
		&chatmodels.Message{},
		&chatmodels.MessageReaction{},
		&chatmodels.MessageReadReceipt{},
	)
}
