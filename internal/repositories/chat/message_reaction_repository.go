package chat

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mentorhub_backend/internal/models/chat"
)

type MessageReactionRepository interface {
	// Set upserts the user's reaction on a message: a new emoji replaces any
	// previous one (one active reaction per user per message).
	Set(reaction *chat.MessageReaction) error
	Remove(userID, messageID string) error
	GetByMessageID(messageID string) ([]chat.MessageReaction, error)
}

type messageReactionRepository struct {
	db *gorm.DB
}

func NewMessageReactionRepository(db *gorm.DB) MessageReactionRepository {
	return &messageReactionRepository{db: db}
}

func (r *messageReactionRepository) Set(reaction *chat.MessageReaction) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"emoji", "created_at"}),
	}).Create(reaction).Error
}

func (r *messageReactionRepository) Remove(userID, messageID string) error {
	return r.db.Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&chat.MessageReaction{}).Error
}

func (r *messageReactionRepository) GetByMessageID(messageID string) ([]chat.MessageReaction, error) {
	var reactions []chat.MessageReaction
	err := r.db.Where("message_id = ?", messageID).Find(&reactions).Error
	return reactions, err
}
