package chat

import (
	"errors"

	"gorm.io/gorm"

	"mentorhub_backend/internal/models/chat"
)

var ErrConversationNotFound = errors.New("conversation not found")

type ConversationRepository interface {
	FindByID(id string) (*chat.Conversation, error)
	// GetOrCreate returns the single conversation for an unordered user pair,
	// creating it on first use. Idempotent and symmetric in its arguments.
	GetOrCreate(userA, userB string) (*chat.Conversation, error)
	FindAllByUser(userID string) ([]chat.Conversation, error)
	// PartnerIDs returns every user who shares a conversation with userID.
	// This is the presence subscriber set.
	PartnerIDs(userID string) ([]string, error)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) FindByID(id string) (*chat.Conversation, error) {
	var conv chat.Conversation
	err := r.db.Preload("LastMessage").First(&conv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) GetOrCreate(userA, userB string) (*chat.Conversation, error) {
	a, b := chat.NormalizePair(userA, userB)

	var conv chat.Conversation
	err := r.db.First(&conv, "user_a_id = ? AND user_b_id = ?", a, b).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = chat.Conversation{UserAID: a, UserBID: b}
	if err := r.db.Create(&conv).Error; err != nil {
		// Concurrent first-message race: the pair index rejected our insert,
		// somebody else created it. Re-read and return theirs.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing chat.Conversation
			if ferr := r.db.First(&existing, "user_a_id = ? AND user_b_id = ?", a, b).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindAllByUser(userID string) ([]chat.Conversation, error) {
	var conversations []chat.Conversation
	err := r.db.
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Preload("LastMessage").
		Order("last_message_at DESC NULLS LAST").
		Find(&conversations).Error
	return conversations, err
}

func (r *conversationRepository) PartnerIDs(userID string) ([]string, error) {
	var partners []string
	err := r.db.Model(&chat.Conversation{}).
		Select("CASE WHEN user_a_id = ? THEN user_b_id ELSE user_a_id END", userID).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Scan(&partners).Error
	return partners, err
}
