package chat

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mentorhub_backend/internal/models/chat"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepository interface {
	// CreateWithSequence persists msg with the next per-conversation sequence
	// number and advances the conversation's last-message fields, all in one
	// transaction. The row lock on the conversation serializes concurrent
	// senders, so Seq is monotonic regardless of arrival order.
	CreateWithSequence(msg *chat.Message) error
	FindByID(id string) (*chat.Message, error)
	FindByCorrelationID(conversationID, correlationID string) (*chat.Message, error)
	// ListByConversation returns messages ascending by Seq, paginated.
	ListByConversation(conversationID string, page, pageSize int) ([]chat.Message, int64, error)
	MarkDelivered(messageID string) error
	MarkRead(messageID string, readAt time.Time) error
	UnreadCount(conversationID, userID string) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) CreateWithSequence(msg *chat.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var conv chat.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conv, "id = ?", msg.ConversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return err
		}

		msg.Seq = conv.LastSeq + 1
		if msg.Status == "" {
			msg.Status = chat.MessageStatusSent
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(&chat.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]interface{}{
				"last_seq":        msg.Seq,
				"last_message_id": msg.ID,
				"last_message_at": now,
			}).Error
	})
}

func (r *messageRepository) FindByID(id string) (*chat.Message, error) {
	var msg chat.Message
	err := r.db.First(&msg, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) FindByCorrelationID(conversationID, correlationID string) (*chat.Message, error) {
	var msg chat.Message
	err := r.db.First(&msg, "conversation_id = ? AND correlation_id = ?", conversationID, correlationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) ListByConversation(conversationID string, page, pageSize int) ([]chat.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	query := r.db.Model(&chat.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []chat.Message
	err := query.
		Preload("Reactions").
		Order("seq ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	return messages, total, err
}

func (r *messageRepository) MarkDelivered(messageID string) error {
	return r.db.Model(&chat.Message{}).
		Where("id = ? AND status = ?", messageID, chat.MessageStatusSent).
		Update("status", chat.MessageStatusDelivered).Error
}

func (r *messageRepository) MarkRead(messageID string, readAt time.Time) error {
	return r.db.Model(&chat.Message{}).
		Where("id = ? AND read = false", messageID).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": readAt,
			"status":  chat.MessageStatusRead,
		}).Error
}

func (r *messageRepository) UnreadCount(conversationID, userID string) (int64, error) {
	var count int64
	err := r.db.Model(&chat.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read = false", conversationID, userID).
		Count(&count).Error
	return count, err
}
