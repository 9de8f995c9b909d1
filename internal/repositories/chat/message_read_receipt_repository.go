package chat

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mentorhub_backend/internal/models/chat"
)

type MessageReadReceiptRepository interface {
	Create(receipt *chat.MessageReadReceipt) error
	CreateMany(receipts []chat.MessageReadReceipt) error
	Exists(userID, messageID string) (bool, error)
	GetByMessageID(messageID string) ([]chat.MessageReadReceipt, error)
}

type messageReadReceiptRepository struct {
	db *gorm.DB
}

func NewMessageReadReceiptRepository(db *gorm.DB) MessageReadReceiptRepository {
	return &messageReadReceiptRepository{db: db}
}

func (r *messageReadReceiptRepository) Create(receipt *chat.MessageReadReceipt) error {
	// DoNothing keeps repeated mark-read calls idempotent at the storage
	// level as well as in the service.
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(receipt).Error
}

func (r *messageReadReceiptRepository) CreateMany(receipts []chat.MessageReadReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&receipts).Error
}

func (r *messageReadReceiptRepository) Exists(userID, messageID string) (bool, error) {
	var count int64
	err := r.db.Model(&chat.MessageReadReceipt{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error
	return count > 0, err
}

func (r *messageReadReceiptRepository) GetByMessageID(messageID string) ([]chat.MessageReadReceipt, error) {
	var receipts []chat.MessageReadReceipt
	err := r.db.Where("message_id = ?", messageID).Find(&receipts).Error
	return receipts, err
}
