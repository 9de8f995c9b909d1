package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"mentorhub_backend/internal/models"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrDuplicateEvent is returned when a notification with the same event
	// key was already persisted; the caller must treat the call as a no-op.
	ErrDuplicateEvent = errors.New("duplicate notification event")
)

// NotificationCriteria narrows a user's notification listing.
type NotificationCriteria struct {
	UnreadOnly bool   `form:"unread_only"`
	Type       string `form:"type"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

type NotificationRepository interface {
	Create(notification *models.Notification) error
	FindByID(id string) (*models.Notification, error)
	FindForUser(userID string, criteria NotificationCriteria) ([]models.Notification, int64, error)
	MarkAsRead(notificationID string) error
	MarkAllAsRead(userID string) error
	GetUnreadCount(userID string) (int64, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)

	// Preferences. A missing row means the type is enabled.
	FindPreference(userID, notificationType string) (*models.NotificationPreference, error)
	UpsertPreference(pref *models.NotificationPreference) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *models.Notification) error {
	err := r.db.Create(notification).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEvent
	}
	return err
}

func (r *notificationRepository) FindByID(id string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) FindForUser(userID string, criteria NotificationCriteria) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("recipient_id = ?", userID)

	if criteria.UnreadOnly {
		query = query.Where("is_read = false")
	}
	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := criteria.Page
	if page < 1 {
		page = 1
	}
	pageSize := criteria.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var notifications []models.Notification
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&notifications).Error
	return notifications, total, err
}

func (r *notificationRepository) MarkAsRead(notificationID string) error {
	now := time.Now()
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND is_read = false", notificationID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
}

func (r *notificationRepository) MarkAllAsRead(userID string) error {
	now := time.Now()
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
}

func (r *notificationRepository) GetUnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", userID).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("created_at < ? AND is_read = true", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) FindPreference(userID, notificationType string) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := r.db.First(&pref, "user_id = ? AND type = ?", userID, notificationType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

func (r *notificationRepository) UpsertPreference(pref *models.NotificationPreference) error {
	existing, err := r.FindPreference(pref.UserID, pref.Type)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(pref).Error
	}
	return r.db.Model(&models.NotificationPreference{}).
		Where("id = ?", existing.ID).
		Update("enabled", pref.Enabled).Error
}
