package services

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"mentorhub_backend/internal/logger"
	"mentorhub_backend/internal/models"
	"mentorhub_backend/internal/repositories"
	"mentorhub_backend/pkg/apperrors"
)

// NotificationPusher delivers a finished notification to the recipient's
// user-scoped channel. Implemented by the ws manager; nil disables pushing
// (persistence still happens).
type NotificationPusher interface {
	PushNotification(userID string, notification *models.Notification)
}

// Per-type content templates, rendered from the sender's display name. The
// rendered text overwrites whatever content the triggering event supplied.
var notificationTemplates = map[string]string{
	models.NotificationTypeLike:    "%s liked your post",
	models.NotificationTypeComment: "%s commented on your post",
	models.NotificationTypeFollow:  "%s started following you",
	models.NotificationTypeMessage: "%s sent you a message",
	models.NotificationTypeMention: "%s mentioned you in a post",
}

type NotificationService interface {
	CreateNotification(input CreateNotificationInput) (*models.Notification, error)
	GetUserNotifications(userID string, criteria repositories.NotificationCriteria) ([]models.Notification, int64, error)
	MarkAsRead(userID, notificationID string) error
	MarkAllAsRead(userID string) error
	GetUnreadCount(userID string) (int64, error)
	SetPreference(userID, notificationType string, enabled bool) error
	CleanOldNotifications(days int) (int64, error)
}

type CreateNotificationInput struct {
	RecipientID     string
	SenderID        string
	Type            string
	Content         string
	RelatedEntityID string
	// EventKey deduplicates the triggering domain event. Optional; when set,
	// a second call with the same key is a silent no-op.
	EventKey string
	Data     map[string]interface{}
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	pusher           NotificationPusher
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	pusher NotificationPusher,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pusher:           pusher,
	}
}

// CreateNotification runs the fan-out pipeline: preference gate, template
// rendering, persistence (with event-key dedup), then the user-channel push.
// A disabled preference or a duplicate event returns (nil, nil): no record,
// no event.
func (s *notificationService) CreateNotification(input CreateNotificationInput) (*models.Notification, error) {
	if !models.IsValidNotificationType(input.Type) {
		return nil, apperrors.NewBadRequestError("Invalid notification type")
	}

	if _, err := s.userRepo.FindByID(input.RecipientID); err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	pref, err := s.notificationRepo.FindPreference(input.RecipientID, input.Type)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if pref != nil && !pref.Enabled {
		logger.Debug("notification: type disabled by recipient preference",
			"recipient_id", input.RecipientID, "type", input.Type)
		return nil, nil
	}

	content := s.renderContent(input)

	notification := &models.Notification{
		RecipientID:     input.RecipientID,
		SenderID:        input.SenderID,
		Type:            input.Type,
		Content:         content,
		RelatedEntityID: input.RelatedEntityID,
		IsRead:          false,
	}
	if input.EventKey != "" {
		key := input.EventKey
		notification.EventKey = &key
	}
	if input.Data != nil {
		if raw, err := json.Marshal(input.Data); err == nil {
			notification.Data = datatypes.JSON(raw)
		}
	}

	if err := s.notificationRepo.Create(notification); err != nil {
		if apperrors.Is(err, repositories.ErrDuplicateEvent) {
			logger.Debug("notification: duplicate event ignored", "event_key", input.EventKey)
			return nil, nil
		}
		return nil, apperrors.InternalError(err)
	}

	if s.pusher != nil {
		s.pusher.PushNotification(input.RecipientID, notification)
	}
	return notification, nil
}

// renderContent builds the final text from the per-type template and the
// sender's display name, falling back to the caller content only for types
// without a template.
func (s *notificationService) renderContent(input CreateNotificationInput) string {
	template, ok := notificationTemplates[input.Type]
	if !ok {
		return input.Content
	}

	senderName := "Someone"
	if input.SenderID != "" {
		if sender, err := s.userRepo.FindByID(input.SenderID); err == nil {
			senderName = sender.DisplayName
		}
	}
	return fmt.Sprintf(template, senderName)
}

func (s *notificationService) GetUserNotifications(userID string, criteria repositories.NotificationCriteria) ([]models.Notification, int64, error) {
	return s.notificationRepo.FindForUser(userID, criteria)
}

func (s *notificationService) MarkAsRead(userID, notificationID string) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		return apperrors.ErrNotFound(err)
	}
	if notification.RecipientID != userID {
		return apperrors.NewForbiddenError("Access denied")
	}
	return s.notificationRepo.MarkAsRead(notificationID)
}

func (s *notificationService) MarkAllAsRead(userID string) error {
	return s.notificationRepo.MarkAllAsRead(userID)
}

func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	return s.notificationRepo.GetUnreadCount(userID)
}

func (s *notificationService) SetPreference(userID, notificationType string, enabled bool) error {
	if !models.IsValidNotificationType(notificationType) {
		return apperrors.NewBadRequestError("Invalid notification type")
	}
	return s.notificationRepo.UpsertPreference(&models.NotificationPreference{
		UserID:  userID,
		Type:    notificationType,
		Enabled: enabled,
	})
}

func (s *notificationService) CleanOldNotifications(days int) (int64, error) {
	if days <= 0 {
		return 0, apperrors.NewBadRequestError("Retention window must be positive")
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	return s.notificationRepo.DeleteOlderThan(cutoff)
}
