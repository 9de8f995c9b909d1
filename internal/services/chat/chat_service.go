package chat

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"mentorhub_backend/internal/logger"
	modelChat "mentorhub_backend/internal/models/chat"
	repoChat "mentorhub_backend/internal/repositories/chat"
	"mentorhub_backend/pkg/apperrors"
)

// ChatService drives the message pipeline: validation, correlation-id
// deduplication, sequenced persistence and the delivery/read state machine.
// Broadcasting is the ws layer's job and always happens after persistence.
type ChatService struct {
	Conversations repoChat.ConversationRepository
	Messages      repoChat.MessageRepository
	ReadReceipts  repoChat.MessageReadReceiptRepository
}

func NewChatService(
	conversations repoChat.ConversationRepository,
	messages repoChat.MessageRepository,
	readReceipts repoChat.MessageReadReceiptRepository,
) *ChatService {
	return &ChatService{
		Conversations: conversations,
		Messages:      messages,
		ReadReceipts:  readReceipts,
	}
}

type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Content        string
	CorrelationID  string
}

// SendResult reports whether the pipeline stored a new message or replayed a
// previously stored one (same correlation id).
type SendResult struct {
	Message   *modelChat.Message
	Duplicate bool
}

// GetOrCreateConversation is the idempotent, symmetric entry point for a
// message intent between two users.
func (s *ChatService) GetOrCreateConversation(userID, partnerID string) (*modelChat.Conversation, error) {
	if partnerID == "" || partnerID == userID {
		return nil, apperrors.NewBadRequestError("Invalid conversation partner")
	}
	return s.Conversations.GetOrCreate(userID, partnerID)
}

func (s *ChatService) ListConversations(userID string) ([]modelChat.Conversation, error) {
	return s.Conversations.FindAllByUser(userID)
}

func (s *ChatService) SendMessage(input SendMessageInput) (*SendResult, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.NewBadRequestError("Message text must not be empty")
	}
	if input.CorrelationID == "" {
		return nil, apperrors.NewBadRequestError("Missing correlation id")
	}

	conv, err := s.Conversations.FindByID(input.ConversationID)
	if err != nil {
		if apperrors.Is(err, repoChat.ErrConversationNotFound) {
			return nil, apperrors.NewBadRequestError("Unknown conversation")
		}
		return nil, apperrors.InternalError(err)
	}
	if !conv.HasParticipant(input.SenderID) {
		return nil, apperrors.ErrNotParticipant(input.SenderID, input.ConversationID)
	}

	// Replay of an already-stored correlation id returns the canonical record
	// instead of creating a second one.
	if existing, err := s.Messages.FindByCorrelationID(input.ConversationID, input.CorrelationID); err == nil {
		logger.Debug("chat: duplicate send ignored",
			"conversation_id", input.ConversationID,
			"correlation_id", input.CorrelationID)
		return &SendResult{Message: existing, Duplicate: true}, nil
	} else if !apperrors.Is(err, repoChat.ErrMessageNotFound) {
		return nil, apperrors.InternalError(err)
	}

	msg := &modelChat.Message{
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		Content:        input.Content,
		CorrelationID:  input.CorrelationID,
		Status:         modelChat.MessageStatusSent,
	}

	if err := s.Messages.CreateWithSequence(msg); err != nil {
		// Two replays racing past the dedup read: the unique index caught the
		// second insert, so surface the first record.
		if apperrors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, ferr := s.Messages.FindByCorrelationID(input.ConversationID, input.CorrelationID); ferr == nil {
				return &SendResult{Message: existing, Duplicate: true}, nil
			}
		}
		return nil, apperrors.ErrSendFailed(err, input.CorrelationID)
	}

	return &SendResult{Message: msg, Duplicate: false}, nil
}

// MarkDelivered transitions sent -> delivered. Called only when the recipient
// socket actually received the broadcast; an offline recipient stays at sent.
func (s *ChatService) MarkDelivered(messageID string) error {
	return s.Messages.MarkDelivered(messageID)
}

// MarkRead is idempotent: the first call flips read=false -> true and records
// a receipt, later calls are no-ops.
func (s *ChatService) MarkRead(userID, messageID string) (*modelChat.Message, error) {
	msg, err := s.Messages.FindByID(messageID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if msg.SenderID == userID {
		return nil, apperrors.NewBadRequestError("Cannot mark own message as read")
	}

	conv, err := s.Conversations.FindByID(msg.ConversationID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.ErrNotParticipant(userID, msg.ConversationID)
	}

	if msg.Read {
		return msg, nil
	}

	now := time.Now()
	if err := s.ReadReceipts.Create(&modelChat.MessageReadReceipt{
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    now,
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.Messages.MarkRead(messageID, now); err != nil {
		return nil, apperrors.InternalError(err)
	}

	msg.Read = true
	msg.ReadAt = &now
	msg.Status = modelChat.MessageStatusRead
	return msg, nil
}

// MarkAllRead flips every unread message addressed to userID in the
// conversation; used by the REST collaborator surface when a chat is opened.
func (s *ChatService) MarkAllRead(userID, conversationID string) error {
	conv, err := s.Conversations.FindByID(conversationID)
	if err != nil {
		return apperrors.ErrNotFound(err)
	}
	if !conv.HasParticipant(userID) {
		return apperrors.ErrNotParticipant(userID, conversationID)
	}

	page := 1
	for {
		messages, _, err := s.Messages.ListByConversation(conversationID, page, 200)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if len(messages) == 0 {
			return nil
		}

		now := time.Now()
		var receipts []modelChat.MessageReadReceipt
		for _, msg := range messages {
			if msg.SenderID == userID || msg.Read {
				continue
			}
			receipts = append(receipts, modelChat.MessageReadReceipt{
				MessageID: msg.ID,
				UserID:    userID,
				ReadAt:    now,
			})
			if err := s.Messages.MarkRead(msg.ID, now); err != nil {
				return apperrors.InternalError(err)
			}
		}
		if err := s.ReadReceipts.CreateMany(receipts); err != nil {
			return apperrors.InternalError(err)
		}
		if len(messages) < 200 {
			return nil
		}
		page++
	}
}

// GetMessages returns conversation history ascending by server-assigned
// sequence, never by client timestamp.
func (s *ChatService) GetMessages(userID, conversationID string, page, pageSize int) ([]modelChat.Message, int64, error) {
	conv, err := s.Conversations.FindByID(conversationID)
	if err != nil {
		return nil, 0, apperrors.ErrNotFound(err)
	}
	if !conv.HasParticipant(userID) {
		return nil, 0, apperrors.ErrNotParticipant(userID, conversationID)
	}
	return s.Messages.ListByConversation(conversationID, page, pageSize)
}

func (s *ChatService) UnreadCount(userID, conversationID string) (int64, error) {
	return s.Messages.UnreadCount(conversationID, userID)
}

// GetConversation loads a conversation after checking membership.
func (s *ChatService) GetConversation(userID, conversationID string) (*modelChat.Conversation, error) {
	conv, err := s.Conversations.FindByID(conversationID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.ErrNotParticipant(userID, conversationID)
	}
	return conv, nil
}
