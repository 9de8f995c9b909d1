package chat

import (
	"sort"

	"github.com/samber/lo"

	modelChat "mentorhub_backend/internal/models/chat"
	repoChat "mentorhub_backend/internal/repositories/chat"
	"mentorhub_backend/pkg/apperrors"
)

// ReactionService enforces the one-active-reaction-per-(user, message)
// policy: setting a new emoji replaces the previous one. Only conversation
// participants may react.
type ReactionService struct {
	Reactions     repoChat.MessageReactionRepository
	Messages      repoChat.MessageRepository
	Conversations repoChat.ConversationRepository
}

func NewReactionService(
	reactions repoChat.MessageReactionRepository,
	messages repoChat.MessageRepository,
	conversations repoChat.ConversationRepository,
) *ReactionService {
	return &ReactionService{
		Reactions:     reactions,
		Messages:      messages,
		Conversations: conversations,
	}
}

// EmojiCount is one display grouping of a message's reactions.
type EmojiCount struct {
	Emoji   string   `json:"emoji"`
	Count   int      `json:"count"`
	UserIDs []string `json:"user_ids"`
}

// Set records userID's reaction on a message and returns the message's
// conversation id so the caller can route the broadcast.
func (s *ReactionService) Set(userID, messageID, emoji string) (string, error) {
	if emoji == "" {
		return "", apperrors.NewBadRequestError("Missing emoji")
	}

	msg, err := s.Messages.FindByID(messageID)
	if err != nil {
		return "", apperrors.ErrNotFound(err)
	}
	if err := s.requireParticipant(userID, msg.ConversationID); err != nil {
		return "", err
	}

	if err := s.Reactions.Set(&modelChat.MessageReaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
	}); err != nil {
		return "", apperrors.InternalError(err)
	}
	return msg.ConversationID, nil
}

func (s *ReactionService) Remove(userID, messageID string) (string, error) {
	msg, err := s.Messages.FindByID(messageID)
	if err != nil {
		return "", apperrors.ErrNotFound(err)
	}
	if err := s.requireParticipant(userID, msg.ConversationID); err != nil {
		return "", err
	}
	if err := s.Reactions.Remove(userID, messageID); err != nil {
		return "", apperrors.InternalError(err)
	}
	return msg.ConversationID, nil
}

func (s *ReactionService) requireParticipant(userID, conversationID string) error {
	conv, err := s.Conversations.FindByID(conversationID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if !conv.HasParticipant(userID) {
		return apperrors.ErrNotParticipant(userID, conversationID)
	}
	return nil
}

// Aggregate groups a message's reactions into emoji -> count for display.
func (s *ReactionService) Aggregate(messageID string) ([]EmojiCount, error) {
	reactions, err := s.Reactions.GetByMessageID(messageID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return AggregateReactions(reactions), nil
}

// AggregateReactions is the pure grouping step, shared with the ws layer so
// reaction deltas carry the fresh aggregate.
func AggregateReactions(reactions []modelChat.MessageReaction) []EmojiCount {
	grouped := lo.GroupBy(reactions, func(r modelChat.MessageReaction) string {
		return r.Emoji
	})

	emojis := lo.Keys(grouped)
	// Stable order for clients: most-used first, ties by emoji.
	counts := lo.Map(emojis, func(emoji string, _ int) EmojiCount {
		rs := grouped[emoji]
		return EmojiCount{
			Emoji: emoji,
			Count: len(rs),
			UserIDs: lo.Map(rs, func(r modelChat.MessageReaction, _ int) string {
				return r.UserID
			}),
		}
	})
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Emoji < counts[j].Emoji
	})
	return counts
}
