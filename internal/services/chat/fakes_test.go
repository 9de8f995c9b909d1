package chat

import (
	"fmt"
	"sort"
	"time"

	modelChat "mentorhub_backend/internal/models/chat"
	repoChat "mentorhub_backend/internal/repositories/chat"
)

// In-memory repository fakes. They mirror the semantics the real
// implementations get from the database: pair normalization, per-conversation
// sequencing, unique correlation ids, reaction upserts.

type fakeConversationRepo struct {
	conversations map[string]*modelChat.Conversation
	nextID        int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: make(map[string]*modelChat.Conversation)}
}

func (f *fakeConversationRepo) FindByID(id string) (*modelChat.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return nil, repoChat.ErrConversationNotFound
	}
	copied := *conv
	return &copied, nil
}

func (f *fakeConversationRepo) GetOrCreate(userA, userB string) (*modelChat.Conversation, error) {
	a, b := modelChat.NormalizePair(userA, userB)
	for _, conv := range f.conversations {
		if conv.UserAID == a && conv.UserBID == b {
			copied := *conv
			return &copied, nil
		}
	}
	f.nextID++
	conv := &modelChat.Conversation{
		ID:        fmt.Sprintf("conv-%d", f.nextID),
		UserAID:   a,
		UserBID:   b,
		CreatedAt: time.Now(),
	}
	f.conversations[conv.ID] = conv
	copied := *conv
	return &copied, nil
}

func (f *fakeConversationRepo) FindAllByUser(userID string) ([]modelChat.Conversation, error) {
	var out []modelChat.Conversation
	for _, conv := range f.conversations {
		if conv.HasParticipant(userID) {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) PartnerIDs(userID string) ([]string, error) {
	var out []string
	for _, conv := range f.conversations {
		if partner := conv.PartnerOf(userID); partner != "" {
			out = append(out, partner)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) add(id, userA, userB string) *modelChat.Conversation {
	a, b := modelChat.NormalizePair(userA, userB)
	conv := &modelChat.Conversation{ID: id, UserAID: a, UserBID: b}
	f.conversations[id] = conv
	return conv
}

type fakeMessageRepo struct {
	conversations *fakeConversationRepo
	messages      map[string]*modelChat.Message
	nextID        int
}

func newFakeMessageRepo(conversations *fakeConversationRepo) *fakeMessageRepo {
	return &fakeMessageRepo{
		conversations: conversations,
		messages:      make(map[string]*modelChat.Message),
	}
}

func (f *fakeMessageRepo) CreateWithSequence(msg *modelChat.Message) error {
	conv, ok := f.conversations.conversations[msg.ConversationID]
	if !ok {
		return repoChat.ErrConversationNotFound
	}

	conv.LastSeq++
	f.nextID++
	msg.ID = fmt.Sprintf("msg-%d", f.nextID)
	msg.Seq = conv.LastSeq
	if msg.Status == "" {
		msg.Status = modelChat.MessageStatusSent
	}
	msg.CreatedAt = time.Now()

	stored := *msg
	f.messages[msg.ID] = &stored
	conv.LastMessageID = &stored.ID
	now := stored.CreatedAt
	conv.LastMessageAt = &now
	return nil
}

func (f *fakeMessageRepo) FindByID(id string) (*modelChat.Message, error) {
	msg, ok := f.messages[id]
	if !ok {
		return nil, repoChat.ErrMessageNotFound
	}
	copied := *msg
	return &copied, nil
}

func (f *fakeMessageRepo) FindByCorrelationID(conversationID, correlationID string) (*modelChat.Message, error) {
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID && msg.CorrelationID == correlationID {
			copied := *msg
			return &copied, nil
		}
	}
	return nil, repoChat.ErrMessageNotFound
}

func (f *fakeMessageRepo) ListByConversation(conversationID string, page, pageSize int) ([]modelChat.Message, int64, error) {
	var all []modelChat.Message
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			all = append(all, *msg)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeMessageRepo) MarkDelivered(messageID string) error {
	if msg, ok := f.messages[messageID]; ok && msg.Status == modelChat.MessageStatusSent {
		msg.Status = modelChat.MessageStatusDelivered
	}
	return nil
}

func (f *fakeMessageRepo) MarkRead(messageID string, readAt time.Time) error {
	if msg, ok := f.messages[messageID]; ok && !msg.Read {
		msg.Read = true
		msg.ReadAt = &readAt
		msg.Status = modelChat.MessageStatusRead
	}
	return nil
}

func (f *fakeMessageRepo) UnreadCount(conversationID, userID string) (int64, error) {
	var count int64
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID && msg.SenderID != userID && !msg.Read {
			count++
		}
	}
	return count, nil
}

type fakeReceiptRepo struct {
	receipts []modelChat.MessageReadReceipt
}

func (f *fakeReceiptRepo) Create(receipt *modelChat.MessageReadReceipt) error {
	f.receipts = append(f.receipts, *receipt)
	return nil
}

func (f *fakeReceiptRepo) CreateMany(receipts []modelChat.MessageReadReceipt) error {
	f.receipts = append(f.receipts, receipts...)
	return nil
}

func (f *fakeReceiptRepo) Exists(userID, messageID string) (bool, error) {
	for _, r := range f.receipts {
		if r.UserID == userID && r.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReceiptRepo) GetByMessageID(messageID string) ([]modelChat.MessageReadReceipt, error) {
	var out []modelChat.MessageReadReceipt
	for _, r := range f.receipts {
		if r.MessageID == messageID {
			out = append(out, r)
		}
	}
	return out, nil
}

type reactionKey struct {
	messageID string
	userID    string
}

type fakeReactionRepo struct {
	reactions map[reactionKey]modelChat.MessageReaction
}

func newFakeReactionRepo() *fakeReactionRepo {
	return &fakeReactionRepo{reactions: make(map[reactionKey]modelChat.MessageReaction)}
}

func (f *fakeReactionRepo) Set(reaction *modelChat.MessageReaction) error {
	key := reactionKey{messageID: reaction.MessageID, userID: reaction.UserID}
	f.reactions[key] = *reaction
	return nil
}

func (f *fakeReactionRepo) Remove(userID, messageID string) error {
	delete(f.reactions, reactionKey{messageID: messageID, userID: userID})
	return nil
}

func (f *fakeReactionRepo) GetByMessageID(messageID string) ([]modelChat.MessageReaction, error) {
	var out []modelChat.MessageReaction
	for key, r := range f.reactions {
		if key.messageID == messageID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
