package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modelChat "mentorhub_backend/internal/models/chat"
	"mentorhub_backend/pkg/apperrors"
)

func newTestChatService() (*ChatService, *fakeConversationRepo, *fakeMessageRepo, *fakeReceiptRepo) {
	conversations := newFakeConversationRepo()
	messages := newFakeMessageRepo(conversations)
	receipts := &fakeReceiptRepo{}
	return NewChatService(conversations, messages, receipts), conversations, messages, receipts
}

func TestGetOrCreateConversation_Idempotent(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestChatService()

	first, err := svc.GetOrCreateConversation("bob", "alice")
	require.NoError(t, err)
	second, err := svc.GetOrCreateConversation("alice", "bob")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice", first.UserAID)
	assert.Equal(t, "bob", first.UserBID)
}

func TestGetOrCreateConversation_RejectsSelf(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestChatService()

	_, err := svc.GetOrCreateConversation("alice", "alice")
	assert.Error(t, err)

	_, err = svc.GetOrCreateConversation("alice", "")
	assert.Error(t, err)
}

func TestSendMessage_RejectsEmptyContent(t *testing.T) {
	t.Parallel()
	svc, conversations, _, _ := newTestChatService()
	conversations.add("conv-1", "alice", "bob")

	_, err := svc.SendMessage(SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "   ",
		CorrelationID:  "corr-1",
	})
	assert.Error(t, err)

	_, err = svc.SendMessage(SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "hello",
		CorrelationID:  "",
	})
	assert.Error(t, err)
}

func TestSendMessage_RejectsNonParticipant(t *testing.T) {
	t.Parallel()
	svc, conversations, _, _ := newTestChatService()
	conversations.add("conv-1", "alice", "bob")

	_, err := svc.SendMessage(SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "mallory",
		Content:        "hi",
		CorrelationID:  "corr-1",
	})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeNotParticipant, appErr.Code)
}

func TestSendMessage_PersistsWithStatusSent(t *testing.T) {
	t.Parallel()
	svc, conversations, _, _ := newTestChatService()
	conversations.add("conv-1", "alice", "bob")

	// The recipient being offline is invisible here: the pipeline persists
	// with status sent and leaves the delivered transition to the socket
	// layer.
	result, err := svc.SendMessage(SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "hello bob",
		CorrelationID:  "corr-1",
	})
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, modelChat.MessageStatusSent, result.Message.Status)
	assert.False(t, result.Message.Read)
	assert.Equal(t, int64(1), result.Message.Seq)
	assert.NotEmpty(t, result.Message.ID)
}

func TestSendMessage_DuplicateCorrelationIDReplays(t *testing.T) {
	t.Parallel()
	svc, conversations, _, _ := newTestChatService()
	conversations.add("conv-1", "alice", "bob")

	first, err := svc.SendMessage(SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "hello",
		CorrelationID:  "corr-1",
	})
	require.NoError(t, err)

	replay, err := svc.SendMessage(SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "hello",
		CorrelationID:  "corr-1",
	})
	require.NoError(t, err)

	assert.True(t, replay.Duplicate)
	assert.Equal(t, first.Message.ID, replay.Message.ID)
	assert.Equal(t, first.Message.Seq, replay.Message.Seq)
}

func TestSendMessage_SequenceIsMonotonic(t *testing.T) {
	t.Parallel()
	svc, conversations, _, _ := newTestChatService()
	conversations.add("conv-1", "alice", "bob")

	for i := 1; i <= 5; i++ {
		sender := "alice"
		if i%2 == 0 {
			sender = "bob"
		}
		result, err := svc.SendMessage(SendMessageInput{
			ConversationID: "conv-1",
			SenderID:       sender,
			Content:        "message",
			CorrelationID:  fmt.Sprintf("corr-%d", i),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i), result.Message.Seq)
	}

	messages, total, err := svc.GetMessages("alice", "conv-1", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	for i := 1; i < len(messages); i++ {
		assert.Greater(t, messages[i].Seq, messages[i-1].Seq)
	}
}

func TestMarkDelivered_OnlyFromSent(t *testing.T) {
	t.Parallel()
	svc, conversations, messages, _ := newTestChatService()
	conversations.add("conv-1", "alice", "bob")

	result, err := svc.SendMessage(SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "hello",
		CorrelationID:  "corr-1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkDelivered(result.Message.ID))
	msg, err := messages.FindByID(result.Message.ID)
	require.NoError(t, err)
	assert.Equal(t, modelChat.MessageStatusDelivered, msg.Status)

	// Read outranks delivered; a late delivered ack must not regress it.
	_, err = svc.MarkRead("bob", result.Message.ID)
	require.NoError(t, err)
	require.NoError(t, svc.MarkDelivered(result.Message.ID))

	msg, err = messages.FindByID(result.Message.ID)
	require.NoError(t, err)
	assert.Equal(t, modelChat.MessageStatusRead, msg.Status)
}

func TestMarkRead_Idempotent(t *testing.T) {
	t.Parallel()
	svc, conversations, _, receipts := newTestChatService()
	conversations.add("conv-1", "alice", "bob")

	result, err := svc.SendMessage(SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "hello",
		CorrelationID:  "corr-1",
	})
	require.NoError(t, err)

	first, err := svc.MarkRead("bob", result.Message.ID)
	require.NoError(t, err)
	assert.True(t, first.Read)
	assert.Equal(t, modelChat.MessageStatusRead, first.Status)
	assert.NotNil(t, first.ReadAt)

	again, err := svc.MarkRead("bob", result.Message.ID)
	require.NoError(t, err)
	assert.True(t, again.Read)

	// One receipt, not two.
	assert.Len(t, receipts.receipts, 1)
}

func TestMarkRead_RejectsOwnMessage(t *testing.T) {
	t.Parallel()
	svc, conversations, _, _ := newTestChatService()
	conversations.add("conv-1", "alice", "bob")

	result, err := svc.SendMessage(SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "hello",
		CorrelationID:  "corr-1",
	})
	require.NoError(t, err)

	_, err = svc.MarkRead("alice", result.Message.ID)
	assert.Error(t, err)
}

func TestMarkAllRead_FlipsOnlyInboundUnread(t *testing.T) {
	t.Parallel()
	svc, conversations, _, receipts := newTestChatService()
	conversations.add("conv-1", "alice", "bob")

	for i := 0; i < 3; i++ {
		_, err := svc.SendMessage(SendMessageInput{
			ConversationID: "conv-1",
			SenderID:       "alice",
			Content:        "from alice",
			CorrelationID:  fmt.Sprintf("a-%d", i),
		})
		require.NoError(t, err)
	}
	_, err := svc.SendMessage(SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "bob",
		Content:        "from bob",
		CorrelationID:  "b-0",
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkAllRead("bob", "conv-1"))

	unreadForBob, err := svc.UnreadCount("bob", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), unreadForBob)

	// Bob's own message stays unread from alice's side.
	unreadForAlice, err := svc.UnreadCount("alice", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unreadForAlice)

	assert.Len(t, receipts.receipts, 3)
}

func TestGetMessages_ChecksMembership(t *testing.T) {
	t.Parallel()
	svc, conversations, _, _ := newTestChatService()
	conversations.add("conv-1", "alice", "bob")

	_, _, err := svc.GetMessages("mallory", "conv-1", 1, 50)
	assert.Error(t, err)

	_, _, err = svc.GetMessages("alice", "missing", 1, 50)
	assert.Error(t, err)
}
