package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modelChat "mentorhub_backend/internal/models/chat"
	"mentorhub_backend/pkg/apperrors"
)

func newTestReactionService() (*ReactionService, *fakeConversationRepo, *fakeMessageRepo) {
	conversations := newFakeConversationRepo()
	messages := newFakeMessageRepo(conversations)
	return NewReactionService(newFakeReactionRepo(), messages, conversations), conversations, messages
}

func seedMessage(t *testing.T, conversations *fakeConversationRepo, messages *fakeMessageRepo) *modelChat.Message {
	t.Helper()
	conversations.add("conv-1", "alice", "bob")
	msg := &modelChat.Message{
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "hello",
		CorrelationID:  "corr-1",
	}
	require.NoError(t, messages.CreateWithSequence(msg))
	return msg
}

func TestReactionSet_ReplacesPreviousEmoji(t *testing.T) {
	t.Parallel()
	svc, conversations, messages := newTestReactionService()
	msg := seedMessage(t, conversations, messages)

	convID, err := svc.Set("bob", msg.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", convID)

	// Same user, new emoji: the old reaction is replaced, not added to.
	_, err = svc.Set("bob", msg.ID, "❤️")
	require.NoError(t, err)

	aggregate, err := svc.Aggregate(msg.ID)
	require.NoError(t, err)
	require.Len(t, aggregate, 1)
	assert.Equal(t, "❤️", aggregate[0].Emoji)
	assert.Equal(t, 1, aggregate[0].Count)
	assert.Equal(t, []string{"bob"}, aggregate[0].UserIDs)
}

func TestReactionSet_ValidatesInput(t *testing.T) {
	t.Parallel()
	svc, conversations, messages := newTestReactionService()
	msg := seedMessage(t, conversations, messages)

	_, err := svc.Set("bob", msg.ID, "")
	assert.Error(t, err)

	_, err = svc.Set("bob", "missing", "👍")
	assert.Error(t, err)
}

func TestReactionRemove(t *testing.T) {
	t.Parallel()
	svc, conversations, messages := newTestReactionService()
	msg := seedMessage(t, conversations, messages)

	_, err := svc.Set("bob", msg.ID, "👍")
	require.NoError(t, err)

	convID, err := svc.Remove("bob", msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", convID)

	aggregate, err := svc.Aggregate(msg.ID)
	require.NoError(t, err)
	assert.Empty(t, aggregate)
}

func TestReactionSet_RejectsNonParticipant(t *testing.T) {
	t.Parallel()
	svc, conversations, messages := newTestReactionService()
	msg := seedMessage(t, conversations, messages)

	_, err := svc.Set("mallory", msg.ID, "👍")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeNotParticipant, appErr.Code)

	// Nothing was recorded for the outsider.
	aggregate, err := svc.Aggregate(msg.ID)
	require.NoError(t, err)
	assert.Empty(t, aggregate)
}

func TestReactionRemove_RejectsNonParticipant(t *testing.T) {
	t.Parallel()
	svc, conversations, messages := newTestReactionService()
	msg := seedMessage(t, conversations, messages)

	_, err := svc.Set("bob", msg.ID, "👍")
	require.NoError(t, err)

	_, err = svc.Remove("mallory", msg.ID)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeNotParticipant, appErr.Code)

	// Bob's reaction survives the outsider's remove attempt.
	aggregate, err := svc.Aggregate(msg.ID)
	require.NoError(t, err)
	require.Len(t, aggregate, 1)
	assert.Equal(t, []string{"bob"}, aggregate[0].UserIDs)
}

func TestAggregateReactions_Ordering(t *testing.T) {
	t.Parallel()

	reactions := []modelChat.MessageReaction{
		{MessageID: "m1", UserID: "u1", Emoji: "👍"},
		{MessageID: "m1", UserID: "u2", Emoji: "👍"},
		{MessageID: "m1", UserID: "u3", Emoji: "❤️"},
		{MessageID: "m1", UserID: "u4", Emoji: "😂"},
		{MessageID: "m1", UserID: "u5", Emoji: "😂"},
	}

	counts := AggregateReactions(reactions)
	require.Len(t, counts, 3)

	// Most-used first, ties broken by emoji.
	assert.Equal(t, 2, counts[0].Count)
	assert.Equal(t, 2, counts[1].Count)
	assert.Less(t, counts[0].Emoji, counts[1].Emoji)
	assert.Equal(t, "❤️", counts[2].Emoji)
	assert.Equal(t, 1, counts[2].Count)
}

func TestAggregateReactions_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, AggregateReactions(nil))
}
