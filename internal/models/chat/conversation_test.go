package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePair(t *testing.T) {
	t.Parallel()

	a, b := NormalizePair("bob", "alice")
	assert.Equal(t, "alice", a)
	assert.Equal(t, "bob", b)

	a, b = NormalizePair("alice", "bob")
	assert.Equal(t, "alice", a)
	assert.Equal(t, "bob", b)
}

func TestRoomID_Symmetric(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RoomID("u1", "u2"), RoomID("u2", "u1"))
	assert.Equal(t, "u1:u2", RoomID("u2", "u1"))
}

func TestConversation_Participants(t *testing.T) {
	t.Parallel()

	conv := &Conversation{UserAID: "alice", UserBID: "bob"}

	assert.True(t, conv.HasParticipant("alice"))
	assert.True(t, conv.HasParticipant("bob"))
	assert.False(t, conv.HasParticipant("mallory"))

	assert.Equal(t, "bob", conv.PartnerOf("alice"))
	assert.Equal(t, "alice", conv.PartnerOf("bob"))
	assert.Equal(t, "", conv.PartnerOf("mallory"))

	assert.Equal(t, "alice:bob", conv.RoomIDFor())
}
