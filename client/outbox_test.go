package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutbox_TrackAndReconcile(t *testing.T) {
	t.Parallel()
	outbox := NewOutbox()

	outbox.Track(OutboxEntry{
		CorrelationID:  "corr-1",
		ConversationID: "conv-1",
		RoomID:         "a:b",
		Text:           "hello",
	})

	entry, ok := outbox.Get("corr-1")
	require.True(t, ok)
	assert.Equal(t, OutboxSending, entry.Status)

	reconciled, ok := outbox.Reconcile("corr-1", "msg-1", 7)
	require.True(t, ok)
	assert.Equal(t, OutboxSent, reconciled.Status)
	assert.Equal(t, "msg-1", reconciled.MessageID)
	assert.Equal(t, int64(7), reconciled.Seq)
}

func TestOutbox_ReconcileRequiresExactMatch(t *testing.T) {
	t.Parallel()
	outbox := NewOutbox()

	outbox.Track(OutboxEntry{CorrelationID: "corr-1", Text: "hello"})

	// An ack for an unknown correlation id must not touch the pending entry,
	// however similar the message looks.
	_, ok := outbox.Reconcile("corr-2", "msg-9", 1)
	assert.False(t, ok)

	entry, ok := outbox.Get("corr-1")
	require.True(t, ok)
	assert.Equal(t, OutboxSending, entry.Status)
	assert.Empty(t, entry.MessageID)
}

func TestOutbox_FailAndRetry(t *testing.T) {
	t.Parallel()
	outbox := NewOutbox()

	outbox.Track(OutboxEntry{CorrelationID: "corr-1", Text: "hello"})

	failed, ok := outbox.Fail("corr-1", "persistence unavailable")
	require.True(t, ok)
	assert.Equal(t, OutboxFailed, failed.Status)
	assert.Equal(t, "persistence unavailable", failed.FailReason)

	retry, ok := outbox.TakeForRetry("corr-1")
	require.True(t, ok)
	assert.Equal(t, OutboxSending, retry.Status)
	assert.Empty(t, retry.FailReason)
	// The retry reuses the original correlation id so the server can
	// deduplicate a send that actually got through.
	assert.Equal(t, "corr-1", retry.CorrelationID)
}

func TestOutbox_OnlyFailedEntriesAreRetryable(t *testing.T) {
	t.Parallel()
	outbox := NewOutbox()

	outbox.Track(OutboxEntry{CorrelationID: "corr-1"})
	_, ok := outbox.TakeForRetry("corr-1")
	assert.False(t, ok)

	outbox.Reconcile("corr-1", "msg-1", 1)
	_, ok = outbox.TakeForRetry("corr-1")
	assert.False(t, ok)

	_, ok = outbox.TakeForRetry("unknown")
	assert.False(t, ok)
}

func TestOutbox_PendingAndDrop(t *testing.T) {
	t.Parallel()
	outbox := NewOutbox()

	outbox.Track(OutboxEntry{CorrelationID: "corr-1"})
	outbox.Track(OutboxEntry{CorrelationID: "corr-2"})
	outbox.Reconcile("corr-2", "msg-2", 2)

	pending := outbox.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "corr-1", pending[0].CorrelationID)

	outbox.Drop("corr-1")
	_, ok := outbox.Get("corr-1")
	assert.False(t, ok)
}
