package ws

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiryRecorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *expiryRecorder) record(roomID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, roomID+"/"+userID)
}

func (r *expiryRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fired...)
}

func TestTypingCoordinator_ExpiresStaleBurst(t *testing.T) {
	t.Parallel()
	rec := &expiryRecorder{}
	coordinator := NewTypingCoordinator(30*time.Millisecond, rec.record)

	coordinator.Start("a:b", "a")
	assert.True(t, coordinator.Active("a:b", "a"))

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"a:b/a"}, rec.snapshot())
	assert.False(t, coordinator.Active("a:b", "a"))
}

func TestTypingCoordinator_StopCancelsTimer(t *testing.T) {
	t.Parallel()
	rec := &expiryRecorder{}
	coordinator := NewTypingCoordinator(30*time.Millisecond, rec.record)

	coordinator.Start("a:b", "a")
	coordinator.Stop("a:b", "a")
	assert.False(t, coordinator.Active("a:b", "a"))

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestTypingCoordinator_RestartResetsTimer(t *testing.T) {
	t.Parallel()
	rec := &expiryRecorder{}
	coordinator := NewTypingCoordinator(50*time.Millisecond, rec.record)

	coordinator.Start("a:b", "a")
	time.Sleep(30 * time.Millisecond)
	coordinator.Start("a:b", "a")
	time.Sleep(30 * time.Millisecond)

	// The second start pushed expiry out; nothing has fired yet.
	assert.Empty(t, rec.snapshot())
	assert.True(t, coordinator.Active("a:b", "a"))
}

func TestTypingCoordinator_StopAllForUser(t *testing.T) {
	t.Parallel()
	rec := &expiryRecorder{}
	coordinator := NewTypingCoordinator(30*time.Millisecond, rec.record)

	coordinator.Start("a:b", "a")
	coordinator.Start("a:c", "a")
	coordinator.Start("a:b", "b")

	coordinator.StopAllFor("a")

	assert.False(t, coordinator.Active("a:b", "a"))
	assert.False(t, coordinator.Active("a:c", "a"))
	assert.True(t, coordinator.Active("a:b", "b"))
}

func TestTypingCoordinator_FlushFiresExpiryImmediately(t *testing.T) {
	t.Parallel()
	rec := &expiryRecorder{}
	coordinator := NewTypingCoordinator(time.Minute, rec.record)

	coordinator.Start("a:b", "a")
	coordinator.Flush("a:b", "a")

	assert.Equal(t, []string{"a:b/a"}, rec.snapshot())
	assert.False(t, coordinator.Active("a:b", "a"))

	// Flushing an inactive burst is a no-op, no double fire.
	coordinator.Flush("a:b", "a")
	assert.Equal(t, []string{"a:b/a"}, rec.snapshot())
}

func TestTypingCoordinator_FlushAllForFiresEveryBurst(t *testing.T) {
	t.Parallel()
	rec := &expiryRecorder{}
	coordinator := NewTypingCoordinator(time.Minute, rec.record)

	coordinator.Start("a:b", "a")
	coordinator.Start("a:c", "a")
	coordinator.Start("a:b", "b")

	// Disconnect path: every burst of "a" ends with a synthetic stop, the
	// other typist's timer keeps running.
	coordinator.FlushAllFor("a")

	assert.ElementsMatch(t, []string{"a:b/a", "a:c/a"}, rec.snapshot())
	assert.False(t, coordinator.Active("a:b", "a"))
	assert.False(t, coordinator.Active("a:c", "a"))
	assert.True(t, coordinator.Active("a:b", "b"))
}
