package ws

import (
	"sync"
	"time"
)

type typingKey struct {
	roomID string
	userID string
}

// TypingCoordinator relays are stateless; what it owns is the safety net: a
// per-(room, user) expiry timer that synthesizes a stop_typing broadcast when
// a client vanishes mid-burst (closed tab, dropped connection) and its own
// stop never arrives. Each fresh typing signal resets the timer.
type TypingCoordinator struct {
	mu     sync.Mutex
	timers map[typingKey]*time.Timer
	ttl    time.Duration
	// expire is invoked off the coordinator lock when a burst times out.
	expire func(roomID, userID string)
}

func NewTypingCoordinator(ttl time.Duration, expire func(roomID, userID string)) *TypingCoordinator {
	if ttl <= 0 {
		ttl = 6 * time.Second
	}
	return &TypingCoordinator{
		timers: make(map[typingKey]*time.Timer),
		ttl:    ttl,
		expire: expire,
	}
}

// Start arms (or re-arms) the expiry timer for an active typing burst.
func (t *TypingCoordinator) Start(roomID, userID string) {
	key := typingKey{roomID: roomID, userID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.timers[key]; ok {
		timer.Reset(t.ttl)
		return
	}
	t.timers[key] = time.AfterFunc(t.ttl, func() {
		t.fire(key)
	})
}

// Stop cancels the timer after an explicit stop_typing.
func (t *TypingCoordinator) Stop(roomID, userID string) {
	key := typingKey{roomID: roomID, userID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
}

// StopAllFor cancels every pending burst of a user across rooms without
// firing the expiry callback.
func (t *TypingCoordinator) StopAllFor(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.timers {
		if key.userID == userID {
			timer.Stop()
			delete(t.timers, key)
		}
	}
}

// Flush ends an active burst immediately, firing the expiry callback so the
// room gets its stop_typing. Used when the typist leaves the room before
// sending an explicit stop.
func (t *TypingCoordinator) Flush(roomID, userID string) {
	key := typingKey{roomID: roomID, userID: userID}

	t.mu.Lock()
	timer, ok := t.timers[key]
	if ok {
		timer.Stop()
		delete(t.timers, key)
	}
	t.mu.Unlock()

	if ok && t.expire != nil {
		t.expire(key.roomID, key.userID)
	}
}

// FlushAllFor ends every active burst of a user across rooms, firing the
// expiry callback for each. This is the disconnect path: the client's own
// stop_typing will never arrive, so the synthetic one must go out now rather
// than die with the cancelled timer.
func (t *TypingCoordinator) FlushAllFor(userID string) {
	t.mu.Lock()
	var flushed []typingKey
	for key, timer := range t.timers {
		if key.userID == userID {
			timer.Stop()
			delete(t.timers, key)
			flushed = append(flushed, key)
		}
	}
	t.mu.Unlock()

	if t.expire == nil {
		return
	}
	for _, key := range flushed {
		t.expire(key.roomID, key.userID)
	}
}

func (t *TypingCoordinator) fire(key typingKey) {
	t.mu.Lock()
	_, ok := t.timers[key]
	if ok {
		delete(t.timers, key)
	}
	t.mu.Unlock()

	if ok && t.expire != nil {
		t.expire(key.roomID, key.userID)
	}
}

// Active reports whether a typing burst is currently pending expiry.
func (t *TypingCoordinator) Active(roomID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[typingKey{roomID: roomID, userID: userID}]
	return ok
}
