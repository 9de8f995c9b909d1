package client

import (
	"sync"
	"time"
)

// Outbound message states. A message stays in sending until the server acks
// it with the same correlation id or reports a failure; failures keep the
// entry around so the user can retry explicitly.
const (
	OutboxSending = "sending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxEntry is the optimistic local copy of one outbound message.
type OutboxEntry struct {
	CorrelationID  string
	ConversationID string
	RoomID         string
	Text           string
	Status         string

	// Filled in from the server ack.
	MessageID string
	Seq       int64

	FailReason string
	CreatedAt  time.Time
}

// Outbox tracks in-flight sends keyed by correlation id. Reconciliation is by
// exact correlation id match only; matching on timestamp or text can pair the
// ack with the wrong message and silently drop a real one.
type Outbox struct {
	mu      sync.Mutex
	entries map[string]*OutboxEntry
}

func NewOutbox() *Outbox {
	return &Outbox{entries: make(map[string]*OutboxEntry)}
}

// Track records a new outbound message in the sending state.
func (o *Outbox) Track(entry OutboxEntry) {
	entry.Status = OutboxSending
	entry.CreatedAt = time.Now()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries[entry.CorrelationID] = &entry
}

// Reconcile replaces the provisional entry with the canonical server record.
// Unknown correlation ids are ignored; they belong to a previous session.
func (o *Outbox) Reconcile(correlationID, messageID string, seq int64) (OutboxEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.entries[correlationID]
	if !ok {
		return OutboxEntry{}, false
	}
	entry.Status = OutboxSent
	entry.MessageID = messageID
	entry.Seq = seq
	return *entry, true
}

// Fail marks an entry failed with the server-supplied reason. The entry is
// kept for an explicit retry.
func (o *Outbox) Fail(correlationID, reason string) (OutboxEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.entries[correlationID]
	if !ok {
		return OutboxEntry{}, false
	}
	entry.Status = OutboxFailed
	entry.FailReason = reason
	return *entry, true
}

// Get returns a snapshot of one entry.
func (o *Outbox) Get(correlationID string) (OutboxEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.entries[correlationID]
	if !ok {
		return OutboxEntry{}, false
	}
	return *entry, true
}

// TakeForRetry moves a failed entry back to sending and returns it so the
// caller can re-send with the same correlation id. Only failed entries are
// retryable; an in-flight send must wait for its ack or failure first.
func (o *Outbox) TakeForRetry(correlationID string) (OutboxEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.entries[correlationID]
	if !ok || entry.Status != OutboxFailed {
		return OutboxEntry{}, false
	}
	entry.Status = OutboxSending
	entry.FailReason = ""
	return *entry, true
}

// Drop removes a reconciled entry once the UI no longer needs the mapping.
func (o *Outbox) Drop(correlationID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.entries, correlationID)
}

// Pending returns every entry still in the sending state.
func (o *Outbox) Pending() []OutboxEntry {
	o.mu.Lock()
	defer o.mu.Unlock()

	var pending []OutboxEntry
	for _, entry := range o.entries {
		if entry.Status == OutboxSending {
			pending = append(pending, *entry)
		}
	}
	return pending
}
