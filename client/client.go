package client

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mentorhub_backend/internal/logger"
	"mentorhub_backend/ws"
)

// Options configures a messaging client.
type Options struct {
	// URL is the socket endpoint, e.g. "ws://host:4000/ws".
	URL   string
	Token string

	// MaxReconnectAttempts caps the reconnect loop before the connection is
	// declared failed. Zero means the default of 8.
	MaxReconnectAttempts int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration

	// OnStateChange observes connection lifecycle transitions.
	OnStateChange func(ConnState)
	// OnEvent receives every server event the client does not consume for
	// reconciliation (messages, typing, presence, notifications).
	OnEvent func(event string, data json.RawMessage)

	Dialer *websocket.Dialer
}

// Client is the connection-owning side of the messaging protocol: it keeps an
// optimistic outbox of unacked sends, reconciles acks by correlation id, and
// reconnects with bounded exponential backoff. It does not replay missed
// events; after a reconnect it rejoins the open room and leaves history
// recovery to the message-history fetch.
type Client struct {
	opts   Options
	Outbox *Outbox

	mu          sync.Mutex
	conn        *websocket.Conn
	state       ConnState
	currentRoom string
	closed      bool

	writeMu sync.Mutex
}

func New(opts Options) *Client {
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = 8
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Client{
		opts:   opts,
		Outbox: NewOutbox(),
		state:  ConnState{Phase: PhaseIdle},
	}
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(state ConnState) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	c.mu.Unlock()

	if changed && c.opts.OnStateChange != nil {
		c.opts.OnStateChange(state)
	}
}

// Connect dials the server and starts the read loop. An authentication
// rejection is fatal and is not retried; the session credential is wrong, not
// the network.
func (c *Client) Connect() error {
	c.setState(ConnState{Phase: PhaseConnecting})

	if err := c.dial(); err != nil {
		c.setState(ConnState{Phase: PhaseFailed})
		return err
	}

	c.setState(ConnState{Phase: PhaseConnected})
	go c.readLoop()
	return nil
}

func (c *Client) dial() error {
	url := c.opts.URL
	if c.opts.Token != "" {
		url += "?token=" + c.opts.Token
	}

	conn, resp, err := c.opts.Dialer.Dial(url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return ErrAuthRejected
		}
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Close tears the connection down without triggering the reconnect loop.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	c.setState(ConnState{Phase: PhaseIdle})
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		closed := c.closed
		c.mu.Unlock()
		if closed || conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed = c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			c.reconnect()
			return
		}

		var ev ws.IncomingEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			logger.Warn("client: malformed server event", "error", err)
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev ws.IncomingEvent) {
	switch ev.Event {
	case ws.EventMessageDelivered:
		var payload ws.DeliveredPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return
		}
		c.Outbox.Reconcile(payload.CorrelationID, payload.MessageID, payload.Seq)
	case ws.EventMessageError:
		var payload ws.MessageErrorPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return
		}
		c.Outbox.Fail(payload.CorrelationID, payload.Reason)
	default:
		if c.opts.OnEvent != nil {
			c.opts.OnEvent(ev.Event, ev.Data)
		}
	}
}

// reconnect runs the bounded backoff loop: growing delay with a ceiling, a
// hard attempt cap, and a distinct state per attempt so the UI can tell
// "reconnecting" from "gave up".
func (c *Client) reconnect() {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.InitialBackoff
	policy.MaxInterval = c.opts.MaxBackoff
	policy.MaxElapsedTime = 0

	for attempt := 1; attempt <= c.opts.MaxReconnectAttempts; attempt++ {
		c.setState(ConnState{Phase: PhaseReconnecting, Attempt: attempt})
		time.Sleep(policy.NextBackOff())

		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		err := c.dial()
		if err == nil {
			c.setState(ConnState{Phase: PhaseConnected})
			c.rejoinCurrentRoom()
			go c.readLoop()
			return
		}
		if err == ErrAuthRejected {
			break
		}
		logger.Warn("client: reconnect attempt failed", "attempt", attempt, "error", err)
	}

	c.setState(ConnState{Phase: PhaseFailed})
}

func (c *Client) rejoinCurrentRoom() {
	c.mu.Lock()
	room := c.currentRoom
	c.mu.Unlock()
	if room == "" {
		return
	}
	if err := c.send(ws.EventJoinRoom, ws.JoinRoomPayload{RoomID: room}); err != nil {
		logger.Warn("client: room rejoin failed", "room_id", room, "error", err)
	}
}

func (c *Client) send(event string, data interface{}) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()
	if conn == nil || state.Phase != PhaseConnected {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(ws.OutgoingEvent{Event: event, Data: data})
}

// JoinRoom opens a room and remembers it for reconnect rejoin.
func (c *Client) JoinRoom(roomID string) error {
	c.mu.Lock()
	c.currentRoom = roomID
	c.mu.Unlock()
	return c.send(ws.EventJoinRoom, ws.JoinRoomPayload{RoomID: roomID})
}

func (c *Client) LeaveRoom(roomID string) error {
	c.mu.Lock()
	if c.currentRoom == roomID {
		c.currentRoom = ""
	}
	c.mu.Unlock()
	return c.send(ws.EventLeaveRoom, ws.JoinRoomPayload{RoomID: roomID})
}

// SendMessage tracks the message in the outbox and ships it. The returned
// correlation id keys the eventual ack or failure.
func (c *Client) SendMessage(conversationID, roomID, text string) (string, error) {
	correlationID := uuid.New().String()
	c.Outbox.Track(OutboxEntry{
		CorrelationID:  correlationID,
		ConversationID: conversationID,
		RoomID:         roomID,
		Text:           text,
	})

	err := c.send(ws.EventSendMessage, ws.SendMessagePayload{
		RoomID:         roomID,
		ConversationID: conversationID,
		Text:           text,
		CorrelationID:  correlationID,
	})
	if err != nil {
		c.Outbox.Fail(correlationID, err.Error())
		return correlationID, err
	}
	return correlationID, nil
}

// Retry re-sends a failed message with its original correlation id, so a
// send that actually reached the server is deduplicated rather than doubled.
func (c *Client) Retry(correlationID string) error {
	entry, ok := c.Outbox.TakeForRetry(correlationID)
	if !ok {
		return ErrNotRetryable
	}

	err := c.send(ws.EventSendMessage, ws.SendMessagePayload{
		RoomID:         entry.RoomID,
		ConversationID: entry.ConversationID,
		Text:           entry.Text,
		CorrelationID:  entry.CorrelationID,
	})
	if err != nil {
		c.Outbox.Fail(correlationID, err.Error())
		return err
	}
	return nil
}

func (c *Client) MarkRead(conversationID, messageID string) error {
	return c.send(ws.EventMarkMessageRead, ws.MarkReadPayload{
		MessageID:      messageID,
		ConversationID: conversationID,
	})
}

func (c *Client) Typing(roomID string, active bool) error {
	event := ws.EventTyping
	if !active {
		event = ws.EventStopTyping
	}
	return c.send(event, ws.TypingPayload{RoomID: roomID})
}

func (c *Client) AddReaction(roomID, messageID, emoji string) error {
	return c.send(ws.EventAddReaction, ws.ReactionPayload{
		MessageID: messageID,
		RoomID:    roomID,
		Emoji:     emoji,
	})
}

func (c *Client) RemoveReaction(roomID, messageID string) error {
	return c.send(ws.EventRemoveReaction, ws.ReactionPayload{
		MessageID: messageID,
		RoomID:    roomID,
	})
}
