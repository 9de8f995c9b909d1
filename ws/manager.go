package ws

import (
	"sync"
	"time"

	"mentorhub_backend/internal/logger"
	"mentorhub_backend/internal/models"
	"mentorhub_backend/internal/presence"
	repoChat "mentorhub_backend/internal/repositories/chat"
)

// Manager is the connection registry and room router. One connection per user
// (no multi-device fan-out table); a new connection for a user replaces the
// old one. Register/unregister flow through channels consumed by a single Run
// goroutine; the maps are additionally guarded by the RWMutex for the
// read-mostly broadcast paths.
type Manager struct {
	clients    map[string]*Client
	rooms      map[string]map[string]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	presence      presence.Store
	conversations repoChat.ConversationRepository
	sendQueueSize int
}

func NewManager(
	presenceStore presence.Store,
	conversations repoChat.ConversationRepository,
	sendQueueSize int,
) *Manager {
	if sendQueueSize <= 0 {
		sendQueueSize = 256
	}
	return &Manager{
		clients:       make(map[string]*Client),
		rooms:         make(map[string]map[string]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		presence:      presenceStore,
		conversations: conversations,
		sendQueueSize: sendQueueSize,
	}
}

func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.handleRegister(client)
		case client := <-m.unregister:
			m.handleUnregister(client)
		}
	}
}

func (m *Manager) handleRegister(client *Client) {
	m.mu.Lock()
	if old, ok := m.clients[client.ID]; ok && old != client {
		// Replaced connection: stop the old write pump without emitting an
		// offline transition, the user is still here.
		old.shutdown()
	}
	m.clients[client.ID] = client
	total := len(m.clients)
	m.mu.Unlock()

	logger.Info("ws: client registered", "user_id", client.ID, "total", total)

	rec := m.presence.SetOnline(client.ID)
	m.notifyStatusChange(rec)
}

func (m *Manager) handleUnregister(client *Client) {
	m.mu.Lock()
	current, ok := m.clients[client.ID]
	if !ok || current != client {
		// A replacement connection already took over this user id.
		m.mu.Unlock()
		return
	}
	client.shutdown()
	delete(m.clients, client.ID)
	for _, members := range m.rooms {
		delete(members, client.ID)
	}
	total := len(m.clients)
	m.mu.Unlock()

	logger.Info("ws: client unregistered", "user_id", client.ID, "total", total)

	rec := m.presence.SetOffline(client.ID, time.Now())
	m.notifyStatusChange(rec)
}

// notifyStatusChange fans a presence transition out to every user who shares
// a conversation with the subject, not just current room members, since
// presence is shown on the conversation list too.
func (m *Manager) notifyStatusChange(rec presence.Record) {
	partners, err := m.conversations.PartnerIDs(rec.UserID)
	if err != nil {
		logger.Error("ws: presence subscriber lookup failed", "user_id", rec.UserID, "error", err)
		return
	}

	payload := StatusChangePayload{
		UserID:    rec.UserID,
		Status:    rec.Status,
		Timestamp: rec.LastSeen,
	}
	for _, partnerID := range partners {
		m.SendToUser(partnerID, EventUserStatusChange, payload)
	}
}

// JoinRoom adds a user to a room. Joining twice is a no-op.
func (m *Manager) JoinRoom(roomID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		m.rooms[roomID] = make(map[string]bool)
	}
	m.rooms[roomID][userID] = true
}

func (m *Manager) LeaveRoom(roomID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if members, ok := m.rooms[roomID]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
}

func (m *Manager) IsUserInRoom(roomID, userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members, ok := m.rooms[roomID]
	return ok && members[userID]
}

func (m *Manager) IsClientConnected(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.clients[userID]
	return exists
}

// BroadcastToRoom sends an event to every room member except those in
// exclude. Returns the user ids that were actually reached.
func (m *Manager) BroadcastToRoom(roomID, event string, data interface{}, exclude ...string) []string {
	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	m.mu.RLock()
	members, ok := m.rooms[roomID]
	if !ok {
		m.mu.RUnlock()
		return nil
	}
	targets := make([]*Client, 0, len(members))
	for userID := range members {
		if excluded[userID] {
			continue
		}
		if client, connected := m.clients[userID]; connected {
			targets = append(targets, client)
		}
	}
	m.mu.RUnlock()

	var reached []string
	for _, client := range targets {
		if client.enqueue(OutgoingEvent{Event: event, Data: data}) {
			reached = append(reached, client.ID)
		} else {
			m.dropSlowClient(client)
		}
	}
	return reached
}

// SendToUser delivers an event on the user's channel regardless of room
// membership. Reports whether the user was connected and accepted it.
func (m *Manager) SendToUser(userID, event string, data interface{}) bool {
	m.mu.RLock()
	client, ok := m.clients[userID]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	if !client.enqueue(OutgoingEvent{Event: event, Data: data}) {
		m.dropSlowClient(client)
		return false
	}
	return true
}

// PushNotification implements services.NotificationPusher: notifications ride
// the per-user channel, not a conversation room.
func (m *Manager) PushNotification(userID string, notification *models.Notification) {
	m.SendToUser(userID, EventNotification, NotificationPayload{Notification: notification})
}

// dropSlowClient unregisters a client whose send queue stayed full.
func (m *Manager) dropSlowClient(client *Client) {
	logger.Warn("ws: dropping slow client", "user_id", client.ID)
	go func() {
		m.unregister <- client
	}()
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
