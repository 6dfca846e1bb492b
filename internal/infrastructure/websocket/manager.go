package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"anilifetv/pkg/logger"
)

// Client is one live realtime connection. Inbound frames are decoded by the
// handler's read pump; outbound events are queued via TrySend and drained by
// the write pump.
type Client struct {
	UserID string
	Conn   *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, 256),
	}
}

// TrySend queues a message for the write pump. Returns false when the
// message was dropped because the queue is full or the connection closed.
func (c *Client) TrySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// Close shuts the send queue. Safe to call more than once; senders observe
// the closed flag under the same lock, so no send can race the close.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Manager tracks the active connections so sessions can be shut down
// together and events can be pushed to a specific user.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the registry loop until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if old, ok := m.clients[client.UserID]; ok {
					// A reconnect supersedes the previous connection. The
					// old session may still be queueing events, so only the
					// queue is sealed here; dropping the socket lets the old
					// read pump wind its session down.
					old.Close()
					old.Conn.Close()
				}
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				logger.Debug("Realtime client connected: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if current, ok := m.clients[client.UserID]; ok && current == client {
					delete(m.clients, client.UserID)
				}
				client.Close()
				m.mutex.Unlock()
				logger.Debug("Realtime client disconnected: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// SendToUser queues an event for the user's connection, dropping it when the
// user is offline or the queue is full.
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if !ok {
		return
	}

	if !client.TrySend(message) {
		logger.Warn("Dropping event for slow realtime client %s", userID)
	}
}

// WritePump drains the send queue onto the wire until the queue closes.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Debug("Realtime write to %s failed: %v", c.UserID, err)
			return
		}
	}
}
