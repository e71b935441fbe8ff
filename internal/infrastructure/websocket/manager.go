package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// Client is one websocket connection. Every connection hosts exactly one view.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	mu        sync.Mutex
	userID    string
	onSignOut func()
	closed    bool
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
	}
}

// UserID is the signed-in user of the connection, if any.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) SetUserID(uid string) {
	c.mu.Lock()
	c.userID = uid
	c.mu.Unlock()
}

// OnSignOut registers what the hosted view does when its user signs out
// elsewhere.
func (c *Client) OnSignOut(fn func()) {
	c.mu.Lock()
	c.onSignOut = fn
	c.mu.Unlock()
}

// SignOut detaches the user from the connection and tells the peer.
func (c *Client) SignOut() {
	c.mu.Lock()
	c.userID = ""
	fn := c.onSignOut
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
	c.SendMessage(MessageTypeSignedOut, nil)
}

// Enqueue queues a frame for the write pump. It reports false when the client
// is gone or too slow to keep up.
func (c *Client) Enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		logger.Warn("WebSocket: dropping frame for slow client %s", c.ID)
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Manager tracks the open connections.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start runs the registration loop until ctx is done, then closes every client.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.ID] = client
				m.mutex.Unlock()
				metrics.WebsocketSessions.Inc()
				logger.Debug("WebSocket: client registered: %s", client.ID)

			case client := <-m.Unregister:
				m.remove(client)

			case <-ctx.Done():
				close(m.done)
				m.mutex.Lock()
				for id, client := range m.clients {
					delete(m.clients, id)
					client.closeSend()
					metrics.WebsocketSessions.Dec()
				}
				m.mutex.Unlock()
				return
			}
		}
	}()
}

// Add registers a client. It reports false once the manager has stopped.
func (m *Manager) Add(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

// Drop unregisters a client; safe to call after the manager has stopped.
func (m *Manager) Drop(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		client.closeSend()
		metrics.WebsocketSessions.Dec()
		logger.Debug("WebSocket: client unregistered: %s", client.ID)
	}
}

// SignOutUser signs a user out of every open connection and reports how many
// were affected.
func (m *Manager) SignOutUser(userID string) int {
	if userID == "" {
		return 0
	}

	m.mutex.RLock()
	var targets []*Client
	for _, client := range m.clients {
		if client.UserID() == userID {
			targets = append(targets, client)
		}
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		client.SignOut()
	}
	return len(targets)
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// ReadPump decodes frames and hands them to h until the connection drops.
func (c *Client) ReadPump(m *Manager, h MessageHandler) {
	defer func() {
		m.Drop(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket: read error from %s: %v", c.ID, err)
			}
			break
		}
		c.handleFrame(h, message)
	}
}

// WritePump drains Send and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket: write error to %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
