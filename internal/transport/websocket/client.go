package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client is one streaming connection. Writes are serialized because
// conn.WriteJSON is not safe for concurrent use.
type Client struct {
	conn      *websocket.Conn
	playerID  string
	sessionID string
	writeMu   sync.Mutex
}

func (c *Client) Send(message interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(message)
}

func (c *Client) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *Client) closeWith(code int, reason string) {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.conn.Close()
}

// ConnectionManager tracks open streams so they can be counted per session
// and closed on shutdown; hijacked connections outlive http.Server.Shutdown.
type ConnectionManager struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{clients: make(map[*Client]struct{})}
}

func (cm *ConnectionManager) AddConnection(conn *websocket.Conn, playerID, sessionID string) *Client {
	client := &Client{conn: conn, playerID: playerID, sessionID: sessionID}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[client] = struct{}{}
	return client
}

func (cm *ConnectionManager) RemoveConnection(client *Client) {
	cm.mu.Lock()
	_, exists := cm.clients[client]
	delete(cm.clients, client)
	cm.mu.Unlock()

	if exists {
		client.conn.Close()
	}
}

// Watchers counts open streams on sessionID.
func (cm *ConnectionManager) Watchers(sessionID string) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	n := 0
	for client := range cm.clients {
		if client.sessionID == sessionID {
			n++
		}
	}
	return n
}

// CloseAll sends a close frame to every stream and drops it.
func (cm *ConnectionManager) CloseAll(reason string) {
	cm.mu.Lock()
	clients := make([]*Client, 0, len(cm.clients))
	for client := range cm.clients {
		clients = append(clients, client)
	}
	cm.clients = make(map[*Client]struct{})
	cm.mu.Unlock()

	for _, client := range clients {
		client.closeWith(websocket.CloseGoingAway, reason)
	}
}
