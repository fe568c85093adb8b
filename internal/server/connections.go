package server

import (
	"sync"

	"github.com/coder/websocket"
)

// Session binds a connection to the player it authenticated as.
type Session struct {
	RoomID string
	Token  string
}

// ConnectionManager tracks live websockets and which player each one is
// bound to. Player tokens are UUIDs, so the token index needs no room
// scoping.
type ConnectionManager struct {
	connections map[string]*websocket.Conn // connectionID -> socket
	sessions    map[string]Session         // connectionID -> session
	byToken     map[string]string          // token -> connectionID
	mu          sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
		sessions:    make(map[string]Session),
		byToken:     make(map[string]string),
	}
}

func (cm *ConnectionManager) Add(id string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[id] = conn
}

// Remove drops a connection and returns the session it held, if any.
func (cm *ConnectionManager) Remove(id string) (Session, bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	session, bound := cm.sessions[id]
	delete(cm.connections, id)
	delete(cm.sessions, id)
	if bound && cm.byToken[session.Token] == id {
		delete(cm.byToken, session.Token)
	}
	return session, bound
}

// Bind associates a connection with a player token. If the token was bound
// to another live connection, that connection's ID is returned so the
// caller can sever it (connection takeover on reconnect).
func (cm *ConnectionManager) Bind(id string, session Session) (oldConnID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if prev, ok := cm.byToken[session.Token]; ok && prev != id {
		oldConnID = prev
	}
	cm.sessions[id] = session
	cm.byToken[session.Token] = id
	return oldConnID
}

func (cm *ConnectionManager) SessionFor(id string) (Session, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	session, ok := cm.sessions[id]
	return session, ok
}

func (cm *ConnectionManager) Conn(id string) *websocket.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.connections[id]
}

// ConnByToken returns the live socket for a player token, if any.
func (cm *ConnectionManager) ConnByToken(token string) *websocket.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	id, ok := cm.byToken[token]
	if !ok {
		return nil
	}
	return cm.connections[id]
}
