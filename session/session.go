// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/battleship/network"
)

// Session is the server-side record of one connection. PlayerID is empty
// until the connection registers.
type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	playerID   string
	lastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

func (s *Session) GetID() string {
	return s.ID
}

// PlayerID returns the registered player, or "" before registration.
func (s *Session) PlayerID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.playerID
}

func (s *Session) setPlayerID(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.playerID = id
}

// Touch records inbound activity.
func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) Send(env network.Envelope) error {
	return s.Conn.Send(env)
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器: live connections plus the player -> connection mapping.
type Manager struct {
	sessions map[string]*Session
	players  map[string]*Session // playerID -> session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		players:  make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

// Remove forgets the session and, if it still owns it, its player mapping.
func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return
	}
	delete(m.sessions, sessionID)
	if pid := session.PlayerID(); pid != "" && m.players[pid] == session {
		delete(m.players, pid)
	}
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// Bind attaches playerID to the session. A later bind of the same player
// from another connection takes over the mapping.
func (m *Manager) Bind(session *Session, playerID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if old := session.PlayerID(); old != "" && old != playerID && m.players[old] == session {
		delete(m.players, old)
	}
	session.setPlayerID(playerID)
	m.players[playerID] = session
}

// ByPlayer returns the connection currently mapped to playerID.
func (m *Manager) ByPlayer(playerID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.players[playerID]
	return session, exists
}

// All returns a snapshot of every live session.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	return result
}

// MaxIdle is the longest any live session has gone without an inbound frame.
func (m *Manager) MaxIdle(now time.Time) time.Duration {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var longest time.Duration
	for _, s := range m.sessions {
		if idle := now.Sub(s.LastActive()); idle > longest {
			longest = idle
		}
	}
	return longest
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
