// Package session tracks connected players under a lease: a session
// stays alive while the client keeps renewing it and is reaped once
// the lease runs out.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session binds one connected player to a lease.
type Session struct {
	ID         string
	PlayerID   string
	RemoteAddr string
	CreatedAt  time.Time

	mu        sync.Mutex
	expiresAt time.Time
	closed    bool
	onClose   func()
}

// Renew extends the lease. Returns false when the session is already
// closed.
func (s *Session) Renew(lease time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.expiresAt = time.Now().Add(lease)
	return true
}

// Expired reports whether the lease ran out.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || time.Now().After(s.expiresAt)
}

// OnClose registers a callback invoked once when the session closes.
func (s *Session) OnClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = fn
}

func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	fn := s.onClose
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Manager owns every live session.
type Manager struct {
	lease       time.Duration
	maxSessions int
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	byPlayer map[string]*Session
}

// NewManager creates a session manager with the given lease period.
func NewManager(lease time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		lease:       lease,
		maxSessions: 0,
		logger:      logger,
		sessions:    make(map[string]*Session),
		byPlayer:    make(map[string]*Session),
	}
}

// SetMaxSessions caps concurrent sessions. Zero means unlimited.
func (m *Manager) SetMaxSessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSessions = n
}

// Register opens a session for playerID. A second registration for
// the same player closes the first one, so a reconnect wins over a
// stale connection.
func (m *Manager) Register(playerID, remoteAddr string) (*Session, error) {
	if playerID == "" {
		return nil, fmt.Errorf("playerID is required")
	}

	m.mu.Lock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		if _, reconnect := m.byPlayer[playerID]; !reconnect {
			m.mu.Unlock()
			return nil, fmt.Errorf("session limit reached")
		}
	}

	var stale *Session
	if prev, ok := m.byPlayer[playerID]; ok {
		delete(m.sessions, prev.ID)
		stale = prev
	}

	s := &Session{
		ID:         uuid.New().String(),
		PlayerID:   playerID,
		RemoteAddr: remoteAddr,
		CreatedAt:  time.Now(),
		expiresAt:  time.Now().Add(m.lease),
	}
	m.sessions[s.ID] = s
	m.byPlayer[playerID] = s
	m.mu.Unlock()

	if stale != nil {
		stale.close()
	}

	m.logger.Info("session registered",
		zap.String("session_id", s.ID),
		zap.String("player_id", playerID),
		zap.String("remote_addr", remoteAddr),
	)
	return s, nil
}

// Get returns the session by id.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// GetByPlayer returns the player's live session.
func (m *Manager) GetByPlayer(playerID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byPlayer[playerID]
	return s, ok
}

// Renew extends the lease of the given session.
func (m *Manager) Renew(sessionID string) bool {
	s, ok := m.Get(sessionID)
	if !ok {
		return false
	}
	return s.Renew(m.lease)
}

// Close removes and closes one session.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
		if m.byPlayer[s.PlayerID] == s {
			delete(m.byPlayer, s.PlayerID)
		}
	}
	m.mu.Unlock()

	if ok {
		s.close()
		m.logger.Info("session closed",
			zap.String("session_id", sessionID),
			zap.String("player_id", s.PlayerID),
		)
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpiredSessions reaps expired leases until ctx is cancelled.
// Run it as a goroutine at startup.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) {
	interval := m.lease / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reapExpired()
		}
	}
}

func (m *Manager) reapExpired() {
	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.Expired() {
			delete(m.sessions, id)
			if m.byPlayer[s.PlayerID] == s {
				delete(m.byPlayer, s.PlayerID)
			}
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
		m.logger.Info("session expired",
			zap.String("session_id", s.ID),
			zap.String("player_id", s.PlayerID),
		)
	}
}

// CloseAll closes every session, used during shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.byPlayer = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
	m.logger.Info("all sessions closed", zap.Int("count", len(all)))
}
