package main

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

const maxSessions = 100

// SessionIdleTimeout is how long a session nobody has joined is kept
var SessionIdleTimeout = 2 * time.Minute

// ErrTooManySessions is returned when the session limit is reached
var ErrTooManySessions = errors.New("too many active sessions")

// Session represents a game session that players can join
type Session struct {
	ID   string
	Name string
	Game *Game

	lastActive time.Time
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	defaults GameConfig
	events   EventSink
	recorder RoundRecorder
}

// NewSessionManager creates a SessionManager whose sessions use defaults
// for any layout the creator leaves unset. events and recorder may be nil.
func NewSessionManager(defaults GameConfig, events EventSink, recorder RoundRecorder) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		defaults: defaults,
		events:   events,
		recorder: recorder,
	}
}

// CreateSession creates a session with a rows x cols grid and starts its
// loop. Zero dimensions take the defaults.
func (sm *SessionManager) CreateSession(name string, rows, cols int) (*Session, error) {
	if rows == 0 {
		rows = sm.defaults.Rows
	}
	if cols == 0 {
		cols = sm.defaults.Cols
	}

	game := NewGame(sm.defaults, nil)
	if err := game.Initialize(rows, cols); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.reapIdleLocked()
	if len(sm.sessions) >= maxSessions {
		return nil, ErrTooManySessions
	}

	id := GenerateUUID()
	game.sessionID = id
	game.events = sm.events
	game.recorder = sm.recorder
	sess := &Session{
		ID:         id,
		Name:       name,
		Game:       game,
		lastActive: time.Now(),
	}
	sm.sessions[id] = sess
	trackEvent(sm.events, EvtSessionStart, 0, id, map[string]any{"rows": rows, "cols": cols})
	log.Printf("session %s created (%q, %dx%d)", id, name, rows, cols)
	go game.Run()
	return sess, nil
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// MarkActive refreshes a session's idle clock
func (sm *SessionManager) MarkActive(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[id]; ok {
		sess.lastActive = time.Now()
	}
}

// reapIdleLocked ends empty sessions that outlived SessionIdleTimeout
func (sm *SessionManager) reapIdleLocked() {
	cutoff := time.Now().Add(-SessionIdleTimeout)
	for id, sess := range sm.sessions {
		if sess.Game.PlayerCount() == 0 && sess.lastActive.Before(cutoff) {
			delete(sm.sessions, id)
			sess.Game.Stop()
			trackEvent(sm.events, EvtSessionEnd, 0, id, map[string]any{"reason": "idle"})
			log.Printf("session %s reaped (idle)", id)
		}
	}
}

// RemovePlayer removes a player from a session, ending it once empty
func (sm *SessionManager) RemovePlayer(sessionID, playerID string) {
	sm.mu.RLock()
	sess, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	sess.Game.RemovePlayer(playerID)

	if sess.Game.PlayerCount() == 0 {
		sm.EndSession(sessionID, "empty")
	}
}

// EndSession stops a session and tells everyone still attached
func (sm *SessionManager) EndSession(sessionID, reason string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[sessionID]
	if ok {
		delete(sm.sessions, sessionID)
	}
	sm.mu.Unlock()
	if !ok {
		return
	}
	sess.Game.Close()
	trackEvent(sm.events, EvtSessionEnd, 0, sessionID, map[string]any{"reason": reason})
	log.Printf("session %s ended (%s)", sessionID, reason)
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		cfg := sess.Game.Config()
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Game.PlayerCount(),
			Rows:    cfg.Rows,
			Cols:    cfg.Cols,
		})
	}
	return list
}

// Count returns the number of active sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// StopAll ends every session, used on shutdown
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	sm.mu.Unlock()
	for _, id := range ids {
		sm.EndSession(id, "shutdown")
	}
}
