// internal/game/game_store.go
package game

import (
	"strings"
	"sync"

	"github.com/jason-s-yu/happyfamilies/internal/models"
	"github.com/sirupsen/logrus"
)

// maxCodeAttempts bounds the search for an unused join code.
const maxCodeAttempts = 100

// SessionStore indexes live sessions by join code and players by the session they belong to.
// It never holds its own lock while calling into a session, since a session may call back
// into the store through OnEmpty.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	players  map[string]string // playerID -> session code

	provider FamilyProvider
	rules    Rules
	logger   *logrus.Logger
	rng      Rand

	// SendFn is installed as BroadcastToPlayerFn on every new session.
	SendFn func(playerID string, ev Event)
	// ActionLogFn is installed on every new session.
	ActionLogFn func(rec ActionRecord)
}

// NewSessionStore returns an empty store whose sessions draw families from provider.
func NewSessionStore(provider FamilyProvider, rules Rules, logger *logrus.Logger) *SessionStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		players:  make(map[string]string),
		provider: provider,
		rules:    rules,
		logger:   logger,
		rng:      newRand(),
	}
}

// SetRand replaces the code generator source. Intended for deterministic tests.
func (st *SessionStore) SetRand(rng Rand) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.rng = rng
}

// Create opens a new waiting session hosted by playerID and returns it.
func (st *SessionStore) Create(playerID, name string) (*Session, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.players[playerID]; ok {
		return nil, ErrAlreadyInSession
	}

	code := ""
	for i := 0; i < maxCodeAttempts; i++ {
		candidate := generateCode(st.rng)
		if _, taken := st.sessions[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		return nil, ErrCodeSpaceExhausted
	}

	host := &models.Player{ID: playerID, Name: name}
	s := NewSession(code, host, st.provider, st.rules, st.logger)
	s.BroadcastToPlayerFn = st.SendFn
	s.ActionLogFn = st.ActionLogFn
	s.OnEmpty = st.Delete

	st.sessions[code] = s
	st.players[playerID] = code

	s.log.WithField("host", name).Info("session created")
	s.mu.Lock()
	s.logAction(playerID, "session_create", map[string]interface{}{"name": name})
	s.mu.Unlock()
	return s, nil
}

// Get looks up a session by join code. Codes are case-insensitive.
func (st *SessionStore) Get(code string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[strings.ToUpper(strings.TrimSpace(code))]
	return s, ok
}

// Join adds playerID to the session identified by code.
func (st *SessionStore) Join(code, playerID, name string) (*Session, error) {
	st.mu.Lock()
	if _, ok := st.players[playerID]; ok {
		st.mu.Unlock()
		return nil, ErrAlreadyInSession
	}
	s, ok := st.sessions[strings.ToUpper(strings.TrimSpace(code))]
	st.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	if err := s.Join(playerID, name); err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.players[playerID] = s.Code
	st.mu.Unlock()
	return s, nil
}

// FindByPlayer returns the session playerID belongs to.
func (st *SessionStore) FindByPlayer(playerID string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	code, ok := st.players[playerID]
	if !ok {
		return nil, false
	}
	s, ok := st.sessions[code]
	return s, ok
}

// Leave detaches playerID from its session, if any. It is safe to call more than once.
func (st *SessionStore) Leave(playerID string) {
	st.mu.Lock()
	code, ok := st.players[playerID]
	if ok {
		delete(st.players, playerID)
	}
	s := st.sessions[code]
	st.mu.Unlock()

	if s == nil {
		return
	}
	s.Disconnect(playerID)
}

// Delete drops a session and every player index pointing at it.
func (st *SessionStore) Delete(code string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[code]; !ok {
		return
	}
	delete(st.sessions, code)
	for pid, c := range st.players {
		if c == code {
			delete(st.players, pid)
		}
	}
	st.logger.WithField("session", code).Info("session removed")
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
