package presence

import (
	"errors"
	"sync"

	"github.com/weiawesome/lobby-chat/internal/domain"
)

var (
	// ErrNicknameTaken is returned when another live session holds the nickname.
	ErrNicknameTaken = errors.New("nickname taken")
	// ErrAlreadyRegistered is returned when the connection already has a session.
	ErrAlreadyRegistered = errors.New("connection already registered")
)

// Registry maps live connection IDs to user sessions and keeps their
// registration order for roster snapshots. Nicknames compare by exact match.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string]*domain.UserSession // connectionID -> session
	byNickname map[string]string              // nickname -> connectionID
	order      []string                       // connectionIDs, registration order
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:   make(map[string]*domain.UserSession),
		byNickname: make(map[string]string),
	}
}

// Register inserts a new session for connectionID.
func (r *Registry) Register(connectionID, nickname string) (*domain.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[connectionID]; ok {
		return nil, ErrAlreadyRegistered
	}
	if _, ok := r.byNickname[nickname]; ok {
		return nil, ErrNicknameTaken
	}

	s := domain.NewUserSession(connectionID, nickname)
	r.sessions[connectionID] = s
	r.byNickname[nickname] = connectionID
	r.order = append(r.order, connectionID)
	return s, nil
}

// Unregister removes and returns the session for connectionID, if any.
func (r *Registry) Unregister(connectionID string) (*domain.UserSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return nil, false
	}

	delete(r.sessions, connectionID)
	delete(r.byNickname, s.Nickname)
	for i, id := range r.order {
		if id == connectionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s, true
}

func (r *Registry) Find(connectionID string) (*domain.UserSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connectionID]
	return s, ok
}

// FindByNickname returns the live session holding nickname.
func (r *Registry) FindByNickname(nickname string) (*domain.UserSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byNickname[nickname]
	if !ok {
		return nil, false
	}
	return r.sessions[id], true
}

// Roster returns the nicknames of all registered sessions in registration order.
func (r *Registry) Roster() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roster := make([]string, 0, len(r.order))
	for _, id := range r.order {
		roster = append(roster, r.sessions[id].Nickname)
	}
	return roster
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
