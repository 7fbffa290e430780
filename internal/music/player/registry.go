package player

import (
	"sync"
	"time"
)

// Registry maps guild ids to sessions. Sessions are created on first use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns the session for guildID, or nil if it was never used.
func (r *Registry) Get(guildID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[guildID]
}

// GetOrCreate returns the session for guildID, creating it if absent.
func (r *Registry) GetOrCreate(guildID string) *Session {
	if s := r.Get(guildID); s != nil {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[guildID]; ok {
		return s
	}
	s := newSession(guildID, r.now())
	r.sessions[guildID] = s
	return s
}

// All returns the sessions currently registered.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// evict removes s if it is still the registered session for its guild.
func (r *Registry) evict(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.guildID]; ok && cur == s {
		delete(r.sessions, s.guildID)
		return true
	}
	return false
}
