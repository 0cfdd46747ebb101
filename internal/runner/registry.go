package runner

import (
	"errors"
	"sync"
	"time"

	"exercise-service/internal/grading"
	"exercise-service/internal/models"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry holds the live runner sessions of this instance.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	grader     *grading.Grader
	delay      time.Duration
	onComplete func(Completion)
}

func NewRegistry(g *grading.Grader, delay time.Duration, onComplete func(Completion)) *Registry {
	return &Registry{
		sessions:   map[string]*Session{},
		grader:     g,
		delay:      delay,
		onComplete: onComplete,
	}
}

func (r *Registry) Start(userID string, e models.Exercise) *Session {
	s := NewSession(uuid.NewString(), userID, e, r.grader, r.delay, r.onComplete)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close cancels the session's pending work and forgets it.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// Sweep closes sessions idle for longer than maxIdle and returns how many.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	stale := []*Session{}
	for id, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
