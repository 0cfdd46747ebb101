package service

import (
	"context"
	"time"

	"exercise-service/internal/metrics"
	"exercise-service/internal/runner"
)

// SessionService starts runner sessions on stored exercises and scopes
// lookups to the learner who started them.
type SessionService struct {
	Exercises ExerciseStore
	Registry  *runner.Registry
}

func NewSessionService(exercises ExerciseStore, registry *runner.Registry) *SessionService {
	return &SessionService{Exercises: exercises, Registry: registry}
}

func (s *SessionService) Start(ctx context.Context, userID, exerciseID string) (*runner.Session, error) {
	e, err := s.Exercises.FindByID(ctx, exerciseID)
	if err != nil {
		return nil, storeErr("find exercise", err)
	}

	session := s.Registry.Start(userID, *e)
	metrics.ActiveSessions.Set(float64(s.Registry.Len()))
	return session, nil
}

func (s *SessionService) Get(userID, sessionID string) (*runner.Session, error) {
	session, err := s.Registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID() != userID {
		return nil, runner.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) Close(userID, sessionID string) error {
	if _, err := s.Get(userID, sessionID); err != nil {
		return err
	}
	err := s.Registry.Close(sessionID)
	metrics.ActiveSessions.Set(float64(s.Registry.Len()))
	return err
}

func (s *SessionService) Sweep(maxIdle time.Duration) int {
	n := s.Registry.Sweep(maxIdle)
	metrics.ActiveSessions.Set(float64(s.Registry.Len()))
	return n
}
