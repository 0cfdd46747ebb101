package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exercise-service/internal/exercise"
	"exercise-service/internal/models"
	"exercise-service/internal/repository"
)

var (
	ErrNotFound = repository.ErrNotFound
	// ErrPersistence marks a store failure the caller may retry.
	ErrPersistence = errors.New("persistence unavailable")
)

type ExerciseStore interface {
	Create(ctx context.Context, e *models.Exercise) error
	FindByID(ctx context.Context, id string) (*models.Exercise, error)
	Update(ctx context.Context, e *models.Exercise) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f repository.ExerciseFilter) ([]models.Exercise, error)
}

type DraftStore interface {
	Save(ctx context.Context, d *exercise.Draft) error
	Get(ctx context.Context, id string) (*exercise.Draft, error)
	Delete(ctx context.Context, id string) error
}

type ResultStore interface {
	Create(ctx context.Context, result *models.ExerciseResult) error
	FindByUser(ctx context.Context, userID string, limit int64) ([]models.ExerciseResult, error)
}

type Leaderboard interface {
	AddXP(ctx context.Context, lang, userID string, xp int, at time.Time) error
	Top(ctx context.Context, lang string, limit int, at time.Time) ([]models.LeaderboardEntry, error)
}

// storeErr keeps ErrNotFound as is and marks everything else retryable.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
