package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"exercise-service/internal/event"
	"exercise-service/internal/exercise"
	"exercise-service/internal/models"
	"exercise-service/internal/repository"

	"github.com/google/uuid"
)

type fakeExercises struct {
	mu        sync.Mutex
	docs      map[string]models.Exercise
	createErr error
	updateErr error
}

func newFakeExercises(docs ...models.Exercise) *fakeExercises {
	f := &fakeExercises{docs: map[string]models.Exercise{}}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *fakeExercises) Create(ctx context.Context, e *models.Exercise) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	f.docs[e.ID] = e.Clone()
	return nil
}

func (f *fakeExercises) FindByID(ctx context.Context, id string) (*models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := e.Clone()
	return &c, nil
}

func (f *fakeExercises) Update(ctx context.Context, e *models.Exercise) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.docs[e.ID]; !ok {
		return repository.ErrNotFound
	}
	f.docs[e.ID] = e.Clone()
	return nil
}

func (f *fakeExercises) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeExercises) List(ctx context.Context, filter repository.ExerciseFilter) ([]models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Exercise{}
	for _, e := range f.docs {
		if filter.Lang != "" && e.Lang != filter.Lang {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeDrafts keeps the encoded form so tests can compare drafts byte for byte.
type fakeDrafts struct {
	mu      sync.Mutex
	raw     map[string][]byte
	saveErr error
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{raw: map[string][]byte{}}
}

func (f *fakeDrafts) Save(ctx context.Context, d *exercise.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	f.raw[d.ID] = b
	return nil
}

func (f *fakeDrafts) Get(ctx context.Context, id string) (*exercise.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.raw[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	var d exercise.Draft
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (f *fakeDrafts) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.raw[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.raw, id)
	return nil
}

func (f *fakeDrafts) bytes(id string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.raw[id]...)
}

type fakeResults struct {
	mu      sync.Mutex
	results []models.ExerciseResult
}

func (f *fakeResults) Create(ctx context.Context, r *models.ExerciseResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = uuid.NewString()
	f.results = append(f.results, *r)
	return nil
}

func (f *fakeResults) FindByUser(ctx context.Context, userID string, limit int64) ([]models.ExerciseResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ExerciseResult{}
	for _, r := range f.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResults) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

type fakeLeaderboard struct {
	mu sync.Mutex
	xp map[string]map[string]int
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{xp: map[string]map[string]int{}}
}

func (f *fakeLeaderboard) AddXP(ctx context.Context, lang, userID string, xp int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.xp[lang] == nil {
		f.xp[lang] = map[string]int{}
	}
	f.xp[lang][userID] += xp
	return nil
}

func (f *fakeLeaderboard) Top(ctx context.Context, lang string, limit int, at time.Time) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.LeaderboardEntry{}
	for user, xp := range f.xp[lang] {
		out = append(out, models.LeaderboardEntry{UserID: user, XP: int64(xp)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].XP > out[j].XP })
	for i := range out {
		out[i].Rank = i + 1
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	completed []event.CompletedEvent
	exercises []event.ExerciseEvent
}

func (f *fakePublisher) PublishCompleted(ctx context.Context, ev *event.CompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev.EventType = event.EventTypeExerciseCompleted
	f.completed = append(f.completed, *ev)
	return nil
}

func (f *fakePublisher) PublishExerciseEvent(ctx context.Context, ev *event.ExerciseEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exercises = append(f.exercises, *ev)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) completions() []event.CompletedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]event.CompletedEvent(nil), f.completed...)
}
