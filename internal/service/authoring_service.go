package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"exercise-service/internal/event"
	"exercise-service/internal/exercise"
	"exercise-service/internal/logging"
	"exercise-service/internal/metrics"
	"exercise-service/internal/models"
	"exercise-service/internal/repository"

	"github.com/google/uuid"
)

// DraftMeta carries the exercise-level fields an author may change. Nil
// fields are left untouched.
type DraftMeta struct {
	Title      *string
	Level      *models.Level
	Lang       *string
	XPReward   *int
	MaterialID *string
	LessonID   *string
}

// DraftOp is one builder operation applied to a loaded draft.
type DraftOp func(d *exercise.Draft) error

type AuthoringService struct {
	Exercises ExerciseStore
	Drafts    DraftStore
	Publisher event.Publisher
}

func NewAuthoringService(exercises ExerciseStore, drafts DraftStore, publisher event.Publisher) *AuthoringService {
	return &AuthoringService{Exercises: exercises, Drafts: drafts, Publisher: publisher}
}

func (s *AuthoringService) CreateDraft(ctx context.Context, userID string, t models.ExerciseType, meta DraftMeta) (*exercise.Draft, error) {
	d := exercise.NewDraft(t)
	d.ID = uuid.NewString()
	d.Author = userID
	d.Exercise.CreatedBy = userID
	meta.apply(&d.Exercise)

	if err := s.Drafts.Save(ctx, d); err != nil {
		return nil, storeErr("save draft", err)
	}
	return d, nil
}

// EditExercise opens a stored exercise as a new draft. Publishing that draft
// replaces the stored document.
func (s *AuthoringService) EditExercise(ctx context.Context, userID, exerciseID string) (*exercise.Draft, error) {
	e, err := s.Exercises.FindByID(ctx, exerciseID)
	if err != nil {
		return nil, storeErr("find exercise", err)
	}

	d := exercise.FromExercise(*e)
	d.ID = uuid.NewString()
	d.Author = userID
	if err := s.Drafts.Save(ctx, d); err != nil {
		return nil, storeErr("save draft", err)
	}
	return d, nil
}

func (s *AuthoringService) GetDraft(ctx context.Context, userID, draftID string) (*exercise.Draft, error) {
	d, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return nil, storeErr("get draft", err)
	}
	// Other authors' drafts are reported as missing.
	if d.Author != userID {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *AuthoringService) UpdateMeta(ctx context.Context, userID, draftID string, meta DraftMeta) (*exercise.Draft, error) {
	return s.Mutate(ctx, userID, draftID, func(d *exercise.Draft) error {
		meta.apply(&d.Exercise)
		return nil
	})
}

// Mutate loads a draft, applies op and stores the result. A failing op
// leaves the stored draft unchanged.
func (s *AuthoringService) Mutate(ctx context.Context, userID, draftID string, op DraftOp) (*exercise.Draft, error) {
	d, err := s.GetDraft(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	if err := op(d); err != nil {
		return nil, err
	}
	if err := s.Drafts.Save(ctx, d); err != nil {
		return nil, storeErr("save draft", err)
	}
	return d, nil
}

func (s *AuthoringService) DiscardDraft(ctx context.Context, userID, draftID string) error {
	if _, err := s.GetDraft(ctx, userID, draftID); err != nil {
		return err
	}
	return storeErr("delete draft", s.Drafts.Delete(ctx, draftID))
}

// Publish validates the draft and persists a snapshot of it. The draft is
// removed only after the save succeeded; on any failure it stays as it was.
func (s *AuthoringService) Publish(ctx context.Context, userID, draftID string) (*models.Exercise, error) {
	d, err := s.GetDraft(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}

	if err := d.Validate(); err != nil {
		recordValidationFailure(err)
		return nil, err
	}

	snapshot := d.Snapshot()
	if snapshot.ID == "" {
		err = s.Exercises.Create(ctx, &snapshot)
	} else {
		err = s.Exercises.Update(ctx, &snapshot)
	}
	if err != nil {
		metrics.PublishedExercises.WithLabelValues(string(snapshot.Type), "failure").Inc()
		logging.Error("Failed to save draft %s: %v", draftID, err)
		return nil, storeErr("save exercise", err)
	}
	metrics.PublishedExercises.WithLabelValues(string(snapshot.Type), "success").Inc()

	if err := s.Drafts.Delete(ctx, draftID); err != nil && !errors.Is(err, ErrNotFound) {
		logging.Error("Saved exercise %s but could not delete draft %s: %v", snapshot.ID, draftID, err)
	}

	s.publish(ctx, event.EventTypeExercisePublished, &snapshot, userID)
	return &snapshot, nil
}

// Import stores a complete exercise document, such as one decoded from an
// older export, after the same checks a draft goes through.
func (s *AuthoringService) Import(ctx context.Context, userID string, e models.Exercise) (*models.Exercise, error) {
	e.ID = ""
	e.CreatedBy = userID
	if err := validateExercise(e); err != nil {
		recordValidationFailure(err)
		return nil, err
	}
	if err := s.Exercises.Create(ctx, &e); err != nil {
		return nil, storeErr("create exercise", err)
	}
	s.publish(ctx, event.EventTypeExercisePublished, &e, userID)
	return &e, nil
}

func (s *AuthoringService) Replace(ctx context.Context, userID, exerciseID string, e models.Exercise) (*models.Exercise, error) {
	e.ID = exerciseID
	if err := validateExercise(e); err != nil {
		recordValidationFailure(err)
		return nil, err
	}
	if err := s.Exercises.Update(ctx, &e); err != nil {
		return nil, storeErr("update exercise", err)
	}
	s.publish(ctx, event.EventTypeExercisePublished, &e, userID)
	return &e, nil
}

func (s *AuthoringService) Get(ctx context.Context, id string) (*models.Exercise, error) {
	e, err := s.Exercises.FindByID(ctx, id)
	return e, storeErr("find exercise", err)
}

func (s *AuthoringService) List(ctx context.Context, f repository.ExerciseFilter) ([]models.Exercise, error) {
	list, err := s.Exercises.List(ctx, f)
	return list, storeErr("list exercises", err)
}

func (s *AuthoringService) Delete(ctx context.Context, userID, id string) error {
	e, err := s.Exercises.FindByID(ctx, id)
	if err != nil {
		return storeErr("find exercise", err)
	}
	if err := s.Exercises.Delete(ctx, id); err != nil {
		return storeErr("delete exercise", err)
	}
	s.publish(ctx, event.EventTypeExerciseDeleted, e, userID)
	return nil
}

func (s *AuthoringService) publish(ctx context.Context, eventType string, e *models.Exercise, userID string) {
	if s.Publisher == nil {
		return
	}
	err := s.Publisher.PublishExerciseEvent(ctx, &event.ExerciseEvent{
		EventType:  eventType,
		ExerciseID: e.ID,
		Type:       string(e.Type),
		Lang:       e.Lang,
		UserID:     userID,
		Timestamp:  time.Now().Unix(),
	})
	if err != nil {
		logging.Error("Failed to publish %s for %s: %v", eventType, e.ID, err)
	}
}

func (m DraftMeta) apply(e *models.Exercise) {
	if m.Title != nil {
		e.Title = strings.TrimSpace(*m.Title)
	}
	if m.Level != nil {
		e.Level = *m.Level
	}
	if m.Lang != nil {
		e.Lang = *m.Lang
	}
	if m.XPReward != nil {
		e.XPReward = *m.XPReward
	}
	if m.MaterialID != nil {
		e.MaterialID = *m.MaterialID
	}
	if m.LessonID != nil {
		e.LessonID = *m.LessonID
	}
}

func validateExercise(e models.Exercise) error {
	if err := exercise.Validate(e); err != nil {
		return err
	}
	return exercise.ValidateMeta(e)
}

func recordValidationFailure(err error) {
	var verr *exercise.ValidationError
	if errors.As(err, &verr) {
		metrics.ValidationFailures.WithLabelValues(string(verr.Kind)).Inc()
	}
}
