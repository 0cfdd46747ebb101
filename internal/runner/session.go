package runner

import (
	"errors"
	"sync"
	"time"

	"exercise-service/internal/grading"
	"exercise-service/internal/models"
)

type Phase string

const (
	PhasePresenting Phase = "presenting"
	PhaseAnswered   Phase = "answered"
	PhaseCompleted  Phase = "completed"
)

var (
	ErrWrongPhase = errors.New("action not allowed in the current phase")
	ErrWrongType  = errors.New("action does not apply to this exercise type")
	ErrClosed     = errors.New("session closed")
)

// Completion is handed to the completion callback once per finished run.
type Completion struct {
	SessionID string
	UserID    string
	Exercise  models.Exercise
	Report    models.GradeReport
}

// Session walks a learner through one exercise:
// Presenting(i) -> Answered(i) -> Presenting(i+1) | Completed.
//
// mcq answers advance on their own after the configured delay; fill_in_blank
// questions are checked as a whole and advanced with Next. Retry starts over
// from the first question with an empty attempt.
type Session struct {
	mu sync.Mutex

	id       string
	userID   string
	exercise models.Exercise
	grader   *grading.Grader
	delay    time.Duration

	attempt  *models.Attempt
	index    int
	phase    Phase
	feedback []models.ItemResult
	report   *models.GradeReport

	timer *time.Timer
	// generation is bumped whenever pending timers must be ignored.
	generation uint64
	closed     bool
	lastActive time.Time

	onComplete func(Completion)
}

func NewSession(id, userID string, e models.Exercise, g *grading.Grader, delay time.Duration, onComplete func(Completion)) *Session {
	s := &Session{
		id:         id,
		userID:     userID,
		exercise:   e,
		grader:     g,
		delay:      delay,
		onComplete: onComplete,
	}
	s.reset()
	return s
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }

func (s *Session) Exercise() models.Exercise { return s.exercise }

// Answer records an mcq choice for the current question and schedules the
// move to the next one.
func (s *Session) Answer(choice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(models.TypeMCQ, PhasePresenting); err != nil {
		return err
	}

	s.attempt.SetChoice(s.index, choice)
	s.feedback = s.grader.GradeQuestion(s.exercise.Type, s.index, s.exercise.Questions[s.index], s.attempt)
	s.phase = PhaseAnswered

	if s.delay <= 0 {
		s.advanceLocked()
		return nil
	}

	gen := s.generation
	s.timer = time.AfterFunc(s.delay, func() { s.autoAdvance(gen) })
	return nil
}

// Check records every blank of the current fill_in_blank question at once and
// grades them.
func (s *Session) Check(answers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(models.TypeFillInBlank, PhasePresenting); err != nil {
		return err
	}

	for bi := range s.exercise.Questions[s.index].Blanks {
		if bi < len(answers) {
			s.attempt.SetBlank(s.index, bi, answers[bi])
		}
	}
	s.feedback = s.grader.GradeQuestion(s.exercise.Type, s.index, s.exercise.Questions[s.index], s.attempt)
	s.phase = PhaseAnswered
	return nil
}

// Next moves past a checked fill_in_blank question.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(models.TypeFillInBlank, PhaseAnswered); err != nil {
		return err
	}
	s.advanceLocked()
	return nil
}

// Retry discards the attempt and returns to the first question.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.reset()
	return nil
}

// Close cancels any pending auto-advance. A closed session never changes again.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.stopTimer()
}

func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) ready(t models.ExerciseType, phase Phase) error {
	if s.closed {
		return ErrClosed
	}
	if s.exercise.Type != t {
		return ErrWrongType
	}
	if s.phase != phase {
		return ErrWrongPhase
	}
	s.lastActive = time.Now()
	return nil
}

func (s *Session) autoAdvance(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.generation || s.phase != PhaseAnswered {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.advanceLocked()
	s.mu.Unlock()
}

// advanceLocked must be called with mu held.
func (s *Session) advanceLocked() {
	s.feedback = nil
	s.index++
	if s.index < len(s.exercise.Questions) {
		s.phase = PhasePresenting
		return
	}

	report := s.grader.Grade(s.exercise, s.attempt)
	s.report = &report
	s.phase = PhaseCompleted

	if s.onComplete != nil {
		c := Completion{SessionID: s.id, UserID: s.userID, Exercise: s.exercise, Report: report}
		go s.onComplete(c)
	}
}

func (s *Session) reset() {
	s.stopTimer()
	s.generation++
	s.attempt = models.NewAttempt(s.exercise.ID)
	s.index = 0
	s.feedback = nil
	s.report = nil
	s.phase = PhasePresenting
	s.lastActive = time.Now()

	if len(s.exercise.Questions) == 0 {
		r := s.grader.Grade(s.exercise, s.attempt)
		s.report = &r
		s.phase = PhaseCompleted
	}
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
