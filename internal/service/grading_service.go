package service

import (
	"context"
	"math"
	"time"

	"exercise-service/internal/event"
	"exercise-service/internal/grading"
	"exercise-service/internal/logging"
	"exercise-service/internal/metrics"
	"exercise-service/internal/models"
	"exercise-service/internal/runner"
)

const recordTimeout = 10 * time.Second

type GradingService struct {
	Exercises   ExerciseStore
	Results     ResultStore
	Leaderboard Leaderboard
	Publisher   event.Publisher
	Grader      *grading.Grader
}

func NewGradingService(exercises ExerciseStore, results ResultStore, leaderboard Leaderboard, publisher event.Publisher, grader *grading.Grader) *GradingService {
	return &GradingService{
		Exercises:   exercises,
		Results:     results,
		Leaderboard: leaderboard,
		Publisher:   publisher,
		Grader:      grader,
	}
}

// AwardedXP scales the exercise reward by the score.
func AwardedXP(xpReward, percentage int) int {
	return int(math.Round(float64(xpReward) * float64(percentage) / 100))
}

// Grade scores an attempt snapshot against the stored exercise. Signed-in
// callers also get the result recorded; a recording failure is logged and
// does not affect the returned report.
func (s *GradingService) Grade(ctx context.Context, exerciseID, userID string, attempt *models.Attempt) (models.GradeReport, error) {
	e, err := s.Exercises.FindByID(ctx, exerciseID)
	if err != nil {
		return models.GradeReport{}, storeErr("find exercise", err)
	}

	report := s.Grader.Grade(*e, attempt)
	observe(e.Type, report)

	if userID != "" {
		if _, err := s.Record(ctx, userID, *e, report); err != nil {
			logging.Error("Failed to record result of %s for %s: %v", e.ID, userID, err)
		}
	}
	return report, nil
}

// Record stores a completed run, credits the weekly leaderboard and notifies
// the rewards service.
func (s *GradingService) Record(ctx context.Context, userID string, e models.Exercise, report models.GradeReport) (*models.ExerciseResult, error) {
	xp := AwardedXP(e.XPReward, report.Score.Percentage)
	result := &models.ExerciseResult{
		ExerciseID: e.ID,
		UserID:     userID,
		Type:       e.Type,
		Lang:       e.Lang,
		Score:      report.Score,
		Tier:       report.Tier,
		XPAwarded:  xp,
		Completed:  true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Results.Create(ctx, result); err != nil {
		return nil, storeErr("create result", err)
	}

	if xp > 0 && e.Lang != "" && s.Leaderboard != nil {
		if err := s.Leaderboard.AddXP(ctx, e.Lang, userID, xp, result.CreatedAt); err != nil {
			logging.Error("Failed to credit leaderboard for %s: %v", userID, err)
		} else {
			metrics.XPAwarded.WithLabelValues(e.Lang).Add(float64(xp))
		}
	}

	if s.Publisher != nil {
		err := s.Publisher.PublishCompleted(ctx, &event.CompletedEvent{
			ExerciseID: e.ID,
			UserID:     userID,
			Score:      report.Score.Percentage,
			Completed:  true,
			XPAwarded:  xp,
			Lang:       e.Lang,
			Timestamp:  result.CreatedAt.Unix(),
		})
		if err != nil {
			logging.Error("Failed to publish completion of %s for %s: %v", e.ID, userID, err)
		}
	}
	return result, nil
}

// OnCompletion is the runner's completion callback.
func (s *GradingService) OnCompletion(c runner.Completion) {
	observe(c.Exercise.Type, c.Report)
	if c.UserID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if _, err := s.Record(ctx, c.UserID, c.Exercise, c.Report); err != nil {
		logging.Error("Failed to record session %s: %v", c.SessionID, err)
	}
}

func (s *GradingService) ListResults(ctx context.Context, userID string, limit int64) ([]models.ExerciseResult, error) {
	results, err := s.Results.FindByUser(ctx, userID, limit)
	return results, storeErr("find results", err)
}

func (s *GradingService) TopLearners(ctx context.Context, lang string, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := s.Leaderboard.Top(ctx, lang, limit, time.Now())
	return entries, storeErr("read leaderboard", err)
}

func observe(t models.ExerciseType, report models.GradeReport) {
	metrics.GradedAttempts.WithLabelValues(string(t), string(report.Tier)).Inc()
	metrics.GradePercentage.WithLabelValues(string(t)).Observe(float64(report.Score.Percentage))
}
