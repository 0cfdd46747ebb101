package grading

import (
	"math"

	"exercise-service/internal/models"
)

const (
	PerfectThreshold = 100
	GoodThreshold    = 60
)

type Grader struct {
	matcher *Matcher
}

func NewGrader(m *Matcher) *Grader {
	if m == nil {
		m = NewMatcher(nil)
	}
	return &Grader{matcher: m}
}

// Grade scores an attempt snapshot. It never fails: unanswered items count as
// incorrect, and an exercise without items scores 0. The attempt is only read.
func (g *Grader) Grade(e models.Exercise, attempt *models.Attempt) models.GradeReport {
	items := []models.ItemResult{}
	for qi, q := range e.Questions {
		items = append(items, g.GradeQuestion(e.Type, qi, q, attempt)...)
	}

	correct := 0
	for _, it := range items {
		if it.Correct {
			correct++
		}
	}

	score := NewScore(correct, len(items))
	return models.GradeReport{
		Score: score,
		Tier:  TierFor(score.Percentage),
		Items: items,
	}
}

// GradeQuestion grades one question: one item per blank for fill_in_blank,
// a single item for mcq.
func (g *Grader) GradeQuestion(t models.ExerciseType, qi int, q models.Question, attempt *models.Attempt) []models.ItemResult {
	switch t {
	case models.TypeFillInBlank:
		items := make([]models.ItemResult, 0, len(q.Blanks))
		for bi, b := range q.Blanks {
			given, _ := attempt.Blank(qi, bi)
			items = append(items, models.ItemResult{
				Question:  qi,
				Blank:     bi,
				Submitted: given,
				Expected:  b.Canonical(),
				Correct:   g.matcher.IsCorrect(given, b.CorrectAnswers),
			})
		}
		return items
	case models.TypeMCQ:
		given, _ := attempt.Choice(qi)
		return []models.ItemResult{{
			Question:  qi,
			Blank:     -1,
			Submitted: given,
			Expected:  q.CorrectAnswer,
			Correct:   g.matcher.IsChoiceCorrect(q, given),
		}}
	}
	return nil
}

func NewScore(correct, total int) models.Score {
	s := models.Score{Correct: correct, Total: total}
	if total > 0 {
		s.Percentage = int(math.Round(100 * float64(correct) / float64(total)))
	}
	return s
}

// TierFor classifies a percentage; boundaries are inclusive-lower.
func TierFor(percentage int) models.Tier {
	switch {
	case percentage >= PerfectThreshold:
		return models.TierPerfect
	case percentage >= GoodThreshold:
		return models.TierGood
	default:
		return models.TierKeepPracticing
	}
}
