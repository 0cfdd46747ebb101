package exercise

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"exercise-service/internal/models"
)

// Validate checks an exercise against the authoring rules and stops at the
// first one broken. It returns nil or a *ValidationError. It runs at save
// time only; grading never calls it.
func Validate(e models.Exercise) error {
	if strings.TrimSpace(e.Title) == "" {
		return invalid(KindMissingTitle)
	}

	switch e.Type {
	case models.TypeFillInBlank, models.TypeMCQ:
	case models.TypeDragAndDrop:
		return invalid(KindUnsupportedType)
	default:
		v := invalid(KindInvalidType)
		v.Detail = string(e.Type)
		return v
	}

	if len(e.Questions) == 0 {
		return invalid(KindNoQuestions)
	}

	for i, q := range e.Questions {
		var err error
		if e.Type == models.TypeFillInBlank {
			err = validateFillInBlank(i, q)
		} else {
			err = validateMCQ(i, q)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ValidateMeta checks the exercise-level fields a draft can be created
// without: target language, level and XP reward.
func ValidateMeta(e models.Exercise) error {
	if !slices.Contains(models.Languages, e.Lang) {
		v := invalid(KindInvalidLang)
		v.Detail = e.Lang
		return v
	}

	switch e.Level {
	case models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced:
	default:
		v := invalid(KindInvalidLevel)
		v.Detail = string(e.Level)
		return v
	}

	if e.XPReward < models.MinXPReward || e.XPReward > models.MaxXPReward {
		v := invalid(KindInvalidXPReward)
		v.Detail = strconv.Itoa(e.XPReward)
		return v
	}
	return nil
}

func validateFillInBlank(i int, q models.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return invalidQuestion(KindMissingText, i)
	}

	markers := CountBlanks(q.Text)
	if markers < 1 {
		return invalidQuestion(KindNoBlankMarkers, i)
	}
	if markers != len(q.Blanks) {
		v := invalidQuestion(KindBlankCountMismatch, i)
		v.Detail = fmt.Sprintf("%d markers, %d blanks", markers, len(q.Blanks))
		return v
	}

	for j, b := range q.Blanks {
		if strings.TrimSpace(b.Canonical()) == "" {
			return &ValidationError{Kind: KindMissingAnswer, Question: i, Blank: j}
		}
	}
	return nil
}

func validateMCQ(i int, q models.Question) error {
	if strings.TrimSpace(q.Prompt) == "" {
		return invalidQuestion(KindMissingPrompt, i)
	}
	if len(q.Options) < models.MinOptions {
		return invalidQuestion(KindTooFewOptions, i)
	}
	if len(q.Options) > models.MaxOptions {
		return invalidQuestion(KindTooManyOptions, i)
	}

	for _, o := range q.Options {
		if strings.TrimSpace(o.Text) == "" {
			v := invalidQuestion(KindEmptyOptionText, i)
			v.Option = o.Key
			return v
		}
	}

	if q.CorrectAnswer == "" {
		return invalidQuestion(KindInvalidCorrectAnswer, i)
	}
	if _, ok := q.OptionByKey(q.CorrectAnswer); !ok {
		v := invalidQuestion(KindInvalidCorrectAnswer, i)
		v.Option = q.CorrectAnswer
		return v
	}
	return nil
}
