package models

import (
	"strings"
	"time"
)

type ExerciseType string

const (
	TypeFillInBlank ExerciseType = "fill_in_blank"
	TypeMCQ         ExerciseType = "mcq"
	TypeDragAndDrop ExerciseType = "drag_and_drop"
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Languages lists the target-language codes an exercise can be authored for.
var Languages = []string{"fr", "ru", "en"}

// BlankMarker is the literal placeholder for a fill-in-the-blank slot.
const BlankMarker = "___"

const (
	MinOptions  = 2
	MaxOptions  = 6
	MinXPReward = 1
	MaxXPReward = 100
)

type Exercise struct {
	ID         string       `bson:"_id,omitempty" json:"id"`
	Type       ExerciseType `bson:"type" json:"type"`
	Title      string       `bson:"title" json:"title"`
	Level      Level        `bson:"level" json:"level"`
	Lang       string       `bson:"lang" json:"lang"`
	XPReward   int          `bson:"xp_reward" json:"xpReward"`
	Questions  []Question   `bson:"questions" json:"questions"`
	MaterialID string       `bson:"material_id,omitempty" json:"materialId,omitempty"`
	LessonID   string       `bson:"lesson_id,omitempty" json:"lessonId,omitempty"`
	CreatedBy  string       `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt  time.Time    `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time    `bson:"updated_at" json:"updatedAt"`
}

// Question carries both the fill_in_blank and the mcq fields; which ones apply
// is decided by the owning exercise's Type.
type Question struct {
	// fill_in_blank
	Title  string  `bson:"title,omitempty" json:"title,omitempty"`
	Text   string  `bson:"text,omitempty" json:"text,omitempty"`
	Blanks []Blank `bson:"blanks,omitempty" json:"blanks,omitempty"`

	// mcq
	Prompt        string   `bson:"question,omitempty" json:"question,omitempty"`
	Options       []Option `bson:"options,omitempty" json:"options,omitempty"`
	CorrectAnswer string   `bson:"correct_answer,omitempty" json:"correctAnswer,omitempty"`

	Explanation string `bson:"explanation,omitempty" json:"explanation,omitempty"`
}

type Blank struct {
	CorrectAnswers []string `bson:"correct_answers" json:"correctAnswers"`
	Hint           string   `bson:"hint,omitempty" json:"hint,omitempty"`
}

type Option struct {
	Key  string `bson:"key" json:"key"`
	Text string `bson:"text" json:"text"`
}

// Canonical returns the answer shown on review screens.
func (b Blank) Canonical() string {
	if len(b.CorrectAnswers) == 0 {
		return ""
	}
	return b.CorrectAnswers[0]
}

func (q Question) OptionByKey(key string) (Option, bool) {
	for _, o := range q.Options {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

func (q Question) OptionByText(text string) (Option, bool) {
	for _, o := range q.Options {
		if o.Text == text {
			return o, true
		}
	}
	return Option{}, false
}

// Clone returns a deep copy so callers can hand the document to persistence
// without sharing slices with an in-progress draft.
func (e Exercise) Clone() Exercise {
	out := e
	if e.Questions != nil {
		out.Questions = make([]Question, len(e.Questions))
		for i, q := range e.Questions {
			out.Questions[i] = q.Clone()
		}
	}
	return out
}

func (q Question) Clone() Question {
	out := q
	if q.Blanks != nil {
		out.Blanks = make([]Blank, len(q.Blanks))
		for i, b := range q.Blanks {
			out.Blanks[i] = Blank{Hint: b.Hint}
			if b.CorrectAnswers != nil {
				out.Blanks[i].CorrectAnswers = append([]string{}, b.CorrectAnswers...)
			}
		}
	}
	if q.Options != nil {
		out.Options = append([]Option{}, q.Options...)
	}
	return out
}

func IsValidLevel(l Level) bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

func IsValidLang(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// SplitAnswers turns the author-facing "vais, je vais" encoding into the list
// of accepted answers: comma separated, trimmed, empty segments dropped.
func SplitAnswers(raw string) []string {
	answers := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			answers = append(answers, part)
		}
	}
	return answers
}

// OptionKey returns the letter for the n-th assigned option (0 -> "A").
func OptionKey(n int) string {
	return string(rune('A' + n))
}

// OptionIndex is the inverse of OptionKey; ok is false for anything that is
// not a single upper-case letter.
func OptionIndex(key string) (int, bool) {
	if len(key) != 1 || key[0] < 'A' || key[0] > 'Z' {
		return 0, false
	}
	return int(key[0] - 'A'), true
}
