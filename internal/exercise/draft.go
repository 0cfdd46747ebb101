package exercise

import (
	"strings"

	"exercise-service/internal/models"
)

type BlankField string

const (
	BlankCorrectAnswers BlankField = "correctAnswers"
	BlankHint           BlankField = "hint"
)

type QuestionField string

const (
	QuestionTitle         QuestionField = "title"
	QuestionText          QuestionField = "text"
	QuestionPrompt        QuestionField = "question"
	QuestionExplanation   QuestionField = "explanation"
	QuestionCorrectAnswer QuestionField = "correctAnswer"
)

// Draft is the mutable, author-owned copy of an exercise being edited.
//
// NextOption holds, per question, the index of the next option letter to
// hand out. It only ever grows, so a removed key is never reassigned to a
// new option.
type Draft struct {
	ID         string          `json:"id"`
	Author     string          `json:"author,omitempty"`
	Exercise   models.Exercise `json:"exercise"`
	NextOption []int           `json:"nextOption"`
}

// NewDraft starts an exercise of the given type with one default question.
func NewDraft(t models.ExerciseType) *Draft {
	d := &Draft{
		Exercise: models.Exercise{
			Type:      t,
			Level:     models.LevelBeginner,
			XPReward:  10,
			Questions: []models.Question{},
		},
	}
	d.AddQuestion()
	return d
}

// FromExercise opens an existing exercise for editing. The draft works on its
// own copy.
func FromExercise(e models.Exercise) *Draft {
	d := &Draft{ID: e.ID, Exercise: e.Clone()}
	d.sync()
	return d
}

// Snapshot returns a copy of the current document safe to hand to persistence.
func (d *Draft) Snapshot() models.Exercise {
	return d.Exercise.Clone()
}

// Validate runs the content rules first, then the exercise-level ones.
func (d *Draft) Validate() error {
	if err := Validate(d.Exercise); err != nil {
		return err
	}
	return ValidateMeta(d.Exercise)
}

// AddQuestion appends a question with the defaults for the exercise type:
// one empty blank for fill_in_blank, options A and B for mcq.
func (d *Draft) AddQuestion() {
	d.sync()

	var q models.Question
	next := 0
	switch d.Exercise.Type {
	case models.TypeFillInBlank:
		q.Blanks = []models.Blank{{CorrectAnswers: []string{""}}}
	case models.TypeMCQ:
		q.Options = []models.Option{
			{Key: models.OptionKey(0)},
			{Key: models.OptionKey(1)},
		}
		q.CorrectAnswer = models.OptionKey(0)
		next = 2
	}

	d.Exercise.Questions = append(d.Exercise.Questions, q)
	d.NextOption = append(d.NextOption, next)
}

// RemoveQuestion may leave the draft with no questions; Validate rejects that.
func (d *Draft) RemoveQuestion(index int) error {
	d.sync()
	if !d.hasQuestion(index) {
		return ErrQuestionIndex
	}

	d.Exercise.Questions = append(d.Exercise.Questions[:index], d.Exercise.Questions[index+1:]...)
	d.NextOption = append(d.NextOption[:index], d.NextOption[index+1:]...)
	return nil
}

func (d *Draft) UpdateQuestion(index int, field QuestionField, value string) error {
	if !d.hasQuestion(index) {
		return ErrQuestionIndex
	}
	q := &d.Exercise.Questions[index]

	switch field {
	case QuestionTitle:
		q.Title = value
	case QuestionText:
		q.Text = value
	case QuestionPrompt:
		q.Prompt = value
	case QuestionExplanation:
		q.Explanation = value
	case QuestionCorrectAnswer:
		if d.Exercise.Type != models.TypeMCQ {
			return ErrWrongType
		}
		q.CorrectAnswer = strings.TrimSpace(value)
	default:
		return ErrUnknownField
	}
	return nil
}

func (d *Draft) AddBlank(question int) error {
	q, err := d.fillInBlank(question)
	if err != nil {
		return err
	}
	q.Blanks = append(q.Blanks, models.Blank{CorrectAnswers: []string{""}})
	return nil
}

// RemoveBlank allows removing the last blank; keeping at least one is a
// presentation rule, and Validate catches the resulting mismatch.
func (d *Draft) RemoveBlank(question, blank int) error {
	q, err := d.fillInBlank(question)
	if err != nil {
		return err
	}
	if blank < 0 || blank >= len(q.Blanks) {
		return ErrBlankIndex
	}
	q.Blanks = append(q.Blanks[:blank], q.Blanks[blank+1:]...)
	return nil
}

// UpdateBlank sets one blank field from raw author input. For
// BlankCorrectAnswers the input is comma separated: "vais, je vais".
func (d *Draft) UpdateBlank(question, blank int, field BlankField, raw string) error {
	q, err := d.fillInBlank(question)
	if err != nil {
		return err
	}
	if blank < 0 || blank >= len(q.Blanks) {
		return ErrBlankIndex
	}

	switch field {
	case BlankCorrectAnswers:
		q.Blanks[blank].CorrectAnswers = models.SplitAnswers(raw)
	case BlankHint:
		q.Blanks[blank].Hint = raw
	default:
		return ErrUnknownField
	}
	return nil
}

// AddOption appends an option under the next unused letter for the question.
func (d *Draft) AddOption(question int) (models.Option, error) {
	q, err := d.mcq(question)
	if err != nil {
		return models.Option{}, err
	}

	next := d.NextOption[question]
	if next > 'Z'-'A' {
		return models.Option{}, ErrOptionKeysExhausted
	}

	opt := models.Option{Key: models.OptionKey(next)}
	q.Options = append(q.Options, opt)
	d.NextOption[question] = next + 1
	return opt, nil
}

func (d *Draft) UpdateOption(question int, key, text string) error {
	q, err := d.mcq(question)
	if err != nil {
		return err
	}
	for i := range q.Options {
		if q.Options[i].Key == key {
			q.Options[i].Text = text
			return nil
		}
	}
	return ErrOptionNotFound
}

// RemoveOption drops the option with the given key. Remaining keys are not
// re-lettered, and a CorrectAnswer pointing at the removed key is left as is
// for Validate to report.
func (d *Draft) RemoveOption(question int, key string) error {
	q, err := d.mcq(question)
	if err != nil {
		return err
	}
	for i := range q.Options {
		if q.Options[i].Key == key {
			q.Options = append(q.Options[:i], q.Options[i+1:]...)
			return nil
		}
	}
	return ErrOptionNotFound
}

func (d *Draft) hasQuestion(index int) bool {
	return index >= 0 && index < len(d.Exercise.Questions)
}

func (d *Draft) fillInBlank(index int) (*models.Question, error) {
	if d.Exercise.Type != models.TypeFillInBlank {
		return nil, ErrWrongType
	}
	if !d.hasQuestion(index) {
		return nil, ErrQuestionIndex
	}
	return &d.Exercise.Questions[index], nil
}

func (d *Draft) mcq(index int) (*models.Question, error) {
	if d.Exercise.Type != models.TypeMCQ {
		return nil, ErrWrongType
	}
	if !d.hasQuestion(index) {
		return nil, ErrQuestionIndex
	}
	d.sync()
	return &d.Exercise.Questions[index], nil
}

// sync keeps NextOption parallel to the question list, seeding missing
// entries from the highest letter already in use.
func (d *Draft) sync() {
	n := len(d.Exercise.Questions)
	if len(d.NextOption) > n {
		d.NextOption = d.NextOption[:n]
	}
	for i := len(d.NextOption); i < n; i++ {
		d.NextOption = append(d.NextOption, nextOptionIndex(d.Exercise.Questions[i]))
	}
}

func nextOptionIndex(q models.Question) int {
	next := len(q.Options)
	for _, o := range q.Options {
		if idx, ok := models.OptionIndex(o.Key); ok && idx+1 > next {
			next = idx + 1
		}
	}
	return next
}
