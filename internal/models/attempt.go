package models

// Attempt is a learner's in-progress answers for one exercise session. It is
// never persisted; only the graded ExerciseResult is.
type Attempt struct {
	ExerciseID string `json:"exerciseId"`
	// Blanks maps question index -> blank index -> typed answer.
	Blanks map[int]map[int]string `json:"blanks,omitempty"`
	// Choices maps question index -> submitted option key (or, for older
	// clients, the option text).
	Choices map[int]string `json:"choices,omitempty"`
}

func NewAttempt(exerciseID string) *Attempt {
	return &Attempt{
		ExerciseID: exerciseID,
		Blanks:     map[int]map[int]string{},
		Choices:    map[int]string{},
	}
}

func (a *Attempt) SetBlank(question, blank int, value string) {
	if a.Blanks == nil {
		a.Blanks = map[int]map[int]string{}
	}
	if a.Blanks[question] == nil {
		a.Blanks[question] = map[int]string{}
	}
	a.Blanks[question][blank] = value
}

func (a *Attempt) Blank(question, blank int) (string, bool) {
	if a == nil || a.Blanks == nil {
		return "", false
	}
	v, ok := a.Blanks[question][blank]
	return v, ok
}

func (a *Attempt) SetChoice(question int, value string) {
	if a.Choices == nil {
		a.Choices = map[int]string{}
	}
	a.Choices[question] = value
}

func (a *Attempt) Choice(question int) (string, bool) {
	if a == nil || a.Choices == nil {
		return "", false
	}
	v, ok := a.Choices[question]
	return v, ok
}

// Reset discards every answer, as "Retry" does.
func (a *Attempt) Reset() {
	a.Blanks = map[int]map[int]string{}
	a.Choices = map[int]string{}
}
