package runner

import "exercise-service/internal/models"

// State is what the learner's client renders. The current question never
// carries its answers.
type State struct {
	SessionID  string              `json:"sessionId"`
	ExerciseID string              `json:"exerciseId"`
	Type       models.ExerciseType `json:"type"`
	Phase      Phase               `json:"phase"`
	Index      int                 `json:"index"`
	Total      int                 `json:"total"`
	Question   *models.Question    `json:"question,omitempty"`
	Feedback   []models.ItemResult `json:"feedback,omitempty"`
	Report     *models.GradeReport `json:"report,omitempty"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		SessionID:  s.id,
		ExerciseID: s.exercise.ID,
		Type:       s.exercise.Type,
		Phase:      s.phase,
		Index:      s.index,
		Total:      len(s.exercise.Questions),
	}

	if s.phase != PhaseCompleted && s.index < len(s.exercise.Questions) {
		q := learnerView(s.exercise.Questions[s.index])
		st.Question = &q
	}
	if s.phase == PhaseAnswered {
		st.Feedback = append([]models.ItemResult{}, s.feedback...)
	}
	if s.report != nil {
		r := *s.report
		st.Report = &r
	}
	return st
}

func learnerView(q models.Question) models.Question {
	v := q.Clone()
	v.CorrectAnswer = ""
	v.Explanation = ""
	for i := range v.Blanks {
		v.Blanks[i].CorrectAnswers = nil
	}
	return v
}
