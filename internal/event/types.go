package event

const (
	EventTypeExerciseCompleted = "exercise.completed"
	EventTypeExercisePublished = "exercise.published"
	EventTypeExerciseDeleted   = "exercise.deleted"
)

// CompletedEvent is consumed by the rewards service to credit the learner.
type CompletedEvent struct {
	EventType  string `json:"eventType"`
	ExerciseID string `json:"exerciseId"`
	UserID     string `json:"userId"`
	Score      int    `json:"score"`
	Completed  bool   `json:"completed"`
	XPAwarded  int    `json:"xpAwarded"`
	Lang       string `json:"lang,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

type ExerciseEvent struct {
	EventType  string `json:"eventType"`
	ExerciseID string `json:"exerciseId"`
	Type       string `json:"type"`
	Lang       string `json:"lang,omitempty"`
	UserID     string `json:"userId,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}
