package exercise

import (
	"errors"
	"fmt"
)

var (
	ErrQuestionIndex       = errors.New("question index out of range")
	ErrBlankIndex          = errors.New("blank index out of range")
	ErrOptionNotFound      = errors.New("option not found")
	ErrOptionKeysExhausted = errors.New("no option letters left for this question")
	ErrWrongType           = errors.New("operation does not apply to this exercise type")
	ErrUnknownField        = errors.New("unknown field")
)

// ErrorKind identifies which authoring rule a draft broke, so the caller can
// show a field-specific message.
type ErrorKind string

const (
	KindMissingTitle         ErrorKind = "missing_title"
	KindInvalidType          ErrorKind = "invalid_type"
	KindUnsupportedType      ErrorKind = "unsupported_type"
	KindNoQuestions          ErrorKind = "no_questions"
	KindMissingText          ErrorKind = "missing_text"
	KindNoBlankMarkers       ErrorKind = "no_blank_markers"
	KindBlankCountMismatch   ErrorKind = "blank_count_mismatch"
	KindMissingAnswer        ErrorKind = "missing_answer"
	KindMissingPrompt        ErrorKind = "missing_prompt"
	KindTooFewOptions        ErrorKind = "too_few_options"
	KindTooManyOptions       ErrorKind = "too_many_options"
	KindEmptyOptionText      ErrorKind = "empty_option_text"
	KindInvalidCorrectAnswer ErrorKind = "invalid_correct_answer"
	KindInvalidLang          ErrorKind = "invalid_lang"
	KindInvalidLevel         ErrorKind = "invalid_level"
	KindInvalidXPReward      ErrorKind = "invalid_xp_reward"
)

type ValidationError struct {
	Kind ErrorKind `json:"kind"`
	// Question and Blank are -1 when the rule is not tied to one.
	Question int    `json:"question"`
	Blank    int    `json:"blank"`
	Option   string `json:"option,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func (e *ValidationError) Error() string {
	msg := string(e.Kind)
	if e.Question >= 0 {
		msg = fmt.Sprintf("question %d: %s", e.Question+1, msg)
	}
	if e.Blank >= 0 {
		msg = fmt.Sprintf("%s (blank %d)", msg, e.Blank+1)
	}
	if e.Option != "" {
		msg = fmt.Sprintf("%s (option %s)", msg, e.Option)
	}
	if e.Detail != "" {
		msg = msg + ": " + e.Detail
	}
	return "validation failed: " + msg
}

func invalid(kind ErrorKind) *ValidationError {
	return &ValidationError{Kind: kind, Question: -1, Blank: -1}
}

func invalidQuestion(kind ErrorKind, q int) *ValidationError {
	return &ValidationError{Kind: kind, Question: q, Blank: -1}
}
