package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Stored exercises come in several historical shapes. Decoding normalizes all
// of them once so the rest of the service only ever sees Option{key,text}
// and a key-valued CorrectAnswer.

type questionEnvelope struct {
	Questions []Question `json:"questions"`
}

func (e *Exercise) UnmarshalJSON(data []byte) error {
	type alias Exercise
	aux := struct {
		*alias
		Data    *questionEnvelope `json:"data"`
		Content *questionEnvelope `json:"content"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(e.Questions) == 0 {
		switch {
		case aux.Data != nil && len(aux.Data.Questions) > 0:
			e.Questions = aux.Data.Questions
		case aux.Content != nil && len(aux.Content.Questions) > 0:
			e.Questions = aux.Content.Questions
		}
	}
	return nil
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title         string          `json:"title"`
		Text          string          `json:"text"`
		Blanks        []Blank         `json:"blanks"`
		Prompt        string          `json:"question"`
		Options       json.RawMessage `json:"options"`
		CorrectAnswer json.RawMessage `json:"correctAnswer"`
		Explanation   string          `json:"explanation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	options, legacy, err := decodeOptions(raw.Options)
	if err != nil {
		return fmt.Errorf("options: %w", err)
	}
	correct, err := decodeScalar(raw.CorrectAnswer)
	if err != nil {
		return fmt.Errorf("correctAnswer: %w", err)
	}

	*q = Question{
		Title:         raw.Title,
		Text:          raw.Text,
		Blanks:        raw.Blanks,
		Prompt:        raw.Prompt,
		Options:       options,
		CorrectAnswer: correct,
		Explanation:   raw.Explanation,
	}
	if legacy {
		q.resolveCorrectAnswer()
	}
	return nil
}

// resolveCorrectAnswer rewrites a CorrectAnswer that holds literal option
// text into the matching option's key. Only legacy option lists get this;
// a keyed list keeps its CorrectAnswer as stored, dangling or not.
func (q *Question) resolveCorrectAnswer() {
	if q.CorrectAnswer == "" || len(q.Options) == 0 {
		return
	}
	if _, ok := q.OptionByKey(q.CorrectAnswer); ok {
		return
	}
	if o, ok := q.OptionByText(q.CorrectAnswer); ok {
		q.CorrectAnswer = o.Key
	}
}

func (b *Blank) UnmarshalJSON(data []byte) error {
	var raw struct {
		CorrectAnswers json.RawMessage `json:"correctAnswers"`
		Answer         string          `json:"answer"`
		Hint           string          `json:"hint"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	answers, err := decodeAnswers(raw.CorrectAnswers)
	if err != nil {
		return fmt.Errorf("correctAnswers: %w", err)
	}
	if len(answers) == 0 && raw.Answer != "" {
		answers = SplitAnswers(raw.Answer)
	}
	*b = Blank{CorrectAnswers: answers, Hint: raw.Hint}
	return nil
}

// decodeOptions accepts ["Paris","Lyon"] or [{"key":"A","text":"Paris"}].
// Entries without a key are lettered by position. legacy reports whether any
// entry was in an older shape.
func decodeOptions(data json.RawMessage) (options []Option, legacy bool, err error) {
	if isNull(data) {
		return nil, false, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, err
	}

	options = make([]Option, 0, len(items))
	for i, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			options = append(options, Option{Key: OptionKey(i), Text: text})
			legacy = true
			continue
		}

		var obj struct {
			Key   string `json:"key"`
			ID    string `json:"id"`
			Label string `json:"label"`
			Text  string `json:"text"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, false, fmt.Errorf("option %d: %w", i, err)
		}
		key := obj.Key
		if key == "" {
			key = obj.ID
			legacy = true
		}
		if key == "" {
			key = OptionKey(i)
		}
		text = obj.Text
		if text == "" {
			text = obj.Label
		}
		options = append(options, Option{Key: key, Text: text})
	}
	return options, legacy, nil
}

// decodeAnswers accepts a list of strings or a single comma-encoded string.
func decodeAnswers(data json.RawMessage) ([]string, error) {
	if isNull(data) {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return SplitAnswers(single), nil
}

func decodeScalar(data json.RawMessage) (string, error) {
	if isNull(data) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}

	// Some rows stored the option index instead of a key.
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return OptionKey(n), nil
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
