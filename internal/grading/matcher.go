package grading

import (
	"strings"
	"unicode"

	"exercise-service/internal/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer folds a string before comparison. Both the learner input and
// every accepted answer go through the same Normalizer.
type Normalizer func(string) string

// DefaultNormalizer trims surrounding whitespace and lower-cases. Accents are
// kept, so "etre" does not match "être".
func DefaultNormalizer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FoldDiacritics is DefaultNormalizer plus removal of combining marks. It is
// opt-in (MATCH_FOLD_DIACRITICS).
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return DefaultNormalizer(folded)
}

type Matcher struct {
	normalize Normalizer
}

func NewMatcher(n Normalizer) *Matcher {
	if n == nil {
		n = DefaultNormalizer
	}
	return &Matcher{normalize: n}
}

// IsCorrect reports whether userAnswer equals any accepted answer after
// normalization. An empty answer is never correct.
func (m *Matcher) IsCorrect(userAnswer string, acceptable []string) bool {
	given := m.normalize(userAnswer)
	if given == "" {
		return false
	}
	for _, a := range acceptable {
		if m.normalize(a) == given {
			return true
		}
	}
	return false
}

// IsChoiceCorrect grades an mcq submission. Stored data is inconsistent: the
// submission may be a key or the option text, and CorrectAnswer may be a key
// or the option text, so each pairing is tried.
func (m *Matcher) IsChoiceCorrect(q models.Question, submitted string) bool {
	if submitted == "" || q.CorrectAnswer == "" {
		return false
	}
	if submitted == q.CorrectAnswer {
		return true
	}
	if o, ok := q.OptionByKey(submitted); ok && o.Text == q.CorrectAnswer {
		return true
	}
	if o, ok := q.OptionByText(submitted); ok && o.Key == q.CorrectAnswer {
		return true
	}
	return false
}
