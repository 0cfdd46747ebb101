package exercise

import (
	"strings"

	"exercise-service/internal/models"
)

// CountBlanks returns the number of non-overlapping blank markers in text.
func CountBlanks(text string) int {
	return strings.Count(text, models.BlankMarker)
}
