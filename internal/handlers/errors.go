package handlers

import (
	"errors"
	"net/http"

	"exercise-service/internal/exercise"
	"exercise-service/internal/logging"
	"exercise-service/internal/runner"
	"exercise-service/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, err error) {
	var verr *exercise.ValidationError
	switch {
	case errors.As(err, &verr):
		body := gin.H{
			"error":    verr.Error(),
			"kind":     verr.Kind,
			"question": verr.Question,
			"blank":    verr.Blank,
		}
		if verr.Option != "" {
			body["option"] = verr.Option
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, runner.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, service.ErrPersistence):
		logging.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage is unavailable, try again", "retryable": true})
	case errors.Is(err, exercise.ErrQuestionIndex),
		errors.Is(err, exercise.ErrBlankIndex),
		errors.Is(err, exercise.ErrOptionNotFound),
		errors.Is(err, exercise.ErrWrongType),
		errors.Is(err, exercise.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, exercise.ErrOptionKeysExhausted),
		errors.Is(err, runner.ErrWrongPhase),
		errors.Is(err, runner.ErrWrongType):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, runner.ErrClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		logging.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
