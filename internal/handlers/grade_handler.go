package handlers

import (
	"net/http"

	"exercise-service/internal/middleware"
	"exercise-service/internal/models"
	"exercise-service/internal/service"

	"github.com/gin-gonic/gin"
)

type GradeHandler struct {
	Service *service.GradingService
}

func NewGradeHandler(s *service.GradingService) *GradeHandler {
	return &GradeHandler{Service: s}
}

type leaderboardQuery struct {
	Lang  string `form:"lang" binding:"required,oneof=fr ru en"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type resultsQuery struct {
	Limit int64 `form:"limit" binding:"omitempty,min=1,max=200"`
}

func (h *GradeHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/public/exercise/leaderboard", h.Leaderboard)
	r.POST("/public/exercise/:id/grade", h.Grade)
	r.POST("/protected/exercise/:id/grade", middleware.RequireUser(), h.Grade)
	r.GET("/protected/exercise/result/me", middleware.RequireUser(), h.MyResults)
}

// Grade scores an attempt snapshot. On the protected route the result is
// also recorded for the signed-in learner; the public route only grades.
func (h *GradeHandler) Grade(c *gin.Context) {
	var attempt models.Attempt
	if err := c.ShouldBindJSON(&attempt); err != nil {
		badRequest(c, err)
		return
	}
	attempt.ExerciseID = c.Param("id")

	report, err := h.Service.Grade(c.Request.Context(), attempt.ExerciseID, middleware.UserID(c), &attempt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *GradeHandler) Leaderboard(c *gin.Context) {
	var q leaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	entries, err := h.Service.TopLearners(c.Request.Context(), q.Lang, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lang": q.Lang, "entries": entries})
}

func (h *GradeHandler) MyResults(c *gin.Context) {
	var q resultsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	results, err := h.Service.ListResults(c.Request.Context(), middleware.UserID(c), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
