package handlers

import (
	"net/http"

	"exercise-service/internal/middleware"
	"exercise-service/internal/runner"
	"exercise-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

type startSessionRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
}

type answerRequest struct {
	Choice string `json:"choice" binding:"required"`
}

type checkRequest struct {
	Answers []string `json:"answers" binding:"required"`
}

func (h *SessionHandler) RegisterRoutes(r *gin.Engine) {
	sessions := r.Group("/protected/exercise/session", middleware.RequireUser())
	{
		sessions.POST("", h.StartSession)
		sessions.GET("/:id", h.GetSession)
		sessions.POST("/:id/answer", h.Answer)
		sessions.POST("/:id/check", h.Check)
		sessions.POST("/:id/next", h.Next)
		sessions.POST("/:id/retry", h.Retry)
		sessions.DELETE("/:id", h.CloseSession)
	}
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.Service.Start(c.Request.Context(), middleware.UserID(c), req.ExerciseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.State())
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	h.act(c, func(s *runner.Session) error { return nil })
}

func (h *SessionHandler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.act(c, func(s *runner.Session) error { return s.Answer(req.Choice) })
}

func (h *SessionHandler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.act(c, func(s *runner.Session) error { return s.Check(req.Answers) })
}

func (h *SessionHandler) Next(c *gin.Context) {
	h.act(c, func(s *runner.Session) error { return s.Next() })
}

func (h *SessionHandler) Retry(c *gin.Context) {
	h.act(c, func(s *runner.Session) error { return s.Retry() })
}

func (h *SessionHandler) CloseSession(c *gin.Context) {
	if err := h.Service.Close(middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) act(c *gin.Context, fn func(s *runner.Session) error) {
	s, err := h.Service.Get(middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := fn(s); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}
