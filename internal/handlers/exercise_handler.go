package handlers

import (
	"net/http"

	"exercise-service/internal/middleware"
	"exercise-service/internal/models"
	"exercise-service/internal/repository"
	"exercise-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type ExerciseHandler struct {
	Service *service.AuthoringService
}

func NewExerciseHandler(s *service.AuthoringService) *ExerciseHandler {
	return &ExerciseHandler{Service: s}
}

type listQuery struct {
	Lang       string `form:"lang" binding:"omitempty,oneof=fr ru en"`
	Level      string `form:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Type       string `form:"type" binding:"omitempty,oneof=fill_in_blank mcq drag_and_drop"`
	MaterialID string `form:"materialId"`
	LessonID   string `form:"lessonId"`
	Limit      int64  `form:"limit" binding:"omitempty,min=1,max=200"`
	Skip       int64  `form:"skip" binding:"omitempty,min=0"`
}

// exerciseMeta holds the document-level rules checked before the content
// rules of exercise.Validate.
type exerciseMeta struct {
	Type     string `binding:"required,oneof=fill_in_blank mcq drag_and_drop"`
	Level    string `binding:"required,oneof=beginner intermediate advanced"`
	Lang     string `binding:"required,oneof=fr ru en"`
	XPReward int    `binding:"min=1,max=100"`
}

func bindExercise(c *gin.Context) (models.Exercise, bool) {
	var e models.Exercise
	if err := c.ShouldBindJSON(&e); err != nil {
		badRequest(c, err)
		return e, false
	}
	meta := exerciseMeta{Type: string(e.Type), Level: string(e.Level), Lang: e.Lang, XPReward: e.XPReward}
	if err := binding.Validator.ValidateStruct(meta); err != nil {
		badRequest(c, err)
		return e, false
	}
	return e, true
}

func (h *ExerciseHandler) RegisterRoutes(r *gin.Engine) {
	public := r.Group("/public/exercise")
	{
		public.GET("", h.ListExercises)
		public.GET("/:id", h.GetExercise)
	}

	protected := r.Group("/protected/exercise", middleware.RequireUser())
	{
		protected.POST("", middleware.PermissionRequired(middleware.WriteExercisePermission), h.ImportExercise)
		protected.PUT("/:id", middleware.PermissionRequired(middleware.WriteExercisePermission), h.ReplaceExercise)
		protected.DELETE("/:id", middleware.PermissionRequired(middleware.DeleteExercisePermission), h.DeleteExercise)
	}
}

func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	list, err := h.Service.List(c.Request.Context(), repository.ExerciseFilter{
		Lang:       q.Lang,
		Level:      models.Level(q.Level),
		Type:       models.ExerciseType(q.Type),
		MaterialID: q.MaterialID,
		LessonID:   q.LessonID,
		Limit:      q.Limit,
		Skip:       q.Skip,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	e, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *ExerciseHandler) ImportExercise(c *gin.Context) {
	e, ok := bindExercise(c)
	if !ok {
		return
	}
	saved, err := h.Service.Import(c.Request.Context(), middleware.UserID(c), e)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *ExerciseHandler) ReplaceExercise(c *gin.Context) {
	e, ok := bindExercise(c)
	if !ok {
		return
	}
	saved, err := h.Service.Replace(c.Request.Context(), middleware.UserID(c), c.Param("id"), e)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
