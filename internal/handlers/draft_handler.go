package handlers

import (
	"net/http"
	"strconv"

	"exercise-service/internal/exercise"
	"exercise-service/internal/middleware"
	"exercise-service/internal/models"
	"exercise-service/internal/service"

	"github.com/gin-gonic/gin"
)

type DraftHandler struct {
	Service *service.AuthoringService
}

func NewDraftHandler(s *service.AuthoringService) *DraftHandler {
	return &DraftHandler{Service: s}
}

type metaRequest struct {
	Title      *string `json:"title"`
	Level      *string `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Lang       *string `json:"lang" binding:"omitempty,oneof=fr ru en"`
	XPReward   *int    `json:"xpReward" binding:"omitempty,min=1,max=100"`
	MaterialID *string `json:"materialId"`
	LessonID   *string `json:"lessonId"`
}

type createDraftRequest struct {
	Type string `json:"type" binding:"required,oneof=fill_in_blank mcq drag_and_drop"`
	metaRequest
}

type questionFieldRequest struct {
	Field string  `json:"field" binding:"required,oneof=title text question explanation correctAnswer"`
	Value *string `json:"value" binding:"required"`
}

type blankFieldRequest struct {
	Field string  `json:"field" binding:"required,oneof=correctAnswers hint"`
	Value *string `json:"value" binding:"required"`
}

type optionRequest struct {
	Text *string `json:"text" binding:"required"`
}

// draftResponse adds the live blank count of each question, shown next to
// the text while an author types.
type draftResponse struct {
	*exercise.Draft
	BlankCounts []int `json:"blankCounts,omitempty"`
}

func newDraftResponse(d *exercise.Draft) draftResponse {
	resp := draftResponse{Draft: d}
	if d.Exercise.Type == models.TypeFillInBlank {
		resp.BlankCounts = make([]int, len(d.Exercise.Questions))
		for i, q := range d.Exercise.Questions {
			resp.BlankCounts[i] = exercise.CountBlanks(q.Text)
		}
	}
	return resp
}

func (m metaRequest) toMeta() service.DraftMeta {
	meta := service.DraftMeta{
		Title:      m.Title,
		Lang:       m.Lang,
		XPReward:   m.XPReward,
		MaterialID: m.MaterialID,
		LessonID:   m.LessonID,
	}
	if m.Level != nil {
		level := models.Level(*m.Level)
		meta.Level = &level
	}
	return meta
}

func (h *DraftHandler) RegisterRoutes(r *gin.Engine) {
	drafts := r.Group("/protected/exercise/draft", middleware.RequireUser(), middleware.PermissionRequired(middleware.WriteExercisePermission))
	{
		drafts.POST("", h.CreateDraft)
		drafts.POST("/from/:exerciseId", h.EditExercise)
		drafts.GET("/:id", h.GetDraft)
		drafts.PATCH("/:id", h.UpdateMeta)
		drafts.DELETE("/:id", h.DiscardDraft)
		drafts.GET("/:id/validate", h.ValidateDraft)
		drafts.POST("/:id/publish", h.Publish)

		drafts.POST("/:id/question", h.AddQuestion)
		drafts.DELETE("/:id/question/:q", h.RemoveQuestion)
		drafts.PATCH("/:id/question/:q", h.UpdateQuestion)

		drafts.POST("/:id/question/:q/blank", h.AddBlank)
		drafts.DELETE("/:id/question/:q/blank/:b", h.RemoveBlank)
		drafts.PATCH("/:id/question/:q/blank/:b", h.UpdateBlank)

		drafts.POST("/:id/question/:q/option", h.AddOption)
		drafts.PATCH("/:id/question/:q/option/:key", h.UpdateOption)
		drafts.DELETE("/:id/question/:q/option/:key", h.RemoveOption)
	}
}

func (h *DraftHandler) CreateDraft(c *gin.Context) {
	var req createDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	d, err := h.Service.CreateDraft(c.Request.Context(), middleware.UserID(c), models.ExerciseType(req.Type), req.toMeta())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newDraftResponse(d))
}

func (h *DraftHandler) EditExercise(c *gin.Context) {
	d, err := h.Service.EditExercise(c.Request.Context(), middleware.UserID(c), c.Param("exerciseId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newDraftResponse(d))
}

func (h *DraftHandler) GetDraft(c *gin.Context) {
	d, err := h.Service.GetDraft(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDraftResponse(d))
}

func (h *DraftHandler) UpdateMeta(c *gin.Context) {
	var req metaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	d, err := h.Service.UpdateMeta(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.toMeta())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDraftResponse(d))
}

func (h *DraftHandler) DiscardDraft(c *gin.Context) {
	if err := h.Service.DiscardDraft(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DraftHandler) ValidateDraft(c *gin.Context) {
	d, err := h.Service.GetDraft(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := d.Validate(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func (h *DraftHandler) Publish(c *gin.Context) {
	e, err := h.Service.Publish(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *DraftHandler) AddQuestion(c *gin.Context) {
	h.mutate(c, http.StatusCreated, func(d *exercise.Draft) error {
		d.AddQuestion()
		return nil
	})
}

func (h *DraftHandler) RemoveQuestion(c *gin.Context) {
	q, ok := indexParam(c, "q")
	if !ok {
		return
	}
	h.mutate(c, http.StatusOK, func(d *exercise.Draft) error {
		return d.RemoveQuestion(q)
	})
}

func (h *DraftHandler) UpdateQuestion(c *gin.Context) {
	q, ok := indexParam(c, "q")
	if !ok {
		return
	}
	var req questionFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.mutate(c, http.StatusOK, func(d *exercise.Draft) error {
		return d.UpdateQuestion(q, exercise.QuestionField(req.Field), *req.Value)
	})
}

func (h *DraftHandler) AddBlank(c *gin.Context) {
	q, ok := indexParam(c, "q")
	if !ok {
		return
	}
	h.mutate(c, http.StatusCreated, func(d *exercise.Draft) error {
		return d.AddBlank(q)
	})
}

func (h *DraftHandler) RemoveBlank(c *gin.Context) {
	q, ok := indexParam(c, "q")
	if !ok {
		return
	}
	b, ok := indexParam(c, "b")
	if !ok {
		return
	}
	h.mutate(c, http.StatusOK, func(d *exercise.Draft) error {
		return d.RemoveBlank(q, b)
	})
}

func (h *DraftHandler) UpdateBlank(c *gin.Context) {
	q, ok := indexParam(c, "q")
	if !ok {
		return
	}
	b, ok := indexParam(c, "b")
	if !ok {
		return
	}
	var req blankFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.mutate(c, http.StatusOK, func(d *exercise.Draft) error {
		return d.UpdateBlank(q, b, exercise.BlankField(req.Field), *req.Value)
	})
}

func (h *DraftHandler) AddOption(c *gin.Context) {
	q, ok := indexParam(c, "q")
	if !ok {
		return
	}

	var added models.Option
	d, err := h.Service.Mutate(c.Request.Context(), middleware.UserID(c), c.Param("id"), func(d *exercise.Draft) error {
		opt, err := d.AddOption(q)
		added = opt
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"option": added, "draft": newDraftResponse(d)})
}

func (h *DraftHandler) UpdateOption(c *gin.Context) {
	q, ok := indexParam(c, "q")
	if !ok {
		return
	}
	var req optionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	key := c.Param("key")
	h.mutate(c, http.StatusOK, func(d *exercise.Draft) error {
		return d.UpdateOption(q, key, *req.Text)
	})
}

func (h *DraftHandler) RemoveOption(c *gin.Context) {
	q, ok := indexParam(c, "q")
	if !ok {
		return
	}
	key := c.Param("key")
	h.mutate(c, http.StatusOK, func(d *exercise.Draft) error {
		return d.RemoveOption(q, key)
	})
}

func (h *DraftHandler) mutate(c *gin.Context, status int, op service.DraftOp) {
	d, err := h.Service.Mutate(c.Request.Context(), middleware.UserID(c), c.Param("id"), op)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, newDraftResponse(d))
}

func indexParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " index"})
		return 0, false
	}
	return n, true
}
