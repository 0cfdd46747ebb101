package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"exercise-service/internal/exercise"
	"exercise-service/internal/grading"
	"exercise-service/internal/middleware"
	"exercise-service/internal/models"
	"exercise-service/internal/repository"
	"exercise-service/internal/runner"
	"exercise-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memExercises struct {
	mu   sync.Mutex
	docs map[string]models.Exercise
	down bool
}

func (m *memExercises) Create(ctx context.Context, e *models.Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errors.New("no reachable servers")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.docs[e.ID] = e.Clone()
	return nil
}

func (m *memExercises) FindByID(ctx context.Context, id string) (*models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := e.Clone()
	return &c, nil
}

func (m *memExercises) Update(ctx context.Context, e *models.Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[e.ID]; !ok {
		return repository.ErrNotFound
	}
	m.docs[e.ID] = e.Clone()
	return nil
}

func (m *memExercises) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memExercises) List(ctx context.Context, f repository.ExerciseFilter) ([]models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Exercise{}
	for _, e := range m.docs {
		if f.Lang == "" || e.Lang == f.Lang {
			out = append(out, e)
		}
	}
	return out, nil
}

type memDrafts struct {
	mu  sync.Mutex
	raw map[string][]byte
}

func (m *memDrafts) Save(ctx context.Context, d *exercise.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	m.raw[d.ID] = b
	return nil
}

func (m *memDrafts) Get(ctx context.Context, id string) (*exercise.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.raw[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	var d exercise.Draft
	err := json.Unmarshal(b, &d)
	return &d, err
}

func (m *memDrafts) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.raw, id)
	return nil
}

type memResults struct {
	mu      sync.Mutex
	results []models.ExerciseResult
}

func (m *memResults) Create(ctx context.Context, r *models.ExerciseResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, *r)
	return nil
}

func (m *memResults) FindByUser(ctx context.Context, userID string, limit int64) ([]models.ExerciseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ExerciseResult{}
	for _, r := range m.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memBoard struct{}

func (memBoard) AddXP(ctx context.Context, lang, userID string, xp int, at time.Time) error {
	return nil
}

func (memBoard) Top(ctx context.Context, lang string, limit int, at time.Time) ([]models.LeaderboardEntry, error) {
	return []models.LeaderboardEntry{{Rank: 1, UserID: "learner-1", XP: 42}}, nil
}

type testServer struct {
	router    *gin.Engine
	exercises *memExercises
	drafts    *memDrafts
	results   *memResults
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)

	exercises := &memExercises{docs: map[string]models.Exercise{}}
	drafts := &memDrafts{raw: map[string][]byte{}}
	grader := grading.NewGrader(nil)

	authoring := service.NewAuthoringService(exercises, drafts, nil)
	results := &memResults{}
	gradingSvc := service.NewGradingService(exercises, results, memBoard{}, nil, grader)
	sessions := service.NewSessionService(exercises, runner.NewRegistry(grader, 0, gradingSvc.OnCompletion))

	r := gin.New()
	NewExerciseHandler(authoring).RegisterRoutes(r)
	NewDraftHandler(authoring).RegisterRoutes(r)
	NewGradeHandler(gradingSvc).RegisterRoutes(r)
	NewSessionHandler(sessions).RegisterRoutes(r)

	return &testServer{router: r, exercises: exercises, drafts: drafts, results: results}
}

func (s *testServer) do(t *testing.T, method, path string, body any, user string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(middleware.UserIDHeader, user)
		req.Header.Set(middleware.PermissionsHeader, "write:exercise,delete:exercise")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestAuthoringFlowOverHTTP(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/protected/exercise/draft", gin.H{"type": "fill_in_blank", "title": "Aller", "lang": "fr"}, "author-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var draft struct {
		ID          string `json:"id"`
		BlankCounts []int  `json:"blankCounts"`
	}
	decode(t, w, &draft)
	base := "/protected/exercise/draft/" + draft.ID

	w = s.do(t, http.MethodPatch, base+"/question/0", gin.H{"field": "text", "value": "Je ___ au ___"}, "author-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &draft)
	assert.Equal(t, []int{2}, draft.BlankCounts)

	w = s.do(t, http.MethodPost, base+"/publish", nil, "author-1")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var verr map[string]any
	decode(t, w, &verr)
	assert.Equal(t, "blank_count_mismatch", verr["kind"])
	assert.Equal(t, float64(0), verr["question"])

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/question/0/blank", nil, "author-1").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, base+"/question/0/blank/0", gin.H{"field": "correctAnswers", "value": "vais, je vais"}, "author-1").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, base+"/question/0/blank/1", gin.H{"field": "correctAnswers", "value": "marché"}, "author-1").Code)

	w = s.do(t, http.MethodGet, base+"/validate", nil, "author-1")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, base+"/publish", nil, "author-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var saved models.Exercise
	decode(t, w, &saved)
	assert.Equal(t, []string{"vais", "je vais"}, saved.Questions[0].Blanks[0].CorrectAnswers)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, base, nil, "author-1").Code)

	w = s.do(t, http.MethodGet, "/public/exercise/"+saved.ID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDraftRequestValidation(t *testing.T) {
	s := newTestServer()

	testCases := []struct {
		name string
		body gin.H
	}{
		{"unknown type", gin.H{"type": "essay"}},
		{"bad level", gin.H{"type": "mcq", "level": "expert"}},
		{"bad lang", gin.H{"type": "mcq", "lang": "de"}},
		{"xp too high", gin.H{"type": "mcq", "xpReward": 101}},
		{"xp too low", gin.H{"type": "mcq", "xpReward": 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/protected/exercise/draft", tc.body, "author-1")
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestDraftRoutesRequireUserAndPermission(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/protected/exercise/draft", gin.H{"type": "mcq"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/protected/exercise/draft", bytes.NewBufferString(`{"type":"mcq"}`))
	req.Header.Set(middleware.UserIDHeader, "learner-1")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOptionKeysOverHTTP(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/protected/exercise/draft", gin.H{"type": "mcq"}, "author-1")
	require.Equal(t, http.StatusCreated, w.Code)
	var draft struct {
		ID string `json:"id"`
	}
	decode(t, w, &draft)
	base := "/protected/exercise/draft/" + draft.ID + "/question/0/option"

	w = s.do(t, http.MethodPost, base, nil, "author-1")
	require.Equal(t, http.StatusCreated, w.Code)
	var added struct {
		Option models.Option `json:"option"`
	}
	decode(t, w, &added)
	assert.Equal(t, "C", added.Option.Key)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, base+"/B", nil, "author-1").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodDelete, base+"/B", nil, "author-1").Code)

	w = s.do(t, http.MethodPost, base, nil, "author-1")
	decode(t, w, &added)
	assert.Equal(t, "D", added.Option.Key)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/protected/exercise/draft/"+draft.ID+"/question/x/option", nil, "author-1").Code)

	// An option whose text looks like a key must not rescue a removed answer.
	w = s.do(t, http.MethodPost, "/protected/exercise/draft", gin.H{"type": "mcq", "title": "Capitales", "lang": "fr"}, "author-1")
	require.Equal(t, http.StatusCreated, w.Code)
	decode(t, w, &draft)
	base = "/protected/exercise/draft/" + draft.ID

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, base+"/question/0", gin.H{"field": "question", "value": "Capital of France?"}, "author-1").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, base+"/question/0/option/A", gin.H{"text": "B"}, "author-1").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, base+"/question/0/option/B", gin.H{"text": "Paris"}, "author-1").Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/question/0/option", nil, "author-1").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, base+"/question/0/option/C", gin.H{"text": "Lyon"}, "author-1").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, base+"/question/0", gin.H{"field": "correctAnswer", "value": "B"}, "author-1").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, base+"/validate", nil, "author-1").Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, base+"/question/0/option/B", nil, "author-1").Code)

	w = s.do(t, http.MethodGet, base, nil, "author-1")
	require.Equal(t, http.StatusOK, w.Code)
	var reloaded struct {
		Exercise models.Exercise `json:"exercise"`
	}
	decode(t, w, &reloaded)
	assert.Equal(t, "B", reloaded.Exercise.Questions[0].CorrectAnswer)

	w = s.do(t, http.MethodGet, base+"/validate", nil, "author-1")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "invalid_correct_answer")
}

func TestPublishStoreFailureIsRetryable(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/protected/exercise", legacyMCQ(), "author-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	s.exercises.down = true
	w = s.do(t, http.MethodPost, "/protected/exercise", legacyMCQ(), "author-1")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"retryable":true`)
}

func legacyMCQ() gin.H {
	return gin.H{
		"type":     "mcq",
		"title":    "Capitales",
		"level":    "beginner",
		"lang":     "fr",
		"xpReward": 10,
		"questions": []gin.H{
			{"question": "Capital of France?", "options": []string{"Lyon", "Paris"}, "correctAnswer": "Paris"},
		},
	}
}

func TestImportNormalizesLegacyShapeAndGrades(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/protected/exercise", legacyMCQ(), "author-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var saved models.Exercise
	decode(t, w, &saved)
	assert.Equal(t, "B", saved.Questions[0].CorrectAnswer)
	assert.Equal(t, models.Option{Key: "A", Text: "Lyon"}, saved.Questions[0].Options[0])

	w = s.do(t, http.MethodPost, "/public/exercise/"+saved.ID+"/grade", gin.H{"choices": gin.H{"0": "Paris"}}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report models.GradeReport
	decode(t, w, &report)
	assert.Equal(t, 100, report.Score.Percentage)
	assert.Equal(t, models.TierPerfect, report.Tier)
	assert.Equal(t, "B", report.Items[0].Expected)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/public/exercise/missing/grade", gin.H{}, "").Code)
}

func TestOnlySignedInGradingIsRecorded(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/protected/exercise", legacyMCQ(), "author-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var saved models.Exercise
	decode(t, w, &saved)
	attempt := gin.H{"choices": gin.H{"0": "B"}}

	w = s.do(t, http.MethodPost, "/public/exercise/"+saved.ID+"/grade", attempt, "learner-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored, _ := s.results.FindByUser(context.Background(), "learner-1", 10)
	assert.Empty(t, stored, "a user header on the public route is not trusted")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/protected/exercise/"+saved.ID+"/grade", attempt, "").Code)

	w = s.do(t, http.MethodPost, "/protected/exercise/"+saved.ID+"/grade", attempt, "learner-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored, _ = s.results.FindByUser(context.Background(), "learner-1", 10)
	require.Len(t, stored, 1)
	assert.Equal(t, 100, stored[0].Score.Percentage)
	assert.Equal(t, 10, stored[0].XPAwarded)
}

func TestImportRejectsBadMetadata(t *testing.T) {
	s := newTestServer()

	body := legacyMCQ()
	body["xpReward"] = 500
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/protected/exercise", body, "author-1").Code)

	body = legacyMCQ()
	body["type"] = "drag_and_drop"
	w := s.do(t, http.MethodPost, "/protected/exercise", body, "author-1")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported_type")
}

func TestSessionOverHTTP(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/protected/exercise", legacyMCQ(), "author-1")
	require.Equal(t, http.StatusCreated, w.Code)
	var saved models.Exercise
	decode(t, w, &saved)

	w = s.do(t, http.MethodPost, "/protected/exercise/session", gin.H{"exerciseId": saved.ID}, "learner-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var st runner.State
	decode(t, w, &st)
	assert.Equal(t, runner.PhasePresenting, st.Phase)
	require.NotNil(t, st.Question)
	assert.Empty(t, st.Question.CorrectAnswer)

	base := "/protected/exercise/session/" + st.SessionID
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, base, nil, "learner-2").Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, base+"/check", gin.H{"answers": []string{"x"}}, "learner-1").Code)

	w = s.do(t, http.MethodPost, base+"/answer", gin.H{"choice": "B"}, "learner-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &st)
	assert.Equal(t, runner.PhaseCompleted, st.Phase)
	assert.Equal(t, 100, st.Report.Score.Percentage)

	w = s.do(t, http.MethodPost, base+"/retry", nil, "learner-1")
	decode(t, w, &st)
	assert.Equal(t, runner.PhasePresenting, st.Phase)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, base, nil, "learner-1").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, base, nil, "learner-1").Code)
}

func TestLeaderboardQuery(t *testing.T) {
	s := newTestServer()

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/public/exercise/leaderboard", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/public/exercise/leaderboard?lang=de", nil, "").Code)

	w := s.do(t, http.MethodGet, "/public/exercise/leaderboard?lang=fr", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"xp":42`)
}

func TestMyResultsRequiresUser(t *testing.T) {
	s := newTestServer()
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/protected/exercise/result/me", nil, "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/protected/exercise/result/me", nil, "learner-1").Code)
}
