package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulexconde/formdeck/internal/logger"
	"github.com/paulexconde/formdeck/internal/models"
	"github.com/paulexconde/formdeck/internal/pkg/fault"
)

type stubPageService struct {
	created *models.Page
	page    *models.Page
	pages   []models.Page
	err     error
	moved   []string
}

func (s *stubPageService) List(ctx context.Context, formID string) ([]models.Page, error) {
	return s.pages, s.err
}

func (s *stubPageService) Get(ctx context.Context, formID, pageID string) (*models.Page, error) {
	if s.page == nil {
		return nil, fault.ErrNotFound
	}
	return s.page, s.err
}

func (s *stubPageService) Create(ctx context.Context, formID string, page *models.Page) (*models.Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	page.ID = "new-page"
	s.created = page
	return page, nil
}

func (s *stubPageService) Update(ctx context.Context, formID string, page *models.Page) (*models.Page, error) {
	return page, s.err
}

func (s *stubPageService) Delete(ctx context.Context, formID, pageID string) error {
	return s.err
}

func (s *stubPageService) MoveUp(ctx context.Context, formID, pageID string) error {
	s.moved = append(s.moved, "up:"+pageID)
	return s.err
}

func (s *stubPageService) MoveDown(ctx context.Context, formID, pageID string) error {
	s.moved = append(s.moved, "down:"+pageID)
	return s.err
}

func newPageTestRouter(svc *stubPageService, legacyAPI bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPageHandler(logger.NewNop(), svc, nil, nil, legacyAPI)

	r := gin.New()
	pages := r.Group("/forms/:form_id/pages")
	pages.GET("", h.List)
	pages.POST("", h.Create)
	pages.GET("/:page_id", h.Get)
	pages.DELETE("/:page_id", h.Delete)
	pages.POST("/:page_id/move_up", h.MoveUp)
	pages.POST("/:page_id/move_down", h.MoveDown)
	return r
}

func TestPageCreate(t *testing.T) {
	svc := &stubPageService{}
	router := newPageTestRouter(svc, false)

	body := `{"question_text": "What is your name?", "answer_type": "text", "answer_settings": {"input_type": "single_line"}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/forms/f1/pages", bytes.NewBufferString(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "new-page", resp["id"])

	require.NotNil(t, svc.created)
	assert.Equal(t, models.AnswerTypeText, svc.created.AnswerType)
}

func TestPageCreate_LegacyTranslationApplied(t *testing.T) {
	svc := &stubPageService{}
	router := newPageTestRouter(svc, true)

	body := `{"question_text": "What is your name?", "answer_type": "single_line"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/forms/f1/pages", bytes.NewBufferString(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, models.AnswerTypeText, svc.created.AnswerType)
	assert.JSONEq(t, `{"input_type": "single_line"}`, string(svc.created.AnswerSettings))
}

func TestPageCreate_ValidationErrors(t *testing.T) {
	svc := &stubPageService{err: models.ValidationErrors{"question_text": {"can't be blank"}}}
	router := newPageTestRouter(svc, false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/forms/f1/pages", bytes.NewBufferString(`{"answer_type": "text"}`))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "question_text")
}

func TestPageGet_NotFound(t *testing.T) {
	svc := &stubPageService{}
	router := newPageTestRouter(svc, false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/forms/f1/pages/missing", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "not_found"}`, w.Body.String())
}

func TestPageGet_LegacyDisplayTranslation(t *testing.T) {
	svc := &stubPageService{
		page: &models.Page{
			ID:             "p1",
			QuestionText:   "What is your name?",
			AnswerType:     models.AnswerTypeText,
			AnswerSettings: types.JSONText(`{"input_type": "single_line"}`),
		},
	}
	router := newPageTestRouter(svc, true)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/forms/f1/pages/p1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AnswerType string `json:"answer_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "single_line", resp.AnswerType)
	assert.NotContains(t, w.Body.String(), "answer_settings")
}

func TestPageMove(t *testing.T) {
	svc := &stubPageService{}
	router := newPageTestRouter(svc, false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/forms/f1/pages/p2/move_up", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": 1}`, w.Body.String())
	assert.Equal(t, []string{"up:p2"}, svc.moved)
}

func TestPageDelete(t *testing.T) {
	svc := &stubPageService{}
	router := newPageTestRouter(svc, false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/forms/f1/pages/p1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())
}
