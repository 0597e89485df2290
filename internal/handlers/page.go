package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx/types"

	"github.com/paulexconde/formdeck/internal/answersettings"
	"github.com/paulexconde/formdeck/internal/logger"
	"github.com/paulexconde/formdeck/internal/models"
	"github.com/paulexconde/formdeck/internal/services"
)

type PageHandler struct {
	log     *logger.Logger
	pages   services.PageService
	forms   services.FormService
	routing services.RoutingService

	// legacyAPI turns on the deprecated flat answer-type translation at
	// this boundary; the services below it only ever see the new shape.
	legacyAPI bool
}

func NewPageHandler(log *logger.Logger, pages services.PageService, forms services.FormService, routing services.RoutingService, legacyAPI bool) *PageHandler {
	return &PageHandler{
		log:       log.With("handler", "PageHandler"),
		pages:     pages,
		forms:     forms,
		routing:   routing,
		legacyAPI: legacyAPI,
	}
}

type pageRequest struct {
	QuestionText      *string         `json:"question_text"`
	QuestionShortName *string         `json:"question_short_name"`
	HintText          *string         `json:"hint_text"`
	AnswerType        *string         `json:"answer_type"`
	AnswerSettings    json.RawMessage `json:"answer_settings"`
	IsOptional        *bool           `json:"is_optional"`
}

func (r *pageRequest) apply(page *models.Page, legacyAPI bool) {
	if r.QuestionText != nil {
		page.QuestionText = *r.QuestionText
	}
	if r.QuestionShortName != nil {
		page.QuestionShortName = *r.QuestionShortName
	}
	if r.HintText != nil {
		page.HintText = *r.HintText
	}
	if r.IsOptional != nil {
		page.IsOptional = *r.IsOptional
	}
	if r.AnswerType != nil {
		answerType := models.AnswerType(*r.AnswerType)
		settings := r.AnswerSettings
		if legacyAPI {
			answerType, settings = answersettings.FromLegacy(*r.AnswerType, r.AnswerSettings)
		}
		page.AnswerType = answerType
		page.AnswerSettings = types.JSONText(settings)
	} else if r.AnswerSettings != nil {
		page.AnswerSettings = types.JSONText(r.AnswerSettings)
	}
}

// display applies the inverse legacy translation for callers still on
// the flat answer types.
func (h *PageHandler) display(page models.Page) models.Page {
	if !h.legacyAPI {
		return page
	}
	answerType, settings := answersettings.ToLegacy(page.AnswerType, json.RawMessage(page.AnswerSettings))
	page.AnswerType = models.AnswerType(answerType)
	page.AnswerSettings = types.JSONText(settings)
	return page
}

func (h *PageHandler) List(c *gin.Context) {
	pages, err := h.pages.List(c.Request.Context(), c.Param("form_id"))
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	out := make([]models.Page, 0, len(pages))
	for _, page := range pages {
		out = append(out, h.display(page))
	}
	RespondOK(c, out)
}

func (h *PageHandler) Create(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var page models.Page
	req.apply(&page, h.legacyAPI)

	created, err := h.pages.Create(c.Request.Context(), c.Param("form_id"), &page)
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondCreated(c, gin.H{"id": created.ID})
}

func (h *PageHandler) Get(c *gin.Context) {
	page, err := h.pages.Get(c.Request.Context(), c.Param("form_id"), c.Param("page_id"))
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, h.display(*page))
}

func (h *PageHandler) Update(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.pages.Get(c.Request.Context(), c.Param("form_id"), c.Param("page_id"))
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	req.apply(page, h.legacyAPI)

	if _, err := h.pages.Update(c.Request.Context(), c.Param("form_id"), page); err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (h *PageHandler) Delete(c *gin.Context) {
	if err := h.pages.Delete(c.Request.Context(), c.Param("form_id"), c.Param("page_id")); err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (h *PageHandler) MoveUp(c *gin.Context) {
	if err := h.pages.MoveUp(c.Request.Context(), c.Param("form_id"), c.Param("page_id")); err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"success": 1})
}

func (h *PageHandler) MoveDown(c *gin.Context) {
	if err := h.pages.MoveDown(c.Request.Context(), c.Param("form_id"), c.Param("page_id")); err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"success": 1})
}

type resolveNextRequest struct {
	Answer *string `json:"answer"`
}

// ResolveNext previews where a given answer on this page routes the
// respondent.
func (h *PageHandler) ResolveNext(c *gin.Context) {
	var req resolveNextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Answer == nil {
		RespondError(c, http.StatusBadRequest, "answer is required")
		return
	}

	form, err := h.forms.Get(c.Request.Context(), c.Param("form_id"))
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}

	decision, err := h.routing.ResolveNextPage(form, c.Param("page_id"), *req.Answer)
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, decision)
}
