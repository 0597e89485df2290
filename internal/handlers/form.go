package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paulexconde/formdeck/internal/audit"
	"github.com/paulexconde/formdeck/internal/logger"
	"github.com/paulexconde/formdeck/internal/models"
	"github.com/paulexconde/formdeck/internal/services"
)

// RevisionLister reads the audit trail for one form.
type RevisionLister interface {
	ListByForm(ctx context.Context, formID string) ([]audit.Revision, error)
}

type FormHandler struct {
	log       *logger.Logger
	forms     services.FormService
	revisions RevisionLister
}

func NewFormHandler(log *logger.Logger, forms services.FormService, revisions RevisionLister) *FormHandler {
	return &FormHandler{
		log:       log.With("handler", "FormHandler"),
		forms:     forms,
		revisions: revisions,
	}
}

type formRequest struct {
	Name                        *string `json:"name"`
	SubmissionEmail             *string `json:"submission_email"`
	OrganisationSlug            *string `json:"organisation_slug"`
	CreatorID                   *string `json:"creator_id"`
	PrivacyPolicyURL            *string `json:"privacy_policy_url"`
	SupportEmail                *string `json:"support_email"`
	SupportPhone                *string `json:"support_phone"`
	SupportURL                  *string `json:"support_url"`
	SupportURLText              *string `json:"support_url_text"`
	WhatHappensNext             *string `json:"what_happens_next"`
	DeclarationText             *string `json:"declaration_text"`
	QuestionSectionCompleted    *bool   `json:"question_section_completed"`
	DeclarationSectionCompleted *bool   `json:"declaration_section_completed"`
}

func (r *formRequest) apply(form *models.Form) {
	if r.Name != nil {
		form.Name = *r.Name
	}
	if r.SubmissionEmail != nil {
		form.SubmissionEmail = *r.SubmissionEmail
	}
	if r.OrganisationSlug != nil {
		form.OrganisationSlug = *r.OrganisationSlug
	}
	if r.CreatorID != nil {
		form.CreatorID = *r.CreatorID
	}
	if r.PrivacyPolicyURL != nil {
		form.PrivacyPolicyURL = *r.PrivacyPolicyURL
	}
	if r.SupportEmail != nil {
		form.SupportEmail = *r.SupportEmail
	}
	if r.SupportPhone != nil {
		form.SupportPhone = *r.SupportPhone
	}
	if r.SupportURL != nil {
		form.SupportURL = *r.SupportURL
	}
	if r.SupportURLText != nil {
		form.SupportURLText = *r.SupportURLText
	}
	if r.WhatHappensNext != nil {
		form.WhatHappensNext = *r.WhatHappensNext
	}
	if r.DeclarationText != nil {
		form.DeclarationText = *r.DeclarationText
	}
	if r.QuestionSectionCompleted != nil {
		form.QuestionSectionCompleted = *r.QuestionSectionCompleted
	}
	if r.DeclarationSectionCompleted != nil {
		form.DeclarationSectionCompleted = *r.DeclarationSectionCompleted
	}
}

func (h *FormHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.forms.List(c.Request.Context(), c.Query("organisation"), page, limit)
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, result)
}

func (h *FormHandler) Create(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var form models.Form
	req.apply(&form)

	created, err := h.forms.Create(c.Request.Context(), &form)
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondCreated(c, gin.H{"id": created.ID})
}

func (h *FormHandler) Get(c *gin.Context) {
	form, err := h.forms.Get(c.Request.Context(), c.Param("form_id"))
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, form)
}

func (h *FormHandler) Update(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	form, err := h.forms.Get(c.Request.Context(), c.Param("form_id"))
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	req.apply(form)

	if _, err := h.forms.Update(c.Request.Context(), form); err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (h *FormHandler) Delete(c *gin.Context) {
	if err := h.forms.Delete(c.Request.Context(), c.Param("form_id")); err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (h *FormHandler) MakeLive(c *gin.Context) {
	madeLive, err := h.forms.MakeLive(c.Request.Context(), c.Param("form_id"))
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, madeLive)
}

// Live serves the latest made-live blob exactly as captured.
func (h *FormHandler) Live(c *gin.Context) {
	blob, err := h.forms.LiveVersion(c.Request.Context(), c.Param("form_id"))
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	c.Data(http.StatusOK, "application/json", blob)
}

func (h *FormHandler) Draft(c *gin.Context) {
	view, err := h.forms.Draft(c.Request.Context(), c.Param("form_id"))
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}

// Versions lists made-live history, or the audit revisions when asked
// via ?source=revisions.
func (h *FormHandler) Versions(c *gin.Context) {
	formID := c.Param("form_id")

	if c.Query("source") == "revisions" {
		if _, err := h.forms.Get(c.Request.Context(), formID); err != nil {
			RespondServiceError(c, h.log, err)
			return
		}
		revisions, err := h.revisions.ListByForm(c.Request.Context(), formID)
		if err != nil {
			RespondServiceError(c, h.log, err)
			return
		}
		RespondOK(c, gin.H{"revisions": revisions})
		return
	}

	versions, err := h.forms.Versions(c.Request.Context(), formID)
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"versions": versions})
}
