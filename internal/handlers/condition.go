package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paulexconde/formdeck/internal/logger"
	"github.com/paulexconde/formdeck/internal/models"
	"github.com/paulexconde/formdeck/internal/services"
)

type ConditionHandler struct {
	log        *logger.Logger
	conditions services.ConditionService
}

func NewConditionHandler(log *logger.Logger, conditions services.ConditionService) *ConditionHandler {
	return &ConditionHandler{
		log:        log.With("handler", "ConditionHandler"),
		conditions: conditions,
	}
}

// conditionRequest whitelists the writable fields of a routing condition.
type conditionRequest struct {
	CheckPageID string  `json:"check_page_id"`
	GotoPageID  *string `json:"goto_page_id"`
	AnswerValue string  `json:"answer_value"`
	SkipToEnd   bool    `json:"skip_to_end"`
}

func (h *ConditionHandler) List(c *gin.Context) {
	conditions, err := h.conditions.List(c.Request.Context(), c.Param("form_id"), c.Param("page_id"))
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondOK(c, conditions)
}

func (h *ConditionHandler) Create(c *gin.Context) {
	var req conditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	cond := models.RoutingCondition{
		CheckPageID: req.CheckPageID,
		GotoPageID:  req.GotoPageID,
		AnswerValue: req.AnswerValue,
		SkipToEnd:   req.SkipToEnd,
	}

	created, err := h.conditions.Create(c.Request.Context(), c.Param("form_id"), c.Param("page_id"), &cond)
	if err != nil {
		RespondServiceError(c, h.log, err)
		return
	}
	RespondCreated(c, gin.H{"id": created.ID})
}
