package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paulexconde/formdeck/internal/logger"
	"github.com/paulexconde/formdeck/internal/models"
	"github.com/paulexconde/formdeck/internal/pkg/fault"
)

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// RespondServiceError translates a service failure into the wire
// taxonomy: validation problems become a field error map, unresolvable
// identifiers become not_found, anything else is a 500.
func RespondServiceError(c *gin.Context, log *logger.Logger, err error) {
	var ve models.ValidationErrors
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": ve})
		return
	}
	if errors.Is(err, fault.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found")
		return
	}
	log.Error("request failed", "path", c.FullPath(), "error", err)
	RespondError(c, http.StatusInternalServerError, "internal_error")
}
