package handlers

import (
	"errors"
	"net/http"

	"qrlinkr/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	msgSlugConflict = "Custom slug already exists."
	msgLinkNotFound = "Link not found."
	msgInvalidID    = "Invalid link id."
	msgInvalidBody  = "Invalid request body."
)

// respondError maps service error kinds to status codes. Only the handler
// layer knows about HTTP.
func (h *Handler) respondError(c *gin.Context, err error, notFoundMsg, internalMsg string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"message": ve.Error()})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, services.ErrSlugConflict):
		c.JSON(http.StatusConflict, gin.H{"message": msgSlugConflict})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundMsg})
	default:
		h.logger.Error(internalMsg, "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"message": internalMsg})
	}
}
