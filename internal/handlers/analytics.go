package handlers

import (
	"net/http"

	"qrlinkr/pkg/utils"

	"github.com/gin-gonic/gin"
)

// GetAnalytics returns the scan count and the latest events. Unknown ids yield
// an empty summary rather than a 404.
func (h *Handler) GetAnalytics(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidID})
		return
	}

	summary, err := h.recorder.Summarize(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, msgLinkNotFound, "Error fetching analytics.")
		return
	}

	c.JSON(http.StatusOK, summary)
}
