package handlers

import (
	"qrlinkr/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) RedirectToURL(c *gin.Context) {
	slug := c.Param("slug")

	instr, err := h.resolver.Resolve(c.Request.Context(), slug, services.RequestContext{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.respondError(c, err, "Short URL not found.", "Error processing request.")
		return
	}

	// Destinations can change; keep intermediaries from pinning the redirect.
	c.Header("Cache-Control", "private, max-age=0")
	c.Redirect(instr.StatusCode, instr.Location)
}
