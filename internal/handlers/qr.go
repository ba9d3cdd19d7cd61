package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"qrlinkr/internal/services"
	"qrlinkr/pkg/utils"

	"github.com/gin-gonic/gin"
)

// GetQRCode renders the short URL of a link as PNG (default) or SVG.
func (h *Handler) GetQRCode(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidID})
		return
	}

	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "size: must be a positive integer"})
			return
		}
		size = n
	}

	link, err := h.registry.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, msgLinkNotFound, "Error generating QR code.")
		return
	}

	opts := services.QROptions{
		Content: h.ShortURL(link.Slug),
		Size:    size,
		FgColor: c.DefaultQuery("fg", "#000000"),
		BgColor: c.DefaultQuery("bg", "#FFFFFF"),
		Level:   c.Query("level"),
		Margin:  c.Query("margin") == "true",
	}

	switch strings.ToLower(c.DefaultQuery("format", "png")) {
	case "png":
		data, err := h.qrService.GenerateQRCode(opts)
		if err != nil {
			h.respondError(c, err, msgLinkNotFound, "Error generating QR code.")
			return
		}
		c.Data(http.StatusOK, "image/png", data)
	case "svg":
		svg, err := h.qrService.GenerateQRCodeSVG(opts)
		if err != nil {
			h.respondError(c, err, msgLinkNotFound, "Error generating QR code.")
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "format: must be png or svg"})
	}
}

// ShortURL is the public URL a QR code encodes.
func (h *Handler) ShortURL(slug string) string {
	return strings.TrimRight(h.cfg.BaseURL, "/") + "/r/" + slug
}
