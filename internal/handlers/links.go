package handlers

import (
	"net/http"

	"qrlinkr/internal/middleware"
	"qrlinkr/internal/services"
	"qrlinkr/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CreateLinkRequest struct {
	Destination string `json:"destination"`
	CustomSlug  string `json:"custom_slug,omitempty"`
}

type UpdateLinkRequest struct {
	Destination string `json:"destination"`
}

func (h *Handler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidBody})
		return
	}

	owner, _ := middleware.OwnerFromContext(c)
	link, err := h.registry.CreateLink(c.Request.Context(), services.CreateLinkInput{
		Destination: req.Destination,
		CustomSlug:  req.CustomSlug,
		Owner:       owner,
	})
	if err != nil {
		h.respondError(c, err, msgLinkNotFound, "Error creating QR code.")
		return
	}

	c.JSON(http.StatusOK, link)
}

func (h *Handler) ListLinks(c *gin.Context) {
	owner, _ := middleware.OwnerFromContext(c)

	links, err := h.registry.ListByOwner(c.Request.Context(), owner.ID)
	if err != nil {
		h.respondError(c, err, msgLinkNotFound, "Error fetching links.")
		return
	}

	c.JSON(http.StatusOK, links)
}

func (h *Handler) UpdateLink(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidID})
		return
	}

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidBody})
		return
	}

	link, err := h.registry.UpdateDestination(c.Request.Context(), id, req.Destination)
	if err != nil {
		h.respondError(c, err, msgLinkNotFound, "Error updating link.")
		return
	}

	c.JSON(http.StatusOK, link)
}

func (h *Handler) DeleteLink(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidID})
		return
	}

	if err := h.registry.DeleteLink(c.Request.Context(), id); err != nil {
		h.respondError(c, err, msgLinkNotFound, "Error deleting link.")
		return
	}

	c.Status(http.StatusNoContent)
}
