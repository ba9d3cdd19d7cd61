package handlers

import (
	"net/http"

	"qrlinkr/internal/middleware"
	"qrlinkr/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(h.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public redirect
	r.GET("/r/:slug", h.RedirectToURL)

	owner := models.Owner{ID: h.cfg.OwnerID, Email: h.cfg.OwnerEmail}
	api := r.Group("/api/qr")
	api.Use(middleware.OwnerIdentity(owner), middleware.OwnerRequired())
	{
		api.POST("/new", h.CreateLink)
		api.GET("/links", h.ListLinks)
		api.GET("/:id/analytics", h.GetAnalytics)
		api.GET("/:id/qr", h.GetQRCode)
		api.PUT("/:id", h.UpdateLink)
		api.DELETE("/:id", h.DeleteLink)
	}

	return r
}
