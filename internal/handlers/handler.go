package handlers

import (
	"log/slog"

	"qrlinkr/internal/config"
	"qrlinkr/internal/services"
)

type Handler struct {
	cfg       config.Config
	logger    *slog.Logger
	registry  *services.LinkRegistry
	recorder  *services.AnalyticsRecorder
	resolver  *services.RedirectResolver
	qrService *services.QRService
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	registry *services.LinkRegistry,
	recorder *services.AnalyticsRecorder,
	resolver *services.RedirectResolver,
	qrService *services.QRService,
) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		recorder:  recorder,
		resolver:  resolver,
		qrService: qrService,
	}
}
