package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"qrlinkr/internal/models"

	"gorm.io/gorm"
)

const (
	ActionCreateLink = "CREATE_LINK"
	ActionUpdateLink = "UPDATE_LINK"
	ActionDeleteLink = "DELETE_LINK"
)

type AuditService struct {
	db      *gorm.DB
	logger  *slog.Logger
	channel chan models.AuditLog
}

func NewAuditService(db *gorm.DB, logger *slog.Logger) *AuditService {
	return &AuditService{
		db:      db,
		logger:  logger,
		channel: make(chan models.AuditLog, 100),
	}
}

func (s *AuditService) Start(ctx context.Context) {
	s.logger.Info("Audit worker starting")
	writeCtx := context.WithoutCancel(ctx)
	for {
		select {
		case entry := <-s.channel:
			s.write(writeCtx, entry)
		case <-ctx.Done():
			s.drain(writeCtx)
			return
		}
	}
}

func (s *AuditService) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, DrainTimeout)
	defer cancel()
	for {
		select {
		case entry := <-s.channel:
			s.write(ctx, entry)
		default:
			s.logger.Info("Audit worker stopping")
			return
		}
		if ctx.Err() != nil {
			s.logger.Warn("Audit drain timed out", "pending", len(s.channel))
			return
		}
	}
}

func (s *AuditService) write(ctx context.Context, entry models.AuditLog) {
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logger.Error("Failed to write audit log", "error", err, "action", entry.Action)
	}
}

func (s *AuditService) LogAction(ownerID, action, entityID string, details interface{}) {
	if s == nil {
		return
	}
	detailBytes, _ := json.Marshal(details)

	entry := models.AuditLog{
		OwnerID:   ownerID,
		Action:    action,
		EntityID:  entityID,
		Details:   string(detailBytes),
		Timestamp: time.Now(),
	}

	select {
	case s.channel <- entry:
	default:
		s.logger.Warn("Audit channel full, dropping log", "action", action)
	}
}
