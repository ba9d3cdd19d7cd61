package services

import (
	"context"
	"log/slog"
	"time"

	"qrlinkr/internal/models"

	"github.com/mssola/user_agent"
	"gorm.io/gorm"
)

// MaxSummaryEvents bounds the event list returned by Summarize.
const MaxSummaryEvents = 100

// DrainTimeout bounds how long a stopping worker keeps flushing its queue.
const DrainTimeout = 5 * time.Second

type VisitInput struct {
	LinkID    string
	IPAddress string
	UserAgent string
}

type Summary struct {
	TotalScans int64               `json:"totalScans"`
	Events     []models.VisitEvent `json:"events"`
}

type RecorderOptions struct {
	Buffer int
	MaskIP bool
}

// AnalyticsRecorder appends visit events. Writes happen on a worker started
// with Start; a failed or dropped write is logged and never reaches the visitor.
type AnalyticsRecorder struct {
	db           *gorm.DB
	logger       *slog.Logger
	geoIPService *GeoIPService
	maskIP       bool
	visits       chan VisitInput
}

func NewAnalyticsRecorder(db *gorm.DB, logger *slog.Logger, geoIPService *GeoIPService, opts RecorderOptions) *AnalyticsRecorder {
	if opts.Buffer <= 0 {
		opts.Buffer = 1000
	}
	return &AnalyticsRecorder{
		db:           db,
		logger:       logger,
		geoIPService: geoIPService,
		maskIP:       opts.MaskIP,
		visits:       make(chan VisitInput, opts.Buffer),
	}
}

// Start writes queued visits until ctx is cancelled, then drains whatever is
// still queued before returning.
func (r *AnalyticsRecorder) Start(ctx context.Context) {
	r.logger.Info("Analytics worker starting")
	writeCtx := context.WithoutCancel(ctx)
	for {
		select {
		case visit := <-r.visits:
			r.write(writeCtx, visit)
		case <-ctx.Done():
			r.drain(writeCtx)
			return
		}
	}
}

func (r *AnalyticsRecorder) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, DrainTimeout)
	defer cancel()

	drained := 0
	for {
		select {
		case visit := <-r.visits:
			r.write(ctx, visit)
			drained++
		default:
			r.logger.Info("Analytics worker stopping", "drained", drained)
			return
		}
		if ctx.Err() != nil {
			r.logger.Warn("Analytics drain timed out", "drained", drained, "pending", len(r.visits))
			return
		}
	}
}

func (r *AnalyticsRecorder) write(ctx context.Context, visit VisitInput) {
	if err := r.Write(ctx, visit); err != nil {
		r.logger.Error("Failed to record visit", "link_id", visit.LinkID, "error", err)
	}
}

// RecordVisit queues a visit without blocking the caller.
func (r *AnalyticsRecorder) RecordVisit(visit VisitInput) {
	select {
	case r.visits <- visit:
	default:
		r.logger.Warn("Analytics channel full, dropping visit", "link_id", visit.LinkID)
	}
}

// Write stores a single visit synchronously.
func (r *AnalyticsRecorder) Write(ctx context.Context, visit VisitInput) error {
	event := r.buildEvent(visit)
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		return storeErr("insert visit", err)
	}
	return nil
}

// Summarize returns the exact scan count and the most recent events. An unknown
// link yields an empty summary.
func (r *AnalyticsRecorder) Summarize(ctx context.Context, linkID string) (*Summary, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.VisitEvent{}).Where("link_id = ?", linkID).Count(&total).Error; err != nil {
		return nil, storeErr("count visits", err)
	}

	events := make([]models.VisitEvent, 0)
	if total > 0 {
		if err := db.Where("link_id = ?", linkID).
			Order("timestamp desc").
			Order("id desc").
			Limit(MaxSummaryEvents).
			Find(&events).Error; err != nil {
			return nil, storeErr("list visits", err)
		}
	}

	return &Summary{TotalScans: total, Events: events}, nil
}

func (r *AnalyticsRecorder) buildEvent(visit VisitInput) models.VisitEvent {
	event := models.VisitEvent{LinkID: visit.LinkID}

	if visit.UserAgent != "" {
		ua := visit.UserAgent
		event.UserAgent = &ua

		parsed := user_agent.New(ua)
		browserName, browserVer := parsed.Browser()
		event.Browser = browserName + " " + browserVer
		event.OS = parsed.OS()
		switch {
		case parsed.Bot():
			event.DeviceType = "Bot"
		case parsed.Mobile():
			event.DeviceType = "Mobile"
		default:
			event.DeviceType = "Desktop"
		}
	}

	if visit.IPAddress != "" {
		event.Country = r.geoIPService.Country(visit.IPAddress)
		ip := visit.IPAddress
		if r.maskIP {
			ip = maskIP(ip)
		}
		event.IPAddress = &ip
	}

	return event
}

func maskIP(ip string) string {
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == '.' {
			return ip[:i] + ".0"
		}
		if ip[i] == ':' {
			return "IPv6 (Masked)"
		}
	}
	return ip
}
