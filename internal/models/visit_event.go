package models

import (
	"time"

	"qrlinkr/pkg/utils"

	"gorm.io/gorm"
)

// VisitEvent is one recorded access of a Link's short form.
type VisitEvent struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	LinkID     string    `gorm:"not null;index:idx_events_link_time,priority:1;size:36" json:"qrLinkId"`
	IPAddress  *string   `gorm:"size:45" json:"ipAddress"`
	UserAgent  *string   `gorm:"type:text" json:"userAgent"`
	Browser    string    `gorm:"size:50" json:"browser,omitempty"`
	OS         string    `gorm:"size:100" json:"os,omitempty"`
	DeviceType string    `gorm:"size:20" json:"deviceType,omitempty"`
	Country    string    `gorm:"size:100" json:"country,omitempty"`
	Timestamp  time.Time `gorm:"not null;index:idx_events_link_time,priority:2" json:"timestamp"`
}

func (VisitEvent) TableName() string {
	return "analytics_events"
}

func (e *VisitEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.NewID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return nil
}
