package models

import (
	"time"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   string    `gorm:"index;size:64" json:"ownerId"`
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE_LINK, UPDATE_LINK, DELETE_LINK
	EntityID  string    `gorm:"size:50" json:"entityId"`        // link id
	Details   string    `gorm:"type:text" json:"details"`       // JSON
	Timestamp time.Time `json:"timestamp"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{&Owner{}, &Link{}, &VisitEvent{}, &AuditLog{}}
}
