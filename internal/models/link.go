package models

import (
	"time"

	"qrlinkr/pkg/utils"

	"gorm.io/gorm"
)

type Link struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Slug        string    `gorm:"uniqueIndex;not null;size:50" json:"slug"`
	OriginalURL string    `gorm:"not null;type:text" json:"originalUrl"`
	FallbackURL *string   `gorm:"type:text" json:"fallbackUrl"` // not read anywhere yet
	OwnerID     string    `gorm:"not null;index;size:64" json:"ownerId"`
	Owner       *Owner    `gorm:"foreignKey:OwnerID" json:"-"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Events []VisitEvent `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Link) TableName() string {
	return "qr_links"
}

func (l *Link) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = utils.NewID()
	}
	return nil
}
