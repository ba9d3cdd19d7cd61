package models

import (
	"time"
)

// Owner is the identity a Link belongs to.
type Owner struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Links     []Link    `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Owner) TableName() string {
	return "owners"
}
