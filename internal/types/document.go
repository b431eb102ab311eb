package types

import (
	"time"

	"github.com/google/uuid"
)

// Document is the content-addressed record of an uploaded file. Exactly one
// row exists per distinct fingerprint; re-uploading identical bytes resolves
// to the existing row instead of building a second index.
type Document struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Fingerprint string    `gorm:"column:fingerprint;uniqueIndex;not null" json:"fingerprint"`
	DisplayName string    `gorm:"column:display_name;not null" json:"display_name"`
	IndexPath   string    `gorm:"column:index_path;not null" json:"index_path"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Owner       *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerUserID;references:ID" json:"owner,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Document) TableName() string { return "document" }
