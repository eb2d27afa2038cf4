// internal/models/design.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Design is a content-addressed artwork record. There is exactly one row per
// unique content hash platform-wide; every listing that uses the same bytes
// points at the same row, whoever submitted it.
type Design struct {
	BaseModel
	ContentHash     string          `json:"content_hash" gorm:"size:64;not null;uniqueIndex"`
	OwnerID         uuid.UUID       `json:"owner_id" gorm:"type:uuid;not null;index"`
	FileURLs        pq.StringArray  `json:"file_urls" gorm:"type:text[]"`
	ValidationState ValidationState `json:"validation_state" gorm:"type:varchar(20);default:'pending';index"`
	ValidatedAt     *time.Time      `json:"validated_at,omitempty"`
	ValidatedBy     *uuid.UUID      `json:"validated_by,omitempty" gorm:"type:uuid"`
	RejectionReason string          `json:"rejection_reason,omitempty" gorm:"type:text"`

	// Relationships
	Owner    User      `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Listings []Listing `json:"listings,omitempty" gorm:"foreignKey:DesignID"`
}

// Resolved reports whether a moderation decision has been recorded.
func (d *Design) Resolved() bool {
	return d.ValidationState != ValidationStatePending
}
