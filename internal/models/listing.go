// internal/models/listing.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing is one vendor's product+design combination. DesignID is null only
// for rows that predate content-hash deduplication; once set it never changes.
type Listing struct {
	BaseModel
	VendorID           uuid.UUID          `json:"vendor_id" gorm:"type:uuid;not null;index"`
	BaseProductID      uuid.UUID          `json:"base_product_id" gorm:"type:uuid;not null;index"`
	DesignID           *uuid.UUID         `json:"design_id" gorm:"type:uuid;index"`
	ArtworkURL         string             `json:"artwork_url" gorm:"size:512"`
	Status             ListingStatus      `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	IsValidated        bool               `json:"is_validated" gorm:"default:false"`
	PostDecisionPolicy PostDecisionPolicy `json:"post_decision_policy" gorm:"type:varchar(20);not null"`
	RejectionReason    string             `json:"rejection_reason,omitempty" gorm:"type:text"`
	ValidatedAt        *time.Time         `json:"validated_at,omitempty"`
	ValidatedBy        *uuid.UUID         `json:"validated_by,omitempty" gorm:"type:uuid"`

	// Relationships
	Vendor User    `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Design *Design `json:"design,omitempty" gorm:"foreignKey:DesignID"`
}

// DesignProductLink associates a design with a listing that uses it. The
// composite primary key keeps the pair unique; rows are created once and
// removed only when the listing itself is deleted.
type DesignProductLink struct {
	DesignID  uuid.UUID `json:"design_id" gorm:"type:uuid;primaryKey"`
	ListingID uuid.UUID `json:"listing_id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}
