// internal/services/link_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printlane/printlane-backend/internal/models"
)

// LinkService maintains the design↔listing association table.
type LinkService struct {
	db *gorm.DB
}

func NewLinkService(db *gorm.DB) *LinkService {
	return &LinkService{db: db}
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *LinkService) WithTx(tx *gorm.DB) *LinkService {
	return &LinkService{db: tx}
}

// EnsureLink inserts the (design, listing) pair. A pre-existing identical
// pair is a no-op success; the composite primary key keeps the operation
// idempotent under retries.
func (s *LinkService) EnsureLink(designID, listingID uuid.UUID) error {
	link := &models.DesignProductLink{
		DesignID:  designID,
		ListingID: listingID,
	}

	if err := s.db.Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to create design link: %w", err)
	}

	return nil
}

// ListingIDsForDesign returns the ids of every listing currently linked to
// the design. Used by the cascade to find propagation targets.
func (s *LinkService) ListingIDsForDesign(designID uuid.UUID) ([]uuid.UUID, error) {
	var listingIDs []uuid.UUID
	if err := s.db.Model(&models.DesignProductLink{}).
		Where("design_id = ?", designID).
		Order("created_at").
		Pluck("listing_id", &listingIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to list links for design: %w", err)
	}

	return listingIDs, nil
}

// RemoveLinksForListing deletes the association rows of a deleted listing.
func (s *LinkService) RemoveLinksForListing(listingID uuid.UUID) error {
	if err := s.db.Where("listing_id = ?", listingID).
		Delete(&models.DesignProductLink{}).Error; err != nil {
		return fmt.Errorf("failed to remove links for listing: %w", err)
	}
	return nil
}
