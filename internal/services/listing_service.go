// internal/services/listing_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/printlane/printlane-backend/internal/models"
	"github.com/printlane/printlane-backend/internal/utils"
)

// ListingService is the store for vendor listings and the owner of the
// listing state machine. All decision writes are conditional updates guarded
// by the (status, is_validated) predicate, which is what keeps concurrent
// cascade runs and manual publishes from stepping on each other.
type ListingService struct {
	db             *gorm.DB
	linkService    *LinkService
	storageService *StorageService
}

// DecisionOutcome reports what a decision application did to one listing.
type DecisionOutcome string

const (
	OutcomePublished DecisionOutcome = "published"
	OutcomeDrafted   DecisionOutcome = "drafted"
	OutcomeRejected  DecisionOutcome = "rejected"
	OutcomeSkipped   DecisionOutcome = "skipped"
)

type ListingFilter struct {
	utils.PaginationParams
	Status      *models.ListingStatus `json:"status,omitempty"`
	IsValidated *bool                 `json:"is_validated,omitempty"`
}

func NewListingService(db *gorm.DB, linkService *LinkService, storageService *StorageService) *ListingService {
	return &ListingService{db: db, linkService: linkService, storageService: storageService}
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *ListingService) WithTx(tx *gorm.DB) *ListingService {
	return &ListingService{db: tx, linkService: s.linkService, storageService: s.storageService}
}

// CreateListing inserts a new pending, unvalidated listing wired to its
// design. Policy validity is the caller's concern (checked at intake).
func (s *ListingService) CreateListing(vendorID, baseProductID, designID uuid.UUID, artworkURL string, policy models.PostDecisionPolicy) (*models.Listing, error) {
	listing := &models.Listing{
		VendorID:           vendorID,
		BaseProductID:      baseProductID,
		DesignID:           &designID,
		ArtworkURL:         artworkURL,
		Status:             models.ListingStatusPending,
		IsValidated:        false,
		PostDecisionPolicy: policy,
	}

	if err := s.db.Create(listing).Error; err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return listing, nil
}

func (s *ListingService) GetListing(id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.Preload("Design").First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &listing, nil
}

// ApplyDecision transitions one listing according to the design decision and
// the listing's own post-decision policy. Listings that are not pending and
// unvalidated are skipped, never touched; that predicate makes re-running a
// cascade safe. The returned outcome says which branch was taken.
func (s *ListingService) ApplyDecision(listingID uuid.UUID, decision models.DesignDecision, actorID uuid.UUID, reason string, decidedAt time.Time) (DecisionOutcome, error) {
	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrListingNotFound
		}
		return "", fmt.Errorf("database error: %w", err)
	}

	if listing.Status != models.ListingStatusPending || listing.IsValidated {
		return OutcomeSkipped, nil
	}

	var outcome DecisionOutcome
	var updates map[string]interface{}

	switch decision {
	case models.DecisionValidate:
		target := models.ListingStatusDraft
		outcome = OutcomeDrafted
		if listing.PostDecisionPolicy == models.PolicyAutoPublish {
			target = models.ListingStatusPublished
			outcome = OutcomePublished
		}
		updates = map[string]interface{}{
			"status":           target,
			"is_validated":     true,
			"validated_at":     decidedAt,
			"validated_by":     actorID,
			"rejection_reason": "",
		}
	case models.DecisionReject:
		outcome = OutcomeRejected
		updates = map[string]interface{}{
			"status":           models.ListingStatusRejected,
			"is_validated":     false,
			"rejection_reason": reason,
		}
	default:
		return "", ErrInvalidDecision
	}

	result := s.db.Model(&models.Listing{}).
		Where("id = ? AND status = ? AND is_validated = ?", listingID, models.ListingStatusPending, false).
		Updates(updates)
	if result.Error != nil {
		return "", fmt.Errorf("failed to apply decision to listing: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Lost the race to another writer between the read and the update.
		return OutcomeSkipped, nil
	}

	return outcome, nil
}

// PublishDraft is the vendor's manual publish: DRAFT and validated becomes
// PUBLISHED, anything else is not eligible. Single row, no cascade.
func (s *ListingService) PublishDraft(listingID, vendorID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if listing.VendorID != vendorID {
		return nil, ErrNotAuthorized
	}

	result := s.db.Model(&models.Listing{}).
		Where("id = ? AND status = ? AND is_validated = ?", listingID, models.ListingStatusDraft, true).
		Update("status", models.ListingStatusPublished)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to publish listing: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, ErrNotEligible
	}

	return s.GetListing(listingID)
}

// GetVendorListings returns one vendor's listings, filtered and paginated.
func (s *ListingService) GetVendorListings(vendorID uuid.UUID, filter ListingFilter) ([]models.Listing, int64, error) {
	query := s.db.Model(&models.Listing{}).Where("vendor_id = ?", vendorID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsValidated != nil {
		query = query.Where("is_validated = ?", *filter.IsValidated)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "status"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var listings []models.Listing
	if err := query.Preload("Design").Find(&listings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch listings: %w", err)
	}

	return listings, total, nil
}

// DeleteListing soft-deletes a vendor's listing and drops its link rows so
// the association table never points at a dead listing.
func (s *ListingService) DeleteListing(listingID, vendorID uuid.UUID) error {
	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if listing.VendorID != vendorID {
		return ErrNotAuthorized
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.linkService.WithTx(tx).RemoveLinksForListing(listingID); err != nil {
			return err
		}
		if err := tx.Delete(&listing).Error; err != nil {
			return fmt.Errorf("failed to delete listing: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cleanupArtwork(&listing)
	return nil
}

// cleanupArtwork removes the deleted listing's stored artwork file, unless
// another listing still serves the same URL or it is one of the design's
// canonical files. Best effort: the listing is already gone, so a storage
// failure is logged, not surfaced.
func (s *ListingService) cleanupArtwork(listing *models.Listing) {
	if s.storageService == nil || listing.ArtworkURL == "" {
		return
	}

	var shared int64
	if err := s.db.Model(&models.Listing{}).
		Where("artwork_url = ? AND id <> ?", listing.ArtworkURL, listing.ID).
		Count(&shared).Error; err != nil || shared > 0 {
		return
	}

	if listing.DesignID != nil {
		var design models.Design
		if err := s.db.First(&design, "id = ?", *listing.DesignID).Error; err == nil {
			for _, url := range design.FileURLs {
				if url == listing.ArtworkURL {
					return
				}
			}
		}
	}

	key := s.storageService.KeyFromURL(listing.ArtworkURL)
	if err := s.storageService.DeleteArtwork(key); err != nil {
		logrus.WithError(err).WithField("listing_id", listing.ID).
			Warn("Failed to delete stored artwork")
	}
}
