// internal/services/reconcile_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/printlane/printlane-backend/internal/artwork"
	"github.com/printlane/printlane-backend/internal/database"
	"github.com/printlane/printlane-backend/internal/models"
)

// ReconcileService backfills design links for listings created before
// content-hash deduplication existed. It reuses the same primitives as
// normal intake — CreateIfAbsent and EnsureLink — so no separate invariants
// are introduced; re-running it is harmless.
type ReconcileService struct {
	db             *gorm.DB
	designService  *DesignService
	linkService    *LinkService
	storageService *StorageService
}

type ReconcileReport struct {
	Processed      int                `json:"processed"`
	DesignsCreated int                `json:"designs_created"`
	DesignsReused  int                `json:"designs_reused"`
	Linked         int                `json:"linked"`
	Failures       []ReconcileFailure `json:"failures"`
}

type ReconcileFailure struct {
	ListingID uuid.UUID `json:"listing_id"`
	Error     string    `json:"error"`
}

func NewReconcileService(db *gorm.DB, designService *DesignService, linkService *LinkService, storageService *StorageService) *ReconcileService {
	return &ReconcileService{
		db:             db,
		designService:  designService,
		linkService:    linkService,
		storageService: storageService,
	}
}

// BackfillDesignLinks finds listings with no design, hashes their stored
// artwork, resolves each to the canonical design, and links them. Failures
// are collected per listing; the batch never aborts.
func (s *ReconcileService) BackfillDesignLinks(batchSize int) (*ReconcileReport, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	var listings []models.Listing
	if err := s.db.
		Where("design_id IS NULL AND artwork_url <> ''").
		Order("created_at").
		Limit(batchSize).
		Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch unlinked listings: %w", err)
	}

	report := &ReconcileReport{Failures: []ReconcileFailure{}}

	for i := range listings {
		listing := &listings[i]
		report.Processed++

		if err := s.reconcileListing(listing, report); err != nil {
			logrus.WithFields(logrus.Fields{
				"listing_id": listing.ID,
			}).WithError(err).Warn("Failed to reconcile listing")
			report.Failures = append(report.Failures, ReconcileFailure{
				ListingID: listing.ID,
				Error:     err.Error(),
			})
		}
	}

	return report, nil
}

func (s *ReconcileService) reconcileListing(listing *models.Listing, report *ReconcileReport) error {
	key := s.storageService.KeyFromURL(listing.ArtworkURL)
	data, err := s.storageService.DownloadArtwork(key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrArtworkUnreadable
	}

	hash := artwork.Fingerprint(data)

	design, created, err := s.designService.CreateIfAbsent(hash, listing.VendorID, []string{listing.ArtworkURL})
	if err != nil {
		return err
	}
	if created {
		report.DesignsCreated++
	} else {
		report.DesignsReused++
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		// design_id is write-once; the predicate keeps a concurrent
		// reconcile run from reassigning an already-linked listing.
		result := tx.Model(&models.Listing{}).
			Where("id = ? AND design_id IS NULL", listing.ID).
			Update("design_id", design.ID)
		if result.Error != nil {
			return fmt.Errorf("failed to set design on listing: %w", result.Error)
		}

		return s.linkService.WithTx(tx).EnsureLink(design.ID, listing.ID)
	})
	if err != nil {
		return err
	}

	report.Linked++
	return nil
}

type VerifyReport struct {
	Checked    int                `json:"checked"`
	Mismatched []VerifyMismatch   `json:"mismatched"`
	Failures   []ReconcileFailure `json:"failures"`
}

type VerifyMismatch struct {
	ListingID uuid.UUID `json:"listing_id"`
	DesignID  uuid.UUID `json:"design_id"`
}

// VerifyLinkedArtwork re-hashes the stored artwork of linked listings and
// compares it against the design's content hash. A mismatch means the stored
// file no longer matches what was moderated — corruption or an out-of-band
// overwrite — and needs manual attention.
func (s *ReconcileService) VerifyLinkedArtwork(batchSize int) (*VerifyReport, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	var listings []models.Listing
	if err := s.db.
		Preload("Design").
		Where("design_id IS NOT NULL AND artwork_url <> ''").
		Order("created_at").
		Limit(batchSize).
		Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch linked listings: %w", err)
	}

	report := &VerifyReport{Mismatched: []VerifyMismatch{}, Failures: []ReconcileFailure{}}

	for i := range listings {
		listing := &listings[i]
		if listing.Design == nil {
			continue
		}
		report.Checked++

		key := s.storageService.KeyFromURL(listing.ArtworkURL)
		data, err := s.storageService.DownloadArtwork(key)
		if err != nil {
			report.Failures = append(report.Failures, ReconcileFailure{
				ListingID: listing.ID,
				Error:     err.Error(),
			})
			continue
		}

		if !artwork.Matches(data, listing.Design.ContentHash) {
			logrus.WithFields(logrus.Fields{
				"listing_id": listing.ID,
				"design_id":  listing.Design.ID,
			}).Warn("Stored artwork no longer matches design content hash")
			report.Mismatched = append(report.Mismatched, VerifyMismatch{
				ListingID: listing.ID,
				DesignID:  listing.Design.ID,
			})
		}
	}

	return report, nil
}
