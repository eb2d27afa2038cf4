// internal/services/intake_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printlane/printlane-backend/internal/artwork"
	"github.com/printlane/printlane-backend/internal/database"
	"github.com/printlane/printlane-backend/internal/models"
	"github.com/printlane/printlane-backend/internal/utils"
)

// IntakeService is the entry point for vendor submissions: fingerprint the
// artwork, reuse or create the canonical Design, create the listing, and
// link the two — as one retry-safe unit.
type IntakeService struct {
	db             *gorm.DB
	designService  *DesignService
	linkService    *LinkService
	listingService *ListingService
}

type SubmitListingRequest struct {
	BaseProductID      uuid.UUID                 `json:"base_product_id" validate:"required"`
	PostDecisionPolicy models.PostDecisionPolicy `json:"post_decision_policy" validate:"required"`
	ArtworkURL         string                    `json:"artwork_url" validate:"required,max=512"`
	Artwork            []byte                    `json:"-"`
}

// ListingResult is what a submission returns: the created listing, the
// design it resolved to, and whether that design already existed.
type ListingResult struct {
	Listing      *models.Listing `json:"listing"`
	Design       *models.Design  `json:"design"`
	Deduplicated bool            `json:"deduplicated"`
}

func NewIntakeService(db *gorm.DB, designService *DesignService, linkService *LinkService, listingService *ListingService) *IntakeService {
	return &IntakeService{
		db:             db,
		designService:  designService,
		linkService:    linkService,
		listingService: listingService,
	}
}

// SubmitListing runs the intake flow. The design resolution happens outside
// the transaction (it is idempotent on its own thanks to the hash index);
// listing creation, late decision application, and link creation commit or
// roll back together, so no listing is ever reachable without its link.
func (s *IntakeService) SubmitListing(vendorID uuid.UUID, req *SubmitListingRequest) (*ListingResult, error) {
	if len(req.Artwork) == 0 {
		return nil, ErrArtworkUnreadable
	}
	if !models.ValidPolicy(req.PostDecisionPolicy) {
		return nil, ErrInvalidPolicy
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	hash := artwork.Fingerprint(req.Artwork)

	design, created, err := s.designService.CreateIfAbsent(hash, vendorID, []string{req.ArtworkURL})
	if err != nil {
		return nil, err
	}

	var listing *models.Listing
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		l, txErr := s.listingService.WithTx(tx).CreateListing(vendorID, req.BaseProductID, design.ID, req.ArtworkURL, req.PostDecisionPolicy)
		if txErr != nil {
			return txErr
		}

		// A design decided before this listing existed must not strand the
		// listing in pending: apply the known decision through the same
		// branch logic the cascade uses. Re-read the design inside the
		// transaction — the pre-transaction snapshot could miss a decision
		// made after CreateIfAbsent returned.
		current, txErr := s.designService.WithTx(tx).GetDesign(design.ID)
		if txErr != nil {
			return txErr
		}
		design = current

		if design.Resolved() {
			if txErr := s.applyKnownDecision(tx, design, l.ID); txErr != nil {
				return txErr
			}
		}

		if txErr := s.linkService.WithTx(tx).EnsureLink(design.ID, l.ID); txErr != nil {
			return txErr
		}

		listing = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	listing, err = s.listingService.GetListing(listing.ID)
	if err != nil {
		return nil, err
	}

	return &ListingResult{
		Listing:      listing,
		Design:       design,
		Deduplicated: !created,
	}, nil
}

func (s *IntakeService) applyKnownDecision(tx *gorm.DB, design *models.Design, listingID uuid.UUID) error {
	decision := models.DecisionValidate
	if design.ValidationState == models.ValidationStateRejected {
		decision = models.DecisionReject
	}

	actorID := uuid.Nil
	if design.ValidatedBy != nil {
		actorID = *design.ValidatedBy
	}
	decidedAt := time.Now()
	if design.ValidatedAt != nil {
		decidedAt = *design.ValidatedAt
	}

	_, err := s.listingService.WithTx(tx).ApplyDecision(listingID, decision, actorID, design.RejectionReason, decidedAt)
	return err
}
