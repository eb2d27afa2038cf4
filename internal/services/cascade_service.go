// internal/services/cascade_service.go
package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/printlane/printlane-backend/internal/models"
)

// CascadeService applies one moderation decision to every listing waiting on
// a design. The design decision itself is the source of truth; listing
// propagation is collected per row and independently retryable, never rolled
// back into the design state.
type CascadeService struct {
	db                  *gorm.DB
	designService       *DesignService
	linkService         *LinkService
	listingService      *ListingService
	notificationService *NotificationService
}

type CascadeReport struct {
	Design         *models.Design   `json:"design"`
	PublishedCount int              `json:"published_count"`
	DraftCount     int              `json:"draft_count"`
	RejectedCount  int              `json:"rejected_count"`
	SkippedCount   int              `json:"skipped_count"`
	Failures       []CascadeFailure `json:"failures"`
}

type CascadeFailure struct {
	ListingID uuid.UUID `json:"listing_id"`
	Error     string    `json:"error"`
}

func NewCascadeService(db *gorm.DB, designService *DesignService, linkService *LinkService, listingService *ListingService, notificationService *NotificationService) *CascadeService {
	return &CascadeService{
		db:                  db,
		designService:       designService,
		linkService:         linkService,
		listingService:      listingService,
		notificationService: notificationService,
	}
}

// DecideDesign records the moderation decision and propagates it. An
// already-decided design aborts with ErrInvalidTransition before any listing
// is touched; once the decision commits, per-listing failures land in the
// report instead of failing the call.
func (s *CascadeService) DecideDesign(designID uuid.UUID, decision models.DesignDecision, actorID uuid.UUID, reason string) (*CascadeReport, error) {
	var state models.ValidationState
	switch decision {
	case models.DecisionValidate:
		state = models.ValidationStateValidated
	case models.DecisionReject:
		if reason == "" {
			return nil, ErrReasonRequired
		}
		state = models.ValidationStateRejected
	default:
		return nil, ErrInvalidDecision
	}

	design, err := s.designService.SetValidationState(designID, state, actorID, reason)
	if err != nil {
		return nil, err
	}

	report, err := s.propagate(design, decision, actorID, reason)
	if err != nil {
		// The decision is committed; surface the lookup failure so the
		// caller can re-run propagation for this design.
		return report, err
	}

	s.notifyDecision(design, report)

	return report, nil
}

// PropagateDecision re-runs the listing propagation for a design whose
// decision already committed, e.g. after a crash or a partial cascade. Only
// listings still pending and unvalidated are affected; everything else is
// skipped, so re-running converges on the same final state.
func (s *CascadeService) PropagateDecision(designID uuid.UUID) (*CascadeReport, error) {
	design, err := s.designService.GetDesign(designID)
	if err != nil {
		return nil, err
	}

	if !design.Resolved() {
		return nil, ErrInvalidTransition
	}

	decision := models.DecisionValidate
	if design.ValidationState == models.ValidationStateRejected {
		decision = models.DecisionReject
	}

	actorID := uuid.Nil
	if design.ValidatedBy != nil {
		actorID = *design.ValidatedBy
	}

	return s.propagate(design, decision, actorID, design.RejectionReason)
}

func (s *CascadeService) propagate(design *models.Design, decision models.DesignDecision, actorID uuid.UUID, reason string) (*CascadeReport, error) {
	report := &CascadeReport{
		Design:   design,
		Failures: []CascadeFailure{},
	}

	listingIDs, err := s.linkService.ListingIDsForDesign(design.ID)
	if err != nil {
		return report, err
	}

	decidedAt := time.Now()
	if design.ValidatedAt != nil {
		decidedAt = *design.ValidatedAt
	}

	for _, listingID := range listingIDs {
		outcome, err := s.listingService.ApplyDecision(listingID, decision, actorID, reason, decidedAt)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"design_id":  design.ID,
				"listing_id": listingID,
			}).WithError(err).Warn("Failed to apply design decision to listing")
			report.Failures = append(report.Failures, CascadeFailure{
				ListingID: listingID,
				Error:     err.Error(),
			})
			continue
		}

		switch outcome {
		case OutcomePublished:
			report.PublishedCount++
		case OutcomeDrafted:
			report.DraftCount++
		case OutcomeRejected:
			report.RejectedCount++
		case OutcomeSkipped:
			report.SkippedCount++
		}
	}

	return report, nil
}

func (s *CascadeService) notifyDecision(design *models.Design, report *CascadeReport) {
	if s.notificationService == nil {
		return
	}

	go func() {
		var err error
		if design.ValidationState == models.ValidationStateValidated {
			err = s.notificationService.SendDesignValidatedNotification(design, report.PublishedCount, report.DraftCount)
		} else {
			err = s.notificationService.SendDesignRejectedNotification(design, design.RejectionReason)
		}
		if err != nil {
			logrus.WithError(err).WithField("design_id", design.ID).
				Warn("Failed to send design decision notification")
		}
	}()
}
