// internal/services/design_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printlane/printlane-backend/internal/models"
	"github.com/printlane/printlane-backend/internal/utils"
)

// DesignService is the store for content-addressed Design records. The
// designs.content_hash unique index is the source of truth for deduplication;
// CreateIfAbsent leans on it instead of a check-then-act read.
type DesignService struct {
	db *gorm.DB
}

type DesignFilter struct {
	utils.PaginationParams
	OwnerID         *uuid.UUID              `json:"owner_id,omitempty"`
	ValidationState *models.ValidationState `json:"validation_state,omitempty"`
	CreatedAfter    *time.Time              `json:"created_after,omitempty"`
	CreatedBefore   *time.Time              `json:"created_before,omitempty"`
}

func NewDesignService(db *gorm.DB) *DesignService {
	return &DesignService{db: db}
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *DesignService) WithTx(tx *gorm.DB) *DesignService {
	return &DesignService{db: tx}
}

func (s *DesignService) FindByHash(hash string) (*models.Design, error) {
	var design models.Design
	if err := s.db.Where("content_hash = ?", hash).First(&design).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &design, nil
}

func (s *DesignService) GetDesign(id uuid.UUID) (*models.Design, error) {
	var design models.Design
	if err := s.db.First(&design, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &design, nil
}

// CreateIfAbsent inserts a pending Design for the given content hash, or
// returns the existing one when another submission already owns the hash.
// A concurrent insert losing the unique-index race is re-fetched and treated
// as a reuse rather than an error, so two vendors uploading identical bytes
// in the same instant both end up on the one canonical row.
func (s *DesignService) CreateIfAbsent(hash string, ownerID uuid.UUID, fileURLs []string) (*models.Design, bool, error) {
	if existing, err := s.FindByHash(hash); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrDesignNotFound) {
		return nil, false, err
	}

	design := &models.Design{
		ContentHash:     hash,
		OwnerID:         ownerID,
		FileURLs:        fileURLs,
		ValidationState: models.ValidationStatePending,
	}

	if err := s.db.Create(design).Error; err != nil {
		if isUniqueViolation(err) {
			existing, fetchErr := s.FindByHash(hash)
			if fetchErr != nil {
				return nil, false, fmt.Errorf("failed to fetch design after duplicate insert: %w", fetchErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create design: %w", err)
	}

	return design, true, nil
}

// SetValidationState records the one-way moderation decision. The update is
// conditional on the row still being pending; an already-decided design fails
// with ErrInvalidTransition instead of being silently re-decided.
func (s *DesignService) SetValidationState(id uuid.UUID, state models.ValidationState, actorID uuid.UUID, reason string) (*models.Design, error) {
	if state != models.ValidationStateValidated && state != models.ValidationStateRejected {
		return nil, ErrInvalidDecision
	}

	now := time.Now()
	updates := map[string]interface{}{
		"validation_state": state,
		"validated_at":     now,
		"validated_by":     actorID,
	}
	if state == models.ValidationStateRejected {
		updates["rejection_reason"] = reason
	} else {
		updates["rejection_reason"] = ""
	}

	result := s.db.Model(&models.Design{}).
		Where("id = ? AND validation_state = ?", id, models.ValidationStatePending).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update design state: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Either the design does not exist or it was already decided.
		if _, err := s.GetDesign(id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}

	return s.GetDesign(id)
}

// GetDesigns backs the moderation queue.
func (s *DesignService) GetDesigns(filter DesignFilter) ([]models.Design, int64, error) {
	query := s.db.Model(&models.Design{}).Preload("Owner")

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.ValidationState != nil {
		query = query.Where("validation_state = ?", *filter.ValidationState)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.Search != "" {
		query = query.Where("content_hash = ?", filter.Search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count designs: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "validation_state"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var designs []models.Design
	if err := query.Find(&designs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch designs: %w", err)
	}

	return designs, total, nil
}
