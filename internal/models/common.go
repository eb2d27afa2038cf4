// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the UUID client-side so the models also work on
// databases without gen_random_uuid (the sqlite test databases).
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeVendor    UserType = "vendor"
	UserTypeModerator UserType = "moderator"
	UserTypeAdmin     UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type ValidationState string

const (
	ValidationStatePending   ValidationState = "pending"
	ValidationStateValidated ValidationState = "validated"
	ValidationStateRejected  ValidationState = "rejected"
)

type ListingStatus string

const (
	ListingStatusDraft     ListingStatus = "draft"
	ListingStatusPending   ListingStatus = "pending"
	ListingStatusPublished ListingStatus = "published"
	ListingStatusRejected  ListingStatus = "rejected"
)

type PostDecisionPolicy string

const (
	PolicyAutoPublish PostDecisionPolicy = "auto_publish"
	PolicyToDraft     PostDecisionPolicy = "to_draft"
)

// ValidPolicy reports whether p is one of the recognized post-decision policies.
func ValidPolicy(p PostDecisionPolicy) bool {
	return p == PolicyAutoPublish || p == PolicyToDraft
}

type DesignDecision string

const (
	DecisionValidate DesignDecision = "validate"
	DecisionReject   DesignDecision = "reject"
)
