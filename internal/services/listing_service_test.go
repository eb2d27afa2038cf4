// internal/services/listing_service_test.go
package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/printlane/printlane-backend/internal/config"
	"github.com/printlane/printlane-backend/internal/models"
)

type ListingServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	service   *ListingService
	uploads   string
	vendor    *models.User
	moderator *models.User
	design    *models.Design
}

func (suite *ListingServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.uploads = suite.T().TempDir()

	cfg := &config.Config{}
	cfg.Server.Port = "8080"
	cfg.Upload.LocalDir = suite.uploads

	storage, err := NewStorageService(cfg)
	suite.Require().NoError(err)

	suite.service = NewListingService(suite.db, NewLinkService(suite.db), storage)
	suite.vendor = createTestUser(suite.T(), suite.db, models.UserTypeVendor)
	suite.moderator = createTestUser(suite.T(), suite.db, models.UserTypeModerator)
	suite.design = createTestDesign(suite.T(), suite.db, suite.vendor.ID, strings.Repeat("a", 64))
}

// storedListing drops artwork bytes in local storage and creates a listing
// pointing at them, linked to the suite design.
func (suite *ListingServiceTestSuite) storedListing(key string, data []byte) *models.Listing {
	path := filepath.Join(suite.uploads, key)
	suite.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	suite.Require().NoError(os.WriteFile(path, data, 0o644))

	designID := suite.design.ID
	listing := &models.Listing{
		VendorID:           suite.vendor.ID,
		BaseProductID:      uuid.New(),
		DesignID:           &designID,
		ArtworkURL:         fmt.Sprintf("http://localhost:8080/uploads/%s", key),
		Status:             models.ListingStatusPending,
		PostDecisionPolicy: models.PolicyToDraft,
	}
	suite.Require().NoError(suite.db.Create(listing).Error)

	return listing
}

func (suite *ListingServiceTestSuite) TestCreateListingStartsPendingUnvalidated() {
	listing, err := suite.service.CreateListing(suite.vendor.ID, uuid.New(), suite.design.ID, "https://cdn.test.local/a.png", models.PolicyAutoPublish)
	suite.NoError(err)
	suite.Equal(models.ListingStatusPending, listing.Status)
	suite.False(listing.IsValidated)
	suite.Require().NotNil(listing.DesignID)
	suite.Equal(suite.design.ID, *listing.DesignID)
}

func (suite *ListingServiceTestSuite) TestApplyDecisionValidateAutoPublish() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyAutoPublish)

	outcome, err := suite.service.ApplyDecision(listing.ID, models.DecisionValidate, suite.moderator.ID, "", time.Now())
	suite.NoError(err)
	suite.Equal(OutcomePublished, outcome)

	reloaded, err := suite.service.GetListing(listing.ID)
	suite.NoError(err)
	suite.Equal(models.ListingStatusPublished, reloaded.Status)
	suite.True(reloaded.IsValidated)
	suite.NotNil(reloaded.ValidatedAt)
	suite.Require().NotNil(reloaded.ValidatedBy)
	suite.Equal(suite.moderator.ID, *reloaded.ValidatedBy)
}

func (suite *ListingServiceTestSuite) TestApplyDecisionValidateToDraft() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)

	outcome, err := suite.service.ApplyDecision(listing.ID, models.DecisionValidate, suite.moderator.ID, "", time.Now())
	suite.NoError(err)
	suite.Equal(OutcomeDrafted, outcome)

	reloaded, err := suite.service.GetListing(listing.ID)
	suite.NoError(err)
	suite.Equal(models.ListingStatusDraft, reloaded.Status)
	suite.True(reloaded.IsValidated)
}

func (suite *ListingServiceTestSuite) TestApplyDecisionReject() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyAutoPublish)

	outcome, err := suite.service.ApplyDecision(listing.ID, models.DecisionReject, suite.moderator.ID, "counterfeit artwork", time.Now())
	suite.NoError(err)
	suite.Equal(OutcomeRejected, outcome)

	reloaded, err := suite.service.GetListing(listing.ID)
	suite.NoError(err)
	suite.Equal(models.ListingStatusRejected, reloaded.Status)
	suite.False(reloaded.IsValidated)
	suite.Equal("counterfeit artwork", reloaded.RejectionReason)
}

func (suite *ListingServiceTestSuite) TestApplyDecisionSkipsAlreadyDecided() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)

	outcome, err := suite.service.ApplyDecision(listing.ID, models.DecisionValidate, suite.moderator.ID, "", time.Now())
	suite.NoError(err)
	suite.Equal(OutcomeDrafted, outcome)

	// Re-applying converges: the listing is no longer pending, so nothing changes.
	outcome, err = suite.service.ApplyDecision(listing.ID, models.DecisionReject, suite.moderator.ID, "late reversal", time.Now())
	suite.NoError(err)
	suite.Equal(OutcomeSkipped, outcome)

	reloaded, err := suite.service.GetListing(listing.ID)
	suite.NoError(err)
	suite.Equal(models.ListingStatusDraft, reloaded.Status)
	suite.Empty(reloaded.RejectionReason)
}

func (suite *ListingServiceTestSuite) TestApplyDecisionUnknownDecision() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)

	_, err := suite.service.ApplyDecision(listing.ID, models.DesignDecision("approve"), suite.moderator.ID, "", time.Now())
	suite.ErrorIs(err, ErrInvalidDecision)
}

func (suite *ListingServiceTestSuite) TestApplyDecisionMissingListing() {
	_, err := suite.service.ApplyDecision(uuid.New(), models.DecisionValidate, suite.moderator.ID, "", time.Now())
	suite.ErrorIs(err, ErrListingNotFound)
}

func (suite *ListingServiceTestSuite) TestPublishDraft() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)

	_, err := suite.service.ApplyDecision(listing.ID, models.DecisionValidate, suite.moderator.ID, "", time.Now())
	suite.NoError(err)

	published, err := suite.service.PublishDraft(listing.ID, suite.vendor.ID)
	suite.NoError(err)
	suite.Equal(models.ListingStatusPublished, published.Status)
}

func (suite *ListingServiceTestSuite) TestPublishDraftRequiresValidatedDraft() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)

	// Still pending moderation: not eligible.
	_, err := suite.service.PublishDraft(listing.ID, suite.vendor.ID)
	suite.ErrorIs(err, ErrNotEligible)
}

func (suite *ListingServiceTestSuite) TestPublishDraftWrongVendor() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)
	other := createTestUser(suite.T(), suite.db, models.UserTypeVendor)

	_, err := suite.service.PublishDraft(listing.ID, other.ID)
	suite.ErrorIs(err, ErrNotAuthorized)
}

func (suite *ListingServiceTestSuite) TestPublishDraftMissingListing() {
	_, err := suite.service.PublishDraft(uuid.New(), suite.vendor.ID)
	suite.ErrorIs(err, ErrListingNotFound)
}

func (suite *ListingServiceTestSuite) TestGetVendorListingsFilters() {
	createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)
	published := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyAutoPublish)

	_, err := suite.service.ApplyDecision(published.ID, models.DecisionValidate, suite.moderator.ID, "", time.Now())
	suite.NoError(err)

	status := models.ListingStatusPublished
	listings, total, err := suite.service.GetVendorListings(suite.vendor.ID, ListingFilter{Status: &status})
	suite.NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(listings, 1)
	suite.Equal(published.ID, listings[0].ID)
}

func (suite *ListingServiceTestSuite) TestDeleteListingRemovesLinks() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)
	linkDesignListing(suite.T(), suite.db, suite.design.ID, listing.ID)

	suite.NoError(suite.service.DeleteListing(listing.ID, suite.vendor.ID))

	_, err := suite.service.GetListing(listing.ID)
	suite.ErrorIs(err, ErrListingNotFound)

	var count int64
	suite.NoError(suite.db.Model(&models.DesignProductLink{}).
		Where("listing_id = ?", listing.ID).Count(&count).Error)
	suite.Equal(int64(0), count)
}

func (suite *ListingServiceTestSuite) TestDeleteListingRemovesOrphanedArtwork() {
	listing := suite.storedListing("artwork/orphan.png", []byte("artwork bytes"))

	suite.NoError(suite.service.DeleteListing(listing.ID, suite.vendor.ID))

	_, err := os.Stat(filepath.Join(suite.uploads, "artwork/orphan.png"))
	suite.True(os.IsNotExist(err))
}

func (suite *ListingServiceTestSuite) TestDeleteListingKeepsSharedArtwork() {
	listing := suite.storedListing("artwork/shared.png", []byte("artwork bytes"))
	survivor := suite.storedListing("artwork/shared.png", []byte("artwork bytes"))

	suite.NoError(suite.service.DeleteListing(listing.ID, suite.vendor.ID))

	_, err := os.Stat(filepath.Join(suite.uploads, "artwork/shared.png"))
	suite.NoError(err)

	_, err = suite.service.GetListing(survivor.ID)
	suite.NoError(err)
}

func (suite *ListingServiceTestSuite) TestDeleteListingKeepsDesignCanonicalArtwork() {
	listing := suite.storedListing("artwork/canonical.png", []byte("artwork bytes"))

	suite.design.FileURLs = append(suite.design.FileURLs, listing.ArtworkURL)
	suite.Require().NoError(suite.db.Save(suite.design).Error)

	suite.NoError(suite.service.DeleteListing(listing.ID, suite.vendor.ID))

	_, err := os.Stat(filepath.Join(suite.uploads, "artwork/canonical.png"))
	suite.NoError(err)
}

func (suite *ListingServiceTestSuite) TestDeleteListingWrongVendor() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)
	other := createTestUser(suite.T(), suite.db, models.UserTypeVendor)

	suite.ErrorIs(suite.service.DeleteListing(listing.ID, other.ID), ErrNotAuthorized)
}

func TestListingServiceSuite(t *testing.T) {
	suite.Run(t, new(ListingServiceTestSuite))
}
