// internal/services/link_service_test.go
package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/printlane/printlane-backend/internal/models"
)

type LinkServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *LinkService
	vendor  *models.User
	design  *models.Design
}

func (suite *LinkServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.service = NewLinkService(suite.db)
	suite.vendor = createTestUser(suite.T(), suite.db, models.UserTypeVendor)
	suite.design = createTestDesign(suite.T(), suite.db, suite.vendor.ID, strings.Repeat("a", 64))
}

func (suite *LinkServiceTestSuite) TestEnsureLinkIsIdempotent() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)

	suite.NoError(suite.service.EnsureLink(suite.design.ID, listing.ID))
	suite.NoError(suite.service.EnsureLink(suite.design.ID, listing.ID))

	var count int64
	suite.NoError(suite.db.Model(&models.DesignProductLink{}).
		Where("design_id = ? AND listing_id = ?", suite.design.ID, listing.ID).
		Count(&count).Error)
	suite.Equal(int64(1), count)
}

func (suite *LinkServiceTestSuite) TestListingIDsForDesign() {
	first := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)
	second := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyAutoPublish)

	suite.NoError(suite.service.EnsureLink(suite.design.ID, first.ID))
	suite.NoError(suite.service.EnsureLink(suite.design.ID, second.ID))

	ids, err := suite.service.ListingIDsForDesign(suite.design.ID)
	suite.NoError(err)
	suite.Len(ids, 2)
	suite.Contains(ids, first.ID)
	suite.Contains(ids, second.ID)
}

func (suite *LinkServiceTestSuite) TestListingIDsForUnknownDesignIsEmpty() {
	other := createTestDesign(suite.T(), suite.db, suite.vendor.ID, strings.Repeat("b", 64))

	ids, err := suite.service.ListingIDsForDesign(other.ID)
	suite.NoError(err)
	suite.Empty(ids)
}

func (suite *LinkServiceTestSuite) TestRemoveLinksForListing() {
	listing := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)
	keep := createTestListing(suite.T(), suite.db, suite.vendor.ID, suite.design.ID, models.PolicyToDraft)

	suite.NoError(suite.service.EnsureLink(suite.design.ID, listing.ID))
	suite.NoError(suite.service.EnsureLink(suite.design.ID, keep.ID))

	suite.NoError(suite.service.RemoveLinksForListing(listing.ID))

	ids, err := suite.service.ListingIDsForDesign(suite.design.ID)
	suite.NoError(err)
	suite.Require().Len(ids, 1)
	suite.Equal(keep.ID, ids[0])
}

func TestLinkServiceSuite(t *testing.T) {
	suite.Run(t, new(LinkServiceTestSuite))
}
