// internal/handlers/design_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/printlane/printlane-backend/internal/models"
	"github.com/printlane/printlane-backend/internal/services"
)

type DesignHandlerTestSuite struct {
	suite.Suite
	db        *gorm.DB
	router    *gin.Engine
	moderator *models.User
	vendor    *models.User
}

func (suite *DesignHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(suite.T().TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(
		&models.User{},
		&models.Design{},
		&models.Listing{},
		&models.DesignProductLink{},
	))
	suite.db = db

	suite.moderator = suite.createUser(models.UserTypeModerator)
	suite.vendor = suite.createUser(models.UserTypeVendor)

	designService := services.NewDesignService(db)
	linkService := services.NewLinkService(db)
	listingService := services.NewListingService(db, linkService, nil)
	cascadeService := services.NewCascadeService(db, designService, linkService, listingService, nil)
	handler := NewDesignHandler(designService, cascadeService)

	suite.router = gin.New()

	// Stands in for the JWT middleware: every request acts as the moderator.
	suite.router.Use(func(c *gin.Context) {
		c.Set("user_id", suite.moderator.ID.String())
		c.Set("user_type", string(models.UserTypeModerator))
		c.Next()
	})

	designs := suite.router.Group("/v1/designs")
	{
		designs.GET("", handler.GetDesigns)
		designs.GET("/:id", handler.GetDesign)
		designs.POST("/:id/decision", handler.DecideDesign)
		designs.POST("/:id/cascade/retry", handler.RetryCascade)
	}
}

func (suite *DesignHandlerTestSuite) createUser(userType models.UserType) *models.User {
	user := &models.User{
		Username: "u" + uuid.New().String()[:8],
		Email:    uuid.New().String()[:8] + "@test.local",
		UserType: userType,
		Status:   models.UserStatusActive,
	}
	suite.Require().NoError(user.SetPassword("TestPass123!"))
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *DesignHandlerTestSuite) createDesignWithListing(policy models.PostDecisionPolicy) (*models.Design, *models.Listing) {
	hash := strings.ReplaceAll(uuid.New().String(), "-", "")
	design := &models.Design{
		ContentHash:     hash + hash,
		OwnerID:         suite.vendor.ID,
		FileURLs:        []string{"https://cdn.test.local/a.png"},
		ValidationState: models.ValidationStatePending,
	}
	suite.Require().NoError(suite.db.Create(design).Error)

	listing := &models.Listing{
		VendorID:           suite.vendor.ID,
		BaseProductID:      uuid.New(),
		DesignID:           &design.ID,
		ArtworkURL:         "https://cdn.test.local/a.png",
		Status:             models.ListingStatusPending,
		PostDecisionPolicy: policy,
	}
	suite.Require().NoError(suite.db.Create(listing).Error)
	suite.Require().NoError(suite.db.Create(&models.DesignProductLink{
		DesignID:  design.ID,
		ListingID: listing.ID,
	}).Error)

	return design, listing
}

func (suite *DesignHandlerTestSuite) postJSON(path string, body map[string]interface{}) *httptest.ResponseRecorder {
	jsonData, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *DesignHandlerTestSuite) TestDecideDesignValidate() {
	design, listing := suite.createDesignWithListing(models.PolicyAutoPublish)

	w := suite.postJSON("/v1/designs/"+design.ID.String()+"/decision", map[string]interface{}{
		"decision": "validate",
	})
	suite.Equal(http.StatusOK, w.Code)

	var response map[string]interface{}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.True(response["success"].(bool))

	report := response["data"].(map[string]interface{})["report"].(map[string]interface{})
	suite.Equal(float64(1), report["published_count"])

	var reloaded models.Listing
	suite.NoError(suite.db.First(&reloaded, "id = ?", listing.ID).Error)
	suite.Equal(models.ListingStatusPublished, reloaded.Status)
}

func (suite *DesignHandlerTestSuite) TestDecideDesignRejectRequiresReason() {
	design, _ := suite.createDesignWithListing(models.PolicyAutoPublish)

	w := suite.postJSON("/v1/designs/"+design.ID.String()+"/decision", map[string]interface{}{
		"decision": "reject",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *DesignHandlerTestSuite) TestDecideDesignTwiceConflicts() {
	design, _ := suite.createDesignWithListing(models.PolicyToDraft)
	path := "/v1/designs/" + design.ID.String() + "/decision"

	w := suite.postJSON(path, map[string]interface{}{"decision": "validate"})
	suite.Equal(http.StatusOK, w.Code)

	w = suite.postJSON(path, map[string]interface{}{"decision": "reject", "reason": "late"})
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *DesignHandlerTestSuite) TestDecideDesignUnknownDecision() {
	design, _ := suite.createDesignWithListing(models.PolicyToDraft)

	w := suite.postJSON("/v1/designs/"+design.ID.String()+"/decision", map[string]interface{}{
		"decision": "approve",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *DesignHandlerTestSuite) TestDecideDesignNotFound() {
	w := suite.postJSON("/v1/designs/"+uuid.New().String()+"/decision", map[string]interface{}{
		"decision": "validate",
	})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *DesignHandlerTestSuite) TestRetryCascadeOnPendingDesignConflicts() {
	design, _ := suite.createDesignWithListing(models.PolicyToDraft)

	w := suite.postJSON("/v1/designs/"+design.ID.String()+"/cascade/retry", nil)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *DesignHandlerTestSuite) TestRetryCascadeAfterDecision() {
	design, _ := suite.createDesignWithListing(models.PolicyToDraft)
	path := "/v1/designs/" + design.ID.String()

	w := suite.postJSON(path+"/decision", map[string]interface{}{"decision": "validate"})
	suite.Equal(http.StatusOK, w.Code)

	w = suite.postJSON(path+"/cascade/retry", nil)
	suite.Equal(http.StatusOK, w.Code)

	var response map[string]interface{}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	report := response["data"].(map[string]interface{})["report"].(map[string]interface{})
	suite.Equal(float64(1), report["skipped_count"])
}

func (suite *DesignHandlerTestSuite) TestGetDesignsQueue() {
	suite.createDesignWithListing(models.PolicyToDraft)

	req, _ := http.NewRequest("GET", "/v1/designs?validation_state=pending", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("1", w.Header().Get("X-Total-Count"))
}

func TestDesignHandlerSuite(t *testing.T) {
	suite.Run(t, new(DesignHandlerTestSuite))
}
