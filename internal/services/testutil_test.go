// internal/services/testutil_test.go
package services

import (
	"fmt"
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/printlane/printlane-backend/internal/models"
)

// setupTestDB opens a throwaway sqlite database and migrates the schema onto
// it. Each test gets its own file under t.TempDir, so tests never share state.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Design{},
		&models.Listing{},
		&models.DesignProductLink{},
	)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, userType models.UserType) *models.User {
	t.Helper()

	user := &models.User{
		Username: fmt.Sprintf("user-%s", uuid.New().String()[:8]),
		Email:    fmt.Sprintf("%s@test.local", uuid.New().String()[:8]),
		UserType: userType,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(user).Error)

	return user
}

func createTestDesign(t *testing.T, db *gorm.DB, ownerID uuid.UUID, hash string) *models.Design {
	t.Helper()

	design := &models.Design{
		ContentHash:     hash,
		OwnerID:         ownerID,
		FileURLs:        []string{"https://cdn.test.local/" + hash + ".png"},
		ValidationState: models.ValidationStatePending,
	}
	require.NoError(t, db.Create(design).Error)

	return design
}

func createTestListing(t *testing.T, db *gorm.DB, vendorID, designID uuid.UUID, policy models.PostDecisionPolicy) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		VendorID:           vendorID,
		BaseProductID:      uuid.New(),
		DesignID:           &designID,
		ArtworkURL:         "https://cdn.test.local/artwork.png",
		Status:             models.ListingStatusPending,
		IsValidated:        false,
		PostDecisionPolicy: policy,
	}
	require.NoError(t, db.Create(listing).Error)

	return listing
}

func linkDesignListing(t *testing.T, db *gorm.DB, designID, listingID uuid.UUID) {
	t.Helper()

	require.NoError(t, db.Create(&models.DesignProductLink{
		DesignID:  designID,
		ListingID: listingID,
	}).Error)
}
