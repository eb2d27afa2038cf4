// internal/handlers/listing.go
package handlers

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/printlane/printlane-backend/internal/models"
	"github.com/printlane/printlane-backend/internal/services"
	"github.com/printlane/printlane-backend/internal/utils"
)

type ListingHandler struct {
	intakeService       *services.IntakeService
	listingService      *services.ListingService
	storageService      *services.StorageService
	notificationService *services.NotificationService
}

func NewListingHandler(intakeService *services.IntakeService, listingService *services.ListingService, storageService *services.StorageService, notificationService *services.NotificationService) *ListingHandler {
	return &ListingHandler{
		intakeService:       intakeService,
		listingService:      listingService,
		storageService:      storageService,
		notificationService: notificationService,
	}
}

// POST /listings
// Multipart form: "artwork" file plus base_product_id and
// post_decision_policy fields. The uploaded bytes are stored first and then
// fingerprinted, so the hash always covers exactly what was persisted.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}

	baseProductID, err := uuid.Parse(c.PostForm("base_product_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid base product ID", nil)
		return
	}

	policy := models.PostDecisionPolicy(c.PostForm("post_decision_policy"))
	if !models.ValidPolicy(policy) {
		utils.BadRequestResponse(c, "post_decision_policy must be auto_publish or to_draft", nil)
		return
	}

	fileHeader, err := c.FormFile("artwork")
	if err != nil {
		utils.BadRequestResponse(c, "Artwork file is required", err.Error())
		return
	}

	if err := h.storageService.ValidateArtwork(fileHeader.Filename, fileHeader.Size); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read artwork file", err.Error())
		return
	}
	defer file.Close()

	artworkBytes, err := io.ReadAll(file)
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read artwork file", err.Error())
		return
	}

	upload, err := h.storageService.UploadArtwork(artworkBytes, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result, err := h.intakeService.SubmitListing(vendorID, &services.SubmitListingRequest{
		BaseProductID:      baseProductID,
		PostDecisionPolicy: policy,
		ArtworkURL:         upload.URL,
		Artwork:            artworkBytes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// GET /listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	listing, err := h.listingService.GetListing(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"listing": listing})
}

// GET /vendors/me/listings
func (h *ListingHandler) GetMyListings(c *gin.Context) {
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	filter := services.ListingFilter{PaginationParams: params}

	if status := c.Query("status"); status != "" {
		s := models.ListingStatus(status)
		filter.Status = &s
	}

	listings, total, err := h.listingService.GetVendorListings(vendorID, filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(listings, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /listings/:id/publish
func (h *ListingHandler) PublishListing(c *gin.Context) {
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	listing, err := h.listingService.PublishDraft(id, vendorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if h.notificationService != nil {
		go func() {
			if err := h.notificationService.SendListingPublishedNotification(listing); err != nil {
				logrus.WithError(err).WithField("listing_id", listing.ID).
					Warn("Failed to send listing published notification")
			}
		}()
	}

	utils.SuccessResponse(c, gin.H{"listing": listing})
}

// DELETE /listings/:id
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	if err := h.listingService.DeleteListing(id, vendorID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, false
	}

	return userID, true
}
