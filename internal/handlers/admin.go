// internal/handlers/admin.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/printlane/printlane-backend/internal/services"
	"github.com/printlane/printlane-backend/internal/utils"
)

type AdminHandler struct {
	reconcileService *services.ReconcileService
}

func NewAdminHandler(reconcileService *services.ReconcileService) *AdminHandler {
	return &AdminHandler{
		reconcileService: reconcileService,
	}
}

// POST /admin/reconcile
// Backfills design records and links for listings created before
// content-hash deduplication. Safe to run repeatedly.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	batchSize, _ := strconv.Atoi(c.DefaultQuery("batch_size", "100"))

	report, err := h.reconcileService.BackfillDesignLinks(batchSize)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"report": report})
}

// POST /admin/verify-artwork
// Re-hashes stored artwork for linked listings and reports any that no
// longer match their design's content hash.
func (h *AdminHandler) VerifyArtwork(c *gin.Context) {
	batchSize, _ := strconv.Atoi(c.DefaultQuery("batch_size", "100"))

	report, err := h.reconcileService.VerifyLinkedArtwork(batchSize)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"report": report})
}
