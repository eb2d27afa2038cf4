// internal/handlers/design.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/printlane/printlane-backend/internal/models"
	"github.com/printlane/printlane-backend/internal/services"
	"github.com/printlane/printlane-backend/internal/utils"
)

type DesignHandler struct {
	designService  *services.DesignService
	cascadeService *services.CascadeService
}

type DecideDesignRequest struct {
	Decision models.DesignDecision `json:"decision" validate:"required,oneof=validate reject"`
	Reason   string                `json:"reason,omitempty" validate:"required_if=Decision reject"`
}

func NewDesignHandler(designService *services.DesignService, cascadeService *services.CascadeService) *DesignHandler {
	return &DesignHandler{
		designService:  designService,
		cascadeService: cascadeService,
	}
}

// GET /designs — the moderation queue, pending first by default.
func (h *DesignHandler) GetDesigns(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := services.DesignFilter{PaginationParams: params}

	if state := c.Query("validation_state"); state != "" {
		s := models.ValidationState(state)
		filter.ValidationState = &s
	}

	if ownerIDStr := c.Query("owner_id"); ownerIDStr != "" {
		if ownerID, err := uuid.Parse(ownerIDStr); err == nil {
			filter.OwnerID = &ownerID
		}
	}

	designs, total, err := h.designService.GetDesigns(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(designs, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /designs/:id
func (h *DesignHandler) GetDesign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid design ID", nil)
		return
	}

	design, err := h.designService.GetDesign(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"design": design})
}

// POST /designs/:id/decision
func (h *DesignHandler) DecideDesign(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid design ID", nil)
		return
	}

	var req DecideDesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	report, err := h.cascadeService.DecideDesign(id, req.Decision, actorID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"report": report})
}

// POST /designs/:id/cascade/retry
// Re-runs listing propagation for an already-decided design, picking up
// listings a crashed or partially failed cascade left pending.
func (h *DesignHandler) RetryCascade(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid design ID", nil)
		return
	}

	report, err := h.cascadeService.PropagateDecision(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"report": report})
}
