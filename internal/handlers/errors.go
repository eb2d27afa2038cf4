// internal/handlers/errors.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/printlane/printlane-backend/internal/services"
	"github.com/printlane/printlane-backend/internal/utils"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDesignNotFound):
		utils.NotFoundResponse(c, "Design")
	case errors.Is(err, services.ErrListingNotFound):
		utils.NotFoundResponse(c, "Listing")
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "User")
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrNotEligible):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidPolicy),
		errors.Is(err, services.ErrInvalidDecision),
		errors.Is(err, services.ErrReasonRequired),
		errors.Is(err, services.ErrArtworkUnreadable):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrNotAuthorized):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, err.Error())
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
