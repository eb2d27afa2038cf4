// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/printlane/printlane-backend/internal/config"
	"github.com/printlane/printlane-backend/internal/handlers"
	"github.com/printlane/printlane-backend/internal/middleware"
	"github.com/printlane/printlane-backend/internal/services"
	"github.com/printlane/printlane-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	notificationService := services.NewNotificationService(db, cfg)

	authService := services.NewAuthService(db, cfg)
	designService := services.NewDesignService(db)
	linkService := services.NewLinkService(db)
	listingService := services.NewListingService(db, linkService, storageService)
	intakeService := services.NewIntakeService(db, designService, linkService, listingService)
	cascadeService := services.NewCascadeService(db, designService, linkService, listingService, notificationService)
	reconcileService := services.NewReconcileService(db, designService, linkService, storageService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	listingHandler := handlers.NewListingHandler(intakeService, listingService, storageService, notificationService)
	designHandler := handlers.NewDesignHandler(designService, cascadeService)
	adminHandler := handlers.NewAdminHandler(reconcileService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Locally stored artwork (development fallback for S3)
	r.Static("/uploads", cfg.Upload.LocalDir)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Listing routes (vendor-facing)
		listings := v1.Group("/listings")
		{
			listings.GET("/:id", middleware.OptionalAuth(), listingHandler.GetListing)

			protected := listings.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", middleware.UploadRateLimit(cfg.Upload), listingHandler.CreateListing)
				protected.POST("/:id/publish", listingHandler.PublishListing)
				protected.DELETE("/:id", listingHandler.DeleteListing)
			}
		}

		vendors := v1.Group("/vendors")
		vendors.Use(middleware.AuthRequired())
		{
			vendors.GET("/me/listings", listingHandler.GetMyListings)
		}

		// Design moderation routes
		designs := v1.Group("/designs")
		designs.Use(middleware.AuthRequired(), middleware.ModeratorRequired())
		{
			designs.GET("", designHandler.GetDesigns)
			designs.GET("/:id", designHandler.GetDesign)
			designs.POST("/:id/decision", designHandler.DecideDesign)
			designs.POST("/:id/cascade/retry", designHandler.RetryCascade)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.POST("/reconcile", adminHandler.Reconcile)
			admin.POST("/verify-artwork", adminHandler.VerifyArtwork)
		}
	}

	return r, nil
}
