package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"dental-booking-server/internal/booking"
	"dental-booking-server/internal/config"
	"dental-booking-server/internal/handlers"
	"dental-booking-server/internal/middleware"
	"dental-booking-server/internal/models"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, engine *booking.Engine) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db, engine)
	treatmentPlanHandler := handlers.NewTreatmentPlanHandler(db, engine)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg)) // Apply JWT authentication middleware
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Catalog routes feeding the booking wizard's selection steps
		private.GET("/clinics", catalogHandler.GetClinics)
		private.GET("/clinics/:id/doctors", catalogHandler.GetClinicDoctors)
		private.GET("/services", catalogHandler.GetServices)

		// Availability is a pure read over the doctor's schedule
		private.GET("/availability", appointmentHandler.GetAvailability)

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			// Advisory checks while the patient composes a booking
			appointmentRoutes.GET("/precheck", appointmentHandler.PrecheckBooking)

			// The commit runs every check again atomically
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)

			appointmentRoutes.GET("", appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID) // Authorization inside handler

			// Staff-side lifecycle transitions (confirm/complete/no-show)
			appointmentRoutes.PATCH("/:id/status",
				middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin),
				appointmentHandler.UpdateAppointmentStatus)

			// Policy gate: evaluation, move and cancel
			appointmentRoutes.GET("/:id/reschedule", appointmentHandler.EvaluateReschedule)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.POST("/:id/cancel", appointmentHandler.CancelAppointment)
		}

		// Treatment plan routes
		planRoutes := private.Group("/treatment-plans")
		{
			planRoutes.POST("",
				middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin),
				treatmentPlanHandler.CreateTreatmentPlan)
			planRoutes.GET("", treatmentPlanHandler.GetTreatmentPlansForUser)
			planRoutes.PATCH("/:id/status",
				middleware.RoleAuthMiddleware(models.RoleStaff, models.RoleAdmin),
				treatmentPlanHandler.UpdateTreatmentPlanStatus)
			planRoutes.GET("/:id/follow-up", treatmentPlanHandler.GetFollowUpTemplate)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
