package routes

import (
	"trailbound/handlers"
	"trailbound/middleware"

	"github.com/gin-gonic/gin"
)

// RouteDeps bundles the handlers the router needs.
type RouteDeps struct {
	Booking    *handlers.BookingHandler
	PaymentOps *handlers.PaymentOpsHandler
	Webhook    *handlers.WebhookHandler
	Guide      *handlers.GuideHandler
	Admin      *handlers.AdminHandler
	Auth       *handlers.AuthHandler
}

// RegisterRoutes registers all endpoints.
func RegisterRoutes(r *gin.Engine, deps RouteDeps) {
	api := r.Group("/api")

	api.POST("/auth/signin", deps.Auth.SignIn)

	// Provider webhooks authenticate via signature, not bearer tokens.
	api.POST("/webhooks/stripe", deps.Webhook.Receive)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.POST("/bookings", middleware.RequireRole("hiker"), deps.Booking.CreateBooking)
		authed.GET("/bookings/:id", deps.Booking.GetBooking)

		authed.GET("/guides/:id/fees", deps.Guide.GetFeeConfig)
		authed.PUT("/guides/:id/fees", middleware.RequireRole("guide"), deps.Guide.UpdateFeeConfig)

		admin := authed.Group("", middleware.RequireRole("admin"))
		{
			admin.POST("/payments/settle/:bookingID", deps.PaymentOps.SettleBooking)
			admin.POST("/payments/final-sweep", deps.PaymentOps.RunFinalSweep)
			admin.POST("/webhooks/sweep", deps.PaymentOps.RunWebhookSweep)
			admin.GET("/admin/platform-settings", deps.Admin.GetPlatformSettings)
			admin.PUT("/admin/platform-settings", deps.Admin.UpdatePlatformSettings)
		}
	}
}
