package routes

import (
	adminapi "temple-services/internal/api/admin"
	"temple-services/internal/api/billing"
	bookingsapi "temple-services/internal/api/bookings"
	paymentsapi "temple-services/internal/api/payments"
	subscriptionsapi "temple-services/internal/api/subscriptions"
	"temple-services/internal/app/http/middleware"
	"temple-services/internal/payments"
	"temple-services/internal/repository"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type Deps struct {
	Store    *repository.Store
	Payments *payments.Service
	Log      *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(
		otelgin.Middleware("temple-services"),
		middleware.RequestLogger(d.Log),
		middleware.MetricsMiddleware(),
		middleware.ErrorHandler(d.Log),
	)

	paymentsH := paymentsapi.NewHandler(d.Payments)
	bookingsH := bookingsapi.NewHandler(d.Store)
	subscriptionsH := subscriptionsapi.NewHandler(d.Store)
	adminH := adminapi.NewHandler(d.Store)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.PrometheusHandler())

	// PhonePe checksums the raw body, so the callback skips sanitization.
	r.POST("/payments/phonepe/callback", paymentsH.PhonePeCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(), middleware.SanitizeAndCleanInputMiddleware())

	auth.POST("/payments/create-order", paymentsH.CreateOrder)
	auth.POST("/payments/verify-payment", paymentsH.VerifyPayment)
	auth.POST("/payments/phonepe/create-order", paymentsH.PhonePeCreateOrder)
	auth.POST("/payments/phonepe/verify-payment", paymentsH.PhonePeVerifyPayment)
	auth.GET("/payments", billing.GetPaymentHistory(d.Store))

	auth.POST("/bookings", bookingsH.Create)
	auth.GET("/bookings", bookingsH.List)
	auth.GET("/bookings/:id", bookingsH.Get)

	auth.POST("/subscriptions", subscriptionsH.Create)
	auth.GET("/subscriptions", subscriptionsH.List)
	auth.POST("/subscriptions/:id/cancel", subscriptionsH.Cancel)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"), middleware.SanitizeAndCleanInputMiddleware())
	admin.GET("/dashboard", adminH.Dashboard)
	admin.GET("/bookings", adminH.ListBookings)
	admin.PATCH("/bookings/:id/status", adminH.UpdateBookingStatus)
	admin.GET("/subscriptions", adminH.ListSubscriptions)
	admin.GET("/payments", adminH.ListPayments)
}
