package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Djamauk/himalayanpinksalt.online/internal/service"
	"github.com/Djamauk/himalayanpinksalt.online/pkg/health"
	"github.com/Djamauk/himalayanpinksalt.online/pkg/middleware"
)

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	checkoutService *service.CheckoutService,
	accountService *service.AccountService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	checkoutHandler := NewCheckoutHandler(checkoutService, logger)
	accountHandler := NewAccountHandler(accountService, logger)

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(UserIDFromHeader)

		r.Post("/", checkoutHandler.StartCheckout)
		r.Get("/{id}", checkoutHandler.GetSession)
		r.Put("/{id}/draft", checkoutHandler.UpdateDraft)
		r.Post("/{id}/next", checkoutHandler.Next)
		r.Post("/{id}/prev", checkoutHandler.Prev)
		r.Put("/{id}/shipping", checkoutHandler.SelectShipping)
		r.Put("/{id}/payment", checkoutHandler.SelectPaymentKind)
		r.Put("/{id}/coupon", checkoutHandler.ApplyCoupon)
		r.Get("/{id}/quote", checkoutHandler.Quote)
		r.Post("/{id}/submit", checkoutHandler.Submit)
	})

	r.Route("/api/v1/account", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(UserIDFromHeader)

		r.Get("/profile", accountHandler.GetProfile)
		r.Put("/profile", accountHandler.SaveProfile)
		r.Get("/preferences", accountHandler.GetPreferences)
		r.Put("/preferences", accountHandler.SavePreferences)

		r.Get("/addresses", accountHandler.ListAddresses)
		r.Post("/addresses", accountHandler.CreateAddress)
		r.Put("/addresses/{id}", accountHandler.UpdateAddress)
		r.Delete("/addresses/{id}", accountHandler.DeleteAddress)
		r.Put("/addresses/{id}/default", accountHandler.MakeDefaultAddress)

		r.Get("/payment-methods", accountHandler.ListPaymentMethods)
		r.Post("/payment-methods", accountHandler.SaveCard)
		r.Delete("/payment-methods/{id}", accountHandler.DeletePaymentMethod)
	})

	return r
}
