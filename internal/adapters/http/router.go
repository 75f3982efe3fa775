package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/medifly/internal/pkg/metrics"
)

// storesSunset is when the /v1/stores alias stops being served.
var storesSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Server spans
	app.Use(TracingMiddleware())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			// Gateway callbacks arrive in bursts from a handful of IPs.
			return c.Path() == "/v1/payments/phonepe/webhook"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/v1/stores/nearby", SunsetDate: storesSunset, Alternative: "/v1/pharmacies/nearby"},
	}))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	d := deps.RequestTimeout
	if d <= 0 {
		d = 15 * time.Second
	}
	t := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, d)
	}
	auth := RequireUser()

	v1 := app.Group("/v1")

	// Catalogue
	v1.Get("/pharmacies/nearby", t(NearbyPharmaciesHandler(deps)))
	v1.Get("/stores/nearby", t(NearbyPharmaciesHandler(deps)))
	v1.Get("/pharmacies/:id", t(GetPharmacyHandler(deps)))
	v1.Get("/medicines", t(ListMedicinesHandler(deps)))
	v1.Get("/medicines/categories", t(MedicineCategoriesHandler(deps)))
	v1.Get("/medicines/:id", t(GetMedicineHandler(deps)))
	v1.Post("/medicines", auth, t(CreateMedicineHandler(deps)))

	// Cart
	v1.Get("/cart", auth, t(ListCartHandler(deps)))
	v1.Post("/cart", auth, t(AddToCartHandler(deps)))
	v1.Delete("/cart", auth, t(ClearCartHandler(deps)))
	v1.Patch("/cart/:id", auth, t(UpdateCartItemHandler(deps)))
	v1.Delete("/cart/:id", auth, t(RemoveCartItemHandler(deps)))

	// Orders and payments
	v1.Get("/orders", auth, t(ListOrdersHandler(deps)))
	v1.Post("/orders", auth, t(CheckoutHandler(deps)))
	v1.Get("/orders/:id", auth, t(GetOrderHandler(deps)))
	v1.Patch("/orders/:id/status", auth, t(UpdateOrderStatusHandler(deps)))
	v1.Post("/orders/:id/payment", auth, t(InitiatePaymentHandler(deps)))
	v1.Post("/orders/:id/payment/verify", auth, t(VerifyPaymentHandler(deps)))
	v1.Post("/payments/phonepe/webhook", t(PaymentWebhookHandler(deps)))

	// Location
	v1.Get("/location", auth, t(CurrentLocationHandler(deps)))
	v1.Get("/location/full", auth, t(RevealLocationHandler(deps)))
	v1.Post("/location/ip", auth, t(DetectIPLocationHandler(deps)))
	v1.Post("/location/gps", auth, t(DetectGPSLocationHandler(deps)))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	specPath := deps.SpecPath
	if specPath == "" {
		specPath = DefaultSpecPath
	}
	SetupDocs(app, specPath)

	// WebSocket
	app.Get("/ws", WebSocketUpgrade(deps), websocket.New(WebSocketHandler(deps.NATS)))
}
