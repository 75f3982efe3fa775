package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/medifly/internal/adapters/postgres"
	"github.com/samirrijal/medifly/internal/adapters/valkey"
	"github.com/samirrijal/medifly/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Pharmacies *usecases.PharmacyService
	Medicines  *usecases.MedicineService
	Carts      *usecases.CartService
	Orders     *usecases.OrderService
	Payments   *usecases.PaymentService
	Locations  *usecases.LocationService
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache
	// RequestTimeout bounds each REST request; zero means 15s.
	RequestTimeout time.Duration
	// TrustProxyHeader makes location detection prefer X-Forwarded-For.
	TrustProxyHeader bool
	// SpecPath locates the OpenAPI document; empty means DefaultSpecPath.
	SpecPath string
}
