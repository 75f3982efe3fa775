package ports

import (
	"context"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishDroneTelemetry(ctx context.Context, orderID string, t *domain.DroneTelemetry) error
	PublishGeofenceEvent(ctx context.Context, orderID string, e *domain.GeofenceEvent) error
	PublishOrderStatus(ctx context.Context, o *domain.Order) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeOrderConfirmed(ctx context.Context, handler func(ctx context.Context, o *domain.Order) error) error
	SubscribeGeofenceEvents(ctx context.Context, handler func(ctx context.Context, orderID string, e *domain.GeofenceEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// GeolocationProvider resolves IP addresses and coordinates to places.
type GeolocationProvider interface {
	LookupIP(ctx context.Context, ip string) (*domain.Place, error)
	ReverseGeocode(ctx context.Context, p domain.GeoPoint) (*domain.Place, error)
}

// PaymentGateway talks to the payment provider.
type PaymentGateway interface {
	Initiate(ctx context.Context, order *domain.Order, transactionID, userID string) (*domain.PaymentSession, error)
	Status(ctx context.Context, transactionID string) (*domain.PaymentResult, error)
	// ParseCallback verifies and decodes a server-to-server callback.
	ParseCallback(ctx context.Context, body []byte, signature string) (*domain.PaymentResult, error)
}

// LocationCipher encrypts location strings at rest.
type LocationCipher interface {
	Encrypt(plain string) (string, error)
	Decrypt(encoded string) (string, error)
}

// FulfillmentStarter kicks off order fulfillment once an order is paid.
type FulfillmentStarter interface {
	StartFulfillment(ctx context.Context, o *domain.Order) error
}
