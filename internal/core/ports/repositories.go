package ports

import (
	"context"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// PharmacyRepository persists pharmacies.
type PharmacyRepository interface {
	Upsert(ctx context.Context, p *domain.Pharmacy) error
	UpsertBatch(ctx context.Context, pharmacies []domain.Pharmacy) error
	GetByID(ctx context.Context, id string) (*domain.Pharmacy, error)
	// ListActive returns active pharmacies, optionally restricted to a bounding box.
	ListActive(ctx context.Context, within *domain.Bounds) ([]domain.Pharmacy, error)
}

// MedicineRepository persists the medicine catalogue.
type MedicineRepository interface {
	Create(ctx context.Context, m *domain.Medicine) error
	UpsertBatch(ctx context.Context, medicines []domain.Medicine) error
	GetByID(ctx context.Context, id string) (*domain.Medicine, error)
	// List returns medicines in insertion order, filtered by category when non-empty.
	List(ctx context.Context, category string) ([]domain.Medicine, error)
	Categories(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// CartRepository persists cart lines.
type CartRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	GetByID(ctx context.Context, id string) (*domain.CartItem, error)
	FindByUserAndMedicine(ctx context.Context, userID, medicineID string) (*domain.CartItem, error)
	Insert(ctx context.Context, item *domain.CartItem) error
	UpdateQuantity(ctx context.Context, id string, quantity int) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	UpdatePayment(ctx context.Context, id, paymentID string, status domain.PaymentStatus) error
	// UpdateFlight stores the drone state, appends geofence events and sets the ETA.
	UpdateFlight(ctx context.Context, o *domain.Order) error
}

// UserLocationRepository stores one location per user.
type UserLocationRepository interface {
	Upsert(ctx context.Context, loc *domain.UserLocation) error
	GetByUser(ctx context.Context, userID string) (*domain.UserLocation, error)
}
