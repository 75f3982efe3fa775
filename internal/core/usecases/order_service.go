package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/drone"
	"github.com/samirrijal/medifly/internal/core/ports"
	"github.com/samirrijal/medifly/internal/pkg/geospatial"
	"github.com/samirrijal/medifly/internal/pkg/metrics"
)

// DefaultDeliveryWindow is the estimated delivery time set at checkout.
const DefaultDeliveryWindow = 30 * time.Minute

// CheckoutInput is what the customer supplies at checkout.
type CheckoutInput struct {
	DeliveryType    domain.DeliveryType     `json:"delivery_type"`
	PharmacyID      string                  `json:"pharmacy_id"`
	DeliveryAddress *domain.DeliveryAddress `json:"delivery_address"`
	Phone           string                  `json:"phone"`
}

// OrderService handles checkout and the order lifecycle.
type OrderService struct {
	orders     ports.OrderRepository
	carts      ports.CartRepository
	pharmacies ports.PharmacyRepository
	publisher  ports.EventPublisher
	sim        *drone.Simulator
	depot      domain.GeoPoint
	now        func() time.Time
}

// NewOrderService creates a new OrderService. Drones without an origin
// pharmacy take off from depot. publisher may be nil.
func NewOrderService(
	orders ports.OrderRepository,
	carts ports.CartRepository,
	pharmacies ports.PharmacyRepository,
	publisher ports.EventPublisher,
	sim *drone.Simulator,
	depot domain.GeoPoint,
) *OrderService {
	return &OrderService{
		orders:     orders,
		carts:      carts,
		pharmacies: pharmacies,
		publisher:  publisher,
		sim:        sim,
		depot:      depot,
		now:        time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// Checkout turns the user's cart into a pending order and empties the cart.
func (s *OrderService) Checkout(ctx context.Context, userID string, in CheckoutInput) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Checkout")
	defer span.End()

	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := s.validateCheckout(ctx, in); err != nil {
		return nil, err
	}

	lines, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidArgument)
	}

	var (
		items []domain.OrderItem
		total float64
	)
	for _, l := range lines {
		if l.Medicine == nil {
			return nil, fmt.Errorf("cart item %s: medicine %s: %w", l.ID, l.MedicineID, domain.ErrNotFound)
		}
		if !l.Medicine.InStock {
			return nil, fmt.Errorf("%s: %w", l.Medicine.Name, domain.ErrOutOfStock)
		}
		items = append(items, domain.OrderItem{
			MedicineID:   l.MedicineID,
			MedicineName: l.Medicine.Name,
			Quantity:     l.Quantity,
			Price:        l.Medicine.Price,
		})
		total += l.Medicine.Price * float64(l.Quantity)
	}

	now := s.now().UTC()
	eta := now.Add(DefaultDeliveryWindow)
	order := &domain.Order{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Items:               items,
		TotalAmount:         math.Round(total*100) / 100,
		Status:              domain.OrderPending,
		DeliveryType:        in.DeliveryType,
		PharmacyID:          in.PharmacyID,
		DeliveryAddress:     in.DeliveryAddress,
		Phone:               strings.TrimSpace(in.Phone),
		EstimatedDeliveryAt: &eta,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	if err := s.carts.DeleteByUser(ctx, userID); err != nil {
		slog.WarnContext(ctx, "clear cart after checkout", "user_id", userID, "order_id", order.ID, "error", err)
	}

	metrics.OrderTransitions.WithLabelValues(string(domain.OrderPending)).Inc()
	return order, nil
}

func (s *OrderService) validateCheckout(ctx context.Context, in CheckoutInput) error {
	switch in.DeliveryType {
	case domain.DeliveryDrone:
		if in.DeliveryAddress == nil {
			return fmt.Errorf("%w: drone delivery needs a delivery address", domain.ErrInvalidArgument)
		}
		if !geospatial.Valid(in.DeliveryAddress.Location) {
			return fmt.Errorf("%w: delivery address needs valid coordinates", domain.ErrInvalidArgument)
		}
	case domain.DeliveryPickup:
		if in.PharmacyID == "" {
			return fmt.Errorf("%w: pickup needs a pharmacy", domain.ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: unknown delivery type %q", domain.ErrInvalidArgument, in.DeliveryType)
	}

	if in.PharmacyID != "" {
		if _, err := s.pharmacies.GetByID(ctx, in.PharmacyID); err != nil {
			return fmt.Errorf("pharmacy %s: %w", in.PharmacyID, err)
		}
	}
	return nil
}

// List returns the user's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.orders.ListByUser(ctx, userID)
}

// Get returns one of the user's orders. Orders of other users are not found.
func (s *OrderService) Get(ctx context.Context, userID, id string) (*domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return o, nil
}

// UpdateStatus moves one of the user's orders to status. Customers may only
// cancel an order or confirm a pickup.
func (s *OrderService) UpdateStatus(ctx context.Context, userID, id string, status domain.OrderStatus) (*domain.Order, error) {
	o, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if status.Valid() && !status.CustomerSettable() {
		return nil, fmt.Errorf("%w: %s is not set by customers", domain.ErrInvalidTransition, status)
	}
	if err := s.transition(ctx, o, status); err != nil {
		return nil, err
	}
	return o, nil
}

// Transition moves any order to status. It is used by background workers.
func (s *OrderService) Transition(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == status {
		return o, nil
	}
	if err := s.transition(ctx, o, status); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) transition(ctx context.Context, o *domain.Order, next domain.OrderStatus) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, next)
	}
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, o.Status, next)
	}

	if err := s.orders.UpdateStatus(ctx, o.ID, next); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	now := s.now().UTC()
	o.Status = next
	o.UpdatedAt = now
	if next == domain.OrderDelivered {
		o.DeliveredAt = &now
	}

	metrics.OrderTransitions.WithLabelValues(string(next)).Inc()
	s.announce(ctx, o)
	return nil
}

func (s *OrderService) announce(ctx context.Context, o *domain.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderStatus(ctx, o); err != nil {
		slog.WarnContext(ctx, "publish order status", "order_id", o.ID, "status", o.Status, "error", err)
	}
}

// Dispatch launches the drone for a preparing drone order. The flight is
// stored before the status changes, so an in_flight order always has a drone.
func (s *OrderService) Dispatch(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case o.Status == domain.OrderInFlight && o.Drone != nil:
		return o, nil
	case o.Status != domain.OrderPreparing && o.Status != domain.OrderInFlight:
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, o.Status, domain.OrderInFlight)
	}
	if o.DeliveryType != domain.DeliveryDrone || o.DeliveryAddress == nil {
		return nil, fmt.Errorf("%w: order %s is not a drone delivery", domain.ErrInvalidArgument, id)
	}

	origin := s.depot
	if o.PharmacyID != "" {
		p, err := s.pharmacies.GetByID(ctx, o.PharmacyID)
		if err != nil {
			return nil, fmt.Errorf("pharmacy %s: %w", o.PharmacyID, err)
		}
		origin = p.Location
	}

	st := s.sim.Launch(origin, o.DeliveryAddress.Location)
	o.Drone = &domain.DroneTelemetry{
		Origin:    st.Origin,
		Location:  st.Position,
		Altitude:  st.Altitude,
		Speed:     st.Speed,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.orders.UpdateFlight(ctx, o); err != nil {
		return nil, fmt.Errorf("store drone state: %w", err)
	}

	// An in_flight order without a drone only needed its flight stored.
	if o.Status == domain.OrderInFlight {
		return o, nil
	}
	if err := s.transition(ctx, o, domain.OrderInFlight); err != nil {
		return nil, err
	}
	return o, nil
}
