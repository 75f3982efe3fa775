package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/medifly/internal/core/domain"
)

const orderColumns = `
	id, user_id, items, total_amount, status, delivery_type, COALESCE(pharmacy_id, ''),
	delivery_address, COALESCE(phone, ''), drone, geofence_events,
	estimated_delivery_at, delivered_at, COALESCE(payment_id, ''), COALESCE(payment_status, ''),
	created_at, updated_at`

// OrderRepo implements ports.OrderRepository with pgx.
type OrderRepo struct {
	db *DB
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status, deliveryType, paymentStatus string
	err := row.Scan(
		&o.ID, &o.UserID, &o.Items, &o.TotalAmount, &status, &deliveryType, &o.PharmacyID,
		&o.DeliveryAddress, &o.Phone, &o.Drone, &o.GeofenceEvents,
		&o.EstimatedDeliveryAt, &o.DeliveredAt, &o.PaymentID, &paymentStatus,
		&o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = domain.OrderStatus(status)
	o.DeliveryType = domain.DeliveryType(deliveryType)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	return o, err
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Create inserts an order.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	events := o.GeofenceEvents
	if events == nil {
		events = []domain.GeofenceEvent{}
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO orders (id, user_id, items, total_amount, status, delivery_type, pharmacy_id,
		                    delivery_address, phone, geofence_events, estimated_delivery_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, NULLIF($9, ''), $10, $11, $12, $12)
	`, o.ID, o.UserID, o.Items, o.TotalAmount, string(o.Status), string(o.DeliveryType), o.PharmacyID,
		o.DeliveryAddress, o.Phone, events, o.EstimatedDeliveryAt, o.CreatedAt)
	return err
}

// GetByID returns an order by id.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.db.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return &o, nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// ListByStatus returns every order in a status, oldest first.
func (r *OrderRepo) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at, id
	`, string(status))
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// UpdateStatus sets the status; entering delivered stamps delivered_at.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE orders
		SET status = $2,
		    delivered_at = CASE WHEN $2 = 'delivered' THEN now() ELSE delivered_at END,
		    updated_at = now()
		WHERE id = $1
	`, id, string(status))
	if err != nil {
		return err
	}
	return affected(tag.RowsAffected(), "order", id)
}

// UpdatePayment records the gateway transaction and its state.
func (r *OrderRepo) UpdatePayment(ctx context.Context, id, paymentID string, status domain.PaymentStatus) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE orders SET payment_id = $2, payment_status = $3, updated_at = now() WHERE id = $1
	`, id, paymentID, string(status))
	if err != nil {
		return err
	}
	return affected(tag.RowsAffected(), "order", id)
}

// UpdateFlight stores the drone state, geofence events and ETA.
func (r *OrderRepo) UpdateFlight(ctx context.Context, o *domain.Order) error {
	events := o.GeofenceEvents
	if events == nil {
		events = []domain.GeofenceEvent{}
	}
	var eta *time.Time
	if o.EstimatedDeliveryAt != nil {
		eta = o.EstimatedDeliveryAt
	}
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE orders
		SET drone = $2, geofence_events = $3, estimated_delivery_at = COALESCE($4, estimated_delivery_at),
		    updated_at = now()
		WHERE id = $1
	`, o.ID, o.Drone, events, eta)
	if err != nil {
		return err
	}
	return affected(tag.RowsAffected(), "order", o.ID)
}
