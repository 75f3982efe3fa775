package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/ports"
	"github.com/samirrijal/medifly/internal/pkg/metrics"
)

var txnOrderID = regexp.MustCompile(`TXN_(.+?)_`)

// TransactionID builds the merchant transaction id for an order.
func TransactionID(orderID string, at time.Time) string {
	return fmt.Sprintf("TXN_%s_%d", orderID, at.UnixMilli())
}

// OrderIDFromTransaction extracts the order id from a merchant transaction id.
func OrderIDFromTransaction(txn string) (string, bool) {
	m := txnOrderID.FindStringSubmatch(txn)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// PaymentService drives payments through the gateway and confirms paid orders.
type PaymentService struct {
	orders    ports.OrderRepository
	gateway   ports.PaymentGateway
	lifecycle *OrderService
	now       func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(orders ports.OrderRepository, gateway ports.PaymentGateway, lifecycle *OrderService) *PaymentService {
	return &PaymentService{orders: orders, gateway: gateway, lifecycle: lifecycle, now: time.Now}
}

// Initiate opens a payment session for one of the user's pending orders.
func (s *PaymentService) Initiate(ctx context.Context, userID, orderID string) (*domain.PaymentSession, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.Initiate")
	defer span.End()

	o, err := s.lifecycle.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.OrderPending {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, o.ID, o.Status)
	}

	txn := TransactionID(o.ID, s.now())
	session, err := s.gateway.Initiate(ctx, o, txn, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}

	if err := s.orders.UpdatePayment(ctx, o.ID, txn, domain.PaymentInitiated); err != nil {
		return nil, fmt.Errorf("store payment: %w", err)
	}
	return session, nil
}

// Verify asks the gateway for the state of txn and applies it to the order.
func (s *PaymentService) Verify(ctx context.Context, userID, orderID, txn string) (*domain.PaymentResult, error) {
	o, err := s.lifecycle.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if id, ok := OrderIDFromTransaction(txn); !ok || id != o.ID {
		return nil, fmt.Errorf("%w: transaction does not belong to order", domain.ErrInvalidArgument)
	}

	res, err := s.gateway.Status(ctx, txn)
	if err != nil {
		return nil, fmt.Errorf("payment status: %w", err)
	}
	if err := s.apply(ctx, o, txn, res); err != nil {
		return nil, err
	}
	return res, nil
}

// HandleWebhook processes a verified gateway callback. Unknown orders and
// non-terminal states are acknowledged without changes.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	res, err := s.gateway.ParseCallback(ctx, body, signature)
	if err != nil {
		metrics.PaymentWebhooks.WithLabelValues("rejected").Inc()
		return err
	}

	orderID, ok := OrderIDFromTransaction(res.TransactionID)
	if !ok {
		metrics.PaymentWebhooks.WithLabelValues("ignored").Inc()
		slog.WarnContext(ctx, "webhook without order reference", "transaction_id", res.TransactionID)
		return nil
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.PaymentWebhooks.WithLabelValues("ignored").Inc()
		slog.WarnContext(ctx, "webhook for unknown order", "order_id", orderID)
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.apply(ctx, o, res.TransactionID, res); err != nil {
		return err
	}
	metrics.PaymentWebhooks.WithLabelValues(string(res.Status)).Inc()
	return nil
}

// apply records a gateway result on the order. A completed payment is final:
// later results only retry a confirmation that did not happen. Failures for a
// transaction other than the current one are stale and ignored.
func (s *PaymentService) apply(ctx context.Context, o *domain.Order, txn string, res *domain.PaymentResult) error {
	if o.PaymentStatus == domain.PaymentCompleted {
		if res.Status == domain.PaymentCompleted && o.Status == domain.OrderPending {
			return s.confirm(ctx, o)
		}
		return nil
	}

	switch res.Status {
	case domain.PaymentCompleted:
		if err := s.orders.UpdatePayment(ctx, o.ID, txn, domain.PaymentCompleted); err != nil {
			return fmt.Errorf("store payment: %w", err)
		}
		o.PaymentID, o.PaymentStatus = txn, domain.PaymentCompleted
		if o.Status == domain.OrderPending {
			return s.confirm(ctx, o)
		}
	case domain.PaymentFailed:
		if txn != o.PaymentID {
			slog.InfoContext(ctx, "ignoring failure for stale transaction",
				"order_id", o.ID, "transaction_id", txn, "current_transaction_id", o.PaymentID)
			return nil
		}
		if err := s.orders.UpdatePayment(ctx, o.ID, txn, domain.PaymentFailed); err != nil {
			return fmt.Errorf("store payment: %w", err)
		}
		o.PaymentStatus = domain.PaymentFailed
	}
	return nil
}

func (s *PaymentService) confirm(ctx context.Context, o *domain.Order) error {
	return s.lifecycle.transition(ctx, o, domain.OrderConfirmed)
}
