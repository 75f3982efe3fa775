package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// OrderLifecycle is the part of the order service the activities drive.
type OrderLifecycle interface {
	Transition(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Dispatch(ctx context.Context, id string) (*domain.Order, error)
}

// FulfillmentActivities holds the activity implementations for the fulfillment workflow.
type FulfillmentActivities struct {
	Orders OrderLifecycle
}

// MarkPreparing moves a confirmed order to preparing.
func (a *FulfillmentActivities) MarkPreparing(ctx context.Context, orderID string) error {
	_, err := a.Orders.Transition(ctx, orderID, domain.OrderPreparing)
	return activityError("mark preparing", orderID, err)
}

// DispatchDrone launches the drone for the order.
func (a *FulfillmentActivities) DispatchDrone(ctx context.Context, orderID string) error {
	o, err := a.Orders.Dispatch(ctx, orderID)
	if err != nil {
		return activityError("dispatch drone", orderID, err)
	}
	if o.Drone == nil {
		return fmt.Errorf("dispatch drone %s: no drone state stored", orderID)
	}
	slog.InfoContext(ctx, "drone dispatched", "order_id", o.ID, "origin_lat", o.Drone.Origin.Lat, "origin_lon", o.Drone.Origin.Lon)
	return nil
}

// MarkReadyForPickup makes a pickup order collectable.
func (a *FulfillmentActivities) MarkReadyForPickup(ctx context.Context, orderID string) error {
	_, err := a.Orders.Transition(ctx, orderID, domain.OrderReadyForPickup)
	return activityError("mark ready for pickup", orderID, err)
}

// CancelOrder cancels the order (saga compensation).
func (a *FulfillmentActivities) CancelOrder(ctx context.Context, orderID string) error {
	_, err := a.Orders.Transition(ctx, orderID, domain.OrderCancelled)
	if err == nil {
		slog.InfoContext(ctx, "order cancelled (saga compensation)", "order_id", orderID)
	}
	return activityError("cancel order", orderID, err)
}

// activityError marks errors that retrying cannot fix as non-retryable.
func activityError(step, orderID string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s %s: %w", step, orderID, err)
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidTransition):
		return temporal.NewNonRetryableApplicationError(wrapped.Error(), "InvalidOrder", err)
	}
	return wrapped
}
