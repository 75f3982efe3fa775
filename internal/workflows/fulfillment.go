package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// TaskQueue is the queue fulfillment workers poll.
const TaskQueue = "fulfillment-queue"

// FulfillmentInput is the input for the fulfillment workflow.
type FulfillmentInput struct {
	OrderID      string
	DeliveryType domain.DeliveryType
}

// WorkflowID is the fulfillment workflow id for an order. Starting twice for
// the same order attaches to the running execution.
func WorkflowID(orderID string) string {
	return "fulfillment-" + orderID
}

// FulfillmentWorkflow prepares a confirmed order and hands it to a drone or
// the pickup counter. If the hand-off fails the order is cancelled (saga
// compensation).
func FulfillmentWorkflow(ctx workflow.Context, input FulfillmentInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting fulfillment workflow", "orderID", input.OrderID, "deliveryType", input.DeliveryType)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: start preparing
	if err := workflow.ExecuteActivity(ctx, "MarkPreparing", input.OrderID).Get(ctx, nil); err != nil {
		return err
	}

	// Step 2: hand off
	handoff := "MarkReadyForPickup"
	if input.DeliveryType == domain.DeliveryDrone {
		handoff = "DispatchDrone"
	}
	err := workflow.ExecuteActivity(ctx, handoff, input.OrderID).Get(ctx, nil)
	if err != nil {
		logger.Warn("hand-off failed, cancelling order", "orderID", input.OrderID, "error", err)
		if cerr := workflow.ExecuteActivity(ctx, "CancelOrder", input.OrderID).Get(ctx, nil); cerr != nil {
			logger.Error("cancel failed", "orderID", input.OrderID, "error", cerr)
		}
		return err
	}

	logger.Info("Order handed off", "orderID", input.OrderID, "activity", handoff)
	return nil
}
