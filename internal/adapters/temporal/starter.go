package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/workflows"
)

// Starter implements ports.FulfillmentStarter by starting Temporal workflows.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a starter on taskQueue. An empty queue uses workflows.TaskQueue.
func NewStarter(c client.Client, taskQueue string) *Starter {
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	return &Starter{client: c, taskQueue: taskQueue}
}

// StartFulfillment starts (or attaches to) the fulfillment workflow for o.
func (s *Starter) StartFulfillment(ctx context.Context, o *domain.Order) error {
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflows.WorkflowID(o.ID),
		TaskQueue: s.taskQueue,
	}, workflows.FulfillmentWorkflow, workflows.FulfillmentInput{
		OrderID:      o.ID,
		DeliveryType: o.DeliveryType,
	})
	if err != nil {
		return fmt.Errorf("start fulfillment %s: %w", o.ID, err)
	}
	slog.InfoContext(ctx, "fulfillment started", "order_id", o.ID, "run_id", run.GetRunID())
	return nil
}
