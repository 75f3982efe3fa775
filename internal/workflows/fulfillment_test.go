package workflows_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/workflows"
)

type fakeLifecycle struct {
	mu          sync.Mutex
	status      map[string]domain.OrderStatus
	dispatchErr error
	noDrone     bool
	calls       []string
}

func newFake(id string, s domain.OrderStatus) *fakeLifecycle {
	return &fakeLifecycle{status: map[string]domain.OrderStatus{id: s}}
}

func (f *fakeLifecycle) Transition(_ context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "transition:"+string(next))
	cur, ok := f.status[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if !cur.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, cur, next)
	}
	f.status[id] = next
	return &domain.Order{ID: id, Status: next}, nil
}

func (f *fakeLifecycle) Dispatch(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "dispatch")
	if f.dispatchErr != nil {
		return nil, f.dispatchErr
	}
	f.status[id] = domain.OrderInFlight
	if f.noDrone {
		return &domain.Order{ID: id, Status: domain.OrderInFlight}, nil
	}
	return &domain.Order{ID: id, Status: domain.OrderInFlight, Drone: &domain.DroneTelemetry{}}, nil
}

func run(t *testing.T, fake *fakeLifecycle, input workflows.FulfillmentInput) error {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.FulfillmentWorkflow)
	env.RegisterActivity(&workflows.FulfillmentActivities{Orders: fake})

	env.ExecuteWorkflow(workflows.FulfillmentWorkflow, input)
	require.True(t, env.IsWorkflowCompleted())
	return env.GetWorkflowError()
}

func TestFulfillmentDroneOrder(t *testing.T) {
	fake := newFake("o1", domain.OrderConfirmed)
	err := run(t, fake, workflows.FulfillmentInput{OrderID: "o1", DeliveryType: domain.DeliveryDrone})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderInFlight, fake.status["o1"])
	assert.Equal(t, []string{"transition:preparing", "dispatch"}, fake.calls)
}

func TestFulfillmentPickupOrder(t *testing.T) {
	fake := newFake("o2", domain.OrderConfirmed)
	err := run(t, fake, workflows.FulfillmentInput{OrderID: "o2", DeliveryType: domain.DeliveryPickup})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderReadyForPickup, fake.status["o2"])
}

func TestFulfillmentCompensatesFailedDispatch(t *testing.T) {
	fake := newFake("o3", domain.OrderConfirmed)
	fake.dispatchErr = fmt.Errorf("%w: order o3 is not a drone delivery", domain.ErrInvalidArgument)

	err := run(t, fake, workflows.FulfillmentInput{OrderID: "o3", DeliveryType: domain.DeliveryDrone})

	require.Error(t, err)
	assert.Equal(t, domain.OrderCancelled, fake.status["o3"])
	assert.Equal(t, []string{"transition:preparing", "dispatch", "transition:cancelled"}, fake.calls)
}

func TestFulfillmentRetriesTransientDispatchErrors(t *testing.T) {
	fake := newFake("o4", domain.OrderConfirmed)
	fake.dispatchErr = errors.New("connection reset")

	err := run(t, fake, workflows.FulfillmentInput{OrderID: "o4", DeliveryType: domain.DeliveryDrone})

	require.Error(t, err)
	dispatches := 0
	for _, c := range fake.calls {
		if c == "dispatch" {
			dispatches++
		}
	}
	assert.Equal(t, 3, dispatches)
	assert.Equal(t, domain.OrderCancelled, fake.status["o4"])
}

func TestFulfillmentStopsWhenOrderNotConfirmed(t *testing.T) {
	fake := newFake("o5", domain.OrderPending)
	err := run(t, fake, workflows.FulfillmentInput{OrderID: "o5", DeliveryType: domain.DeliveryDrone})

	require.Error(t, err)
	assert.Equal(t, domain.OrderPending, fake.status["o5"])
	assert.Equal(t, []string{"transition:preparing"}, fake.calls)
}

func TestDispatchDroneWithoutDroneStateFails(t *testing.T) {
	fake := newFake("o1", domain.OrderPreparing)
	fake.noDrone = true
	acts := &workflows.FulfillmentActivities{Orders: fake}

	var err error
	require.NotPanics(t, func() { err = acts.DispatchDrone(context.Background(), "o1") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no drone state")
}
