package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/drone"
	"github.com/samirrijal/medifly/internal/core/ports"
	"github.com/samirrijal/medifly/internal/pkg/metrics"
)

// DroneService moves every in-flight drone forward. It is driven by a ticker
// owned by the caller.
type DroneService struct {
	orders    ports.OrderRepository
	publisher ports.EventPublisher
	sim       *drone.Simulator
	now       func() time.Time
}

// NewDroneService creates a new DroneService. publisher may be nil.
func NewDroneService(orders ports.OrderRepository, publisher ports.EventPublisher, sim *drone.Simulator) *DroneService {
	return &DroneService{orders: orders, publisher: publisher, sim: sim, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (s *DroneService) WithClock(now func() time.Time) *DroneService {
	s.now = now
	return s
}

// TickResult summarises one AdvanceAll call.
type TickResult struct {
	Advanced  int
	Delivered int
	Failed    int
}

// AdvanceAll advances every in-flight order by the wall-clock time since its
// last update. A failing order is logged and skipped.
func (s *DroneService) AdvanceAll(ctx context.Context) (TickResult, error) {
	ctx, span := tracer.Start(ctx, "DroneService.AdvanceAll")
	defer span.End()

	start := time.Now()
	defer func() { metrics.DroneTickDuration.Observe(time.Since(start).Seconds()) }()

	orders, err := s.orders.ListByStatus(ctx, domain.OrderInFlight)
	if err != nil {
		return TickResult{}, fmt.Errorf("list in-flight orders: %w", err)
	}

	var res TickResult
	for i := range orders {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		delivered, err := s.Advance(ctx, &orders[i])
		if err != nil {
			res.Failed++
			slog.ErrorContext(ctx, "advance drone", "order_id", orders[i].ID, "error", err)
			continue
		}
		res.Advanced++
		if delivered {
			res.Delivered++
		}
	}
	return res, nil
}

// Advance moves the drone of a single in-flight order and persists the result.
func (s *DroneService) Advance(ctx context.Context, o *domain.Order) (bool, error) {
	if o.Drone == nil || o.DeliveryAddress == nil {
		return false, fmt.Errorf("%w: order %s has no flight", domain.ErrInvalidArgument, o.ID)
	}

	now := s.now().UTC()
	elapsed := now.Sub(o.Drone.UpdatedAt)

	step := s.sim.Advance(drone.State{
		Origin:      o.Drone.Origin,
		Destination: o.DeliveryAddress.Location,
		Position:    o.Drone.Location,
		Altitude:    o.Drone.Altitude,
		Speed:       o.Drone.Speed,
		Fired:       drone.FiredFrom(o.GeofenceEvents),
	}, elapsed, now)

	o.Drone = &domain.DroneTelemetry{
		Origin:    o.Drone.Origin,
		Location:  step.State.Position,
		Altitude:  step.State.Altitude,
		Speed:     step.State.Speed,
		UpdatedAt: now,
	}
	o.GeofenceEvents = append(o.GeofenceEvents, step.Events...)
	if step.Delivered {
		o.EstimatedDeliveryAt = &now
	} else if step.ETA > 0 {
		eta := now.Add(step.ETA)
		o.EstimatedDeliveryAt = &eta
	}
	o.UpdatedAt = now

	if err := s.orders.UpdateFlight(ctx, o); err != nil {
		return false, fmt.Errorf("store drone state: %w", err)
	}
	metrics.DronePositionUpdates.Inc()

	s.publish(ctx, o, step.Events)

	if step.Delivered {
		if err := s.orders.UpdateStatus(ctx, o.ID, domain.OrderDelivered); err != nil {
			return false, fmt.Errorf("mark delivered: %w", err)
		}
		o.Status = domain.OrderDelivered
		o.DeliveredAt = &now
		metrics.OrderTransitions.WithLabelValues(string(domain.OrderDelivered)).Inc()
		if s.publisher != nil {
			if err := s.publisher.PublishOrderStatus(ctx, o); err != nil {
				slog.WarnContext(ctx, "publish order status", "order_id", o.ID, "error", err)
			}
		}
	}
	return step.Delivered, nil
}

func (s *DroneService) publish(ctx context.Context, o *domain.Order, events []domain.GeofenceEvent) {
	for _, e := range events {
		metrics.GeofenceEvents.WithLabelValues(e.Zone, string(e.EventType)).Inc()
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDroneTelemetry(ctx, o.ID, o.Drone); err != nil {
		slog.WarnContext(ctx, "publish drone telemetry", "order_id", o.ID, "error", err)
	}
	for i := range events {
		if err := s.publisher.PublishGeofenceEvent(ctx, o.ID, &events[i]); err != nil {
			slog.WarnContext(ctx, "publish geofence event", "order_id", o.ID, "zone", events[i].Zone, "error", err)
		}
	}
}
