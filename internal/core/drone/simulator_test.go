package drone_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/drone"
)

var (
	pharmacy = domain.GeoPoint{Lat: 12.9716, Lon: 77.5946}
	customer = domain.GeoPoint{Lat: 13.0166, Lon: 77.5946} // ~5 km north
	t0       = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
)

func newSim() *drone.Simulator {
	return drone.NewSimulator(drone.DefaultConfig(), rand.New(rand.NewPCG(1, 2)))
}

func TestAdvance_OneTickClosesMoveRatio(t *testing.T) {
	sim := newSim()
	st := sim.Launch(pharmacy, customer)

	step := sim.Advance(st, 5*time.Minute, t0)

	assert.InDelta(t, pharmacy.Lat+0.02*(customer.Lat-pharmacy.Lat), step.State.Position.Lat, 1e-12)
	assert.InDelta(t, pharmacy.Lon, step.State.Position.Lon, 1e-12)
	assert.False(t, step.Delivered)
}

func TestAdvance_ElapsedCompounds(t *testing.T) {
	sim := newSim()
	st := sim.Launch(pharmacy, customer)

	once := sim.Advance(st, 10*time.Minute, t0)
	twice := sim.Advance(sim.Advance(st, 5*time.Minute, t0).State, 5*time.Minute, t0)

	assert.InDelta(t, twice.State.Position.Lat, once.State.Position.Lat, 1e-12)
}

func TestAdvance_JitterWithinBounds(t *testing.T) {
	sim := newSim()
	st := sim.Launch(pharmacy, customer)

	for i := 0; i < 50; i++ {
		step := sim.Advance(st, time.Minute, t0)
		st = step.State
		assert.GreaterOrEqual(t, st.Altitude, 50.0)
		assert.LessOrEqual(t, st.Altitude, 70.0)
		assert.GreaterOrEqual(t, st.Speed, 40.0)
		assert.LessOrEqual(t, st.Speed, 60.0)
		assert.Greater(t, step.ETA, time.Duration(0))
	}
}

func TestAdvance_ConvergesAndFiresEachZoneOnce(t *testing.T) {
	sim := newSim()
	st := sim.Launch(pharmacy, customer)

	var events []domain.GeofenceEvent
	delivered := false
	for i := 0; i < 1000 && !delivered; i++ {
		step := sim.Advance(st, 5*time.Minute, t0.Add(time.Duration(i)*5*time.Minute))
		events = append(events, step.Events...)
		st = step.State
		delivered = step.Delivered
	}

	require.True(t, delivered, "drone never arrived")
	assert.Equal(t, customer, st.Position)
	assert.Zero(t, st.Altitude)
	assert.Zero(t, st.Speed)

	require.Len(t, events, 3)
	assert.Equal(t, drone.DepartureZone, events[0].Zone)
	assert.Equal(t, domain.GeofenceExited, events[0].EventType)
	assert.Equal(t, drone.MidwayZone, events[1].Zone)
	assert.Equal(t, domain.GeofenceExited, events[1].EventType)
	assert.Equal(t, drone.ArrivalZone, events[2].Zone)
	assert.Equal(t, domain.GeofenceEntered, events[2].EventType)
}

func TestAdvance_LongGapDeliversInOneStep(t *testing.T) {
	sim := newSim()
	st := sim.Launch(pharmacy, customer)

	step := sim.Advance(st, 7*24*time.Hour, t0)

	assert.True(t, step.Delivered)
	assert.Equal(t, customer, step.State.Position)
	assert.Len(t, step.Events, 3)
	assert.Zero(t, step.ETA)
	assert.Zero(t, step.RemainingKm)
}

func TestAdvance_FiredEventsAreNotRepeated(t *testing.T) {
	sim := newSim()
	st := sim.Launch(pharmacy, customer)
	st.Fired = drone.FiredFrom([]domain.GeofenceEvent{
		{Zone: drone.DepartureZone, EventType: domain.GeofenceExited},
		{Zone: drone.MidwayZone, EventType: domain.GeofenceExited},
	})

	step := sim.Advance(st, 7*24*time.Hour, t0)

	require.Len(t, step.Events, 1)
	assert.Equal(t, drone.ArrivalZone, step.Events[0].Zone)
	assert.Equal(t, t0, step.Events[0].Timestamp)
}

func TestAdvance_NoElapsedNoMove(t *testing.T) {
	sim := newSim()
	st := sim.Launch(pharmacy, customer)

	step := sim.Advance(st, 0, t0)
	assert.Equal(t, pharmacy, step.State.Position)
	assert.Empty(t, step.Events)
	assert.False(t, step.Delivered)
}
