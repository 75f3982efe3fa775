// Package drone simulates drone flights between a pharmacy and a customer.
//
// The simulation is cosmetic: the drone closes a fixed fraction of the
// remaining lat/lon offset every tick, with jittered altitude and speed.
package drone

import (
	"math"
	"sync"
	"time"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/pkg/geospatial"
)

// Config tunes the simulation.
type Config struct {
	Tick                time.Duration `mapstructure:"tick"`
	MoveRatio           float64       `mapstructure:"move_ratio"`
	ArrivalToleranceDeg float64       `mapstructure:"arrival_tolerance_deg"`
	MinAltitude         float64       `mapstructure:"min_altitude"`
	MaxAltitude         float64       `mapstructure:"max_altitude"`
	MinSpeed            float64       `mapstructure:"min_speed"`
	MaxSpeed            float64       `mapstructure:"max_speed"`
	Zones               ZoneConfig    `mapstructure:"zones"`
}

// DefaultConfig returns a 5 minute tick closing 2% of the remaining offset.
func DefaultConfig() Config {
	return Config{
		Tick:                5 * time.Minute,
		MoveRatio:           0.02,
		ArrivalToleranceDeg: 0.001,
		MinAltitude:         50,
		MaxAltitude:         70,
		MinSpeed:            40,
		MaxSpeed:            60,
		Zones:               DefaultZones(),
	}
}

// Random is the jitter source. *math/rand/v2.Rand satisfies it.
type Random interface {
	Float64() float64
}

// State is a drone in flight.
type State struct {
	Origin      domain.GeoPoint
	Destination domain.GeoPoint
	Position    domain.GeoPoint
	Altitude    float64 // meters
	Speed       float64 // km/h
	// Fired lists geofence crossings already reported, see FiredFrom.
	Fired []string
}

// Step is the outcome of one Advance call.
type Step struct {
	State       State
	Events      []domain.GeofenceEvent
	Delivered   bool
	RemainingKm float64
	// ETA is the flight time left at the current speed.
	ETA time.Duration
}

// Simulator advances drone states. It is safe for concurrent use.
type Simulator struct {
	cfg Config

	mu  sync.Mutex
	rnd Random
}

// NewSimulator creates a Simulator drawing jitter from rnd.
func NewSimulator(cfg Config, rnd Random) *Simulator {
	return &Simulator{cfg: cfg, rnd: rnd}
}

// Launch places a new drone at origin bound for destination.
func (s *Simulator) Launch(origin, destination domain.GeoPoint) State {
	return State{
		Origin:      origin,
		Destination: destination,
		Position:    origin,
		Altitude:    s.cfg.MinAltitude,
		Speed:       s.cfg.MinSpeed,
	}
}

// Advance moves st forward by elapsed wall-clock time.
func (s *Simulator) Advance(st State, elapsed time.Duration, now time.Time) Step {
	next := st
	next.Fired = append([]string(nil), st.Fired...)

	if elapsed > 0 && !s.arrived(st.Position, st.Destination) {
		ticks := float64(elapsed) / float64(s.cfg.Tick)
		frac := 1 - math.Pow(1-s.cfg.MoveRatio, ticks)
		next.Position = geospatial.Interpolate(st.Position, st.Destination, frac)
		next.Altitude, next.Speed = s.jitter()
	}

	delivered := s.arrived(next.Position, st.Destination)
	if delivered {
		next.Position = st.Destination
		next.Altitude = 0
		next.Speed = 0
	}

	step := Step{State: next, Delivered: delivered}
	step.Events = s.crossings(&step.State, st.Position, now)

	if !delivered {
		step.RemainingKm = geospatial.DistanceKm(next.Position, st.Destination)
		if next.Speed > 0 {
			step.ETA = time.Duration(step.RemainingKm / next.Speed * float64(time.Hour))
		}
	}
	return step
}

func (s *Simulator) arrived(pos, dest domain.GeoPoint) bool {
	return math.Hypot(dest.Lat-pos.Lat, dest.Lon-pos.Lon) < s.cfg.ArrivalToleranceDeg
}

func (s *Simulator) jitter() (altitude, speed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	altitude = s.cfg.MinAltitude + s.rnd.Float64()*(s.cfg.MaxAltitude-s.cfg.MinAltitude)
	speed = s.cfg.MinSpeed + s.rnd.Float64()*(s.cfg.MaxSpeed-s.cfg.MinSpeed)
	return altitude, speed
}
