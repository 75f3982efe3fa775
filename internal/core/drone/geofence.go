package drone

import (
	"slices"
	"time"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/pkg/geospatial"
)

const (
	DepartureZone = "Departure Zone"
	MidwayZone    = "Midway Zone"
	ArrivalZone   = "Arrival Zone"
)

// ZoneConfig holds the geofence radii in kilometres.
type ZoneConfig struct {
	DepartureKm float64 `mapstructure:"departure_km"`
	MidwayKm    float64 `mapstructure:"midway_km"`
	ArrivalKm   float64 `mapstructure:"arrival_km"`
}

// DefaultZones returns 0.5 km departure, 2 km midway and 0.5 km arrival radii.
func DefaultZones() ZoneConfig {
	return ZoneConfig{DepartureKm: 0.5, MidwayKm: 2, ArrivalKm: 0.5}
}

func firedKey(zone string, typ domain.GeofenceEventType) string {
	return zone + ":" + string(typ)
}

// FiredFrom rebuilds State.Fired from persisted events.
func FiredFrom(events []domain.GeofenceEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, firedKey(e.Zone, e.EventType))
	}
	return out
}

// crossings reports zone boundaries crossed between prev and st.Position
// that have not fired before, and records them in st.Fired.
func (s *Simulator) crossings(st *State, prev domain.GeoPoint, now time.Time) []domain.GeofenceEvent {
	z := s.cfg.Zones
	fromOriginBefore := geospatial.DistanceKm(st.Origin, prev)
	fromOriginAfter := geospatial.DistanceKm(st.Origin, st.Position)
	toDestBefore := geospatial.DistanceKm(prev, st.Destination)
	toDestAfter := geospatial.DistanceKm(st.Position, st.Destination)

	var events []domain.GeofenceEvent
	emit := func(zone string, typ domain.GeofenceEventType) {
		key := firedKey(zone, typ)
		if slices.Contains(st.Fired, key) {
			return
		}
		st.Fired = append(st.Fired, key)
		events = append(events, domain.GeofenceEvent{Zone: zone, EventType: typ, Timestamp: now})
	}

	if fromOriginBefore <= z.DepartureKm && fromOriginAfter > z.DepartureKm {
		emit(DepartureZone, domain.GeofenceExited)
	}
	if fromOriginBefore <= z.MidwayKm && fromOriginAfter > z.MidwayKm {
		emit(MidwayZone, domain.GeofenceExited)
	}
	if toDestBefore > z.ArrivalKm && toDestAfter <= z.ArrivalKm {
		emit(ArrivalZone, domain.GeofenceEntered)
	}
	return events
}
