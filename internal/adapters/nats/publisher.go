package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// Subjects
const (
	SubjectDroneAll       = "medifly.drone.>"
	SubjectTelemetryAll   = "medifly.drone.*.telemetry"
	SubjectGeofenceAll    = "medifly.drone.*.geofence"
	SubjectOrdersAll      = "medifly.orders.>"
	SubjectOrderConfirmed = "medifly.orders." + string(domain.OrderConfirmed)
)

// TelemetrySubject is where an order's drone positions are published.
func TelemetrySubject(orderID string) string { return "medifly.drone." + orderID + ".telemetry" }

// GeofenceSubject is where an order's geofence crossings are published.
func GeofenceSubject(orderID string) string { return "medifly.drone." + orderID + ".geofence" }

// OrderStatusSubject is where orders entering status are published.
func OrderStatusSubject(status domain.OrderStatus) string { return "medifly.orders." + string(status) }

// GeofenceMessage is the wire form of a geofence crossing.
type GeofenceMessage struct {
	OrderID string `json:"order_id"`
	domain.GeofenceEvent
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	streams := []nats.StreamConfig{
		{
			Name:      "MEDIFLY_DRONES",
			Subjects:  []string{SubjectDroneAll},
			Retention: nats.LimitsPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "MEDIFLY_ORDERS",
			Subjects:  []string{SubjectOrdersAll},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// already exists, bring it up to date
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishDroneTelemetry publishes a position as a protobuf Struct.
func (p *Publisher) PublishDroneTelemetry(ctx context.Context, orderID string, t *domain.DroneTelemetry) error {
	msg, err := TelemetryStruct(orderID, t)
	if err != nil {
		return err
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(TelemetrySubject(orderID), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishGeofenceEvent(ctx context.Context, orderID string, e *domain.GeofenceEvent) error {
	data, err := json.Marshal(GeofenceMessage{OrderID: orderID, GeofenceEvent: *e})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(GeofenceSubject(orderID), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishOrderStatus(ctx context.Context, o *domain.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(OrderStatusSubject(o.Status), data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
