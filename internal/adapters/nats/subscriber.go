package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeOrderConfirmed delivers orders as they become confirmed.
func (s *Subscriber) SubscribeOrderConfirmed(ctx context.Context, handler func(ctx context.Context, o *domain.Order) error) error {
	sub, err := s.js.Subscribe(SubjectOrderConfirmed, func(msg *nats.Msg) {
		var o domain.Order
		if err := json.Unmarshal(msg.Data, &o); err != nil {
			// poison message, never redeliver
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &o); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("order-fulfiller"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// SubscribeGeofenceEvents delivers every drone geofence crossing.
func (s *Subscriber) SubscribeGeofenceEvents(ctx context.Context, handler func(ctx context.Context, orderID string, e *domain.GeofenceEvent) error) error {
	sub, err := s.js.Subscribe(SubjectGeofenceAll, func(msg *nats.Msg) {
		var m GeofenceMessage
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, m.OrderID, &m.GeofenceEvent); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("geofence-notifier"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
