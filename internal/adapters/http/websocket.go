package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/medifly/internal/adapters/nats"
	"github.com/samirrijal/medifly/internal/pkg/metrics"
)

const wsOrderKey = "ws_order_id"

// wsMessage is sent from client to subscribe/unsubscribe to channels.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "telemetry" | "geofence"
}

// wsEvent is relayed to the client.
type wsEvent struct {
	Type    string          `json:"type"`
	OrderID string          `json:"order_id"`
	Data    json.RawMessage `json:"data"`
}

// WebSocketUpgrade authorizes a tracking connection before the upgrade.
// The caller must own the order named by the order_id query parameter.
// Identity comes only from the gateway-injected header, as on every other
// authenticated route.
func WebSocketUpgrade(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		uid := c.Get(HeaderUserID)
		if uid == "" {
			return errUnauthorized(c, "authentication required")
		}
		orderID := c.Query("order_id")
		if orderID == "" {
			return errBadRequest(c, "order_id is required")
		}
		if deps.Orders != nil {
			if _, err := deps.Orders.Get(c.UserContext(), uid, orderID); err != nil {
				return errFromDomain(c, err)
			}
		}
		c.Locals(wsOrderKey, orderID)
		return c.Next()
	}
}

// WebSocketHandler relays drone telemetry and geofence events for one order
// from NATS to the connected client. Telemetry arrives as protobuf and is
// forwarded as JSON. Both channels are subscribed on connect.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		orderID, _ := c.Locals(wsOrderKey).(string)
		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr, "order_id", orderID)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		if nc == nil {
			_ = c.WriteJSON(fiber.Map{"error": "realtime updates unavailable"})
			return
		}

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // channel -> subscription

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		relay := map[string]struct {
			subject string
			decode  func([]byte) ([]byte, error)
		}{
			"telemetry": {natsadapter.TelemetrySubject(orderID), natsadapter.TelemetryJSON},
			"geofence":  {natsadapter.GeofenceSubject(orderID), func(b []byte) ([]byte, error) { return b, nil }},
		}

		subscribe := func(channel string) error {
			r := relay[channel]
			s, err := nc.Subscribe(r.subject, func(msg *nats.Msg) {
				data, err := r.decode(msg.Data)
				if err != nil {
					slog.Warn("ws relay decode", "channel", channel, "error", err)
					return
				}
				_ = writeJSON(wsEvent{Type: channel, OrderID: orderID, Data: data})
			})
			if err != nil {
				return err
			}
			subs[channel] = s
			return nil
		}

		for channel := range relay {
			if err := subscribe(channel); err != nil {
				slog.Error("ws subscribe", "channel", channel, "error", err)
				return
			}
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if _, ok := relay[m.Channel]; !ok {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + m.Channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[m.Channel]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "channel": m.Channel})
					continue
				}
				if err := subscribe(m.Channel); err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "channel": m.Channel})

			case "unsubscribe":
				if s, exists := subs[m.Channel]; exists {
					_ = s.Unsubscribe()
					delete(subs, m.Channel)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "channel": m.Channel})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + m.Channel})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr, "order_id", orderID)
	}
}
