package natsadapter

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// TelemetryStruct converts a drone reading into its wire Struct.
func TelemetryStruct(orderID string, t *domain.DroneTelemetry) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		"order_id":   orderID,
		"lat":        t.Location.Lat,
		"lon":        t.Location.Lon,
		"altitude":   t.Altitude,
		"speed":      t.Speed,
		"updated_at": t.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry struct: %w", err)
	}
	return s, nil
}

// TelemetryJSON decodes a protobuf telemetry payload into JSON for clients.
func TelemetryJSON(data []byte) ([]byte, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode telemetry: %w", err)
	}
	return protojson.Marshal(&s)
}

// TelemetryOrderID returns the order a telemetry payload belongs to.
func TelemetryOrderID(data []byte) (string, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("decode telemetry: %w", err)
	}
	return s.GetFields()["order_id"].GetStringValue(), nil
}
