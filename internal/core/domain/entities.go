package domain

import (
	"time"
)

const (
	// DefaultPharmacyRating is used when a pharmacy has no rating on record.
	DefaultPharmacyRating = 4.5
	// DefaultOpenHours is used when a pharmacy has no opening hours on record.
	DefaultOpenHours = "Open 24/7"
)

// Pharmacy is a physical store that fulfils orders and originates drone flights.
type Pharmacy struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	ZipCode   string    `json:"zip_code,omitempty"`
	Phone     string    `json:"phone"`
	Location  GeoPoint  `json:"location"`
	Active    bool      `json:"active"`
	Rating    float64   `json:"rating"`
	OpenHours string    `json:"open_hours"`
	CreatedAt time.Time `json:"created_at"`
}

// ApplyDefaults fills optional fields that were absent in storage.
func (p *Pharmacy) ApplyDefaults() {
	if p.Rating == 0 {
		p.Rating = DefaultPharmacyRating
	}
	if p.OpenHours == "" {
		p.OpenHours = DefaultOpenHours
	}
}

// SearchQuery is a nearby-pharmacy request as received from a caller.
type SearchQuery struct {
	Text     string   `json:"text"`
	Origin   GeoPoint `json:"origin"`
	RadiusKm float64  `json:"radius_km"`
}

// RankedResult is a pharmacy annotated with its distance and match score.
// Score is 0 when the query had no text.
type RankedResult struct {
	Pharmacy     Pharmacy `json:"pharmacy"`
	DistanceKm   float64  `json:"distance_km"`
	Score        float64  `json:"score"`
	NameScore    float64  `json:"name_score,omitempty"`
	AddressScore float64  `json:"address_score,omitempty"`
	PhoneScore   float64  `json:"phone_score,omitempty"`
}

// Medicine is a catalogue entry.
type Medicine struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	Category             string    `json:"category"`
	Price                float64   `json:"price"`
	ImageURL             string    `json:"image_url"`
	InStock              bool      `json:"in_stock"`
	RequiresPrescription bool      `json:"requires_prescription"`
	Manufacturer         string    `json:"manufacturer,omitempty"`
	Dosage               string    `json:"dosage,omitempty"`
	Quantity             *int      `json:"quantity,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// CartItem is a line in a user's cart.
type CartItem struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MedicineID string    `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
	Medicine   *Medicine `json:"medicine,omitempty"` // joined on read
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderInTransit      OrderStatus = "in_transit"
	OrderInFlight       OrderStatus = "in_flight"
	OrderDelivered      OrderStatus = "delivered"
	OrderPickedUp       OrderStatus = "picked_up"
	OrderReadyForPickup OrderStatus = "ready_for_pickup"
	OrderCancelled      OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:        {OrderConfirmed, OrderCancelled},
	OrderConfirmed:      {OrderPreparing, OrderCancelled},
	OrderPreparing:      {OrderInFlight, OrderInTransit, OrderReadyForPickup, OrderCancelled},
	OrderInTransit:      {OrderDelivered},
	OrderInFlight:       {OrderDelivered},
	OrderReadyForPickup: {OrderPickedUp, OrderCancelled},
}

// customerStatuses are the targets a customer may request. Every other
// status is reached through payment or fulfillment.
var customerStatuses = map[OrderStatus]bool{
	OrderCancelled: true,
	OrderPickedUp:  true,
}

// CustomerSettable reports whether a customer may move an order to s.
func (s OrderStatus) CustomerSettable() bool {
	return customerStatuses[s]
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderInTransit, OrderInFlight,
		OrderDelivered, OrderPickedUp, OrderReadyForPickup, OrderCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order may move from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// DeliveryType selects how an order reaches the customer.
type DeliveryType string

const (
	DeliveryDrone  DeliveryType = "drone"
	DeliveryPickup DeliveryType = "pickup"
)

// PaymentStatus tracks the gateway side of an order.
type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentPending   PaymentStatus = "pending"
)

// OrderItem is a snapshot of a cart line at checkout time.
type OrderItem struct {
	MedicineID   string  `json:"medicine_id"`
	MedicineName string  `json:"medicine_name"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
}

// DeliveryAddress is where a drone order is flown to.
type DeliveryAddress struct {
	Street   string   `json:"street"`
	City     string   `json:"city"`
	State    string   `json:"state"`
	ZipCode  string   `json:"zip_code"`
	Location GeoPoint `json:"location"`
}

// DroneTelemetry is the last simulated drone reading for an order.
type DroneTelemetry struct {
	Origin    GeoPoint  `json:"origin"`
	Location  GeoPoint  `json:"location"`
	Altitude  float64   `json:"altitude"` // meters
	Speed     float64   `json:"speed"`    // km/h
	UpdatedAt time.Time `json:"updated_at"`
}

// GeofenceEventType is either entered or exited.
type GeofenceEventType string

const (
	GeofenceEntered GeofenceEventType = "entered"
	GeofenceExited  GeofenceEventType = "exited"
)

// GeofenceEvent records a drone crossing a zone boundary.
type GeofenceEvent struct {
	Zone      string            `json:"zone"`
	EventType GeofenceEventType `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
}

// Order is a customer order.
type Order struct {
	ID                  string           `json:"id"`
	UserID              string           `json:"user_id"`
	Items               []OrderItem      `json:"items"`
	TotalAmount         float64          `json:"total_amount"`
	Status              OrderStatus      `json:"status"`
	DeliveryType        DeliveryType     `json:"delivery_type"`
	PharmacyID          string           `json:"pharmacy_id,omitempty"`
	DeliveryAddress     *DeliveryAddress `json:"delivery_address,omitempty"`
	Phone               string           `json:"phone"`
	Drone               *DroneTelemetry  `json:"drone,omitempty"`
	GeofenceEvents      []GeofenceEvent  `json:"geofence_events,omitempty"`
	EstimatedDeliveryAt *time.Time       `json:"estimated_delivery_at,omitempty"`
	DeliveredAt         *time.Time       `json:"delivered_at,omitempty"`
	PaymentID           string           `json:"payment_id,omitempty"`
	PaymentStatus       PaymentStatus    `json:"payment_status,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// DetectionMethod is how a user's location was obtained.
type DetectionMethod string

const (
	DetectedByIP  DetectionMethod = "ip"
	DetectedByGPS DetectionMethod = "gps"
)

// UserLocation is the last known location of a user.
type UserLocation struct {
	UserID               string          `json:"user_id"`
	EncryptedLocation    string          `json:"-"`
	TranscriptedLocation string          `json:"transcripted_location"`
	Location             GeoPoint        `json:"location"`
	DetectionMethod      DetectionMethod `json:"detection_method"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Place is a resolved human-readable location.
type Place struct {
	City     string   `json:"city"`
	Region   string   `json:"region"`
	Country  string   `json:"country"`
	Location GeoPoint `json:"location"`
	IP       string   `json:"ip,omitempty"`
}

// PaymentSession is returned when a payment has been initiated.
type PaymentSession struct {
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url"`
}

// PaymentResult is the gateway's view of a transaction.
type PaymentResult struct {
	TransactionID        string        `json:"transaction_id"`
	GatewayTransactionID string        `json:"gateway_transaction_id,omitempty"`
	State                string        `json:"state"`
	Status               PaymentStatus `json:"status"`
	Message              string        `json:"message,omitempty"`
}
