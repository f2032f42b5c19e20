package logistics

import (
	"errors"
	"time"

	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

// ============================================================================
// SHIPMENT STATUS
// ============================================================================

// ShipmentStatus represents the lifecycle of a shipment.
type ShipmentStatus string

const (
	StatusPending   ShipmentStatus = "pending"
	StatusInTransit ShipmentStatus = "in-transit"
	StatusDelivered ShipmentStatus = "delivered"
	StatusDelayed   ShipmentStatus = "delayed"
	StatusReturned  ShipmentStatus = "returned"
)

// IsValid checks if the status is a known value.
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInTransit, StatusDelivered, StatusDelayed, StatusReturned:
		return true
	default:
		return false
	}
}

// Terminal reports whether the shipment can no longer move.
func (s ShipmentStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusReturned
}

// CanTransitionTo enforces the allowed status moves. Delivery only happens
// through the final tracking checkpoint, never by direct status update.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusInTransit || next == StatusDelayed || next == StatusReturned
	case StatusInTransit:
		return next == StatusDelayed || next == StatusReturned
	case StatusDelayed:
		return next == StatusInTransit || next == StatusReturned
	default:
		return false
	}
}

// TransportMode enumerates supported carriage modes.
type TransportMode string

const (
	ModeRoad TransportMode = "road"
	ModeRail TransportMode = "rail"
	ModeAir  TransportMode = "air"
	ModeSea  TransportMode = "sea"
)

// IsValid checks if the mode is a known value.
func (m TransportMode) IsValid() bool {
	switch m {
	case ModeRoad, ModeRail, ModeAir, ModeSea:
		return true
	default:
		return false
	}
}

// ============================================================================
// SHIPMENT ENTITY
// ============================================================================

// Shipment represents one consignment moving against an order.
type Shipment struct {
	ID             int64          `json:"id" db:"id"`
	ShipmentNumber string         `json:"shipment_number" db:"shipment_number"`
	OrderNumber    string         `json:"order_number" db:"order_number"`
	GDNNumber      *string        `json:"gdn_number,omitempty" db:"gdn_number"`
	Origin         string         `json:"origin" db:"origin"`
	Destination    string         `json:"destination" db:"destination"`
	DispatchDate   time.Time      `json:"dispatch_date" db:"dispatch_date"`
	ExpectedDate   time.Time      `json:"expected_date" db:"expected_date"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty" db:"delivered_at"`
	Status         ShipmentStatus `json:"status" db:"status"`
	TransportMode  TransportMode  `json:"transport_mode" db:"transport_mode"`
	VehicleNumber  *string        `json:"vehicle_number,omitempty" db:"vehicle_number"`
	DriverName     *string        `json:"driver_name,omitempty" db:"driver_name"`
	DriverContact  *string        `json:"driver_contact,omitempty" db:"driver_contact"`
	WeightKg       float64        `json:"weight_kg" db:"weight_kg"`
	PackageCount   int            `json:"package_count" db:"package_count"`
	Version        int64          `json:"-" db:"version"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// Checkpoint is one ordered tracking milestone on a shipment.
type Checkpoint struct {
	Label    string              `json:"label"`
	Status   workflow.StepStatus `json:"status"`
	Date     *time.Time          `json:"date,omitempty"`
	Location *string             `json:"location,omitempty"`
	Remarks  *string             `json:"remarks,omitempty"`
}

// ShipmentView pairs the shipment record with its tracking checkpoints.
type ShipmentView struct {
	Shipment
	Checkpoints []Checkpoint `json:"checkpoints"`
}

// defaultCheckpoints is the tracking template stamped onto new shipments.
var defaultCheckpoints = []string{
	"Order Packed",
	"Dispatched from Warehouse",
	"In Transit",
	"Arrived at Destination Hub",
	"Out for Delivery",
	"Delivered",
}

// ============================================================================
// REQUEST DTOs
// ============================================================================

// CreateShipmentRequest creates a shipment against an order.
type CreateShipmentRequest struct {
	OrderNumber   string        `json:"order_number" validate:"required"`
	GDNNumber     *string       `json:"gdn_number,omitempty"`
	Origin        string        `json:"origin" validate:"required,max=200"`
	Destination   string        `json:"destination" validate:"required,max=200"`
	DispatchDate  time.Time     `json:"dispatch_date" validate:"required"`
	ExpectedDate  time.Time     `json:"expected_date" validate:"required"`
	TransportMode TransportMode `json:"transport_mode" validate:"required,oneof=road rail air sea"`
	VehicleNumber *string       `json:"vehicle_number,omitempty" validate:"omitempty,max=50"`
	DriverName    *string       `json:"driver_name,omitempty" validate:"omitempty,max=200"`
	DriverContact *string       `json:"driver_contact,omitempty" validate:"omitempty,max=50"`
	WeightKg      float64       `json:"weight_kg" validate:"gte=0"`
	PackageCount  int           `json:"package_count" validate:"gte=0"`
}

// AdvanceCheckpointRequest completes the next pending checkpoint.
type AdvanceCheckpointRequest struct {
	Label    string  `json:"label" validate:"required"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=200"`
	Remarks  *string `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

// UpdateStatusRequest moves a shipment to delayed, returned, or back in transit.
type UpdateStatusRequest struct {
	Status  ShipmentStatus `json:"status" validate:"required,oneof=in-transit delayed returned"`
	Remarks *string        `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

// ListShipmentsRequest filters the shipment listing.
type ListShipmentsRequest struct {
	Status  ShipmentStatus
	Mode    TransportMode
	Search  string
	Page    int
	PerPage int
}

// Stats summarises shipments by status.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	InTransit int `json:"in_transit"`
	Delivered int `json:"delivered"`
	Delayed   int `json:"delayed"`
	Returned  int `json:"returned"`
}

// Common errors.
var (
	ErrInvalidStatusChange = errors.New("logistics: status change not allowed")
	ErrNotFrontier         = errors.New("logistics: checkpoint is not the next pending milestone")
	ErrShipmentClosed      = errors.New("logistics: shipment already delivered or returned")
)
