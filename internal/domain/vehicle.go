package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleStatus is the tracking/billing state of a vehicle.
type VehicleStatus string

const (
	VehicleStatusActive   VehicleStatus = "active"
	VehicleStatusInactive VehicleStatus = "inactive"
	VehicleStatusBlocked  VehicleStatus = "blocked"
)

// Valid reports whether s is a known vehicle status.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusActive, VehicleStatusInactive, VehicleStatusBlocked:
		return true
	}
	return false
}

// Vehicle is a tracked vehicle belonging to a client.
// MonthlyFee is the amount billed per month while the vehicle is active.
type Vehicle struct {
	ID           uuid.UUID
	ClientID     uuid.UUID
	ChecklistID  *uuid.UUID
	Model        string
	Plate        string
	Year         int32
	Color        string
	TrackerModel string
	TrackerIMEI  string
	MonthlyFee   decimal.Decimal
	InstalledAt  *time.Time
	Status       VehicleStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateVehicleParams contains parameters for registering a vehicle.
type CreateVehicleParams struct {
	ClientID     uuid.UUID
	ChecklistID  *uuid.UUID
	Model        string
	Plate        string
	Year         int32
	Color        string
	TrackerModel string
	TrackerIMEI  string
	MonthlyFee   decimal.Decimal
	InstalledAt  *time.Time
}

// UpdateVehicleParams contains optional fields for updating a vehicle.
type UpdateVehicleParams struct {
	Model        *string
	Plate        *string
	Year         *int32
	Color        *string
	TrackerModel *string
	TrackerIMEI  *string
	MonthlyFee   *decimal.Decimal
	InstalledAt  *time.Time
}

// VehicleStore is the persistence contract for vehicles.
type VehicleStore interface {
	Create(ctx context.Context, params CreateVehicleParams) (*Vehicle, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	List(ctx context.Context) ([]Vehicle, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]Vehicle, error)
	ListActive(ctx context.Context) ([]Vehicle, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateVehicleParams) (*Vehicle, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status VehicleStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}
