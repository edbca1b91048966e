package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChecklistStatus is the installation-intake workflow state.
type ChecklistStatus string

const (
	ChecklistStatusPending   ChecklistStatus = "pending"
	ChecklistStatusSigned    ChecklistStatus = "signed"
	ChecklistStatusCompleted ChecklistStatus = "completed"
)

// Valid reports whether s is a known checklist status.
func (s ChecklistStatus) Valid() bool {
	switch s {
	case ChecklistStatusPending, ChecklistStatusSigned, ChecklistStatusCompleted:
		return true
	}
	return false
}

// Checklist captures installation intake details for a vehicle and carries
// the electronic signature state. SignToken is the opaque token embedded in
// the signature link sent to the client.
type Checklist struct {
	ID           uuid.UUID
	ClientID     uuid.UUID
	VehicleID    *uuid.UUID
	Model        string
	Plate        string
	TrackerModel string
	TrackerIMEI  string
	Notes        string
	Status       ChecklistStatus
	SignToken    string
	SignerName   string
	SignedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateChecklistParams contains parameters for opening a checklist.
type CreateChecklistParams struct {
	ClientID     uuid.UUID
	VehicleID    *uuid.UUID
	Model        string
	Plate        string
	TrackerModel string
	TrackerIMEI  string
	Notes        string
	SignToken    string
}

// ChecklistStore is the persistence contract for checklists.
type ChecklistStore interface {
	Create(ctx context.Context, params CreateChecklistParams) (*Checklist, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Checklist, error)
	GetBySignToken(ctx context.Context, token string) (*Checklist, error)
	List(ctx context.Context) ([]Checklist, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]Checklist, error)
	MarkSigned(ctx context.Context, id uuid.UUID, signerName string, signedAt time.Time) error
	MarkCompleted(ctx context.Context, id uuid.UUID, vehicleID *uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}
