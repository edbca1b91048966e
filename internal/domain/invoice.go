package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the local lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether s is a known invoice status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a status change is allowed.
// Invoices only move forward: pending→paid and pending→cancelled.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	if s != InvoiceStatusPending {
		return false
	}
	return next == InvoiceStatusPaid || next == InvoiceStatusCancelled
}

// Invoice is a local billing record. GatewayPaymentID references the payment
// created at the gateway; it is empty while the row is staged pending-remote
// and gets attached once the gateway call succeeds.
type Invoice struct {
	ID               uuid.UUID
	ClientID         uuid.UUID
	ChecklistID      *uuid.UUID
	Number           string
	Description      string
	Amount           decimal.Decimal
	Status           InvoiceStatus
	DueDate          time.Time
	PaidAt           *time.Time
	GatewayPaymentID string
	// BlockedAt marks that overdue blocking already processed this invoice.
	// Re-runs of the overdue job skip marked invoices.
	BlockedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PendingRemote reports whether the invoice row was staged locally but the
// gateway payment reference was never attached.
func (i *Invoice) PendingRemote() bool {
	return i.GatewayPaymentID == ""
}

// CreateInvoiceParams contains parameters for staging an invoice row.
type CreateInvoiceParams struct {
	ClientID    uuid.UUID
	ChecklistID *uuid.UUID
	Number      string
	Description string
	Amount      decimal.Decimal
	DueDate     time.Time
}

// InvoiceFilter narrows invoice listings. Zero values mean no filtering.
type InvoiceFilter struct {
	ClientID *uuid.UUID
	Status   *InvoiceStatus
}

// InvoiceStore is the persistence contract for invoices.
type InvoiceStore interface {
	Create(ctx context.Context, params CreateInvoiceParams) (*Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)
	ListPendingRemote(ctx context.Context, olderThan time.Time) ([]Invoice, error)
	AttachGatewayPayment(ctx context.Context, id uuid.UUID, gatewayPaymentID string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus, paidAt *time.Time) error
	MarkBlocked(ctx context.Context, id uuid.UUID, blockedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}
