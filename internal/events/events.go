package events

import (
	"time"

	"github.com/google/uuid"
)

// NATS subjects published by the billing core.
const (
	SubjectInvoiceCreated = "billing.invoice.created"
	SubjectFleetBlocked   = "billing.fleet.blocked"
)

// InvoiceCreated is published after an invoice is created and its gateway
// payment reference is attached.
type InvoiceCreated struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	ClientID      uuid.UUID `json:"client_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Amount        string    `json:"amount"`
	DueDate       time.Time `json:"due_date"`
	InvoiceURL    string    `json:"invoice_url,omitempty"`
	ClientName    string    `json:"client_name"`
	ClientPhone   string    `json:"client_phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// FleetBlocked is published after the overdue job blocks a client's fleet.
type FleetBlocked struct {
	InvoiceID       uuid.UUID `json:"invoice_id"`
	ClientID        uuid.UUID `json:"client_id"`
	InvoiceNumber   string    `json:"invoice_number"`
	BlockedVehicles int       `json:"blocked_vehicles"`
	ClientName      string    `json:"client_name"`
	ClientPhone     string    `json:"client_phone,omitempty"`
	BlockedAt       time.Time `json:"blocked_at"`
}
