package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Client is a fleet owner billed monthly for tracked vehicles.
// TaxID is stored normalized (digits only, 11 or 14).
type Client struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Phone      string
	TaxID      string
	Address    string
	AddressNum string
	Complement string
	District   string
	City       string
	State      string
	PostalCode string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateClientParams contains parameters for registering a client.
type CreateClientParams struct {
	Name       string
	Email      string
	Phone      string
	TaxID      string
	Address    string
	AddressNum string
	Complement string
	District   string
	City       string
	State      string
	PostalCode string
}

// UpdateClientParams contains optional fields for updating a client.
// Nil pointers leave the existing value unchanged.
type UpdateClientParams struct {
	Name       *string
	Email      *string
	Phone      *string
	Address    *string
	AddressNum *string
	Complement *string
	District   *string
	City       *string
	State      *string
	PostalCode *string
}

// ClientStore is the persistence contract for clients.
type ClientStore interface {
	Create(ctx context.Context, params CreateClientParams) (*Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
	GetByTaxID(ctx context.Context, taxID string) (*Client, error)
	List(ctx context.Context) ([]Client, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateClientParams) (*Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
