package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway defines the interface for the payment partner API.
// Implementations can target Asaas or any compatible billing provider.
type Gateway interface {
	// FindCustomerByTaxID searches for an existing customer by normalized
	// tax document. Returns nil, nil if no customer matches (not an error).
	FindCustomerByTaxID(ctx context.Context, taxID string) (*Customer, error)

	// CreateCustomer registers a new billing party with the gateway and
	// returns the record with its issued identifier.
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// CreatePayment creates a charge against an existing customer.
	// ExternalReference doubles as the idempotency key on our side.
	CreatePayment(ctx context.Context, params CreatePaymentParams) (*Payment, error)

	// GetPayment retrieves a payment by its gateway identifier.
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)

	// FindPaymentByReference searches for a payment by external reference.
	// Returns nil, nil if none matches. Used by the reconciliation sweep.
	FindPaymentByReference(ctx context.Context, externalReference string) (*Payment, error)

	// CancelPayment cancels a payment that has not been received.
	CancelPayment(ctx context.Context, paymentID string) error

	// RefundPayment refunds a received payment.
	RefundPayment(ctx context.Context, paymentID string) (*Payment, error)

	// ResendPaymentNotification asks the gateway to redeliver its own
	// payment notification (email/SMS) for a payment.
	ResendPaymentNotification(ctx context.Context, paymentID string) error

	// GetPixQRCode fetches the PIX QR code payload for a payment.
	GetPixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error)
}

// Billing methods accepted by the gateway.
const (
	MethodBoleto     = "BOLETO"
	MethodPix        = "PIX"
	MethodCreditCard = "CREDIT_CARD"
	MethodTransfer   = "TRANSFER"
	MethodDeposit    = "DEPOSIT"
	MethodUndefined  = "UNDEFINED"
)

// ValidMethod reports whether m is a billing method the gateway accepts.
func ValidMethod(m string) bool {
	switch m {
	case MethodBoleto, MethodPix, MethodCreditCard, MethodTransfer, MethodDeposit, MethodUndefined:
		return true
	}
	return false
}

// Gateway payment statuses (subset the core cares about).
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusReceived  = "RECEIVED"
	PaymentStatusConfirmed = "CONFIRMED"
	PaymentStatusOverdue   = "OVERDUE"
	PaymentStatusRefunded  = "REFUNDED"
	PaymentStatusCancelled = "CANCELLED"
)

// Customer represents a billing party at the gateway.
type Customer struct {
	ID         string
	Name       string
	Email      string
	TaxID      string
	Phone      string
	Address    string
	AddressNum string
	District   string
	City       string
	State      string
	PostalCode string
	CreatedAt  time.Time
}

// CreateCustomerParams contains parameters for registering a customer.
// TaxID must already be normalized (digits only).
type CreateCustomerParams struct {
	Name       string
	Email      string
	TaxID      string
	Phone      string
	Address    string
	AddressNum string
	District   string
	City       string
	State      string
	PostalCode string
}

// CreatePaymentParams contains parameters for creating a charge.
type CreatePaymentParams struct {
	// CustomerID is the gateway customer identifier (cus_...).
	CustomerID string

	// Method is the billing channel (BOLETO, PIX, ...). Defaults to BOLETO
	// when empty.
	Method string

	// Value is the charge amount. Must be positive.
	Value decimal.Decimal

	// DueDate is the payment due date (date precision).
	DueDate time.Time

	// Description appears on the hosted invoice and bank slip.
	Description string

	// ExternalReference links the payment back to the local invoice number.
	// The gateway indexes it, which makes it usable as an idempotency key:
	// before retrying a create, callers search by reference first.
	ExternalReference string
}

// Payment represents a charge at the gateway.
type Payment struct {
	ID                string
	CustomerID        string
	Method            string
	Value             decimal.Decimal
	NetValue          decimal.Decimal
	Status            string
	DueDate           time.Time
	PaymentDate       *time.Time
	Description       string
	ExternalReference string
	InvoiceURL        string
	BankSlipURL       string
	CreatedAt         time.Time
}

// PixQRCode is the PIX payload for a payment.
type PixQRCode struct {
	EncodedImage   string
	Payload        string
	ExpirationDate string
}
