package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockGateway is a mock payment gateway for testing.
// Simulates the Asaas flows without any network calls.
type MockGateway struct {
	// FindCustomerByTaxIDFunc allows customizing customer search behavior
	FindCustomerByTaxIDFunc func(ctx context.Context, taxID string) (*Customer, error)

	// CreateCustomerFunc allows customizing customer creation behavior
	CreateCustomerFunc func(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// CreatePaymentFunc allows customizing payment creation behavior
	CreatePaymentFunc func(ctx context.Context, params CreatePaymentParams) (*Payment, error)

	// FindPaymentByReferenceFunc allows customizing reference search behavior
	FindPaymentByReferenceFunc func(ctx context.Context, externalReference string) (*Payment, error)

	// Customers stores created customers keyed by ID
	Customers map[string]*Customer

	// Payments stores created payments keyed by ID
	Payments map[string]*Payment

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// Compile-time check that MockGateway implements Gateway.
var _ Gateway = (*MockGateway)(nil)

// NewMockGateway creates a new mock payment gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Customers: make(map[string]*Customer),
		Payments:  make(map[string]*Payment),
		CallLog:   []string{},
	}
}

// FindCustomerByTaxID searches stored customers by tax document.
func (m *MockGateway) FindCustomerByTaxID(ctx context.Context, taxID string) (*Customer, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("FindCustomerByTaxID(%s)", taxID))

	if m.FindCustomerByTaxIDFunc != nil {
		return m.FindCustomerByTaxIDFunc(ctx, taxID)
	}

	for _, customer := range m.Customers {
		if customer.TaxID == taxID {
			return customer, nil
		}
	}
	return nil, nil // Not found
}

// CreateCustomer creates a mock customer.
func (m *MockGateway) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCustomer(%s)", params.TaxID))

	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, params)
	}

	customer := &Customer{
		ID:        "cus_" + uuid.New().String()[:8],
		Name:      params.Name,
		Email:     params.Email,
		TaxID:     params.TaxID,
		Phone:     params.Phone,
		CreatedAt: time.Now(),
	}

	m.Customers[customer.ID] = customer
	return customer, nil
}

// CreatePayment creates a mock payment.
func (m *MockGateway) CreatePayment(ctx context.Context, params CreatePaymentParams) (*Payment, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreatePayment(%s, %s)", params.CustomerID, params.ExternalReference))

	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, params)
	}

	method := params.Method
	if method == "" {
		method = MethodBoleto
	}

	payment := &Payment{
		ID:                "pay_" + uuid.New().String()[:8],
		CustomerID:        params.CustomerID,
		Method:            method,
		Value:             params.Value,
		Status:            PaymentStatusPending,
		DueDate:           params.DueDate,
		Description:       params.Description,
		ExternalReference: params.ExternalReference,
		InvoiceURL:        "https://sandbox.asaas.com/i/" + uuid.New().String()[:8],
		CreatedAt:         time.Now(),
	}

	m.Payments[payment.ID] = payment
	return payment, nil
}

// GetPayment retrieves a stored mock payment.
func (m *MockGateway) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetPayment(%s)", paymentID))

	payment, exists := m.Payments[paymentID]
	if !exists {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// FindPaymentByReference searches stored payments by external reference.
func (m *MockGateway) FindPaymentByReference(ctx context.Context, externalReference string) (*Payment, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("FindPaymentByReference(%s)", externalReference))

	if m.FindPaymentByReferenceFunc != nil {
		return m.FindPaymentByReferenceFunc(ctx, externalReference)
	}

	for _, payment := range m.Payments {
		if payment.ExternalReference == externalReference {
			return payment, nil
		}
	}
	return nil, nil // Not found
}

// CancelPayment cancels a stored mock payment.
func (m *MockGateway) CancelPayment(ctx context.Context, paymentID string) error {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CancelPayment(%s)", paymentID))

	payment, exists := m.Payments[paymentID]
	if !exists {
		return ErrPaymentNotFound
	}

	payment.Status = PaymentStatusCancelled
	return nil
}

// RefundPayment refunds a stored mock payment.
func (m *MockGateway) RefundPayment(ctx context.Context, paymentID string) (*Payment, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("RefundPayment(%s)", paymentID))

	payment, exists := m.Payments[paymentID]
	if !exists {
		return nil, ErrPaymentNotFound
	}

	payment.Status = PaymentStatusRefunded
	return payment, nil
}

// ResendPaymentNotification records the resend request.
func (m *MockGateway) ResendPaymentNotification(ctx context.Context, paymentID string) error {
	m.CallLog = append(m.CallLog, fmt.Sprintf("ResendPaymentNotification(%s)", paymentID))

	if _, exists := m.Payments[paymentID]; !exists {
		return ErrPaymentNotFound
	}
	return nil
}

// GetPixQRCode returns a stub PIX payload for a stored payment.
func (m *MockGateway) GetPixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetPixQRCode(%s)", paymentID))

	if _, exists := m.Payments[paymentID]; !exists {
		return nil, ErrPaymentNotFound
	}

	return &PixQRCode{
		EncodedImage: "iVBORw0KGgo=",
		Payload:      "00020126580014br.gov.bcb.pix" + paymentID,
	}, nil
}

// SimulateReceivedPayment updates a payment to received status.
// Used in tests to simulate payment confirmation.
func (m *MockGateway) SimulateReceivedPayment(paymentID string) error {
	payment, exists := m.Payments[paymentID]
	if !exists {
		return ErrPaymentNotFound
	}

	now := time.Now()
	payment.Status = PaymentStatusReceived
	payment.PaymentDate = &now
	return nil
}
