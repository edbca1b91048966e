package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const asaasDateLayout = "2006-01-02"

// AsaasGateway implements the Gateway interface against the Asaas REST API.
type AsaasGateway struct {
	config     AsaasConfig
	httpClient *http.Client
}

// Compile-time check that AsaasGateway implements Gateway.
var _ Gateway = (*AsaasGateway)(nil)

// NewAsaasGateway creates a gateway client from validated configuration.
func NewAsaasGateway(config AsaasConfig) (*AsaasGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.TimeoutSeconds
	if timeout == 0 {
		timeout = 30
	}

	return &AsaasGateway{
		config:     config,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

// =============================================================================
// Wire types
// =============================================================================

type asaasCustomer struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	CpfCnpj      string `json:"cpfCnpj"`
	MobilePhone  string `json:"mobilePhone,omitempty"`
	Address      string `json:"address,omitempty"`
	AddressNum   string `json:"addressNumber,omitempty"`
	Province     string `json:"province,omitempty"`
	City         string `json:"cityName,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	DateCreated  string `json:"dateCreated,omitempty"`
}

type asaasPayment struct {
	ID                string  `json:"id,omitempty"`
	Customer          string  `json:"customer"`
	BillingType       string  `json:"billingType"`
	Value             float64 `json:"value"`
	NetValue          float64 `json:"netValue,omitempty"`
	DueDate           string  `json:"dueDate"`
	Description       string  `json:"description,omitempty"`
	ExternalReference string  `json:"externalReference,omitempty"`
	Status            string  `json:"status,omitempty"`
	PaymentDate       string  `json:"paymentDate,omitempty"`
	InvoiceURL        string  `json:"invoiceUrl,omitempty"`
	BankSlipURL       string  `json:"bankSlipUrl,omitempty"`
	DateCreated       string  `json:"dateCreated,omitempty"`
}

type asaasList[T any] struct {
	TotalCount int `json:"totalCount"`
	Data       []T `json:"data"`
}

type asaasPixQRCode struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

type asaasErrorResponse struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

// =============================================================================
// Customer operations
// =============================================================================

// FindCustomerByTaxID searches customers by cpfCnpj.
// Returns nil, nil when no record matches.
func (g *AsaasGateway) FindCustomerByTaxID(ctx context.Context, taxID string) (*Customer, error) {
	query := url.Values{"cpfCnpj": {taxID}}

	var list asaasList[asaasCustomer]
	if err := g.do(ctx, http.MethodGet, "/customers?"+query.Encode(), nil, &list); err != nil {
		return nil, err
	}

	if len(list.Data) == 0 {
		return nil, nil
	}

	customer := mapAsaasCustomer(list.Data[0])
	return &customer, nil
}

// CreateCustomer registers a billing party with the gateway.
func (g *AsaasGateway) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	payload := asaasCustomer{
		Name:        params.Name,
		Email:       params.Email,
		CpfCnpj:     params.TaxID,
		MobilePhone: params.Phone,
		Address:     params.Address,
		AddressNum:  params.AddressNum,
		Province:    params.District,
		City:        params.City,
		State:       params.State,
		PostalCode:  params.PostalCode,
	}

	var created asaasCustomer
	if err := g.do(ctx, http.MethodPost, "/customers", payload, &created); err != nil {
		return nil, err
	}

	customer := mapAsaasCustomer(created)
	return &customer, nil
}

// =============================================================================
// Payment operations
// =============================================================================

// CreatePayment creates a charge for a customer.
func (g *AsaasGateway) CreatePayment(ctx context.Context, params CreatePaymentParams) (*Payment, error) {
	method := params.Method
	if method == "" {
		method = MethodBoleto
	}

	payload := asaasPayment{
		Customer:          params.CustomerID,
		BillingType:       method,
		Value:             params.Value.InexactFloat64(),
		DueDate:           params.DueDate.Format(asaasDateLayout),
		Description:       params.Description,
		ExternalReference: params.ExternalReference,
	}

	var created asaasPayment
	if err := g.do(ctx, http.MethodPost, "/payments", payload, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, ErrNoPaymentID
	}

	payment := mapAsaasPayment(created)
	return &payment, nil
}

// GetPayment retrieves a payment by identifier.
func (g *AsaasGateway) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var found asaasPayment
	if err := g.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &found); err != nil {
		return nil, err
	}

	payment := mapAsaasPayment(found)
	return &payment, nil
}

// FindPaymentByReference searches payments by external reference.
// Returns nil, nil when no record matches.
func (g *AsaasGateway) FindPaymentByReference(ctx context.Context, externalReference string) (*Payment, error) {
	query := url.Values{"externalReference": {externalReference}}

	var list asaasList[asaasPayment]
	if err := g.do(ctx, http.MethodGet, "/payments?"+query.Encode(), nil, &list); err != nil {
		return nil, err
	}

	if len(list.Data) == 0 {
		return nil, nil
	}

	payment := mapAsaasPayment(list.Data[0])
	return &payment, nil
}

// CancelPayment removes a payment that was not received yet.
func (g *AsaasGateway) CancelPayment(ctx context.Context, paymentID string) error {
	return g.do(ctx, http.MethodDelete, "/payments/"+paymentID, nil, nil)
}

// RefundPayment refunds a received payment.
func (g *AsaasGateway) RefundPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var refunded asaasPayment
	if err := g.do(ctx, http.MethodPost, "/payments/"+paymentID+"/refund", nil, &refunded); err != nil {
		return nil, err
	}

	payment := mapAsaasPayment(refunded)
	return &payment, nil
}

// ResendPaymentNotification asks the gateway to redeliver its notification.
func (g *AsaasGateway) ResendPaymentNotification(ctx context.Context, paymentID string) error {
	return g.do(ctx, http.MethodPost, "/payments/"+paymentID+"/resendNotification", nil, nil)
}

// GetPixQRCode fetches the PIX payload for a payment.
func (g *AsaasGateway) GetPixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error) {
	var qr asaasPixQRCode
	if err := g.do(ctx, http.MethodGet, "/payments/"+paymentID+"/pixQrCode", nil, &qr); err != nil {
		return nil, err
	}

	return &PixQRCode{
		EncodedImage:   qr.EncodedImage,
		Payload:        qr.Payload,
		ExpirationDate: qr.ExpirationDate,
	}, nil
}

// =============================================================================
// HTTP plumbing
// =============================================================================

// do executes a gateway request and decodes the JSON response into out.
// Non-2xx responses are parsed into an APIError.
func (g *AsaasGateway) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.config.baseURL()+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("access_token", g.config.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/payments") {
			return ErrPaymentNotFound
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Description: string(respBody)}
		var parsed asaasErrorResponse
		if err := json.Unmarshal(respBody, &parsed); err == nil && len(parsed.Errors) > 0 {
			apiErr.Code = parsed.Errors[0].Code
			apiErr.Description = parsed.Errors[0].Description
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// =============================================================================
// Mapping helpers
// =============================================================================

func mapAsaasCustomer(c asaasCustomer) Customer {
	return Customer{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		TaxID:      c.CpfCnpj,
		Phone:      c.MobilePhone,
		Address:    c.Address,
		AddressNum: c.AddressNum,
		District:   c.Province,
		City:       c.City,
		State:      c.State,
		PostalCode: c.PostalCode,
		CreatedAt:  parseAsaasDate(c.DateCreated),
	}
}

func mapAsaasPayment(p asaasPayment) Payment {
	payment := Payment{
		ID:                p.ID,
		CustomerID:        p.Customer,
		Method:            p.BillingType,
		Value:             decimal.NewFromFloat(p.Value),
		NetValue:          decimal.NewFromFloat(p.NetValue),
		Status:            p.Status,
		DueDate:           parseAsaasDate(p.DueDate),
		Description:       p.Description,
		ExternalReference: p.ExternalReference,
		InvoiceURL:        p.InvoiceURL,
		BankSlipURL:       p.BankSlipURL,
		CreatedAt:         parseAsaasDate(p.DateCreated),
	}

	if p.PaymentDate != "" {
		paid := parseAsaasDate(p.PaymentDate)
		payment.PaymentDate = &paid
	}

	return payment
}

// parseAsaasDate parses the gateway's date format, tolerating empty values.
func parseAsaasDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(asaasDateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
