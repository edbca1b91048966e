package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *AsaasGateway {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gateway, err := NewAsaasGateway(AsaasConfig{
		APIKey:  "test_key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return gateway
}

func TestAsaasGateway_RequiresAPIKey(t *testing.T) {
	_, err := NewAsaasGateway(AsaasConfig{})
	require.Error(t, err)
}

func TestAsaasGateway_FindCustomerByTaxID(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/customers", r.URL.Path)
		assert.Equal(t, "12345678900", r.URL.Query().Get("cpfCnpj"))
		assert.Equal(t, "test_key", r.Header.Get("access_token"))

		json.NewEncoder(w).Encode(map[string]any{
			"totalCount": 1,
			"data": []map[string]any{{
				"id":      "cus_000001",
				"name":    "João Silva",
				"cpfCnpj": "12345678900",
			}},
		})
	})

	customer, err := gateway.FindCustomerByTaxID(context.Background(), "12345678900")
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "cus_000001", customer.ID)
	assert.Equal(t, "12345678900", customer.TaxID)
}

func TestAsaasGateway_FindCustomerByTaxID_Miss(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"totalCount": 0, "data": []any{}})
	})

	customer, err := gateway.FindCustomerByTaxID(context.Background(), "12345678900")
	require.NoError(t, err)
	assert.Nil(t, customer, "a miss is nil, nil — not an error")
}

func TestAsaasGateway_CreateCustomer(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/customers", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Transportes ACME", body["name"])
		assert.Equal(t, "12345678000195", body["cpfCnpj"])

		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cus_000002",
			"name":    body["name"],
			"cpfCnpj": body["cpfCnpj"],
		})
	})

	customer, err := gateway.CreateCustomer(context.Background(), CreateCustomerParams{
		Name:  "Transportes ACME",
		TaxID: "12345678000195",
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_000002", customer.ID)
}

func TestAsaasGateway_CreatePayment(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cus_000001", body["customer"])
		assert.Equal(t, "BOLETO", body["billingType"], "billing type defaults to BOLETO")
		assert.Equal(t, 149.90, body["value"])
		assert.Equal(t, "2026-09-10", body["dueDate"])
		assert.Equal(t, "FAT-202608-ABC", body["externalReference"])

		json.NewEncoder(w).Encode(map[string]any{
			"id":                "pay_000001",
			"customer":          "cus_000001",
			"billingType":       "BOLETO",
			"value":             149.90,
			"status":            "PENDING",
			"dueDate":           "2026-09-10",
			"externalReference": "FAT-202608-ABC",
			"invoiceUrl":        "https://sandbox.asaas.com/i/000001",
		})
	})

	payment, err := gateway.CreatePayment(context.Background(), CreatePaymentParams{
		CustomerID:        "cus_000001",
		Value:             decimal.NewFromFloat(149.90),
		DueDate:           time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		ExternalReference: "FAT-202608-ABC",
	})
	require.NoError(t, err)

	assert.Equal(t, "pay_000001", payment.ID)
	assert.Equal(t, PaymentStatusPending, payment.Status)
	assert.True(t, payment.Value.Equal(decimal.NewFromFloat(149.90)))
	assert.Equal(t, "https://sandbox.asaas.com/i/000001", payment.InvoiceURL)
}

func TestAsaasGateway_CreatePaymentWithoutID(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "PENDING"})
	})

	_, err := gateway.CreatePayment(context.Background(), CreatePaymentParams{
		CustomerID: "cus_000001",
		Value:      decimal.NewFromInt(100),
		DueDate:    time.Now(),
	})
	require.ErrorIs(t, err, ErrNoPaymentID)
}

func TestAsaasGateway_FindPaymentByReference_Miss(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FAT-MISSING", r.URL.Query().Get("externalReference"))
		json.NewEncoder(w).Encode(map[string]any{"totalCount": 0, "data": []any{}})
	})

	payment, err := gateway.FindPaymentByReference(context.Background(), "FAT-MISSING")
	require.NoError(t, err)
	assert.Nil(t, payment)
}

func TestAsaasGateway_NotFound(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := gateway.GetPayment(context.Background(), "pay_missing")
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestAsaasGateway_CustomerNotFoundIsNotAPaymentError(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := gateway.CreateCustomer(context.Background(), CreateCustomerParams{
		Name:  "Transportes ACME",
		TaxID: "12345678000195",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPaymentNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestAsaasGateway_APIError(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{
				"code":        "invalid_value",
				"description": "O valor informado é inválido",
			}},
		})
	})

	_, err := gateway.CreatePayment(context.Background(), CreatePaymentParams{
		CustomerID: "cus_000001",
		Value:      decimal.NewFromInt(-1),
		DueDate:    time.Now(),
	})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_value", apiErr.Code)
	assert.False(t, apiErr.IsTemporary())
}

func TestAPIError_IsTemporary(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: http.StatusInternalServerError}).IsTemporary())
	assert.True(t, (&APIError{StatusCode: http.StatusTooManyRequests}).IsTemporary())
	assert.False(t, (&APIError{StatusCode: http.StatusBadRequest}).IsTemporary())
	assert.False(t, (&APIError{StatusCode: http.StatusUnauthorized}).IsTemporary())
}

func TestAsaasGateway_GetPixQRCode(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_000001/pixQrCode", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"encodedImage":   "iVBORw0KGgo=",
			"payload":        "00020126580014br.gov.bcb.pix",
			"expirationDate": "2026-09-10 23:59:59",
		})
	})

	qr, err := gateway.GetPixQRCode(context.Background(), "pay_000001")
	require.NoError(t, err)
	assert.Equal(t, "iVBORw0KGgo=", qr.EncodedImage)
	assert.NotEmpty(t, qr.Payload)
}
