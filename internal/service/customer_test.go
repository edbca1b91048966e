package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaciel/voltrack/internal/billing"
	"github.com/rmaciel/voltrack/internal/domain"
)

func TestCustomerResolver_CacheHit(t *testing.T) {
	gateway := billing.NewMockGateway()
	cache := newMemBillingPartyStore()
	cache.parties["12345678900"] = domain.BillingParty{
		TaxID:             "12345678900",
		GatewayCustomerID: "cus_cached",
		Name:              "João Silva",
	}

	resolver := NewCustomerResolver(gateway, cache, zerolog.Nop())

	customer, err := resolver.Resolve(context.Background(), ResolveCustomerParams{
		TaxID: "123.456.789-00",
		Name:  "João Silva",
	})
	require.NoError(t, err)

	assert.Equal(t, "cus_cached", customer.ID)
	assert.Empty(t, gateway.CallLog, "cache hit must not touch the gateway")
}

func TestCustomerResolver_GatewaySearchFound(t *testing.T) {
	gateway := billing.NewMockGateway()
	gateway.Customers["cus_existing"] = &billing.Customer{
		ID:    "cus_existing",
		Name:  "João Silva",
		TaxID: "12345678900",
	}
	cache := newMemBillingPartyStore()

	resolver := NewCustomerResolver(gateway, cache, zerolog.Nop())

	customer, err := resolver.Resolve(context.Background(), ResolveCustomerParams{
		TaxID: "123.456.789-00",
		Name:  "João Silva",
	})
	require.NoError(t, err)

	assert.Equal(t, "cus_existing", customer.ID)
	assert.Equal(t, []string{"FindCustomerByTaxID(12345678900)"}, gateway.CallLog,
		"existing customer must not be created again")

	cached, err := cache.GetByTaxID(context.Background(), "12345678900")
	require.NoError(t, err)
	assert.Equal(t, "cus_existing", cached.GatewayCustomerID)
}

func TestCustomerResolver_CreatesWhenMissing(t *testing.T) {
	gateway := billing.NewMockGateway()
	cache := newMemBillingPartyStore()

	resolver := NewCustomerResolver(gateway, cache, zerolog.Nop())

	customer, err := resolver.Resolve(context.Background(), ResolveCustomerParams{
		TaxID: "12.345.678/0001-95",
		Name:  "Transportes ACME",
		Email: "financeiro@acme.com.br",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, customer.ID)
	assert.Equal(t, "12345678000195", customer.TaxID)
	assert.Equal(t, []string{
		"FindCustomerByTaxID(12345678000195)",
		"CreateCustomer(12345678000195)",
	}, gateway.CallLog)

	cached, err := cache.GetByTaxID(context.Background(), "12345678000195")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, cached.GatewayCustomerID)
}

func TestCustomerResolver_MalformedTaxID(t *testing.T) {
	gateway := billing.NewMockGateway()
	resolver := NewCustomerResolver(gateway, newMemBillingPartyStore(), zerolog.Nop())

	_, err := resolver.Resolve(context.Background(), ResolveCustomerParams{TaxID: "12.345"})
	require.Error(t, err)

	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Empty(t, gateway.CallLog, "malformed tax ID must fail before any network call")
}

func TestCustomerResolver_GatewaySearchError(t *testing.T) {
	gateway := billing.NewMockGateway()
	gateway.FindCustomerByTaxIDFunc = func(context.Context, string) (*billing.Customer, error) {
		return nil, errors.New("connection refused")
	}
	resolver := NewCustomerResolver(gateway, newMemBillingPartyStore(), zerolog.Nop())

	_, err := resolver.Resolve(context.Background(), ResolveCustomerParams{TaxID: "12345678900"})
	require.Error(t, err)
	assert.Equal(t, domain.EGATEWAY, domain.ErrorCode(err))
}

func TestCustomerResolver_CacheFailureDoesNotFailResolution(t *testing.T) {
	gateway := billing.NewMockGateway()
	cache := newMemBillingPartyStore()
	cache.upsertErr = errors.New("disk full")

	resolver := NewCustomerResolver(gateway, cache, zerolog.Nop())

	customer, err := resolver.Resolve(context.Background(), ResolveCustomerParams{
		TaxID: "12345678900",
		Name:  "João Silva",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, customer.ID)
}
