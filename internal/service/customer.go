package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rmaciel/voltrack/internal/billing"
	"github.com/rmaciel/voltrack/internal/domain"
)

// ResolveCustomerParams contains the profile used when a billing party must
// be created at the gateway. TaxID may still carry punctuation.
type ResolveCustomerParams struct {
	TaxID      string
	Name       string
	Email      string
	Phone      string
	Address    string
	AddressNum string
	District   string
	City       string
	State      string
	PostalCode string
}

// CustomerResolver finds or creates the gateway billing party for a tax ID.
// A local cache table short-circuits repeat lookups; a cache miss always
// re-checks the gateway before creating, and the search-then-create race is
// accepted (the gateway has no upsert primitive).
type CustomerResolver struct {
	gateway billing.Gateway
	cache   domain.BillingPartyStore
	logger  zerolog.Logger
}

// NewCustomerResolver creates a resolver. The cache store is required; cache
// failures are logged and never fail resolution.
func NewCustomerResolver(gateway billing.Gateway, cache domain.BillingPartyStore, logger zerolog.Logger) *CustomerResolver {
	return &CustomerResolver{
		gateway: gateway,
		cache:   cache,
		logger:  logger,
	}
}

// Resolve normalizes the tax ID, then resolves the gateway customer:
// local cache, gateway search, gateway create, in that order. Malformed tax
// IDs fail before any network call. Gateway failures propagate unretried.
func (r *CustomerResolver) Resolve(ctx context.Context, params ResolveCustomerParams) (*billing.Customer, error) {
	taxID, err := domain.NormalizeTaxID(params.TaxID)
	if err != nil {
		return nil, err
	}

	if cached, err := r.cache.GetByTaxID(ctx, taxID); err == nil {
		return &billing.Customer{
			ID:    cached.GatewayCustomerID,
			Name:  cached.Name,
			Email: cached.Email,
			TaxID: cached.TaxID,
		}, nil
	} else if !domain.IsCode(err, domain.ENOTFOUND) {
		r.logger.Warn().Err(err).Str("tax_id", taxID).Msg("billing party cache lookup failed")
	}

	existing, err := r.gateway.FindCustomerByTaxID(ctx, taxID)
	if err != nil {
		return nil, domain.Gateway(err, "customer.resolve", "customer search failed")
	}
	if existing != nil {
		r.cacheParty(ctx, existing)
		return existing, nil
	}

	created, err := r.gateway.CreateCustomer(ctx, billing.CreateCustomerParams{
		Name:       params.Name,
		Email:      params.Email,
		TaxID:      taxID,
		Phone:      params.Phone,
		Address:    params.Address,
		AddressNum: params.AddressNum,
		District:   params.District,
		City:       params.City,
		State:      params.State,
		PostalCode: params.PostalCode,
	})
	if err != nil {
		return nil, domain.Gateway(err, "customer.resolve", "customer creation failed")
	}

	r.cacheParty(ctx, created)
	return created, nil
}

// cacheParty writes through the local mapping. Best effort only.
func (r *CustomerResolver) cacheParty(ctx context.Context, customer *billing.Customer) {
	err := r.cache.Upsert(ctx, domain.BillingParty{
		TaxID:             customer.TaxID,
		GatewayCustomerID: customer.ID,
		Name:              customer.Name,
		Email:             customer.Email,
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("tax_id", customer.TaxID).Msg("failed to cache billing party")
	}
}
