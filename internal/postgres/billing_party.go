package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rmaciel/voltrack/internal/domain"
)

// BillingPartyStore implements domain.BillingPartyStore using PostgreSQL.
type BillingPartyStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that BillingPartyStore implements domain.BillingPartyStore.
var _ domain.BillingPartyStore = (*BillingPartyStore)(nil)

// NewBillingPartyStore creates a new PostgreSQL-backed billing-party cache.
func NewBillingPartyStore(pool *pgxpool.Pool) *BillingPartyStore {
	return &BillingPartyStore{pool: pool}
}

// Upsert writes through the tax-ID → gateway-customer mapping.
func (s *BillingPartyStore) Upsert(ctx context.Context, party domain.BillingParty) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO billing_parties (tax_id, gateway_customer_id, name, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tax_id) DO UPDATE
		SET gateway_customer_id = EXCLUDED.gateway_customer_id,
		    name = EXCLUDED.name,
		    email = EXCLUDED.email`,
		party.TaxID, party.GatewayCustomerID, party.Name, party.Email)
	if err != nil {
		return domain.Internal(err, "billing_party.upsert", "failed to upsert billing party")
	}
	return nil
}

// GetByTaxID looks up the cached gateway customer for a normalized tax ID.
func (s *BillingPartyStore) GetByTaxID(ctx context.Context, taxID string) (*domain.BillingParty, error) {
	var party domain.BillingParty
	err := s.pool.QueryRow(ctx, `
		SELECT tax_id, gateway_customer_id, name, email, created_at
		FROM billing_parties WHERE tax_id = $1`, taxID).
		Scan(&party.TaxID, &party.GatewayCustomerID, &party.Name, &party.Email, &party.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("billing_party.get", "billing party", taxID)
		}
		return nil, domain.Internal(err, "billing_party.get", "failed to get billing party")
	}

	return &party, nil
}
