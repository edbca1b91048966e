package domain

import (
	"context"
	"time"
)

// BillingParty is the local cache entry mapping a normalized tax ID to the
// customer record issued by the payment gateway. The Customer Resolver writes
// through this cache so repeated invoicing for the same client skips the
// gateway search. A local miss always falls back to the gateway; the cache
// reduces, but does not prevent, the duplicate-creation race.
type BillingParty struct {
	TaxID             string
	GatewayCustomerID string
	Name              string
	Email             string
	CreatedAt         time.Time
}

// BillingPartyStore is the persistence contract for the billing-party cache.
type BillingPartyStore interface {
	Upsert(ctx context.Context, party BillingParty) error
	GetByTaxID(ctx context.Context, taxID string) (*BillingParty, error)
}
