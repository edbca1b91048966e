package events

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Publisher emits billing events. Implementations must never fail the
// originating operation: publish errors are logged and swallowed.
type Publisher interface {
	InvoiceCreated(event InvoiceCreated)
	FleetBlocked(event FleetBlocked)
}

// NATSPublisher publishes billing events to a NATS connection.
type NATSPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// Compile-time check that NATSPublisher implements Publisher.
var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher creates a publisher over an established connection.
func NewNATSPublisher(conn *nats.Conn, logger zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, logger: logger}
}

// InvoiceCreated publishes an invoice-created event.
func (p *NATSPublisher) InvoiceCreated(event InvoiceCreated) {
	p.publish(SubjectInvoiceCreated, event)
}

// FleetBlocked publishes a fleet-blocked event.
func (p *NATSPublisher) FleetBlocked(event FleetBlocked) {
	p.publish(SubjectFleetBlocked, event)
}

func (p *NATSPublisher) publish(subject string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to marshal event")
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

// NopPublisher discards all events. Used when NATS is not configured.
type NopPublisher struct{}

// Compile-time check that NopPublisher implements Publisher.
var _ Publisher = (*NopPublisher)(nil)

func (NopPublisher) InvoiceCreated(event InvoiceCreated) {}
func (NopPublisher) FleetBlocked(event FleetBlocked)     {}
