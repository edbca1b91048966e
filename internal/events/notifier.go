package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/rmaciel/voltrack/internal/messaging"
	"github.com/rmaciel/voltrack/internal/telemetry"
)

// Notifier subscribes to billing events and delivers WhatsApp notifications
// to clients. Delivery failures are logged; they never propagate back into
// the billing operations that published the events.
type Notifier struct {
	conn       *nats.Conn
	dispatcher *messaging.Dispatcher
	metrics    *telemetry.BusinessMetrics
	logger     zerolog.Logger

	subs []*nats.Subscription
}

// NewNotifier creates a notifier over an established NATS connection.
func NewNotifier(conn *nats.Conn, dispatcher *messaging.Dispatcher, metrics *telemetry.BusinessMetrics, logger zerolog.Logger) *Notifier {
	return &Notifier{
		conn:       conn,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// Start subscribes to the billing subjects. Call Stop on shutdown.
func (n *Notifier) Start() error {
	invoiceSub, err := n.conn.Subscribe(SubjectInvoiceCreated, n.handleInvoiceCreated)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectInvoiceCreated, err)
	}
	n.subs = append(n.subs, invoiceSub)

	blockedSub, err := n.conn.Subscribe(SubjectFleetBlocked, n.handleFleetBlocked)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectFleetBlocked, err)
	}
	n.subs = append(n.subs, blockedSub)

	return nil
}

// Stop drains the subscriptions.
func (n *Notifier) Stop() {
	for _, sub := range n.subs {
		_ = sub.Drain()
	}
}

func (n *Notifier) handleInvoiceCreated(msg *nats.Msg) {
	var event InvoiceCreated
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		n.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to decode event")
		return
	}

	if event.ClientPhone == "" {
		n.logger.Debug().
			Str("invoice_number", event.InvoiceNumber).
			Msg("client has no phone, skipping invoice notification")
		return
	}

	text := InvoiceCreatedText(event)
	if _, err := n.dispatcher.Dispatch(context.Background(), event.ClientPhone, text); err != nil {
		n.metrics.NotificationsFailed.Inc()
		n.logger.Error().
			Err(err).
			Str("invoice_number", event.InvoiceNumber).
			Str("client_id", event.ClientID.String()).
			Msg("failed to deliver invoice notification")
		return
	}
	n.metrics.NotificationsSent.Inc()
}

func (n *Notifier) handleFleetBlocked(msg *nats.Msg) {
	var event FleetBlocked
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		n.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to decode event")
		return
	}

	if event.ClientPhone == "" {
		n.logger.Debug().
			Str("invoice_number", event.InvoiceNumber).
			Msg("client has no phone, skipping blocking notification")
		return
	}

	text := FleetBlockedText(event)
	if _, err := n.dispatcher.Dispatch(context.Background(), event.ClientPhone, text); err != nil {
		n.metrics.NotificationsFailed.Inc()
		n.logger.Error().
			Err(err).
			Str("invoice_number", event.InvoiceNumber).
			Str("client_id", event.ClientID.String()).
			Msg("failed to deliver blocking notification")
		return
	}
	n.metrics.NotificationsSent.Inc()
}

// InvoiceCreatedText renders the payment notification message.
func InvoiceCreatedText(event InvoiceCreated) string {
	text := fmt.Sprintf(
		"Olá %s! Sua fatura %s no valor de R$ %s foi gerada, com vencimento em %s.",
		event.ClientName, event.InvoiceNumber, event.Amount, event.DueDate.Format("02/01/2006"),
	)
	if event.InvoiceURL != "" {
		text += " Pague em: " + event.InvoiceURL
	}
	return text
}

// FleetBlockedText renders the fleet blocking notice.
func FleetBlockedText(event FleetBlocked) string {
	return fmt.Sprintf(
		"Olá %s. A fatura %s está vencida e o rastreamento dos seus veículos foi bloqueado. Regularize o pagamento para reativar o serviço.",
		event.ClientName, event.InvoiceNumber,
	)
}
