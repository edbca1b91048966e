package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rmaciel/voltrack/internal/billing"
	"github.com/rmaciel/voltrack/internal/domain"
	"github.com/rmaciel/voltrack/internal/events"
	"github.com/rmaciel/voltrack/internal/telemetry"
)

// CreateInvoiceInput contains parameters for creating an invoice with its
// remote payment. Number is generated when empty (manual charges).
type CreateInvoiceInput struct {
	ClientID    uuid.UUID
	ChecklistID *uuid.UUID
	Number      string
	Description string
	Amount      decimal.Decimal
	DueDate     time.Time

	// Method is the gateway billing channel. Defaults to BOLETO.
	Method string

	// FallbackEmail and FallbackPhone fill gaps in the client profile when
	// the billing party must be created at the gateway.
	FallbackEmail string
	FallbackPhone string

	// Origin labels metrics: "manual" or "monthly".
	Origin string
}

// ReconcileReport summarizes one reconciliation sweep.
type ReconcileReport struct {
	Attached int
	Retried  int
	Flagged  int
	Failed   int
}

// InvoiceService orchestrates invoice creation against the payment gateway
// and owns the invoice lifecycle operations.
type InvoiceService struct {
	invoices  domain.InvoiceStore
	clients   domain.ClientStore
	resolver  *CustomerResolver
	gateway   billing.Gateway
	publisher events.Publisher
	metrics   *telemetry.BusinessMetrics
	logger    zerolog.Logger

	// now is injectable for tests. Defaults to time.Now.
	now func() time.Time
}

// NewInvoiceService creates the invoice service.
func NewInvoiceService(
	invoices domain.InvoiceStore,
	clients domain.ClientStore,
	resolver *CustomerResolver,
	gateway billing.Gateway,
	publisher events.Publisher,
	metrics *telemetry.BusinessMetrics,
	logger zerolog.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices:  invoices,
		clients:   clients,
		resolver:  resolver,
		gateway:   gateway,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Create runs the two-phase invoice write:
//
//  1. Validate input and the client's tax document (no partial state on
//     validation failure).
//  2. Stage the local invoice row with an empty gateway reference.
//  3. Resolve the billing party and create the remote payment, using the
//     invoice number as the gateway external reference (idempotency key).
//  4. Attach the gateway payment ID to the staged row.
//
// A synchronous gateway failure removes the staged row, so the caller never
// observes a local invoice without a corresponding remote payment. A crash
// between payment creation and attachment leaves a pending-remote row that
// the reconciliation sweep resolves by external reference.
func (s *InvoiceService) Create(ctx context.Context, input CreateInvoiceInput) (*domain.Invoice, error) {
	if err := s.validateCreate(input); err != nil {
		s.metrics.InvoiceCreateFailed.WithLabelValues("validation").Inc()
		return nil, err
	}

	client, err := s.clients.GetByID(ctx, input.ClientID)
	if err != nil {
		s.metrics.InvoiceCreateFailed.WithLabelValues("validation").Inc()
		return nil, err
	}

	if _, err := domain.NormalizeTaxID(client.TaxID); err != nil {
		s.metrics.InvoiceCreateFailed.WithLabelValues("validation").Inc()
		return nil, domain.Errorf(domain.EINVALID, "invoice.create", "client %s has a malformed tax document", client.ID)
	}

	number := input.Number
	if number == "" {
		number = s.generateNumber()
	}

	staged, err := s.invoices.Create(ctx, domain.CreateInvoiceParams{
		ClientID:    input.ClientID,
		ChecklistID: input.ChecklistID,
		Number:      number,
		Description: input.Description,
		Amount:      input.Amount,
		DueDate:     input.DueDate,
	})
	if err != nil {
		s.metrics.InvoiceCreateFailed.WithLabelValues("storage").Inc()
		return nil, err
	}

	payment, err := s.createRemotePayment(ctx, client, staged, input)
	if err != nil {
		s.rollbackStaged(ctx, staged.ID)
		s.metrics.InvoiceCreateFailed.WithLabelValues("gateway").Inc()
		return nil, err
	}

	if err := s.invoices.AttachGatewayPayment(ctx, staged.ID, payment.ID); err != nil {
		// The remote payment exists; the sweep will attach it by external
		// reference. Do not roll back.
		s.logger.Error().
			Err(err).
			Str("invoice_number", staged.Number).
			Str("gateway_payment_id", payment.ID).
			Msg("failed to attach gateway payment, leaving row for reconciliation")
	}
	staged.GatewayPaymentID = payment.ID

	origin := input.Origin
	if origin == "" {
		origin = "manual"
	}
	s.metrics.InvoicesCreated.WithLabelValues(origin).Inc()
	s.metrics.InvoiceValue.Observe(staged.Amount.InexactFloat64())

	s.publisher.InvoiceCreated(events.InvoiceCreated{
		InvoiceID:     staged.ID,
		ClientID:      client.ID,
		InvoiceNumber: staged.Number,
		Amount:        staged.Amount.StringFixed(2),
		DueDate:       staged.DueDate,
		InvoiceURL:    payment.InvoiceURL,
		ClientName:    client.Name,
		ClientPhone:   client.Phone,
		CreatedAt:     staged.CreatedAt,
	})

	s.logger.Info().
		Str("invoice_number", staged.Number).
		Str("client_id", client.ID.String()).
		Str("gateway_payment_id", payment.ID).
		Str("amount", staged.Amount.String()).
		Msg("invoice created")

	return staged, nil
}

func (s *InvoiceService) validateCreate(input CreateInvoiceInput) error {
	if input.ClientID == uuid.Nil {
		return domain.Invalid("invoice.create", "client is required")
	}
	if !input.Amount.IsPositive() {
		return domain.Invalid("invoice.create", "amount must be positive")
	}
	if input.DueDate.IsZero() {
		return domain.Invalid("invoice.create", "due date is required")
	}
	if input.Method != "" && !billing.ValidMethod(input.Method) {
		return domain.Errorf(domain.EINVALID, "invoice.create", "unknown billing method: %s", input.Method)
	}
	return nil
}

// createRemotePayment resolves the billing party and creates the gateway
// payment for a staged invoice.
func (s *InvoiceService) createRemotePayment(ctx context.Context, client *domain.Client, staged *domain.Invoice, input CreateInvoiceInput) (*billing.Payment, error) {
	email := client.Email
	if email == "" {
		email = input.FallbackEmail
	}
	phone := client.Phone
	if phone == "" {
		phone = input.FallbackPhone
	}

	customer, err := s.resolver.Resolve(ctx, ResolveCustomerParams{
		TaxID:      client.TaxID,
		Name:       client.Name,
		Email:      email,
		Phone:      phone,
		Address:    client.Address,
		AddressNum: client.AddressNum,
		District:   client.District,
		City:       client.City,
		State:      client.State,
		PostalCode: client.PostalCode,
	})
	if err != nil {
		s.metrics.GatewayErrors.WithLabelValues("resolve_customer").Inc()
		return nil, err
	}

	payment, err := s.gateway.CreatePayment(ctx, billing.CreatePaymentParams{
		CustomerID:        customer.ID,
		Method:            input.Method,
		Value:             staged.Amount,
		DueDate:           staged.DueDate,
		Description:       staged.Description,
		ExternalReference: staged.Number,
	})
	if err != nil {
		s.metrics.GatewayErrors.WithLabelValues("create_payment").Inc()
		return nil, domain.Gateway(err, "invoice.create", "payment creation failed")
	}
	if payment.ID == "" {
		s.metrics.GatewayErrors.WithLabelValues("create_payment").Inc()
		return nil, domain.Gateway(billing.ErrNoPaymentID, "invoice.create", "payment creation returned no identifier")
	}

	return payment, nil
}

// rollbackStaged removes a staged row after a synchronous gateway failure.
func (s *InvoiceService) rollbackStaged(ctx context.Context, id uuid.UUID) {
	if err := s.invoices.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("invoice_id", id.String()).Msg("failed to roll back staged invoice")
	}
}

// generateNumber builds a manual-charge invoice number.
func (s *InvoiceService) generateNumber() string {
	suffix := strings.ToUpper(uuid.New().String()[:8])
	return "MAN-" + s.now().Format("200601") + "-" + suffix
}

// Get retrieves an invoice by ID.
func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

// GetByNumber retrieves an invoice by its unique number.
func (s *InvoiceService) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	return s.invoices.GetByNumber(ctx, number)
}

// List returns invoices matching the filter.
func (s *InvoiceService) List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	return s.invoices.List(ctx, filter)
}

// MarkPaid transitions a pending invoice to paid.
func (s *InvoiceService) MarkPaid(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !invoice.Status.CanTransitionTo(domain.InvoiceStatusPaid) {
		return nil, domain.Errorf(domain.ECONFLICT, "invoice.mark_paid", "cannot mark %s invoice as paid", invoice.Status)
	}

	paidAt := s.now()
	if err := s.invoices.UpdateStatus(ctx, id, domain.InvoiceStatusPaid, &paidAt); err != nil {
		return nil, err
	}

	invoice.Status = domain.InvoiceStatusPaid
	invoice.PaidAt = &paidAt
	return invoice, nil
}

// Cancel transitions a pending invoice to cancelled and cancels the remote
// payment. The remote cancellation is best effort: a gateway failure is
// logged but does not resurrect the local invoice.
func (s *InvoiceService) Cancel(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !invoice.Status.CanTransitionTo(domain.InvoiceStatusCancelled) {
		return nil, domain.Errorf(domain.ECONFLICT, "invoice.cancel", "cannot cancel %s invoice", invoice.Status)
	}

	if err := s.invoices.UpdateStatus(ctx, id, domain.InvoiceStatusCancelled, nil); err != nil {
		return nil, err
	}

	if invoice.GatewayPaymentID != "" {
		if err := s.gateway.CancelPayment(ctx, invoice.GatewayPaymentID); err != nil {
			s.metrics.GatewayErrors.WithLabelValues("cancel_payment").Inc()
			s.logger.Error().
				Err(err).
				Str("invoice_number", invoice.Number).
				Str("gateway_payment_id", invoice.GatewayPaymentID).
				Msg("failed to cancel gateway payment")
		}
	}

	invoice.Status = domain.InvoiceStatusCancelled
	return invoice, nil
}

// Delete removes an invoice.
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.invoices.Delete(ctx, id)
}

// PixQRCode fetches the PIX payload for an invoice's gateway payment.
func (s *InvoiceService) PixQRCode(ctx context.Context, id uuid.UUID) (*billing.PixQRCode, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.PendingRemote() {
		return nil, domain.Invalid("invoice.pix_qr", "invoice has no gateway payment yet")
	}

	qr, err := s.gateway.GetPixQRCode(ctx, invoice.GatewayPaymentID)
	if err != nil {
		s.metrics.GatewayErrors.WithLabelValues("pix_qr").Inc()
		return nil, domain.Gateway(err, "invoice.pix_qr", "failed to fetch PIX QR code")
	}
	return qr, nil
}

// ResendNotification asks the gateway to redeliver its payment notification.
func (s *InvoiceService) ResendNotification(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if invoice.PendingRemote() {
		return domain.Invalid("invoice.resend_notification", "invoice has no gateway payment yet")
	}

	if err := s.gateway.ResendPaymentNotification(ctx, invoice.GatewayPaymentID); err != nil {
		s.metrics.GatewayErrors.WithLabelValues("resend_notification").Inc()
		return domain.Gateway(err, "invoice.resend_notification", "failed to resend payment notification")
	}
	return nil
}

// ReconcilePendingRemote sweeps staged rows that never got a gateway payment
// attached. For each row older than staleAfter: if the gateway already has a
// payment with a matching external reference, attach it; otherwise retry the
// payment creation; rows older than alertAfter that still cannot be resolved
// are flagged for manual reconciliation. Per-row failures never abort the
// sweep.
func (s *InvoiceService) ReconcilePendingRemote(ctx context.Context, staleAfter, alertAfter time.Duration) (ReconcileReport, error) {
	var report ReconcileReport

	now := s.now()
	stale, err := s.invoices.ListPendingRemote(ctx, now.Add(-staleAfter))
	if err != nil {
		return report, err
	}

	for i := range stale {
		invoice := &stale[i]

		payment, err := s.gateway.FindPaymentByReference(ctx, invoice.Number)
		if err != nil {
			s.metrics.GatewayErrors.WithLabelValues("find_payment").Inc()
			s.logger.Error().Err(err).Str("invoice_number", invoice.Number).Msg("reconcile: reference search failed")
			report.Failed++
			continue
		}

		if payment != nil {
			if err := s.invoices.AttachGatewayPayment(ctx, invoice.ID, payment.ID); err != nil {
				s.logger.Error().Err(err).Str("invoice_number", invoice.Number).Msg("reconcile: attach failed")
				report.Failed++
				continue
			}
			s.metrics.ReconcileAttached.Inc()
			report.Attached++
			s.logger.Info().
				Str("invoice_number", invoice.Number).
				Str("gateway_payment_id", payment.ID).
				Msg("reconcile: attached existing gateway payment")
			continue
		}

		if now.Sub(invoice.CreatedAt) > alertAfter {
			s.metrics.ReconcileFlagged.Inc()
			report.Flagged++
			s.logger.Warn().
				Str("invoice_number", invoice.Number).
				Str("client_id", invoice.ClientID.String()).
				Time("created_at", invoice.CreatedAt).
				Msg("reconcile: invoice stuck pending-remote, needs manual reconciliation")
			continue
		}

		if err := s.retryRemoteCreation(ctx, invoice); err != nil {
			s.logger.Error().Err(err).Str("invoice_number", invoice.Number).Msg("reconcile: retry failed")
			report.Failed++
			continue
		}
		s.metrics.ReconcileRetried.Inc()
		report.Retried++
	}

	return report, nil
}

// retryRemoteCreation re-runs customer resolution and payment creation for a
// staged row. Safe to repeat: the external reference search above guarantees
// no payment with this invoice number exists yet.
func (s *InvoiceService) retryRemoteCreation(ctx context.Context, invoice *domain.Invoice) error {
	client, err := s.clients.GetByID(ctx, invoice.ClientID)
	if err != nil {
		return err
	}

	payment, err := s.createRemotePayment(ctx, client, invoice, CreateInvoiceInput{})
	if err != nil {
		return err
	}

	return s.invoices.AttachGatewayPayment(ctx, invoice.ID, payment.ID)
}
