package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rmaciel/voltrack/internal/domain"
	"github.com/rmaciel/voltrack/internal/events"
	"github.com/rmaciel/voltrack/internal/telemetry"
)

// BillingCycleConfig tunes the scheduled billing runs.
type BillingCycleConfig struct {
	// DueDay is the day of the following month monthly invoices fall due on.
	DueDay int

	// GraceDays is how many days past due an invoice may sit before the
	// client's fleet is blocked.
	GraceDays int
}

// DefaultBillingCycleConfig returns the standard cycle settings.
func DefaultBillingCycleConfig() BillingCycleConfig {
	return BillingCycleConfig{
		DueDay:    10,
		GraceDays: 5,
	}
}

// MonthlyRunReport summarizes one monthly generation run.
type MonthlyRunReport struct {
	Generated int
	Skipped   int
	Failed    int
}

// OverdueRunReport summarizes one overdue sweep.
type OverdueRunReport struct {
	Overdue         int
	FleetsBlocked   int
	VehiclesBlocked int
	Failed          int
}

// BillingCycleService runs the recurring billing jobs: monthly invoice
// generation and overdue fleet blocking.
type BillingCycleService struct {
	cfg       BillingCycleConfig
	invoices  domain.InvoiceStore
	vehicles  domain.VehicleStore
	clients   domain.ClientStore
	creator   *InvoiceService
	publisher events.Publisher
	metrics   *telemetry.BusinessMetrics
	logger    zerolog.Logger

	now func() time.Time
}

// NewBillingCycleService creates the billing cycle service.
func NewBillingCycleService(
	cfg BillingCycleConfig,
	invoices domain.InvoiceStore,
	vehicles domain.VehicleStore,
	clients domain.ClientStore,
	creator *InvoiceService,
	publisher events.Publisher,
	metrics *telemetry.BusinessMetrics,
	logger zerolog.Logger,
) *BillingCycleService {
	if cfg.DueDay <= 0 || cfg.DueDay > 28 {
		cfg.DueDay = DefaultBillingCycleConfig().DueDay
	}
	if cfg.GraceDays <= 0 {
		cfg.GraceDays = DefaultBillingCycleConfig().GraceDays
	}
	return &BillingCycleService{
		cfg:       cfg,
		invoices:  invoices,
		vehicles:  vehicles,
		clients:   clients,
		creator:   creator,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// GenerateMonthlyInvoices creates one invoice per client for the given
// billing period, charging the sum of the monthly fees of the client's
// active vehicles. Clients with no active vehicles are skipped. The run is
// idempotent: the invoice number encodes the period and client, and periods
// already invoiced are skipped. A failure for one client never aborts the
// run.
func (s *BillingCycleService) GenerateMonthlyInvoices(ctx context.Context, year int, month time.Month) (MonthlyRunReport, error) {
	var report MonthlyRunReport

	active, err := s.vehicles.ListActive(ctx)
	if err != nil {
		s.metrics.MonthlyGenerationErrors.Inc()
		return report, err
	}

	byClient := make(map[string][]domain.Vehicle)
	for _, v := range active {
		key := v.ClientID.String()
		byClient[key] = append(byClient[key], v)
	}

	for _, fleet := range byClient {
		clientID := fleet[0].ClientID
		number := monthlyInvoiceNumber(year, month, clientID.String())

		if existing, err := s.invoices.GetByNumber(ctx, number); err == nil && existing != nil {
			report.Skipped++
			continue
		} else if err != nil && domain.ErrorCode(err) != domain.ENOTFOUND {
			s.metrics.MonthlyGenerationErrors.Inc()
			report.Failed++
			continue
		}

		total := decimal.Zero
		lines := make([]string, 0, len(fleet))
		for _, v := range fleet {
			total = total.Add(v.MonthlyFee)
			lines = append(lines, fmt.Sprintf("%s (%s)", v.Model, v.Plate))
		}
		if !total.IsPositive() {
			report.Skipped++
			continue
		}

		description := fmt.Sprintf("Mensalidade de rastreamento %02d/%04d - %s",
			month, year, strings.Join(lines, ", "))

		_, err := s.creator.Create(ctx, CreateInvoiceInput{
			ClientID:    clientID,
			Number:      number,
			Description: description,
			Amount:      total,
			DueDate:     s.dueDate(year, month),
			Origin:      "monthly",
		})
		if err != nil {
			s.metrics.MonthlyGenerationErrors.Inc()
			s.logger.Error().
				Err(err).
				Str("client_id", clientID.String()).
				Str("invoice_number", number).
				Msg("monthly generation failed for client")
			report.Failed++
			continue
		}

		s.metrics.MonthlyInvoicesGenerated.Inc()
		report.Generated++
	}

	s.logger.Info().
		Int("generated", report.Generated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int("year", year).
		Int("month", int(month)).
		Msg("monthly invoice generation finished")

	return report, nil
}

// monthlyInvoiceNumber encodes period and client so generation is idempotent
// per client per month.
func monthlyInvoiceNumber(year int, month time.Month, clientID string) string {
	short := strings.ToUpper(strings.ReplaceAll(clientID, "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("FAT-%04d%02d-%s", year, month, short)
}

// dueDate places the due date on the configured day of the month following
// the billing period.
func (s *BillingCycleService) dueDate(year int, month time.Month) time.Time {
	return time.Date(year, month+1, s.cfg.DueDay, 0, 0, 0, 0, time.UTC)
}

// CheckOverdueAndBlock finds pending invoices past their grace deadline and
// blocks the owning client's active vehicles. Each blocking is recorded on
// the invoice so a later run does not re-block or re-notify, and a fleet
// blocked event is published for WhatsApp delivery. Per-invoice failures
// never abort the sweep.
func (s *BillingCycleService) CheckOverdueAndBlock(ctx context.Context) (OverdueRunReport, error) {
	var report OverdueRunReport

	pending := domain.InvoiceStatusPending
	invoices, err := s.invoices.List(ctx, domain.InvoiceFilter{Status: &pending})
	if err != nil {
		return report, err
	}

	now := s.now()
	deadline := time.Duration(s.cfg.GraceDays) * 24 * time.Hour

	for i := range invoices {
		invoice := &invoices[i]

		if now.Sub(invoice.DueDate) <= deadline {
			continue
		}
		report.Overdue++
		s.metrics.OverdueInvoicesDetected.Inc()

		if invoice.BlockedAt != nil {
			continue
		}

		blocked, err := s.blockFleet(ctx, invoice, now)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("invoice_number", invoice.Number).
				Str("client_id", invoice.ClientID.String()).
				Msg("overdue sweep failed for invoice")
			report.Failed++
			continue
		}

		report.FleetsBlocked++
		report.VehiclesBlocked += blocked
	}

	s.logger.Info().
		Int("overdue", report.Overdue).
		Int("fleets_blocked", report.FleetsBlocked).
		Int("vehicles_blocked", report.VehiclesBlocked).
		Int("failed", report.Failed).
		Msg("overdue sweep finished")

	return report, nil
}

// blockFleet blocks the client's active vehicles, stamps the invoice and
// publishes the fleet blocked event. Inactive and already-blocked vehicles
// are left untouched.
func (s *BillingCycleService) blockFleet(ctx context.Context, invoice *domain.Invoice, now time.Time) (int, error) {
	fleet, err := s.vehicles.ListByClient(ctx, invoice.ClientID)
	if err != nil {
		return 0, err
	}

	blocked := 0
	for _, v := range fleet {
		if v.Status != domain.VehicleStatusActive {
			continue
		}
		if err := s.vehicles.UpdateStatus(ctx, v.ID, domain.VehicleStatusBlocked); err != nil {
			s.logger.Error().
				Err(err).
				Str("vehicle_id", v.ID.String()).
				Str("plate", v.Plate).
				Msg("failed to block vehicle")
			continue
		}
		s.metrics.VehiclesBlocked.Inc()
		blocked++
	}

	if err := s.invoices.MarkBlocked(ctx, invoice.ID, now); err != nil {
		return blocked, err
	}
	invoice.BlockedAt = &now

	client, err := s.clients.GetByID(ctx, invoice.ClientID)
	if err != nil {
		s.logger.Error().Err(err).Str("client_id", invoice.ClientID.String()).Msg("blocked fleet but could not load client for notification")
		return blocked, nil
	}

	s.publisher.FleetBlocked(events.FleetBlocked{
		InvoiceID:       invoice.ID,
		ClientID:        client.ID,
		InvoiceNumber:   invoice.Number,
		BlockedVehicles: blocked,
		ClientName:      client.Name,
		ClientPhone:     client.Phone,
		BlockedAt:       now,
	})

	s.logger.Warn().
		Str("client_id", client.ID.String()).
		Str("invoice_number", invoice.Number).
		Int("vehicles_blocked", blocked).
		Msg("fleet blocked for overdue invoice")

	return blocked, nil
}
