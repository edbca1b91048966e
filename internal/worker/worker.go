package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rmaciel/voltrack/internal/service"
)

// Config holds scheduler configuration.
type Config struct {
	// WorkerID uniquely identifies this worker instance in logs.
	WorkerID string

	// TickInterval is how often the scheduler wakes up to check its jobs.
	TickInterval time.Duration

	// ReconcileInterval is how often the pending-remote sweep runs.
	ReconcileInterval time.Duration

	// ReconcileStaleAfter is how old a staged invoice must be before the
	// sweep touches it.
	ReconcileStaleAfter time.Duration

	// ReconcileAlertAfter is how old a staged invoice may get before it is
	// flagged for manual reconciliation instead of retried.
	ReconcileAlertAfter time.Duration

	// OverdueHour is the local hour of day the overdue sweep runs at.
	OverdueHour int

	// MonthlyDay is the day of month monthly invoices are generated on.
	MonthlyDay int
}

// Worker drives the recurring billing jobs: monthly invoice generation, the
// overdue blocking sweep and pending-remote reconciliation. All three jobs
// are idempotent, so a missed or repeated tick is harmless.
type Worker struct {
	config  Config
	cycle   *service.BillingCycleService
	creator *service.InvoiceService
	logger  zerolog.Logger

	now func() time.Time

	lastMonthlyRun string
	lastOverdueRun string
	lastReconcile  time.Time
}

// NewWorker creates a billing scheduler with defaults filled in.
func NewWorker(
	cycle *service.BillingCycleService,
	creator *service.InvoiceService,
	config Config,
	logger zerolog.Logger,
) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("billing-%s", uuid.New().String()[:8])
	}
	if config.TickInterval == 0 {
		config.TickInterval = time.Minute
	}
	if config.ReconcileInterval == 0 {
		config.ReconcileInterval = 15 * time.Minute
	}
	if config.ReconcileStaleAfter == 0 {
		config.ReconcileStaleAfter = 5 * time.Minute
	}
	if config.ReconcileAlertAfter == 0 {
		config.ReconcileAlertAfter = 24 * time.Hour
	}
	if config.OverdueHour == 0 {
		config.OverdueHour = 8
	}
	if config.MonthlyDay == 0 {
		config.MonthlyDay = 1
	}

	return &Worker{
		config:  config,
		cycle:   cycle,
		creator: creator,
		logger:  logger,
		now:     time.Now,
	}
}

// Start runs the scheduler until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().
		Str("worker_id", w.config.WorkerID).
		Dur("tick_interval", w.config.TickInterval).
		Dur("reconcile_interval", w.config.ReconcileInterval).
		Msg("billing worker starting")

	ticker := time.NewTicker(w.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("worker_id", w.config.WorkerID).Msg("billing worker shutting down")
			return ctx.Err()

		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick runs whichever jobs are due.
func (w *Worker) tick(ctx context.Context) {
	now := w.now()

	if w.monthlyDue(now) {
		w.runMonthly(ctx, now)
	}
	if w.overdueDue(now) {
		w.runOverdue(ctx, now)
	}
	if now.Sub(w.lastReconcile) >= w.config.ReconcileInterval {
		w.runReconcile(ctx, now)
	}
}

// monthlyDue reports whether the monthly generation should run this tick:
// on or after the configured day, at most once per calendar month.
func (w *Worker) monthlyDue(now time.Time) bool {
	if now.Day() < w.config.MonthlyDay {
		return false
	}
	period := now.Format("2006-01")
	return w.lastMonthlyRun != period
}

// overdueDue reports whether the overdue sweep should run this tick: on or
// after the configured hour, at most once per day.
func (w *Worker) overdueDue(now time.Time) bool {
	if now.Hour() < w.config.OverdueHour {
		return false
	}
	day := now.Format("2006-01-02")
	return w.lastOverdueRun != day
}

func (w *Worker) runMonthly(ctx context.Context, now time.Time) {
	w.lastMonthlyRun = now.Format("2006-01")

	report, err := w.cycle.GenerateMonthlyInvoices(ctx, now.Year(), now.Month())
	if err != nil {
		w.logger.Error().Err(err).Msg("monthly invoice generation failed")
		return
	}
	w.logger.Info().
		Int("generated", report.Generated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("monthly invoice generation run finished")
}

func (w *Worker) runOverdue(ctx context.Context, now time.Time) {
	w.lastOverdueRun = now.Format("2006-01-02")

	report, err := w.cycle.CheckOverdueAndBlock(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("overdue sweep failed")
		return
	}
	w.logger.Info().
		Int("overdue", report.Overdue).
		Int("fleets_blocked", report.FleetsBlocked).
		Int("vehicles_blocked", report.VehiclesBlocked).
		Msg("overdue sweep run finished")
}

func (w *Worker) runReconcile(ctx context.Context, now time.Time) {
	w.lastReconcile = now

	report, err := w.creator.ReconcilePendingRemote(ctx, w.config.ReconcileStaleAfter, w.config.ReconcileAlertAfter)
	if err != nil {
		w.logger.Error().Err(err).Msg("pending-remote reconciliation failed")
		return
	}
	if report.Attached+report.Retried+report.Flagged+report.Failed > 0 {
		w.logger.Info().
			Int("attached", report.Attached).
			Int("retried", report.Retried).
			Int("flagged", report.Flagged).
			Int("failed", report.Failed).
			Msg("pending-remote reconciliation run finished")
	}
}
