package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rmaciel/voltrack/internal/service"
)

// BillingHandler exposes manual triggers for the scheduled billing jobs.
// The worker runs the same jobs on its own clock; these endpoints exist for
// operations and for catching up after downtime.
type BillingHandler struct {
	cycle    *service.BillingCycleService
	invoices *service.InvoiceService
}

// NewBillingHandler creates the billing jobs handler.
func NewBillingHandler(cycle *service.BillingCycleService, invoices *service.InvoiceService) *BillingHandler {
	return &BillingHandler{cycle: cycle, invoices: invoices}
}

type runMonthlyRequest struct {
	Year  int `json:"year" validate:"required,min=2000"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

// RunMonthly handles POST /api/v1/billing/run-monthly.
func (h *BillingHandler) RunMonthly(c echo.Context) error {
	var req runMonthlyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return ErrorResponse(c, err)
	}

	report, err := h.cycle.GenerateMonthlyInvoices(c.Request().Context(), req.Year, time.Month(req.Month))
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, report)
}

// RunOverdue handles POST /api/v1/billing/run-overdue.
func (h *BillingHandler) RunOverdue(c echo.Context) error {
	report, err := h.cycle.CheckOverdueAndBlock(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, report)
}

// Reconcile handles POST /api/v1/billing/reconcile. Sweeps immediately,
// ignoring the staleness window the worker applies.
func (h *BillingHandler) Reconcile(c echo.Context) error {
	report, err := h.invoices.ReconcilePendingRemote(c.Request().Context(), 0, 24*time.Hour)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, report)
}
