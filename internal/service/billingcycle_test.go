package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaciel/voltrack/internal/billing"
	"github.com/rmaciel/voltrack/internal/domain"
	"github.com/rmaciel/voltrack/internal/telemetry"
)

type cycleFixture struct {
	invoices  *memInvoiceStore
	vehicles  *memVehicleStore
	clients   *memClientStore
	gateway   *billing.MockGateway
	publisher *capturePublisher
	cycle     *BillingCycleService
	client    *domain.Client
}

func newCycleFixture(t *testing.T) *cycleFixture {
	t.Helper()

	invoices := newMemInvoiceStore()
	vehicles := newMemVehicleStore()
	clients := newMemClientStore()
	gateway := billing.NewMockGateway()
	publisher := &capturePublisher{}
	metrics := telemetry.NewBusinessMetrics("test", prometheus.NewRegistry())
	resolver := NewCustomerResolver(gateway, newMemBillingPartyStore(), zerolog.Nop())
	creator := NewInvoiceService(invoices, clients, resolver, gateway, publisher, metrics, zerolog.Nop())

	cycle := NewBillingCycleService(
		DefaultBillingCycleConfig(),
		invoices, vehicles, clients, creator, publisher, metrics, zerolog.Nop(),
	)

	client, err := clients.Create(context.Background(), domain.CreateClientParams{
		Name:  "Transportes ACME",
		Phone: "11999999999",
		TaxID: "12345678000195",
	})
	require.NoError(t, err)

	return &cycleFixture{
		invoices:  invoices,
		vehicles:  vehicles,
		clients:   clients,
		gateway:   gateway,
		publisher: publisher,
		cycle:     cycle,
		client:    client,
	}
}

func (f *cycleFixture) addVehicle(t *testing.T, plate string, fee float64, status domain.VehicleStatus) *domain.Vehicle {
	t.Helper()
	vehicle, err := f.vehicles.Create(context.Background(), domain.CreateVehicleParams{
		ClientID:   f.client.ID,
		Model:      "Fiat Strada",
		Plate:      plate,
		MonthlyFee: decimal.NewFromFloat(fee),
	})
	require.NoError(t, err)
	if status != domain.VehicleStatusActive {
		require.NoError(t, f.vehicles.UpdateStatus(context.Background(), vehicle.ID, status))
	}
	return vehicle
}

func TestGenerateMonthlyInvoices_SumsActiveFleet(t *testing.T) {
	f := newCycleFixture(t)
	f.addVehicle(t, "ABC1D23", 89.90, domain.VehicleStatusActive)
	f.addVehicle(t, "DEF4G56", 99.90, domain.VehicleStatusActive)
	f.addVehicle(t, "HIJ7K89", 79.90, domain.VehicleStatusInactive)

	report, err := f.cycle.GenerateMonthlyInvoices(context.Background(), 2026, time.August)
	require.NoError(t, err)
	assert.Equal(t, MonthlyRunReport{Generated: 1}, report)

	invoices, err := f.invoices.List(context.Background(), domain.InvoiceFilter{})
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	invoice := invoices[0]
	assert.True(t, invoice.Amount.Equal(decimal.NewFromFloat(189.80)),
		"inactive vehicles must not be billed, got %s", invoice.Amount)
	assert.Equal(t, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), invoice.DueDate,
		"due date falls on the configured day of the following month")
	assert.Contains(t, invoice.Description, "ABC1D23")
	assert.Contains(t, invoice.Description, "DEF4G56")
	assert.NotContains(t, invoice.Description, "HIJ7K89")
	assert.NotEmpty(t, invoice.GatewayPaymentID)
}

func TestGenerateMonthlyInvoices_Idempotent(t *testing.T) {
	f := newCycleFixture(t)
	f.addVehicle(t, "ABC1D23", 100, domain.VehicleStatusActive)

	first, err := f.cycle.GenerateMonthlyInvoices(context.Background(), 2026, time.August)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Generated)

	second, err := f.cycle.GenerateMonthlyInvoices(context.Background(), 2026, time.August)
	require.NoError(t, err)
	assert.Equal(t, MonthlyRunReport{Skipped: 1}, second)

	invoices, err := f.invoices.List(context.Background(), domain.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, invoices, 1, "re-running a period must not duplicate invoices")

	// A different period bills again.
	third, err := f.cycle.GenerateMonthlyInvoices(context.Background(), 2026, time.September)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Generated)
}

func TestGenerateMonthlyInvoices_SkipsClientsWithoutActiveVehicles(t *testing.T) {
	f := newCycleFixture(t)
	f.addVehicle(t, "ABC1D23", 100, domain.VehicleStatusBlocked)

	report, err := f.cycle.GenerateMonthlyInvoices(context.Background(), 2026, time.August)
	require.NoError(t, err)
	assert.Equal(t, MonthlyRunReport{}, report)

	invoices, err := f.invoices.List(context.Background(), domain.InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func overdueInvoice(t *testing.T, f *cycleFixture, number string, daysPastDue int) *domain.Invoice {
	t.Helper()
	invoice, err := f.invoices.Create(context.Background(), domain.CreateInvoiceParams{
		ClientID: f.client.ID,
		Number:   number,
		Amount:   decimal.NewFromInt(100),
		DueDate:  time.Now().AddDate(0, 0, -daysPastDue),
	})
	require.NoError(t, err)
	require.NoError(t, f.invoices.AttachGatewayPayment(context.Background(), invoice.ID, "pay_"+number))
	return invoice
}

func TestCheckOverdueAndBlock_BlocksPastGrace(t *testing.T) {
	f := newCycleFixture(t)
	active := f.addVehicle(t, "ABC1D23", 100, domain.VehicleStatusActive)
	inactive := f.addVehicle(t, "DEF4G56", 100, domain.VehicleStatusInactive)
	invoice := overdueInvoice(t, f, "FAT-LATE", 6)

	report, err := f.cycle.CheckOverdueAndBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OverdueRunReport{Overdue: 1, FleetsBlocked: 1, VehiclesBlocked: 1}, report)

	blocked, err := f.vehicles.GetByID(context.Background(), active.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusBlocked, blocked.Status)

	untouched, err := f.vehicles.GetByID(context.Background(), inactive.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusInactive, untouched.Status,
		"only active vehicles get blocked")

	stamped, err := f.invoices.GetByID(context.Background(), invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, stamped.BlockedAt)

	require.Len(t, f.publisher.fleetBlocked, 1)
	event := f.publisher.fleetBlocked[0]
	assert.Equal(t, "FAT-LATE", event.InvoiceNumber)
	assert.Equal(t, 1, event.BlockedVehicles)
	assert.Equal(t, "11999999999", event.ClientPhone)
}

func TestCheckOverdueAndBlock_RespectsGracePeriod(t *testing.T) {
	f := newCycleFixture(t)
	active := f.addVehicle(t, "ABC1D23", 100, domain.VehicleStatusActive)
	overdueInvoice(t, f, "FAT-GRACE", 4)

	report, err := f.cycle.CheckOverdueAndBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OverdueRunReport{}, report, "invoices inside the grace period are left alone")

	vehicle, err := f.vehicles.GetByID(context.Background(), active.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusActive, vehicle.Status)
	assert.Empty(t, f.publisher.fleetBlocked)
}

func TestCheckOverdueAndBlock_SkipsAlreadyBlocked(t *testing.T) {
	f := newCycleFixture(t)
	f.addVehicle(t, "ABC1D23", 100, domain.VehicleStatusActive)
	invoice := overdueInvoice(t, f, "FAT-DONE", 10)

	first, err := f.cycle.CheckOverdueAndBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.FleetsBlocked)

	// Unblock manually; a re-run must not re-block or re-notify because the
	// invoice already carries its blocking stamp.
	vehicles, err := f.vehicles.ListByClient(context.Background(), invoice.ClientID)
	require.NoError(t, err)
	for _, v := range vehicles {
		require.NoError(t, f.vehicles.UpdateStatus(context.Background(), v.ID, domain.VehicleStatusActive))
	}

	second, err := f.cycle.CheckOverdueAndBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.FleetsBlocked)
	assert.Len(t, f.publisher.fleetBlocked, 1, "no duplicate notification")

	vehicle := vehicles[0]
	current, err := f.vehicles.GetByID(context.Background(), vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusActive, current.Status)
}

func TestCheckOverdueAndBlock_IgnoresPaidInvoices(t *testing.T) {
	f := newCycleFixture(t)
	f.addVehicle(t, "ABC1D23", 100, domain.VehicleStatusActive)
	invoice := overdueInvoice(t, f, "FAT-PAID", 10)

	now := time.Now()
	require.NoError(t, f.invoices.UpdateStatus(context.Background(), invoice.ID, domain.InvoiceStatusPaid, &now))

	report, err := f.cycle.CheckOverdueAndBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OverdueRunReport{}, report)
}
