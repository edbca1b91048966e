package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rmaciel/voltrack/internal/domain"
	"github.com/rmaciel/voltrack/internal/events"
)

// In-memory store fakes. Single-goroutine test use only.

type memClientStore struct {
	clients map[uuid.UUID]*domain.Client
}

func newMemClientStore() *memClientStore {
	return &memClientStore{clients: make(map[uuid.UUID]*domain.Client)}
}

func (s *memClientStore) Create(_ context.Context, params domain.CreateClientParams) (*domain.Client, error) {
	for _, c := range s.clients {
		if c.TaxID == params.TaxID {
			return nil, domain.Conflict("client.create", "client with this tax ID already exists")
		}
	}
	client := &domain.Client{
		ID:         uuid.New(),
		Name:       params.Name,
		Email:      params.Email,
		Phone:      params.Phone,
		TaxID:      params.TaxID,
		Address:    params.Address,
		AddressNum: params.AddressNum,
		Complement: params.Complement,
		District:   params.District,
		City:       params.City,
		State:      params.State,
		PostalCode: params.PostalCode,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	s.clients[client.ID] = client
	return client, nil
}

func (s *memClientStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Client, error) {
	client, ok := s.clients[id]
	if !ok {
		return nil, domain.NotFound("client.get", "client", id.String())
	}
	copied := *client
	return &copied, nil
}

func (s *memClientStore) GetByTaxID(_ context.Context, taxID string) (*domain.Client, error) {
	for _, c := range s.clients {
		if c.TaxID == taxID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, domain.NotFound("client.get_by_tax_id", "client", taxID)
}

func (s *memClientStore) List(_ context.Context) ([]domain.Client, error) {
	out := make([]domain.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (s *memClientStore) Update(_ context.Context, id uuid.UUID, params domain.UpdateClientParams) (*domain.Client, error) {
	client, ok := s.clients[id]
	if !ok {
		return nil, domain.NotFound("client.update", "client", id.String())
	}
	if params.Name != nil {
		client.Name = *params.Name
	}
	if params.Email != nil {
		client.Email = *params.Email
	}
	if params.Phone != nil {
		client.Phone = *params.Phone
	}
	copied := *client
	return &copied, nil
}

func (s *memClientStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.clients[id]; !ok {
		return domain.NotFound("client.delete", "client", id.String())
	}
	delete(s.clients, id)
	return nil
}

type memVehicleStore struct {
	vehicles map[uuid.UUID]*domain.Vehicle
}

func newMemVehicleStore() *memVehicleStore {
	return &memVehicleStore{vehicles: make(map[uuid.UUID]*domain.Vehicle)}
}

func (s *memVehicleStore) Create(_ context.Context, params domain.CreateVehicleParams) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{
		ID:           uuid.New(),
		ClientID:     params.ClientID,
		ChecklistID:  params.ChecklistID,
		Model:        params.Model,
		Plate:        params.Plate,
		Year:         params.Year,
		Color:        params.Color,
		TrackerModel: params.TrackerModel,
		TrackerIMEI:  params.TrackerIMEI,
		MonthlyFee:   params.MonthlyFee,
		InstalledAt:  params.InstalledAt,
		Status:       domain.VehicleStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.vehicles[vehicle.ID] = vehicle
	return vehicle, nil
}

func (s *memVehicleStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	vehicle, ok := s.vehicles[id]
	if !ok {
		return nil, domain.NotFound("vehicle.get", "vehicle", id.String())
	}
	copied := *vehicle
	return &copied, nil
}

func (s *memVehicleStore) List(_ context.Context) ([]domain.Vehicle, error) {
	out := make([]domain.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

func (s *memVehicleStore) ListByClient(_ context.Context, clientID uuid.UUID) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	for _, v := range s.vehicles {
		if v.ClientID == clientID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *memVehicleStore) ListActive(_ context.Context) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	for _, v := range s.vehicles {
		if v.Status == domain.VehicleStatusActive {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *memVehicleStore) Update(_ context.Context, id uuid.UUID, params domain.UpdateVehicleParams) (*domain.Vehicle, error) {
	vehicle, ok := s.vehicles[id]
	if !ok {
		return nil, domain.NotFound("vehicle.update", "vehicle", id.String())
	}
	if params.Model != nil {
		vehicle.Model = *params.Model
	}
	if params.MonthlyFee != nil {
		vehicle.MonthlyFee = *params.MonthlyFee
	}
	copied := *vehicle
	return &copied, nil
}

func (s *memVehicleStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.VehicleStatus) error {
	vehicle, ok := s.vehicles[id]
	if !ok {
		return domain.NotFound("vehicle.update_status", "vehicle", id.String())
	}
	vehicle.Status = status
	return nil
}

func (s *memVehicleStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.vehicles[id]; !ok {
		return domain.NotFound("vehicle.delete", "vehicle", id.String())
	}
	delete(s.vehicles, id)
	return nil
}

type memInvoiceStore struct {
	invoices map[uuid.UUID]*domain.Invoice

	// createErr forces Create to fail when set.
	createErr error
}

func newMemInvoiceStore() *memInvoiceStore {
	return &memInvoiceStore{invoices: make(map[uuid.UUID]*domain.Invoice)}
}

func (s *memInvoiceStore) Create(_ context.Context, params domain.CreateInvoiceParams) (*domain.Invoice, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	for _, inv := range s.invoices {
		if inv.Number == params.Number {
			return nil, domain.Conflict("invoice.create", "invoice number already exists")
		}
	}
	invoice := &domain.Invoice{
		ID:          uuid.New(),
		ClientID:    params.ClientID,
		ChecklistID: params.ChecklistID,
		Number:      params.Number,
		Description: params.Description,
		Amount:      params.Amount,
		Status:      domain.InvoiceStatusPending,
		DueDate:     params.DueDate,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.invoices[invoice.ID] = invoice
	copied := *invoice
	return &copied, nil
}

func (s *memInvoiceStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Invoice, error) {
	invoice, ok := s.invoices[id]
	if !ok {
		return nil, domain.NotFound("invoice.get", "invoice", id.String())
	}
	copied := *invoice
	return &copied, nil
}

func (s *memInvoiceStore) GetByNumber(_ context.Context, number string) (*domain.Invoice, error) {
	for _, inv := range s.invoices {
		if inv.Number == number {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, domain.NotFound("invoice.get_by_number", "invoice", number)
}

func (s *memInvoiceStore) List(_ context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range s.invoices {
		if filter.ClientID != nil && inv.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (s *memInvoiceStore) ListPendingRemote(_ context.Context, olderThan time.Time) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range s.invoices {
		if inv.GatewayPaymentID == "" && inv.Status == domain.InvoiceStatusPending && inv.CreatedAt.Before(olderThan) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (s *memInvoiceStore) AttachGatewayPayment(_ context.Context, id uuid.UUID, gatewayPaymentID string) error {
	invoice, ok := s.invoices[id]
	if !ok {
		return domain.NotFound("invoice.attach", "invoice", id.String())
	}
	invoice.GatewayPaymentID = gatewayPaymentID
	return nil
}

func (s *memInvoiceStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.InvoiceStatus, paidAt *time.Time) error {
	invoice, ok := s.invoices[id]
	if !ok {
		return domain.NotFound("invoice.update_status", "invoice", id.String())
	}
	invoice.Status = status
	invoice.PaidAt = paidAt
	return nil
}

func (s *memInvoiceStore) MarkBlocked(_ context.Context, id uuid.UUID, blockedAt time.Time) error {
	invoice, ok := s.invoices[id]
	if !ok {
		return domain.NotFound("invoice.mark_blocked", "invoice", id.String())
	}
	invoice.BlockedAt = &blockedAt
	return nil
}

func (s *memInvoiceStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.invoices[id]; !ok {
		return domain.NotFound("invoice.delete", "invoice", id.String())
	}
	delete(s.invoices, id)
	return nil
}

type memChecklistStore struct {
	checklists map[uuid.UUID]*domain.Checklist
}

func newMemChecklistStore() *memChecklistStore {
	return &memChecklistStore{checklists: make(map[uuid.UUID]*domain.Checklist)}
}

func (s *memChecklistStore) Create(_ context.Context, params domain.CreateChecklistParams) (*domain.Checklist, error) {
	checklist := &domain.Checklist{
		ID:           uuid.New(),
		ClientID:     params.ClientID,
		VehicleID:    params.VehicleID,
		Model:        params.Model,
		Plate:        params.Plate,
		TrackerModel: params.TrackerModel,
		TrackerIMEI:  params.TrackerIMEI,
		Notes:        params.Notes,
		Status:       domain.ChecklistStatusPending,
		SignToken:    params.SignToken,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.checklists[checklist.ID] = checklist
	copied := *checklist
	return &copied, nil
}

func (s *memChecklistStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Checklist, error) {
	checklist, ok := s.checklists[id]
	if !ok {
		return nil, domain.NotFound("checklist.get", "checklist", id.String())
	}
	copied := *checklist
	return &copied, nil
}

func (s *memChecklistStore) GetBySignToken(_ context.Context, token string) (*domain.Checklist, error) {
	for _, cl := range s.checklists {
		if cl.SignToken == token {
			copied := *cl
			return &copied, nil
		}
	}
	return nil, domain.NotFound("checklist.get_by_token", "checklist", token)
}

func (s *memChecklistStore) List(_ context.Context) ([]domain.Checklist, error) {
	out := make([]domain.Checklist, 0, len(s.checklists))
	for _, cl := range s.checklists {
		out = append(out, *cl)
	}
	return out, nil
}

func (s *memChecklistStore) ListByClient(_ context.Context, clientID uuid.UUID) ([]domain.Checklist, error) {
	var out []domain.Checklist
	for _, cl := range s.checklists {
		if cl.ClientID == clientID {
			out = append(out, *cl)
		}
	}
	return out, nil
}

func (s *memChecklistStore) MarkSigned(_ context.Context, id uuid.UUID, signerName string, signedAt time.Time) error {
	checklist, ok := s.checklists[id]
	if !ok {
		return domain.NotFound("checklist.mark_signed", "checklist", id.String())
	}
	checklist.Status = domain.ChecklistStatusSigned
	checklist.SignerName = signerName
	checklist.SignedAt = &signedAt
	return nil
}

func (s *memChecklistStore) MarkCompleted(_ context.Context, id uuid.UUID, vehicleID *uuid.UUID) error {
	checklist, ok := s.checklists[id]
	if !ok {
		return domain.NotFound("checklist.mark_completed", "checklist", id.String())
	}
	checklist.Status = domain.ChecklistStatusCompleted
	if vehicleID != nil {
		checklist.VehicleID = vehicleID
	}
	return nil
}

func (s *memChecklistStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.checklists[id]; !ok {
		return domain.NotFound("checklist.delete", "checklist", id.String())
	}
	delete(s.checklists, id)
	return nil
}

type memBillingPartyStore struct {
	parties map[string]domain.BillingParty

	// upsertErr forces Upsert to fail when set.
	upsertErr error
}

func newMemBillingPartyStore() *memBillingPartyStore {
	return &memBillingPartyStore{parties: make(map[string]domain.BillingParty)}
}

func (s *memBillingPartyStore) Upsert(_ context.Context, party domain.BillingParty) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.parties[party.TaxID] = party
	return nil
}

func (s *memBillingPartyStore) GetByTaxID(_ context.Context, taxID string) (*domain.BillingParty, error) {
	party, ok := s.parties[taxID]
	if !ok {
		return nil, domain.NotFound("billing_party.get", "billing party", taxID)
	}
	return &party, nil
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	invoiceCreated []events.InvoiceCreated
	fleetBlocked   []events.FleetBlocked
}

func (p *capturePublisher) InvoiceCreated(event events.InvoiceCreated) {
	p.invoiceCreated = append(p.invoiceCreated, event)
}

func (p *capturePublisher) FleetBlocked(event events.FleetBlocked) {
	p.fleetBlocked = append(p.fleetBlocked, event)
}
