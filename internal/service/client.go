package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rmaciel/voltrack/internal/domain"
)

// ClientService manages the client registry. Tax documents are normalized
// before anything touches the store, so stored and looked-up values always
// compare equal regardless of input formatting.
type ClientService struct {
	clients domain.ClientStore
	logger  zerolog.Logger
}

// NewClientService creates the client service.
func NewClientService(clients domain.ClientStore, logger zerolog.Logger) *ClientService {
	return &ClientService{clients: clients, logger: logger}
}

// Create registers a client. The tax ID is normalized and must be a valid
// CPF or CNPJ length.
func (s *ClientService) Create(ctx context.Context, params domain.CreateClientParams) (*domain.Client, error) {
	if params.Name == "" {
		return nil, domain.Invalid("client.create", "name is required")
	}

	taxID, err := domain.NormalizeTaxID(params.TaxID)
	if err != nil {
		return nil, err
	}
	params.TaxID = taxID

	client, err := s.clients.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("client_id", client.ID.String()).
		Str("name", client.Name).
		Msg("client registered")

	return client, nil
}

// Get retrieves a client by ID.
func (s *ClientService) Get(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	return s.clients.GetByID(ctx, id)
}

// GetByTaxID retrieves a client by tax document, accepting formatted input.
func (s *ClientService) GetByTaxID(ctx context.Context, rawTaxID string) (*domain.Client, error) {
	taxID, err := domain.NormalizeTaxID(rawTaxID)
	if err != nil {
		return nil, err
	}
	return s.clients.GetByTaxID(ctx, taxID)
}

// List returns all registered clients.
func (s *ClientService) List(ctx context.Context) ([]domain.Client, error) {
	return s.clients.List(ctx)
}

// Update applies a partial update to a client.
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, params domain.UpdateClientParams) (*domain.Client, error) {
	if params.Name != nil && *params.Name == "" {
		return nil, domain.Invalid("client.update", "name cannot be empty")
	}
	return s.clients.Update(ctx, id, params)
}

// Delete removes a client.
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.clients.Delete(ctx, id)
}
