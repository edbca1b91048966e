package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rmaciel/voltrack/internal/domain"
)

// VehicleService manages the vehicle registry.
type VehicleService struct {
	vehicles domain.VehicleStore
	clients  domain.ClientStore
	logger   zerolog.Logger
}

// NewVehicleService creates the vehicle service.
func NewVehicleService(vehicles domain.VehicleStore, clients domain.ClientStore, logger zerolog.Logger) *VehicleService {
	return &VehicleService{vehicles: vehicles, clients: clients, logger: logger}
}

// Create registers a vehicle under an existing client. The monthly fee must
// be positive: a zero fee would silently drop the vehicle from monthly
// billing.
func (s *VehicleService) Create(ctx context.Context, params domain.CreateVehicleParams) (*domain.Vehicle, error) {
	if params.ClientID == uuid.Nil {
		return nil, domain.Invalid("vehicle.create", "client is required")
	}
	if params.Plate == "" {
		return nil, domain.Invalid("vehicle.create", "plate is required")
	}
	if !params.MonthlyFee.IsPositive() {
		return nil, domain.Invalid("vehicle.create", "monthly fee must be positive")
	}

	if _, err := s.clients.GetByID(ctx, params.ClientID); err != nil {
		return nil, err
	}

	vehicle, err := s.vehicles.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("vehicle_id", vehicle.ID.String()).
		Str("client_id", vehicle.ClientID.String()).
		Str("plate", vehicle.Plate).
		Msg("vehicle registered")

	return vehicle, nil
}

// Get retrieves a vehicle by ID.
func (s *VehicleService) Get(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	return s.vehicles.GetByID(ctx, id)
}

// List returns all vehicles.
func (s *VehicleService) List(ctx context.Context) ([]domain.Vehicle, error) {
	return s.vehicles.List(ctx)
}

// ListByClient returns a client's fleet.
func (s *VehicleService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Vehicle, error) {
	return s.vehicles.ListByClient(ctx, clientID)
}

// Update applies a partial update to a vehicle.
func (s *VehicleService) Update(ctx context.Context, id uuid.UUID, params domain.UpdateVehicleParams) (*domain.Vehicle, error) {
	if params.MonthlyFee != nil && !params.MonthlyFee.IsPositive() {
		return nil, domain.Invalid("vehicle.update", "monthly fee must be positive")
	}
	return s.vehicles.Update(ctx, id, params)
}

// SetStatus changes a vehicle's tracking status. Used for manual
// activation, deactivation and unblocking after payment.
func (s *VehicleService) SetStatus(ctx context.Context, id uuid.UUID, status domain.VehicleStatus) error {
	if !status.Valid() {
		return domain.Errorf(domain.EINVALID, "vehicle.set_status", "unknown status: %s", status)
	}
	if err := s.vehicles.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.logger.Info().
		Str("vehicle_id", id.String()).
		Str("status", string(status)).
		Msg("vehicle status changed")

	return nil
}

// UnblockFleet reactivates all blocked vehicles of a client, typically after
// an overdue invoice is settled.
func (s *VehicleService) UnblockFleet(ctx context.Context, clientID uuid.UUID) (int, error) {
	fleet, err := s.vehicles.ListByClient(ctx, clientID)
	if err != nil {
		return 0, err
	}

	unblocked := 0
	for _, v := range fleet {
		if v.Status != domain.VehicleStatusBlocked {
			continue
		}
		if err := s.vehicles.UpdateStatus(ctx, v.ID, domain.VehicleStatusActive); err != nil {
			s.logger.Error().Err(err).Str("vehicle_id", v.ID.String()).Msg("failed to unblock vehicle")
			continue
		}
		unblocked++
	}

	if unblocked > 0 {
		s.logger.Info().
			Str("client_id", clientID.String()).
			Int("vehicles", unblocked).
			Msg("fleet unblocked")
	}

	return unblocked, nil
}

// Delete removes a vehicle.
func (s *VehicleService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.vehicles.Delete(ctx, id)
}
