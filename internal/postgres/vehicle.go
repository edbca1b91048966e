package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rmaciel/voltrack/internal/domain"
)

// VehicleStore implements domain.VehicleStore using PostgreSQL.
type VehicleStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that VehicleStore implements domain.VehicleStore.
var _ domain.VehicleStore = (*VehicleStore)(nil)

// NewVehicleStore creates a new PostgreSQL-backed vehicle store.
func NewVehicleStore(pool *pgxpool.Pool) *VehicleStore {
	return &VehicleStore{pool: pool}
}

const vehicleColumns = `id, client_id, checklist_id, model, plate, year, color, tracker_model, tracker_imei, monthly_fee, installed_at, status, created_at, updated_at`

// Create inserts a new vehicle row with status active.
func (s *VehicleStore) Create(ctx context.Context, params domain.CreateVehicleParams) (*domain.Vehicle, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO vehicles (client_id, checklist_id, model, plate, year, color, tracker_model, tracker_imei, monthly_fee, installed_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+vehicleColumns,
		params.ClientID, nullUUIDFromPtr(params.ChecklistID), params.Model, params.Plate,
		params.Year, params.Color, params.TrackerModel, params.TrackerIMEI,
		params.MonthlyFee, nullTimeFromPtr(params.InstalledAt), domain.VehicleStatusActive,
	)

	vehicle, err := scanVehicle(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("vehicle.create", "plate already registered")
		}
		return nil, domain.Internal(err, "vehicle.create", "failed to create vehicle")
	}

	return vehicle, nil
}

// GetByID retrieves a vehicle by identifier.
func (s *VehicleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)

	vehicle, err := scanVehicle(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("vehicle.get", "vehicle", id.String())
		}
		return nil, domain.Internal(err, "vehicle.get", "failed to get vehicle")
	}

	return vehicle, nil
}

// List returns all vehicles ordered by plate.
func (s *VehicleStore) List(ctx context.Context) ([]domain.Vehicle, error) {
	return s.queryVehicles(ctx, "vehicle.list", `SELECT `+vehicleColumns+` FROM vehicles ORDER BY plate`)
}

// ListByClient returns a client's vehicles.
func (s *VehicleStore) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Vehicle, error) {
	return s.queryVehicles(ctx, "vehicle.list_by_client",
		`SELECT `+vehicleColumns+` FROM vehicles WHERE client_id = $1 ORDER BY plate`, clientID)
}

// ListActive returns all active vehicles across clients.
// The monthly generation job groups these by client.
func (s *VehicleStore) ListActive(ctx context.Context) ([]domain.Vehicle, error) {
	return s.queryVehicles(ctx, "vehicle.list_active",
		`SELECT `+vehicleColumns+` FROM vehicles WHERE status = $1 ORDER BY client_id, plate`, domain.VehicleStatusActive)
}

// Update merges the given params over the existing vehicle row.
func (s *VehicleStore) Update(ctx context.Context, id uuid.UUID, params domain.UpdateVehicleParams) (*domain.Vehicle, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if params.Model != nil {
		merged.Model = *params.Model
	}
	if params.Plate != nil {
		merged.Plate = *params.Plate
	}
	if params.Year != nil {
		merged.Year = *params.Year
	}
	if params.Color != nil {
		merged.Color = *params.Color
	}
	if params.TrackerModel != nil {
		merged.TrackerModel = *params.TrackerModel
	}
	if params.TrackerIMEI != nil {
		merged.TrackerIMEI = *params.TrackerIMEI
	}
	if params.MonthlyFee != nil {
		merged.MonthlyFee = *params.MonthlyFee
	}
	if params.InstalledAt != nil {
		merged.InstalledAt = params.InstalledAt
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE vehicles
		SET model = $2, plate = $3, year = $4, color = $5, tracker_model = $6,
		    tracker_imei = $7, monthly_fee = $8, installed_at = $9, updated_at = now()
		WHERE id = $1
		RETURNING `+vehicleColumns,
		id, merged.Model, merged.Plate, merged.Year, merged.Color,
		merged.TrackerModel, merged.TrackerIMEI, merged.MonthlyFee,
		nullTimeFromPtr(merged.InstalledAt),
	)

	vehicle, err := scanVehicle(row)
	if err != nil {
		return nil, domain.Internal(err, "vehicle.update", "failed to update vehicle")
	}

	return vehicle, nil
}

// UpdateStatus transitions a vehicle's status.
func (s *VehicleStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VehicleStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE vehicles SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return domain.Internal(err, "vehicle.update_status", "failed to update vehicle status")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("vehicle.update_status", "vehicle", id.String())
	}
	return nil
}

// Delete removes a vehicle row.
func (s *VehicleStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "vehicle.delete", "failed to delete vehicle")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("vehicle.delete", "vehicle", id.String())
	}
	return nil
}

func (s *VehicleStore) queryVehicles(ctx context.Context, op, query string, args ...any) ([]domain.Vehicle, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list vehicles")
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan vehicle")
		}
		vehicles = append(vehicles, *vehicle)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to iterate vehicles")
	}

	return vehicles, nil
}

// scanVehicle scans a vehicle row in vehicleColumns order.
func scanVehicle(row interface{ Scan(dest ...any) error }) (*domain.Vehicle, error) {
	var (
		v           domain.Vehicle
		checklistID uuid.NullUUID
		installedAt sql.NullTime
	)
	err := row.Scan(
		&v.ID, &v.ClientID, &checklistID, &v.Model, &v.Plate, &v.Year, &v.Color,
		&v.TrackerModel, &v.TrackerIMEI, &v.MonthlyFee, &installedAt, &v.Status,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.ChecklistID = ptrFromNullUUID(checklistID)
	v.InstalledAt = ptrFromNullTime(installedAt)
	return &v, nil
}
