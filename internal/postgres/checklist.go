package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rmaciel/voltrack/internal/domain"
)

// ChecklistStore implements domain.ChecklistStore using PostgreSQL.
type ChecklistStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that ChecklistStore implements domain.ChecklistStore.
var _ domain.ChecklistStore = (*ChecklistStore)(nil)

// NewChecklistStore creates a new PostgreSQL-backed checklist store.
func NewChecklistStore(pool *pgxpool.Pool) *ChecklistStore {
	return &ChecklistStore{pool: pool}
}

const checklistColumns = `id, client_id, vehicle_id, model, plate, tracker_model, tracker_imei, notes, status, sign_token, signer_name, signed_at, created_at, updated_at`

// Create opens a checklist with status pending.
func (s *ChecklistStore) Create(ctx context.Context, params domain.CreateChecklistParams) (*domain.Checklist, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO checklists (client_id, vehicle_id, model, plate, tracker_model, tracker_imei, notes, status, sign_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+checklistColumns,
		params.ClientID, nullUUIDFromPtr(params.VehicleID), params.Model, params.Plate,
		params.TrackerModel, params.TrackerIMEI, params.Notes,
		domain.ChecklistStatusPending, params.SignToken,
	)

	checklist, err := scanChecklist(row)
	if err != nil {
		return nil, domain.Internal(err, "checklist.create", "failed to create checklist")
	}

	return checklist, nil
}

// GetByID retrieves a checklist by identifier.
func (s *ChecklistStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Checklist, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+checklistColumns+` FROM checklists WHERE id = $1`, id)

	checklist, err := scanChecklist(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("checklist.get", "checklist", id.String())
		}
		return nil, domain.Internal(err, "checklist.get", "failed to get checklist")
	}

	return checklist, nil
}

// GetBySignToken retrieves a checklist by its signature-link token.
func (s *ChecklistStore) GetBySignToken(ctx context.Context, token string) (*domain.Checklist, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+checklistColumns+` FROM checklists WHERE sign_token = $1`, token)

	checklist, err := scanChecklist(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("checklist.get_by_token", "checklist", "sign token")
		}
		return nil, domain.Internal(err, "checklist.get_by_token", "failed to get checklist")
	}

	return checklist, nil
}

// List returns all checklists, newest first.
func (s *ChecklistStore) List(ctx context.Context) ([]domain.Checklist, error) {
	return s.queryChecklists(ctx, "checklist.list",
		`SELECT `+checklistColumns+` FROM checklists ORDER BY created_at DESC`)
}

// ListByClient returns a client's checklists, newest first.
func (s *ChecklistStore) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Checklist, error) {
	return s.queryChecklists(ctx, "checklist.list_by_client",
		`SELECT `+checklistColumns+` FROM checklists WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
}

// MarkSigned records the signature on a checklist.
func (s *ChecklistStore) MarkSigned(ctx context.Context, id uuid.UUID, signerName string, signedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE checklists
		SET status = $2, signer_name = $3, signed_at = $4, updated_at = now()
		WHERE id = $1`,
		id, domain.ChecklistStatusSigned, signerName, signedAt)
	if err != nil {
		return domain.Internal(err, "checklist.mark_signed", "failed to mark checklist signed")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("checklist.mark_signed", "checklist", id.String())
	}
	return nil
}

// MarkCompleted closes out a signed checklist, persisting the vehicle link
// when completion created one.
func (s *ChecklistStore) MarkCompleted(ctx context.Context, id uuid.UUID, vehicleID *uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE checklists
		SET status = $2, vehicle_id = COALESCE($3, vehicle_id), updated_at = now()
		WHERE id = $1`,
		id, domain.ChecklistStatusCompleted, nullUUIDFromPtr(vehicleID))
	if err != nil {
		return domain.Internal(err, "checklist.mark_completed", "failed to mark checklist completed")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("checklist.mark_completed", "checklist", id.String())
	}
	return nil
}

// Delete removes a checklist row.
func (s *ChecklistStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM checklists WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "checklist.delete", "failed to delete checklist")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("checklist.delete", "checklist", id.String())
	}
	return nil
}

func (s *ChecklistStore) queryChecklists(ctx context.Context, op, query string, args ...any) ([]domain.Checklist, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list checklists")
	}
	defer rows.Close()

	var checklists []domain.Checklist
	for rows.Next() {
		checklist, err := scanChecklist(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan checklist")
		}
		checklists = append(checklists, *checklist)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to iterate checklists")
	}

	return checklists, nil
}

// scanChecklist scans a checklist row in checklistColumns order.
func scanChecklist(row interface{ Scan(dest ...any) error }) (*domain.Checklist, error) {
	var (
		c         domain.Checklist
		vehicleID uuid.NullUUID
		signedAt  sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.ClientID, &vehicleID, &c.Model, &c.Plate,
		&c.TrackerModel, &c.TrackerIMEI, &c.Notes, &c.Status,
		&c.SignToken, &c.SignerName, &signedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.VehicleID = ptrFromNullUUID(vehicleID)
	c.SignedAt = ptrFromNullTime(signedAt)
	return &c, nil
}
