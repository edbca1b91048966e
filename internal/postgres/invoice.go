package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rmaciel/voltrack/internal/domain"
)

// InvoiceStore implements domain.InvoiceStore using PostgreSQL.
type InvoiceStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that InvoiceStore implements domain.InvoiceStore.
var _ domain.InvoiceStore = (*InvoiceStore)(nil)

// NewInvoiceStore creates a new PostgreSQL-backed invoice store.
func NewInvoiceStore(pool *pgxpool.Pool) *InvoiceStore {
	return &InvoiceStore{pool: pool}
}

const invoiceColumns = `id, client_id, checklist_id, number, description, amount, status, due_date, paid_at, gateway_payment_id, blocked_at, created_at, updated_at`

// Create stages an invoice row with status pending and no gateway reference.
func (s *InvoiceStore) Create(ctx context.Context, params domain.CreateInvoiceParams) (*domain.Invoice, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO invoices (client_id, checklist_id, number, description, amount, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+invoiceColumns,
		params.ClientID, nullUUIDFromPtr(params.ChecklistID), params.Number,
		params.Description, params.Amount, domain.InvoiceStatusPending, params.DueDate,
	)

	invoice, err := scanInvoice(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("invoice.create", "invoice number already exists")
		}
		return nil, domain.Internal(err, "invoice.create", "failed to create invoice")
	}

	return invoice, nil
}

// GetByID retrieves an invoice by identifier.
func (s *InvoiceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)

	invoice, err := scanInvoice(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("invoice.get", "invoice", id.String())
		}
		return nil, domain.Internal(err, "invoice.get", "failed to get invoice")
	}

	return invoice, nil
}

// GetByNumber retrieves an invoice by its unique number.
// The monthly job uses this to keep generation idempotent per period.
func (s *InvoiceStore) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE number = $1`, number)

	invoice, err := scanInvoice(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("invoice.get_by_number", "invoice", number)
		}
		return nil, domain.Internal(err, "invoice.get_by_number", "failed to get invoice")
	}

	return invoice, nil
}

// List returns invoices matching the filter, newest first.
func (s *InvoiceStore) List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	var args []any

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		query += ` AND client_id = $1`
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		if len(args) == 1 {
			query += ` AND status = $1`
		} else {
			query += ` AND status = $2`
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, "invoice.list", "failed to list invoices")
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, domain.Internal(err, "invoice.list", "failed to scan invoice")
		}
		invoices = append(invoices, *invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "invoice.list", "failed to iterate invoices")
	}

	return invoices, nil
}

// ListPendingRemote returns staged rows older than the given cutoff that
// never got a gateway payment attached. Input to the reconciliation sweep.
func (s *InvoiceStore) ListPendingRemote(ctx context.Context, olderThan time.Time) ([]domain.Invoice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE gateway_payment_id = '' AND status = $1 AND created_at < $2
		ORDER BY created_at`,
		domain.InvoiceStatusPending, olderThan,
	)
	if err != nil {
		return nil, domain.Internal(err, "invoice.list_pending_remote", "failed to list pending-remote invoices")
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, domain.Internal(err, "invoice.list_pending_remote", "failed to scan invoice")
		}
		invoices = append(invoices, *invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "invoice.list_pending_remote", "failed to iterate invoices")
	}

	return invoices, nil
}

// AttachGatewayPayment records the gateway payment reference on a staged row.
func (s *InvoiceStore) AttachGatewayPayment(ctx context.Context, id uuid.UUID, gatewayPaymentID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invoices SET gateway_payment_id = $2, updated_at = now() WHERE id = $1`,
		id, gatewayPaymentID)
	if err != nil {
		return domain.Internal(err, "invoice.attach_payment", "failed to attach gateway payment")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("invoice.attach_payment", "invoice", id.String())
	}
	return nil
}

// UpdateStatus sets the invoice status and optionally the paid timestamp.
// Transition legality is enforced by the service layer.
func (s *InvoiceStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus, paidAt *time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invoices SET status = $2, paid_at = $3, updated_at = now() WHERE id = $1`,
		id, status, nullTimeFromPtr(paidAt))
	if err != nil {
		return domain.Internal(err, "invoice.update_status", "failed to update invoice status")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("invoice.update_status", "invoice", id.String())
	}
	return nil
}

// MarkBlocked stamps the blocking marker so overdue re-runs skip the row.
func (s *InvoiceStore) MarkBlocked(ctx context.Context, id uuid.UUID, blockedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invoices SET blocked_at = $2, updated_at = now() WHERE id = $1`,
		id, blockedAt)
	if err != nil {
		return domain.Internal(err, "invoice.mark_blocked", "failed to mark invoice blocked")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("invoice.mark_blocked", "invoice", id.String())
	}
	return nil
}

// Delete removes an invoice row. Used to roll back a staged row when the
// synchronous gateway call fails, and by the admin delete operation.
func (s *InvoiceStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "invoice.delete", "failed to delete invoice")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("invoice.delete", "invoice", id.String())
	}
	return nil
}

// scanInvoice scans an invoice row in invoiceColumns order.
func scanInvoice(row interface{ Scan(dest ...any) error }) (*domain.Invoice, error) {
	var (
		inv         domain.Invoice
		checklistID uuid.NullUUID
		paidAt      sql.NullTime
		blockedAt   sql.NullTime
	)
	err := row.Scan(
		&inv.ID, &inv.ClientID, &checklistID, &inv.Number, &inv.Description,
		&inv.Amount, &inv.Status, &inv.DueDate, &paidAt, &inv.GatewayPaymentID,
		&blockedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.ChecklistID = ptrFromNullUUID(checklistID)
	inv.PaidAt = ptrFromNullTime(paidAt)
	inv.BlockedAt = ptrFromNullTime(blockedAt)
	return &inv, nil
}
