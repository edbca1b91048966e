package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rmaciel/voltrack/internal/domain"
)

// ClientStore implements domain.ClientStore using PostgreSQL.
type ClientStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that ClientStore implements domain.ClientStore.
var _ domain.ClientStore = (*ClientStore)(nil)

// NewClientStore creates a new PostgreSQL-backed client store.
func NewClientStore(pool *pgxpool.Pool) *ClientStore {
	return &ClientStore{pool: pool}
}

const clientColumns = `id, name, email, phone, tax_id, address, address_num, complement, district, city, state, postal_code, created_at, updated_at`

// Create inserts a new client row.
func (s *ClientStore) Create(ctx context.Context, params domain.CreateClientParams) (*domain.Client, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO clients (name, email, phone, tax_id, address, address_num, complement, district, city, state, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+clientColumns,
		params.Name, params.Email, params.Phone, params.TaxID,
		params.Address, params.AddressNum, params.Complement,
		params.District, params.City, params.State, params.PostalCode,
	)

	client, err := scanClient(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("client.create", "tax document already registered")
		}
		return nil, domain.Internal(err, "client.create", "failed to create client")
	}

	return client, nil
}

// GetByID retrieves a client by identifier.
func (s *ClientStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)

	client, err := scanClient(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("client.get", "client", id.String())
		}
		return nil, domain.Internal(err, "client.get", "failed to get client")
	}

	return client, nil
}

// GetByTaxID retrieves a client by normalized tax document.
func (s *ClientStore) GetByTaxID(ctx context.Context, taxID string) (*domain.Client, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE tax_id = $1`, taxID)

	client, err := scanClient(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound("client.get_by_tax_id", "client", taxID)
		}
		return nil, domain.Internal(err, "client.get_by_tax_id", "failed to get client")
	}

	return client, nil
}

// List returns all clients ordered by name.
func (s *ClientStore) List(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name`)
	if err != nil {
		return nil, domain.Internal(err, "client.list", "failed to list clients")
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, domain.Internal(err, "client.list", "failed to scan client")
		}
		clients = append(clients, *client)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "client.list", "failed to iterate clients")
	}

	return clients, nil
}

// Update merges the given params over the existing client row.
func (s *ClientStore) Update(ctx context.Context, id uuid.UUID, params domain.UpdateClientParams) (*domain.Client, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if params.Name != nil {
		merged.Name = *params.Name
	}
	if params.Email != nil {
		merged.Email = *params.Email
	}
	if params.Phone != nil {
		merged.Phone = *params.Phone
	}
	if params.Address != nil {
		merged.Address = *params.Address
	}
	if params.AddressNum != nil {
		merged.AddressNum = *params.AddressNum
	}
	if params.Complement != nil {
		merged.Complement = *params.Complement
	}
	if params.District != nil {
		merged.District = *params.District
	}
	if params.City != nil {
		merged.City = *params.City
	}
	if params.State != nil {
		merged.State = *params.State
	}
	if params.PostalCode != nil {
		merged.PostalCode = *params.PostalCode
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE clients
		SET name = $2, email = $3, phone = $4, address = $5, address_num = $6,
		    complement = $7, district = $8, city = $9, state = $10, postal_code = $11,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+clientColumns,
		id, merged.Name, merged.Email, merged.Phone, merged.Address, merged.AddressNum,
		merged.Complement, merged.District, merged.City, merged.State, merged.PostalCode,
	)

	client, err := scanClient(row)
	if err != nil {
		return nil, domain.Internal(err, "client.update", "failed to update client")
	}

	return client, nil
}

// Delete removes a client row.
func (s *ClientStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "client.delete", "failed to delete client")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("client.delete", "client", id.String())
	}
	return nil
}

// scanClient scans a client row in clientColumns order.
func scanClient(row interface{ Scan(dest ...any) error }) (*domain.Client, error) {
	var c domain.Client
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.TaxID,
		&c.Address, &c.AddressNum, &c.Complement, &c.District,
		&c.City, &c.State, &c.PostalCode, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
