package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/albertcolmenero/invoicehub/models"
)

const clientSelectQuery = `SELECT id, owner_id, name, email, phone, address, city, state, zip, created_at, updated_at
	FROM clients`

func scanClient(scanner interface{ Scan(...any) error }) (models.Client, error) {
	var c models.Client
	err := scanner.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.City, &c.State, &c.Zip,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (c *conn) FindClientByID(ctx context.Context, ownerID, clientID string) (models.Client, error) {
	client, err := scanClient(c.q.QueryRowContext(ctx, clientSelectQuery+" WHERE id = $1 AND owner_id = $2", clientID, ownerID))
	if err != nil {
		return models.Client{}, rowErr(err, "client", clientID)
	}
	return client, nil
}

func (c *conn) CountInvoicesForClient(ctx context.Context, clientID string) (int, error) {
	var n int
	if err := c.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices WHERE client_id = $1", clientID).Scan(&n); err != nil {
		return 0, storeErr(err, "counting client invoices")
	}
	return n, nil
}

func (c *conn) DeleteClient(ctx context.Context, ownerID, clientID string) error {
	res, err := c.q.ExecContext(ctx, "DELETE FROM clients WHERE id = $1 AND owner_id = $2", clientID, ownerID)
	if err != nil {
		return mapErr(err, "deleting client")
	}
	return affected(res, "client", clientID)
}

// ListClients returns the owner's clients ordered by name.
func (s *Store) ListClients(ctx context.Context, ownerID string) ([]models.Client, error) {
	rows, err := s.db.QueryContext(ctx, clientSelectQuery+" WHERE owner_id = $1 ORDER BY lower(name)", ownerID)
	if err != nil {
		return nil, storeErr(err, "listing clients")
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, storeErr(err, "scanning client")
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "listing clients")
	}
	return clients, nil
}

// GetClient loads a client together with its invoices.
func (s *Store) GetClient(ctx context.Context, ownerID, clientID string) (models.Client, error) {
	c, err := s.FindClientByID(ctx, ownerID, clientID)
	if err != nil {
		return models.Client{}, err
	}
	invoices, err := s.ListInvoices(ctx, ownerID, clientID)
	if err != nil {
		return models.Client{}, err
	}
	for i := range invoices {
		invoices[i].Client = nil
	}
	c.Invoices = invoices
	return c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := s.db.QueryRowContext(ctx, `INSERT INTO clients (id, owner_id, name, email, phone, address, city, state, zip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		c.ID, c.OwnerID, c.Name, c.Email, c.Phone, c.Address, c.City, c.State, c.Zip,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return mapErr(err, "inserting client")
	}
	return nil
}

func (s *Store) UpdateClient(ctx context.Context, c *models.Client) error {
	err := s.db.QueryRowContext(ctx, `UPDATE clients
		SET name = $3, email = $4, phone = $5, address = $6, city = $7, state = $8, zip = $9, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`,
		c.ID, c.OwnerID, c.Name, c.Email, c.Phone, c.Address, c.City, c.State, c.Zip,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return rowErr(err, "client", c.ID)
	}
	return nil
}
