package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/albertcolmenero/invoicehub/apperr"
	"github.com/albertcolmenero/invoicehub/billing"
	"github.com/albertcolmenero/invoicehub/models"
)

const invoiceColumns = `i.id, i.owner_id, i.invoice_number, i.client_id, i.invoice_date, i.due_date, i.status,
	i.subtotal, i.tax_amount, i.total, i.payment_terms, i.notes, i.shareable_link, i.view_count, i.last_viewed,
	i.created_at, i.updated_at`

const invoiceSelectQuery = `SELECT ` + invoiceColumns + ` FROM invoices i`

// invoiceListQuery joins the client so lists need no second round trip.
const invoiceListQuery = `SELECT ` + invoiceColumns + `,
	c.id, c.owner_id, c.name, c.email, c.phone, c.address, c.city, c.state, c.zip, c.created_at, c.updated_at
	FROM invoices i JOIN clients c ON c.id = i.client_id`

const invoiceItemSelectQuery = `SELECT id, invoice_id, position, description, quantity, unit_price, tax_percent, amount
	FROM invoice_items`

func invoiceDest(inv *models.Invoice) []any {
	return []any{&inv.ID, &inv.OwnerID, &inv.InvoiceNumber, &inv.ClientID, &inv.InvoiceDate, &inv.DueDate, &inv.Status,
		&inv.Subtotal, &inv.TaxAmount, &inv.Total, &inv.PaymentTerms, &inv.Notes, &inv.ShareableLink, &inv.ViewCount,
		&inv.LastViewed, &inv.CreatedAt, &inv.UpdatedAt}
}

func scanInvoice(scanner interface{ Scan(...any) error }) (models.Invoice, error) {
	var inv models.Invoice
	err := scanner.Scan(invoiceDest(&inv)...)
	return inv, err
}

func scanInvoiceWithClient(scanner interface{ Scan(...any) error }) (models.Invoice, error) {
	var inv models.Invoice
	var c models.Client
	dest := append(invoiceDest(&inv), &c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.City, &c.State,
		&c.Zip, &c.CreatedAt, &c.UpdatedAt)
	err := scanner.Scan(dest...)
	inv.Client = &c
	return inv, err
}

func scanInvoiceItem(scanner interface{ Scan(...any) error }) (models.InvoiceItem, error) {
	var it models.InvoiceItem
	err := scanner.Scan(&it.ID, &it.InvoiceID, &it.Position, &it.Description, &it.Quantity, &it.UnitPrice,
		&it.TaxPercent, &it.Amount)
	return it, err
}

// load attaches items and client to an invoice header.
func (c *conn) load(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	rows, err := c.q.QueryContext(ctx, invoiceItemSelectQuery+" WHERE invoice_id = $1 ORDER BY position", inv.ID)
	if err != nil {
		return models.Invoice{}, storeErr(err, "listing invoice items")
	}
	defer rows.Close()

	inv.Items = []models.InvoiceItem{}
	for rows.Next() {
		it, err := scanInvoiceItem(rows)
		if err != nil {
			return models.Invoice{}, storeErr(err, "scanning invoice item")
		}
		inv.Items = append(inv.Items, it)
	}
	if err := rows.Err(); err != nil {
		return models.Invoice{}, storeErr(err, "listing invoice items")
	}

	client, err := c.FindClientByID(ctx, inv.OwnerID, inv.ClientID)
	if err != nil {
		return models.Invoice{}, err
	}
	inv.Client = &client
	return inv, nil
}

func (c *conn) GetInvoice(ctx context.Context, ownerID, invoiceID string) (models.Invoice, error) {
	inv, err := scanInvoice(c.q.QueryRowContext(ctx, invoiceSelectQuery+" WHERE i.id = $1 AND i.owner_id = $2", invoiceID, ownerID))
	if err != nil {
		return models.Invoice{}, rowErr(err, "invoice", invoiceID)
	}
	return c.load(ctx, inv)
}

func (c *conn) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	_, err := c.q.ExecContext(ctx, `INSERT INTO invoices
		(id, owner_id, invoice_number, client_id, invoice_date, due_date, status, subtotal, tax_amount, total,
		 payment_terms, notes, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14)`,
		inv.ID, inv.OwnerID, inv.InvoiceNumber, inv.ClientID, inv.InvoiceDate, inv.DueDate, string(inv.Status),
		inv.Subtotal, inv.TaxAmount, inv.Total, inv.PaymentTerms, inv.Notes, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return mapErr(err, "inserting invoice")
	}
	return c.CreateInvoiceItems(ctx, inv.ID, inv.Items)
}

func (c *conn) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	updatedAt := inv.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	res, err := c.q.ExecContext(ctx, `UPDATE invoices
		SET client_id = $3, invoice_date = $4, due_date = $5, status = $6, subtotal = $7, tax_amount = $8,
		    total = $9, payment_terms = $10, notes = $11, updated_at = $12
		WHERE id = $1 AND owner_id = $2`,
		inv.ID, inv.OwnerID, inv.ClientID, inv.InvoiceDate, inv.DueDate, string(inv.Status), inv.Subtotal,
		inv.TaxAmount, inv.Total, inv.PaymentTerms, inv.Notes, updatedAt)
	if err != nil {
		return mapErr(err, "updating invoice")
	}
	return affected(res, "invoice", inv.ID)
}

func (c *conn) DeleteInvoiceItems(ctx context.Context, invoiceID string) error {
	if _, err := c.q.ExecContext(ctx, "DELETE FROM invoice_items WHERE invoice_id = $1", invoiceID); err != nil {
		return mapErr(err, "deleting invoice items")
	}
	return nil
}

func (c *conn) CreateInvoiceItems(ctx context.Context, invoiceID string, items []models.InvoiceItem) error {
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		_, err := c.q.ExecContext(ctx, `INSERT INTO invoice_items
			(id, invoice_id, position, description, quantity, unit_price, tax_percent, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, invoiceID, it.Position, it.Description, it.Quantity, it.UnitPrice, it.TaxPercent, it.Amount)
		if err != nil {
			return mapErr(err, "inserting invoice item")
		}
	}
	return nil
}

// SetShareableLink writes token only when no token is stored yet.
func (c *conn) SetShareableLink(ctx context.Context, ownerID, invoiceID, token string) (string, error) {
	var stored string
	err := c.q.QueryRowContext(ctx, `UPDATE invoices
		SET shareable_link = COALESCE(shareable_link, $3)
		WHERE id = $1 AND owner_id = $2
		RETURNING shareable_link`, invoiceID, ownerID, token).Scan(&stored)
	if err != nil {
		return "", rowErr(err, "invoice", invoiceID)
	}
	return stored, nil
}

// CreateInvoice inserts header and items in one transaction.
func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	return s.Atomically(ctx, func(tx billing.Tx) error { return tx.CreateInvoice(ctx, inv) })
}

func (s *Store) FindMostRecentInvoice(ctx context.Context, ownerID string) (*models.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRowContext(ctx, invoiceSelectQuery+`
		WHERE ($1::text = '' OR i.owner_id = $1)
		ORDER BY i.created_at DESC, i.invoice_number DESC
		LIMIT 1`, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "finding most recent invoice")
	}
	return &inv, nil
}

func (s *Store) FindInvoiceByShareToken(ctx context.Context, token string) (models.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRowContext(ctx, invoiceSelectQuery+" WHERE i.shareable_link = $1", token))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invoice{}, apperr.New("unknown share token").
			WithHint("invoice not found").
			Mark(apperr.ErrNotFound)
	}
	if err != nil {
		return models.Invoice{}, storeErr(err, "finding shared invoice")
	}
	return s.load(ctx, inv)
}

func (s *Store) IncrementViewCount(ctx context.Context, invoiceID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE invoices SET view_count = view_count + 1, last_viewed = $2 WHERE id = $1",
		invoiceID, at)
	if err != nil {
		return storeErr(err, "incrementing view count")
	}
	return affected(res, "invoice", invoiceID)
}

// ListInvoices returns the owner's invoices newest first with their client,
// optionally only those of clientID. Items are not loaded.
func (s *Store) ListInvoices(ctx context.Context, ownerID, clientID string) ([]models.Invoice, error) {
	query := invoiceListQuery + " WHERE i.owner_id = $1"
	args := []any{ownerID}
	if clientID != "" {
		query += " AND i.client_id = $2"
		args = append(args, clientID)
	}
	query += " ORDER BY i.created_at DESC, i.invoice_number DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "listing invoices")
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoiceWithClient(rows)
		if err != nil {
			return nil, storeErr(err, "scanning invoice")
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "listing invoices")
	}
	return lo.Map(invoices, func(inv models.Invoice, _ int) models.Invoice {
		inv.Items = []models.InvoiceItem{}
		return inv
	}), nil
}

// DeleteInvoice removes the invoice; its items go with it.
func (s *Store) DeleteInvoice(ctx context.Context, ownerID, invoiceID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = $1 AND owner_id = $2", invoiceID, ownerID)
	if err != nil {
		return mapErr(err, "deleting invoice")
	}
	return affected(res, "invoice", invoiceID)
}
