package db

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
)

// IncrementInvoiceSequence bumps an existing counter in a single statement,
// so concurrent callers always read distinct values.
func (s *Store) IncrementInvoiceSequence(ctx context.Context, scope string) (int64, bool, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `UPDATE invoice_sequences
		SET last_value = last_value + 1, updated_at = now()
		WHERE scope = $1
		RETURNING last_value`, scope).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storeErr(err, "incrementing invoice sequence")
	}
	return v, true, nil
}

// InitInvoiceSequence creates the counter at floor+1. A caller that loses the
// race to create it gets the next value instead.
func (s *Store) InitInvoiceSequence(ctx context.Context, scope string, floor int64) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO invoice_sequences (scope, last_value)
		VALUES ($1, $2::bigint + 1)
		ON CONFLICT (scope) DO UPDATE
		SET last_value = invoice_sequences.last_value + 1, updated_at = now()
		RETURNING last_value`, scope, floor).Scan(&v)
	if err != nil {
		return 0, storeErr(err, "initialising invoice sequence")
	}
	return v, nil
}
