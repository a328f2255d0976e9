package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceRepository mints monotonically increasing values from named
// counters. Next must run inside the caller's transaction: the increment is
// a single atomic upsert (never read-then-write), and an aborted unit of
// work rolls the counter back with everything else. A mint that commits is
// never reused, so a late write failure leaves a gap in voucher numbers;
// that is an accepted property of the audit trail.
type SequenceRepository interface {
	Next(ctx context.Context, tx pgx.Tx, name string) (int64, error)
}

type sequenceRepo struct {
	db *pgxpool.Pool
}

func NewSequenceRepo(db *pgxpool.Pool) SequenceRepository {
	return &sequenceRepo{db: db}
}

func (r *sequenceRepo) Next(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction cannot be nil")
	}

	var value int64
	err := tx.QueryRow(ctx, `
		INSERT INTO sequences (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE
		SET value = sequences.value + 1
		RETURNING value
	`, name).Scan(&value)
	return value, err
}
