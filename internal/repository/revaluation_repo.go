package repository

import (
	"context"
	"errors"
	"time"

	"gl-service/internal/domain"
	"gl-service/internal/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RevaluationRepository interface {
	Create(ctx context.Context, run *domain.RevaluationRun, tx pgx.Tx) error
	ExistsForDate(ctx context.Context, bankAccountID int64, asOf time.Time) (bool, error)
	ListByBankAccount(ctx context.Context, bankAccountID int64) ([]*domain.RevaluationRun, error)
}

type revaluationRepo struct {
	db *pgxpool.Pool
}

func NewRevaluationRepo(db *pgxpool.Pool) RevaluationRepository {
	return &revaluationRepo{db: db}
}

// Create records an executed revaluation. The unique index on
// (bank_account_id, as_of) backs the one-run-per-date rule even under
// concurrent requests; a violation surfaces as a ConflictError.
func (r *revaluationRepo) Create(ctx context.Context, run *domain.RevaluationRun, tx pgx.Tx) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	now := time.Now()
	err := tx.QueryRow(ctx, `
		INSERT INTO revaluation_runs (bank_account_id, as_of, spot_rate, old_local, new_local, diff, journal_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, run.BankAccountID, run.AsOf, run.SpotRate, run.OldLocal, run.NewLocal, run.Diff, run.JournalID, now).Scan(&run.ID)
	if err != nil {
		if xerrors.ParsePGErrorCode(err) == xerrors.PGUniqueViolation {
			return xerrors.Conflict("revaluation already posted for bank account %d as of %s",
				run.BankAccountID, run.AsOf.Format("2006-01-02"))
		}
		return err
	}
	run.CreatedAt = now
	return nil
}

func (r *revaluationRepo) ExistsForDate(ctx context.Context, bankAccountID int64, asOf time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM revaluation_runs
			WHERE bank_account_id=$1 AND as_of=$2
		)
	`, bankAccountID, asOf).Scan(&exists)
	return exists, err
}

func (r *revaluationRepo) ListByBankAccount(ctx context.Context, bankAccountID int64) ([]*domain.RevaluationRun, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, bank_account_id, as_of, spot_rate, old_local, new_local, diff, journal_id, created_at
		FROM revaluation_runs
		WHERE bank_account_id=$1
		ORDER BY as_of DESC
	`, bankAccountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.RevaluationRun
	for rows.Next() {
		var run domain.RevaluationRun
		if err := rows.Scan(
			&run.ID, &run.BankAccountID, &run.AsOf, &run.SpotRate,
			&run.OldLocal, &run.NewLocal, &run.Diff, &run.JournalID, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	if len(runs) == 0 {
		return nil, xerrors.ErrNotFound
	}
	return runs, rows.Err()
}
