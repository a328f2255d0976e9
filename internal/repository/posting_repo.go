package repository

import (
	"context"
	"fmt"

	"gl-service/internal/domain"
	"gl-service/internal/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostingRepository is the unit of work for the posting engine: everything a
// business event writes (subledger record, journal header, lines, sequence
// increment, revaluation run) commits in one database transaction or not at
// all. Callers validate first — the voucher number is minted only after
// validation has passed, inside the transaction, so a rejected request never
// consumes one.
type PostingRepository interface {
	PostJournal(ctx context.Context, j *domain.Journal, sub *domain.SubledgerTransaction) error
	PostRevaluation(ctx context.Context, j *domain.Journal, run *domain.RevaluationRun) error
}

type postingRepo struct {
	db              *pgxpool.Pool
	journals        JournalRepository
	subledgers      SubledgerRepository
	sequences       SequenceRepository
	revaluationRuns RevaluationRepository
}

func NewPostingRepo(
	db *pgxpool.Pool,
	journals JournalRepository,
	subledgers SubledgerRepository,
	sequences SequenceRepository,
	revaluationRuns RevaluationRepository,
) PostingRepository {
	return &postingRepo{
		db:              db,
		journals:        journals,
		subledgers:      subledgers,
		sequences:       sequences,
		revaluationRuns: revaluationRuns,
	}
}

func (r *postingRepo) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// PostJournal persists a journal, its lines, and (when the event settles a
// subledger) the paired subledger transaction, in one transaction.
func (r *postingRepo) PostJournal(ctx context.Context, j *domain.Journal, sub *domain.SubledgerTransaction) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if sub != nil {
		if err := r.subledgers.Create(ctx, sub, tx); err != nil {
			return fmt.Errorf("failed to create subledger transaction: %w", err)
		}
		// The subledger id exists only now; stamp it into the journal and
		// any line refs built against it.
		j.SourceID = sub.ID
		for i := range j.Lines {
			if ref := j.Lines[i].Ref; ref != nil && ref.TransactionID == 0 {
				ref.TransactionID = sub.ID
			}
		}
	}

	if err := r.mintVoucher(ctx, tx, j); err != nil {
		return err
	}

	if err := r.journals.Create(ctx, j, tx); err != nil {
		if xerrors.ParsePGErrorCode(err) == xerrors.PGUniqueViolation {
			return xerrors.Conflict("voucher number %s already exists", j.VoucherNo)
		}
		return fmt.Errorf("failed to create journal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit posting: %w", err)
	}
	return nil
}

// PostRevaluation persists a revaluation journal together with its run
// record. The run's unique (account, date) index rejects a duplicate
// revaluation inside the same transaction that would have written it.
func (r *postingRepo) PostRevaluation(ctx context.Context, j *domain.Journal, run *domain.RevaluationRun) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := r.mintVoucher(ctx, tx, j); err != nil {
		return err
	}

	if err := r.journals.Create(ctx, j, tx); err != nil {
		if xerrors.ParsePGErrorCode(err) == xerrors.PGUniqueViolation {
			return xerrors.Conflict("voucher number %s already exists", j.VoucherNo)
		}
		return fmt.Errorf("failed to create journal: %w", err)
	}

	run.JournalID = j.ID
	if err := r.revaluationRuns.Create(ctx, run, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit revaluation: %w", err)
	}
	return nil
}

// mintVoucher formats a voucher number from the per-source, per-year
// sequence, e.g. RCV-2026-000042.
func (r *postingRepo) mintVoucher(ctx context.Context, tx pgx.Tx, j *domain.Journal) error {
	year := j.VoucherDate.Year()
	seq, err := r.sequences.Next(ctx, tx, j.SourceType.SequenceName(year))
	if err != nil {
		return fmt.Errorf("failed to mint voucher number: %w", err)
	}
	j.VoucherNo = fmt.Sprintf("%s-%d-%06d", j.SourceType.VoucherPrefix(), year, seq)
	return nil
}
