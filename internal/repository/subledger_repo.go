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

type SubledgerRepository interface {
	Create(ctx context.Context, t *domain.SubledgerTransaction, tx pgx.Tx) error
	GetByID(ctx context.Context, id int64) (*domain.SubledgerTransaction, error)
	GetByRefCode(ctx context.Context, refCode string) (*domain.SubledgerTransaction, error)
	ListByCounterparty(ctx context.Context, counterpartyID string, limit, offset int) ([]*domain.SubledgerTransaction, error)
}

type subledgerRepo struct {
	db *pgxpool.Pool
}

func NewSubledgerRepo(db *pgxpool.Pool) SubledgerRepository {
	return &subledgerRepo{db: db}
}

// Create inserts a subledger transaction inside the posting transaction.
// Rows are immutable once committed.
func (r *subledgerRepo) Create(ctx context.Context, t *domain.SubledgerTransaction, tx pgx.Tx) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	now := time.Now()
	err := tx.QueryRow(ctx, `
		INSERT INTO subledger_txns (ref_code, txn_date, source_type, invoice_no, counterparty_id, amount, currency, exchange_rate, local_amount, bank_account_id, remarks, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id
	`, t.RefCode, t.TxnDate, t.SourceType, t.InvoiceNo, t.CounterpartyID,
		t.Amount, t.Currency, t.ExchangeRate, t.LocalAmount, t.BankAccountID, t.Remarks, now).Scan(&t.ID)
	if err != nil {
		return err
	}
	t.CreatedAt = now
	return nil
}

const subledgerColumns = `id, ref_code, txn_date, source_type, invoice_no, counterparty_id, amount, currency, exchange_rate, local_amount, bank_account_id, remarks, created_at`

func scanSubledger(row pgx.Row) (*domain.SubledgerTransaction, error) {
	var t domain.SubledgerTransaction
	err := row.Scan(
		&t.ID, &t.RefCode, &t.TxnDate, &t.SourceType, &t.InvoiceNo, &t.CounterpartyID,
		&t.Amount, &t.Currency, &t.ExchangeRate, &t.LocalAmount, &t.BankAccountID, &t.Remarks, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *subledgerRepo) GetByID(ctx context.Context, id int64) (*domain.SubledgerTransaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+subledgerColumns+`
		FROM subledger_txns
		WHERE id=$1
	`, id)
	return scanSubledger(row)
}

func (r *subledgerRepo) GetByRefCode(ctx context.Context, refCode string) (*domain.SubledgerTransaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+subledgerColumns+`
		FROM subledger_txns
		WHERE ref_code=$1
	`, refCode)
	return scanSubledger(row)
}

func (r *subledgerRepo) ListByCounterparty(ctx context.Context, counterpartyID string, limit, offset int) ([]*domain.SubledgerTransaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+subledgerColumns+`
		FROM subledger_txns
		WHERE counterparty_id=$1
		ORDER BY txn_date DESC, id DESC
		LIMIT $2 OFFSET $3
	`, counterpartyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.SubledgerTransaction
	for rows.Next() {
		t, err := scanSubledger(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
