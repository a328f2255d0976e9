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

type BankAccountRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.BankAccount, error)
	GetByCode(ctx context.Context, code string) (*domain.BankAccount, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.BankAccount, error)
	Upsert(ctx context.Context, b *domain.BankAccount, tx pgx.Tx) error
	Deactivate(ctx context.Context, id int64) error
}

type bankAccountRepo struct {
	db *pgxpool.Pool
}

func NewBankAccountRepo(db *pgxpool.Pool) BankAccountRepository {
	return &bankAccountRepo{db: db}
}

const bankAccountColumns = `id, code, name, method, currency, ledger_account_id, is_active, created_at, updated_at`

func scanBankAccount(row pgx.Row) (*domain.BankAccount, error) {
	var b domain.BankAccount
	err := row.Scan(
		&b.ID, &b.Code, &b.Name, &b.Method, &b.Currency,
		&b.LedgerAccountID, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *bankAccountRepo) GetByID(ctx context.Context, id int64) (*domain.BankAccount, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+bankAccountColumns+`
		FROM bank_accounts
		WHERE id=$1
	`, id)
	return scanBankAccount(row)
}

func (r *bankAccountRepo) GetByCode(ctx context.Context, code string) (*domain.BankAccount, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+bankAccountColumns+`
		FROM bank_accounts
		WHERE code=$1
	`, code)
	return scanBankAccount(row)
}

func (r *bankAccountRepo) List(ctx context.Context, activeOnly bool) ([]*domain.BankAccount, error) {
	q := `SELECT ` + bankAccountColumns + ` FROM bank_accounts`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY code ASC`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.BankAccount
	for rows.Next() {
		b, err := scanBankAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, b)
	}
	return accounts, rows.Err()
}

func (r *bankAccountRepo) Upsert(ctx context.Context, b *domain.BankAccount, tx pgx.Tx) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	now := time.Now()
	return tx.QueryRow(ctx, `
		INSERT INTO bank_accounts (code, name, method, currency, ledger_account_id, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
		    method = EXCLUDED.method,
		    currency = EXCLUDED.currency,
		    ledger_account_id = EXCLUDED.ledger_account_id,
		    updated_at = EXCLUDED.updated_at
		RETURNING id
	`, b.Code, b.Name, b.Method, b.Currency, b.LedgerAccountID, b.IsActive, now, now).Scan(&b.ID)
}

// Deactivate soft-disables a bank account. Historical GL lines keep pointing
// at its linked ledger account, so rows are never deleted.
func (r *bankAccountRepo) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE bank_accounts
		SET is_active = false, updated_at = $2
		WHERE id=$1
	`, id, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
