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

type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
	Upsert(ctx context.Context, a *domain.Account, tx pgx.Tx) error
}

type accountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepo(db *pgxpool.Pool) AccountRepository {
	return &accountRepo{db: db}
}

const accountColumns = `id, code, name, type, normal_balance, parent_id, is_leaf, allow_manual_post, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance,
		&a.ParentID, &a.IsLeaf, &a.AllowManualPost, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM coa_accounts
		WHERE id=$1
	`, id)
	return scanAccount(row)
}

func (r *accountRepo) GetByCode(ctx context.Context, code string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM coa_accounts
		WHERE code=$1
	`, code)
	return scanAccount(row)
}

func (r *accountRepo) List(ctx context.Context) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM coa_accounts
		ORDER BY code ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Upsert inserts or refreshes a chart-of-accounts node inside a transaction.
// Used by the system seeder only; the posting core treats the chart as
// read-only.
func (r *accountRepo) Upsert(ctx context.Context, a *domain.Account, tx pgx.Tx) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	now := time.Now()
	return tx.QueryRow(ctx, `
		INSERT INTO coa_accounts (code, name, type, normal_balance, parent_id, is_leaf, allow_manual_post, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
		    type = EXCLUDED.type,
		    normal_balance = EXCLUDED.normal_balance,
		    is_leaf = EXCLUDED.is_leaf,
		    allow_manual_post = EXCLUDED.allow_manual_post,
		    updated_at = EXCLUDED.updated_at
		RETURNING id
	`, a.Code, a.Name, a.Type, a.NormalBalance, a.ParentID, a.IsLeaf, a.AllowManualPost, now, now).Scan(&a.ID)
}
