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

type JournalRepository interface {
	Create(ctx context.Context, j *domain.Journal, tx pgx.Tx) error
	GetByID(ctx context.Context, id int64) (*domain.Journal, error)
	GetByVoucherNo(ctx context.Context, voucherNo string) (*domain.Journal, error)
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Journal, error)
	AccountActivity(ctx context.Context, accountID int64, currency string, cutoff time.Time) (*domain.AccountActivity, error)
}

type journalRepo struct {
	db *pgxpool.Pool
}

func NewJournalRepo(db *pgxpool.Pool) JournalRepository {
	return &journalRepo{db: db}
}

// Create inserts the journal header and all of its lines inside the given
// transaction. Lines are append-only; there is no update path.
func (r *journalRepo) Create(ctx context.Context, j *domain.Journal, tx pgx.Tx) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	now := time.Now()
	err := tx.QueryRow(ctx, `
		INSERT INTO gl_journals (voucher_no, voucher_date, source_type, source_id, remarks, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, j.VoucherNo, j.VoucherDate, j.SourceType, j.SourceID, j.Remarks, now).Scan(&j.ID)
	if err != nil {
		return err
	}
	j.CreatedAt = now

	for i := range j.Lines {
		l := &j.Lines[i]
		l.JournalID = j.ID

		var refType *domain.SourceType
		var refTxnID *int64
		var refLine *int
		if l.Ref != nil {
			refType = &l.Ref.SourceType
			refTxnID = &l.Ref.TransactionID
			refLine = &l.Ref.Line
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO gl_lines (journal_id, account_id, debit, credit, currency, exchange_rate, local_amount, ref_source_type, ref_txn_id, ref_line, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			RETURNING id
		`, l.JournalID, l.AccountID, l.Debit, l.Credit, l.Currency, l.ExchangeRate, l.LocalAmount, refType, refTxnID, refLine, now).Scan(&l.ID)
		if err != nil {
			return err
		}
		l.CreatedAt = now
	}

	return nil
}

func (r *journalRepo) GetByID(ctx context.Context, id int64) (*domain.Journal, error) {
	return r.getOne(ctx, `WHERE id=$1`, id)
}

func (r *journalRepo) GetByVoucherNo(ctx context.Context, voucherNo string) (*domain.Journal, error) {
	return r.getOne(ctx, `WHERE voucher_no=$1`, voucherNo)
}

func (r *journalRepo) getOne(ctx context.Context, where string, arg any) (*domain.Journal, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, voucher_no, voucher_date, source_type, source_id, remarks, created_at
		FROM gl_journals
	`+where, arg)

	var j domain.Journal
	err := row.Scan(&j.ID, &j.VoucherNo, &j.VoucherDate, &j.SourceType, &j.SourceID, &j.Remarks, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}

	lines, err := r.linesForJournal(ctx, j.ID)
	if err != nil {
		return nil, err
	}
	j.Lines = lines
	return &j, nil
}

func (r *journalRepo) linesForJournal(ctx context.Context, journalID int64) ([]domain.GLLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, journal_id, account_id, debit, credit, currency, exchange_rate, local_amount, ref_source_type, ref_txn_id, ref_line, created_at
		FROM gl_lines
		WHERE journal_id=$1
		ORDER BY id ASC
	`, journalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.GLLine
	for rows.Next() {
		var l domain.GLLine
		var refType *domain.SourceType
		var refTxnID *int64
		var refLine *int
		if err := rows.Scan(
			&l.ID, &l.JournalID, &l.AccountID, &l.Debit, &l.Credit,
			&l.Currency, &l.ExchangeRate, &l.LocalAmount,
			&refType, &refTxnID, &refLine, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		if refType != nil && refTxnID != nil && refLine != nil {
			l.Ref = &domain.SubledgerRef{SourceType: *refType, TransactionID: *refTxnID, Line: *refLine}
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListByAccount fetches journals that posted at least one line to the account.
func (r *journalRepo) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Journal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT j.id, j.voucher_no, j.voucher_date, j.source_type, j.source_id, j.remarks, j.created_at
		FROM gl_journals j
		JOIN gl_lines l ON l.journal_id = j.id
		WHERE l.account_id=$1
		ORDER BY j.voucher_date DESC, j.id DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var journals []*domain.Journal
	for rows.Next() {
		var j domain.Journal
		if err := rows.Scan(&j.ID, &j.VoucherNo, &j.VoucherDate, &j.SourceType, &j.SourceID, &j.Remarks, &j.CreatedAt); err != nil {
			return nil, err
		}
		journals = append(journals, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, j := range journals {
		lines, err := r.linesForJournal(ctx, j.ID)
		if err != nil {
			return nil, err
		}
		j.Lines = lines
	}

	return journals, nil
}

// AccountActivity aggregates every line posted to one account in one
// currency, dated on or before the cutoff. The revaluation math over the
// result lives in the domain package; this is only the query.
func (r *journalRepo) AccountActivity(ctx context.Context, accountID int64, currency string, cutoff time.Time) (*domain.AccountActivity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(l.debit), 0),
		       COALESCE(SUM(l.credit), 0),
		       COALESCE(SUM(l.local_amount), 0),
		       COUNT(l.id)
		FROM gl_lines l
		JOIN gl_journals j ON j.id = l.journal_id
		WHERE l.account_id=$1 AND l.currency=$2 AND j.voucher_date <= $3
	`, accountID, currency, cutoff)

	activity := domain.AccountActivity{AccountID: accountID, Currency: currency}
	if err := row.Scan(&activity.TotalDebit, &activity.TotalCredit, &activity.BookedLocal, &activity.LineCount); err != nil {
		return nil, err
	}
	return &activity, nil
}
