package service

import (
	"context"
	"fmt"

	"gl-service/internal/domain"
	"gl-service/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SystemSeeder installs the default chart of accounts and bank accounts on
// boot. Seeding is idempotent: every row is an upsert keyed on its code, so
// a restart refreshes names and flags without duplicating nodes.
type SystemSeeder struct {
	accountRepo repository.AccountRepository
	bankRepo    repository.BankAccountRepository
	db          *pgxpool.Pool
	logger      *zap.Logger
}

func NewSystemSeeder(
	accountRepo repository.AccountRepository,
	bankRepo repository.BankAccountRepository,
	db *pgxpool.Pool,
	logger *zap.Logger,
) *SystemSeeder {
	return &SystemSeeder{
		accountRepo: accountRepo,
		bankRepo:    bankRepo,
		db:          db,
		logger:      logger,
	}
}

func (s *SystemSeeder) SeedSystem(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	idsByCode, err := s.seedChartOfAccounts(ctx, tx)
	if err != nil {
		return err
	}
	if err := s.seedBankAccounts(ctx, tx, idsByCode); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("system seeding completed")
	}
	return nil
}

// seedChartOfAccounts walks the default chart parent-first so child nodes
// can reference their parent's id. Codes are dotted paths; the parent code
// of "1.1.2" is "1.1".
func (s *SystemSeeder) seedChartOfAccounts(ctx context.Context, tx pgx.Tx) (map[string]int64, error) {
	idsByCode := make(map[string]int64, len(domain.DefaultChartOfAccounts))

	for _, tpl := range domain.DefaultChartOfAccounts {
		a := *tpl
		if parent := parentCode(a.Code); parent != "" {
			a.ParentID = idsByCode[parent]
		}
		if err := s.accountRepo.Upsert(ctx, &a, tx); err != nil {
			return nil, fmt.Errorf("failed to seed account %s: %w", a.Code, err)
		}
		idsByCode[a.Code] = a.ID
	}
	return idsByCode, nil
}

func (s *SystemSeeder) seedBankAccounts(ctx context.Context, tx pgx.Tx, idsByCode map[string]int64) error {
	for _, tpl := range domain.DefaultBankAccounts {
		ledgerID, ok := idsByCode[tpl.LedgerAccountCode]
		if !ok {
			return fmt.Errorf("ledger account %s is not in the default chart", tpl.LedgerAccountCode)
		}

		b := domain.BankAccount{
			Code:            tpl.Code,
			Name:            tpl.Name,
			Method:          tpl.Method,
			Currency:        tpl.Currency,
			LedgerAccountID: ledgerID,
			IsActive:        true,
		}
		if err := s.bankRepo.Upsert(ctx, &b, tx); err != nil {
			return fmt.Errorf("failed to seed bank account %s: %w", b.Code, err)
		}
	}
	return nil
}

func parentCode(code string) string {
	for i := len(code) - 1; i >= 0; i-- {
		if code[i] == '.' {
			return code[:i]
		}
	}
	return ""
}
