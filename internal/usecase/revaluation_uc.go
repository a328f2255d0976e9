package usecase

import (
	"context"
	"fmt"
	"time"

	"gl-service/internal/domain"
	"gl-service/internal/repository"
	"gl-service/internal/xerrors"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RevaluationUsecase restates foreign-currency bank balances at a period-end
// spot rate. The arithmetic is pure (domain.ComputeRevaluation); this layer
// does the aggregation lookup, the one-run-per-date guard, and the posting.
type RevaluationUsecase struct {
	accountRepo        repository.AccountRepository
	bankRepo           repository.BankAccountRepository
	journalRepo        repository.JournalRepository
	revaluationRepo    repository.RevaluationRepository
	postingRepo        repository.PostingRepository
	events             JournalEvents
	redisClient        *redis.Client
	logger             *zap.Logger
	functionalCurrency string
}

func NewRevaluationUsecase(
	accountRepo repository.AccountRepository,
	bankRepo repository.BankAccountRepository,
	journalRepo repository.JournalRepository,
	revaluationRepo repository.RevaluationRepository,
	postingRepo repository.PostingRepository,
	events JournalEvents,
	redisClient *redis.Client,
	logger *zap.Logger,
	functionalCurrency string,
) *RevaluationUsecase {
	return &RevaluationUsecase{
		accountRepo:        accountRepo,
		bankRepo:           bankRepo,
		journalRepo:        journalRepo,
		revaluationRepo:    revaluationRepo,
		postingRepo:        postingRepo,
		events:             events,
		redisClient:        redisClient,
		logger:             logger,
		functionalCurrency: functionalCurrency,
	}
}

// RevaluationInput requests a period-end revaluation of one bank account.
type RevaluationInput struct {
	BankAccountID int64           `json:"bank_account_id"`
	AsOf          time.Time       `json:"as_of"`
	SpotRate      decimal.Decimal `json:"spot_rate"`
	Remarks       string          `json:"remarks,omitempty"`
}

// PostFXRevaluation recomputes the functional-currency value of a foreign
// bank balance at the spot rate. A zero difference reports the figures only
// and never creates an empty journal. A repeat request for the same account
// and as-of date is a conflict.
func (uc *RevaluationUsecase) PostFXRevaluation(ctx context.Context, in RevaluationInput) (*domain.RevaluationResult, error) {
	if in.AsOf.IsZero() {
		return nil, xerrors.Validation("as_of_required", "as-of date is required")
	}
	if in.SpotRate.IsNegative() {
		return nil, xerrors.Validation("negative_rate", "spot rate must not be negative")
	}

	bank, err := uc.bankRepo.GetByID(ctx, in.BankAccountID)
	if err != nil {
		return nil, fmt.Errorf("bank account %d: %w", in.BankAccountID, err)
	}
	if !bank.IsActive {
		return nil, xerrors.Validation("bank_account_inactive", "bank account %s is inactive", bank.Code)
	}
	if bank.Currency == uc.functionalCurrency {
		return nil, xerrors.Validation("functional_currency",
			"bank account %s is already denominated in the functional currency", bank.Code)
	}

	exists, err := uc.revaluationRepo.ExistsForDate(ctx, bank.ID, in.AsOf)
	if err != nil {
		return nil, fmt.Errorf("failed to check prior revaluations: %w", err)
	}
	if exists {
		return nil, xerrors.Conflict("revaluation already posted for bank account %s as of %s",
			bank.Code, in.AsOf.Format("2006-01-02"))
	}

	bankLedger, err := uc.accountRepo.GetByID(ctx, bank.LedgerAccountID)
	if err != nil {
		return nil, fmt.Errorf("ledger account for bank account %s: %w", bank.Code, err)
	}

	activity, err := uc.journalRepo.AccountActivity(ctx, bankLedger.ID, bank.Currency, in.AsOf)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate account activity: %w", err)
	}

	figures := domain.ComputeRevaluation(*activity, in.SpotRate)
	result := &domain.RevaluationResult{
		BankAccountID: bank.ID,
		AsOf:          in.AsOf,
		SpotRate:      in.SpotRate,
		Figures:       figures,
	}

	if figures.Diff.IsZero() {
		if uc.logger != nil {
			uc.logger.Info("revaluation is a no-op",
				zap.String("bank_account", bank.Code),
				zap.Time("as_of", in.AsOf),
				zap.String("booked_local", figures.BookedLocal.StringFixed(2)),
			)
		}
		return result, nil
	}

	code := domain.CodeFXLoss
	if figures.Diff.IsPositive() {
		code = domain.CodeFXGain
	}
	fxAcct, err := uc.accountRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve FX account: %w", err)
	}

	remarks := fmt.Sprintf("FX revaluation @ %s: local balance %s -> %s",
		in.SpotRate.String(), figures.BookedLocal.StringFixed(2), figures.RevaluedLocal.StringFixed(2))
	if in.Remarks != "" {
		remarks = remarks + "; " + in.Remarks
	}

	// Both lines move only local value. The bank-side line stays in the
	// account's own currency with a zero foreign amount, so the next
	// revaluation's booked-local aggregate picks it up while its net
	// foreign position is untouched.
	j := &domain.Journal{
		VoucherDate: in.AsOf,
		SourceType:  domain.SourceFXRevaluation,
		Remarks:     remarks,
		Lines: []domain.GLLine{
			domain.AdjustmentLine(bankLedger.ID, bank.Currency, in.SpotRate, figures.Diff),
			domain.AdjustmentLine(fxAcct.ID, uc.functionalCurrency, decimal.NewFromInt(1), figures.Diff.Neg()),
		},
	}
	if err := domain.ValidateBalanced(j.Lines); err != nil {
		return nil, err
	}

	run := &domain.RevaluationRun{
		BankAccountID: bank.ID,
		AsOf:          in.AsOf,
		SpotRate:      in.SpotRate,
		OldLocal:      figures.BookedLocal,
		NewLocal:      figures.RevaluedLocal,
		Diff:          figures.Diff,
	}

	if err := uc.postingRepo.PostRevaluation(ctx, j, run); err != nil {
		return nil, err
	}
	result.Journal = j

	if uc.events != nil {
		if err := uc.events.JournalPosted(ctx, j); err != nil && uc.logger != nil {
			uc.logger.Warn("journal event publish failed",
				zap.String("voucher_no", j.VoucherNo), zap.Error(err))
		}
	}
	invalidateAccountCaches(ctx, uc.redisClient, bankLedger.ID, fxAcct.ID)

	if uc.logger != nil {
		uc.logger.Info("posted FX revaluation",
			zap.String("voucher_no", j.VoucherNo),
			zap.String("bank_account", bank.Code),
			zap.String("diff", figures.Diff.StringFixed(2)),
		)
	}
	return result, nil
}

// ListRuns returns the revaluation history for one bank account.
func (uc *RevaluationUsecase) ListRuns(ctx context.Context, bankAccountID int64) ([]*domain.RevaluationRun, error) {
	return uc.revaluationRepo.ListByBankAccount(ctx, bankAccountID)
}
