package usecase

import (
	"context"
	"fmt"
	"time"

	"gl-service/internal/domain"
	"gl-service/internal/repository"
	"gl-service/internal/xerrors"
	"gl-service/pkg/utils"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PostingUsecase turns business events into balanced journals paired with
// their subledger records. All validation happens before the unit of work
// opens; the composite posting repository then commits everything or nothing.
type PostingUsecase struct {
	accountRepo        repository.AccountRepository
	bankRepo           repository.BankAccountRepository
	postingRepo        repository.PostingRepository
	events             JournalEvents
	refCodes           *utils.RefCodeGenerator
	redisClient        *redis.Client
	logger             *zap.Logger
	functionalCurrency string
}

func NewPostingUsecase(
	accountRepo repository.AccountRepository,
	bankRepo repository.BankAccountRepository,
	postingRepo repository.PostingRepository,
	events JournalEvents,
	redisClient *redis.Client,
	logger *zap.Logger,
	functionalCurrency string,
) *PostingUsecase {
	return &PostingUsecase{
		accountRepo:        accountRepo,
		bankRepo:           bankRepo,
		postingRepo:        postingRepo,
		events:             events,
		refCodes:           utils.NewRefCodeGenerator(),
		redisClient:        redisClient,
		logger:             logger,
		functionalCurrency: functionalCurrency,
	}
}

// ARReceiptInput is a customer receipt against a sales invoice.
type ARReceiptInput struct {
	BankAccountID int64           `json:"bank_account_id"`
	CustomerID    string          `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	InvoiceNo     string          `json:"invoice_no"`
	Remarks       string          `json:"remarks,omitempty"`
}

// APPaymentInput is a payment to a supplier against a purchase invoice.
type APPaymentInput struct {
	BankAccountID int64           `json:"bank_account_id"`
	SupplierID    string          `json:"supplier_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	InvoiceNo     string          `json:"invoice_no"`
	Remarks       string          `json:"remarks,omitempty"`
}

// BankTransferInput moves money between two bank accounts, possibly across
// currencies. Each side carries its own amount and rate.
type BankTransferInput struct {
	FromBankAccountID int64           `json:"from_bank_account_id"`
	ToBankAccountID   int64           `json:"to_bank_account_id"`
	AmountFrom        decimal.Decimal `json:"amount_from"`
	CurrencyFrom      string          `json:"currency_from"`
	ExchangeRateFrom  decimal.Decimal `json:"exchange_rate_from"`
	AmountTo          decimal.Decimal `json:"amount_to"`
	CurrencyTo        string          `json:"currency_to"`
	ExchangeRateTo    decimal.Decimal `json:"exchange_rate_to"`
	Remarks           string          `json:"remarks,omitempty"`
}

// PostARReceipt books a customer receipt: debit the bank's ledger account,
// credit Accounts Receivable, both in the receipt currency, paired 1:1 with
// an AR subledger transaction.
func (uc *PostingUsecase) PostARReceipt(ctx context.Context, in ARReceiptInput) (*domain.Journal, *domain.SubledgerTransaction, error) {
	if err := validateSettlement(in.Amount, in.Currency, in.ExchangeRate, in.CustomerID, in.InvoiceNo); err != nil {
		return nil, nil, err
	}

	bank, bankLedger, err := uc.resolveBankAccount(ctx, in.BankAccountID, in.Currency)
	if err != nil {
		return nil, nil, err
	}
	arAcct, err := uc.accountRepo.GetByCode(ctx, domain.CodeAccountsReceivable)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve accounts receivable: %w", err)
	}

	now := time.Now()
	local := domain.LocalValue(in.Amount, in.ExchangeRate)

	sub := &domain.SubledgerTransaction{
		RefCode:        uc.refCodes.New("AR"),
		TxnDate:        now,
		SourceType:     domain.SubledgerSales,
		InvoiceNo:      in.InvoiceNo,
		CounterpartyID: in.CustomerID,
		Amount:         in.Amount,
		Currency:       in.Currency,
		ExchangeRate:   in.ExchangeRate,
		LocalAmount:    local,
		BankAccountID:  bank.ID,
		Remarks:        in.Remarks,
	}

	j := &domain.Journal{
		VoucherDate: now,
		SourceType:  domain.SourceARReceipt,
		Remarks:     in.Remarks,
		Lines: []domain.GLLine{
			domain.DebitLine(bankLedger.ID, in.Amount, in.Currency, in.ExchangeRate, domain.ARRef(0, 1)),
			domain.CreditLine(arAcct.ID, in.Amount, in.Currency, in.ExchangeRate, domain.ARRef(0, 2)),
		},
	}

	if err := domain.ValidateBalanced(j.Lines); err != nil {
		return nil, nil, err
	}
	if err := uc.postingRepo.PostJournal(ctx, j, sub); err != nil {
		return nil, nil, err
	}

	uc.afterPost(ctx, j, "AR receipt")
	return j, sub, nil
}

// PostAPPayment books a supplier payment: debit Accounts Payable, credit the
// bank's ledger account, paired 1:1 with an AP subledger transaction.
func (uc *PostingUsecase) PostAPPayment(ctx context.Context, in APPaymentInput) (*domain.Journal, *domain.SubledgerTransaction, error) {
	if err := validateSettlement(in.Amount, in.Currency, in.ExchangeRate, in.SupplierID, in.InvoiceNo); err != nil {
		return nil, nil, err
	}

	bank, bankLedger, err := uc.resolveBankAccount(ctx, in.BankAccountID, in.Currency)
	if err != nil {
		return nil, nil, err
	}
	apAcct, err := uc.accountRepo.GetByCode(ctx, domain.CodeAccountsPayable)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve accounts payable: %w", err)
	}

	now := time.Now()
	local := domain.LocalValue(in.Amount, in.ExchangeRate)

	sub := &domain.SubledgerTransaction{
		RefCode:        uc.refCodes.New("AP"),
		TxnDate:        now,
		SourceType:     domain.SubledgerPurchase,
		InvoiceNo:      in.InvoiceNo,
		CounterpartyID: in.SupplierID,
		Amount:         in.Amount,
		Currency:       in.Currency,
		ExchangeRate:   in.ExchangeRate,
		LocalAmount:    local,
		BankAccountID:  bank.ID,
		Remarks:        in.Remarks,
	}

	j := &domain.Journal{
		VoucherDate: now,
		SourceType:  domain.SourceAPPayment,
		Remarks:     in.Remarks,
		Lines: []domain.GLLine{
			domain.DebitLine(apAcct.ID, in.Amount, in.Currency, in.ExchangeRate, domain.APRef(0, 1)),
			domain.CreditLine(bankLedger.ID, in.Amount, in.Currency, in.ExchangeRate, domain.APRef(0, 2)),
		},
	}

	if err := domain.ValidateBalanced(j.Lines); err != nil {
		return nil, nil, err
	}
	if err := uc.postingRepo.PostJournal(ctx, j, sub); err != nil {
		return nil, nil, err
	}

	uc.afterPost(ctx, j, "AP payment")
	return j, sub, nil
}

// PostBankTransfer books a transfer between two bank accounts. Equal local
// values produce a 2-line journal; any divergence (cross-currency, or
// same-currency with drifting rate inputs) books the difference to FX Gain
// or FX Loss as a third, zero-amount adjustment line. This is the only
// place FX P&L is realized at transfer time rather than at period end.
func (uc *PostingUsecase) PostBankTransfer(ctx context.Context, in BankTransferInput) (*domain.Journal, error) {
	if in.FromBankAccountID == in.ToBankAccountID {
		return nil, xerrors.Validation("distinct_accounts", "source and destination bank accounts must differ")
	}
	if !in.AmountFrom.IsPositive() || !in.AmountTo.IsPositive() {
		return nil, xerrors.Validation("amount_positive", "transfer amounts must be positive")
	}
	if in.ExchangeRateFrom.IsNegative() || in.ExchangeRateTo.IsNegative() {
		return nil, xerrors.Validation("negative_rate", "exchange rates must not be negative")
	}

	_, fromLedger, err := uc.resolveBankAccount(ctx, in.FromBankAccountID, in.CurrencyFrom)
	if err != nil {
		return nil, err
	}
	_, toLedger, err := uc.resolveBankAccount(ctx, in.ToBankAccountID, in.CurrencyTo)
	if err != nil {
		return nil, err
	}

	localFrom := domain.LocalValue(in.AmountFrom, in.ExchangeRateFrom)
	localTo := domain.LocalValue(in.AmountTo, in.ExchangeRateTo)
	diff := domain.Round2(localTo.Sub(localFrom))

	lines := []domain.GLLine{
		domain.DebitLine(toLedger.ID, in.AmountTo, in.CurrencyTo, in.ExchangeRateTo, nil),
		domain.CreditLine(fromLedger.ID, in.AmountFrom, in.CurrencyFrom, in.ExchangeRateFrom, nil),
	}

	if !diff.IsZero() {
		code := domain.CodeFXLoss
		if diff.IsPositive() {
			code = domain.CodeFXGain
		}
		fxAcct, err := uc.accountRepo.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve FX account: %w", err)
		}
		// diff > 0: credit FX Gain by diff; diff < 0: debit FX Loss by |diff|.
		lines = append(lines, domain.AdjustmentLine(fxAcct.ID, uc.functionalCurrency, decimal.NewFromInt(1), diff.Neg()))
	}

	j := &domain.Journal{
		VoucherDate: time.Now(),
		SourceType:  domain.SourceBankTransfer,
		Remarks:     in.Remarks,
		Lines:       lines,
	}

	if err := domain.ValidateBalanced(j.Lines); err != nil {
		return nil, err
	}
	if err := uc.postingRepo.PostJournal(ctx, j, nil); err != nil {
		return nil, err
	}

	uc.afterPost(ctx, j, "bank transfer")
	return j, nil
}

// resolveBankAccount loads a bank account, checks it is active and that the
// transaction currency matches its declared currency, and resolves its
// linked ledger account. A currency mismatch is a hard validation error,
// never a silent conversion.
func (uc *PostingUsecase) resolveBankAccount(ctx context.Context, id int64, currency string) (*domain.BankAccount, *domain.Account, error) {
	bank, err := uc.bankRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("bank account %d: %w", id, err)
	}
	if !bank.IsActive {
		return nil, nil, xerrors.Validation("bank_account_inactive", "bank account %s is inactive", bank.Code)
	}
	if bank.Currency != currency {
		return nil, nil, xerrors.Validation("currency_mismatch",
			"bank account %s is denominated in %s, got %s", bank.Code, bank.Currency, currency)
	}

	ledger, err := uc.accountRepo.GetByID(ctx, bank.LedgerAccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger account for bank account %s: %w", bank.Code, err)
	}
	if !ledger.IsPostable() {
		return nil, nil, xerrors.Validation("account_not_postable",
			"ledger account %s linked to bank account %s is not postable", ledger.Code, bank.Code)
	}
	return bank, ledger, nil
}

func validateSettlement(amount decimal.Decimal, currency string, rate decimal.Decimal, counterpartyID, invoiceNo string) error {
	if !amount.IsPositive() {
		return xerrors.Validation("amount_positive", "amount must be positive")
	}
	if currency == "" {
		return xerrors.Validation("currency_required", "currency is required")
	}
	if rate.IsNegative() {
		return xerrors.Validation("negative_rate", "exchange rate must not be negative")
	}
	if counterpartyID == "" {
		return xerrors.Validation("counterparty_required", "counterparty is required")
	}
	if invoiceNo == "" {
		return xerrors.Validation("invoice_required", "invoice reference is required")
	}
	return nil
}

func (uc *PostingUsecase) afterPost(ctx context.Context, j *domain.Journal, what string) {
	if uc.events != nil {
		if err := uc.events.JournalPosted(ctx, j); err != nil && uc.logger != nil {
			uc.logger.Warn("journal event publish failed",
				zap.String("voucher_no", j.VoucherNo), zap.Error(err))
		}
	}

	accountIDs := make([]int64, 0, len(j.Lines))
	for _, l := range j.Lines {
		accountIDs = append(accountIDs, l.AccountID)
	}
	invalidateAccountCaches(ctx, uc.redisClient, accountIDs...)

	if uc.logger != nil {
		uc.logger.Info("posted "+what,
			zap.String("voucher_no", j.VoucherNo),
			zap.Int64("source_id", j.SourceID),
			zap.Int("lines", len(j.Lines)),
		)
	}
}
