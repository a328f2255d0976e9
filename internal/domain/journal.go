package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gl-service/internal/xerrors"
)

// SourceType identifies the business event a journal was posted for.
type SourceType string

const (
	SourceARReceipt     SourceType = "AR_RECEIPT"
	SourceAPPayment     SourceType = "AP_PAYMENT"
	SourceBankTransfer  SourceType = "BANK_TRANSFER"
	SourceFXRevaluation SourceType = "FX_REVALUATION"
	SourceManual        SourceType = "MANUAL"
)

// IsValid reports whether s is a known source type.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceARReceipt, SourceAPPayment, SourceBankTransfer, SourceFXRevaluation, SourceManual:
		return true
	}
	return false
}

// VoucherPrefix is the human-readable prefix on minted voucher numbers.
func (s SourceType) VoucherPrefix() string {
	switch s {
	case SourceARReceipt:
		return "RCV"
	case SourceAPPayment:
		return "PAY"
	case SourceBankTransfer:
		return "TRF"
	case SourceFXRevaluation:
		return "RVL"
	default:
		return "JRN"
	}
}

// SequenceName is the named counter voucher numbers for this source type
// are minted from. One counter per source type per year.
func (s SourceType) SequenceName(year int) string {
	return fmt.Sprintf("voucher:%s:%d", s.VoucherPrefix(), year)
}

// SubledgerRef ties a GL line back to the subledger record it settles.
// The source type tags which kind of record TransactionID identifies, so a
// line can never claim an AR transaction under an AP tag.
type SubledgerRef struct {
	SourceType    SourceType `json:"source_type"`
	TransactionID int64      `json:"transaction_id"`
	Line          int        `json:"line"`
}

// ARRef links a line to an accounts-receivable transaction.
func ARRef(txnID int64, line int) *SubledgerRef {
	return &SubledgerRef{SourceType: SourceARReceipt, TransactionID: txnID, Line: line}
}

// APRef links a line to an accounts-payable transaction.
func APRef(txnID int64, line int) *SubledgerRef {
	return &SubledgerRef{SourceType: SourceAPPayment, TransactionID: txnID, Line: line}
}

// GLLine is one side of a double entry. Exactly one of Debit/Credit is
// positive for a caller-supplied line; system-generated adjustment lines
// (FX difference, revaluation) may carry zero on both sides with an explicit
// LocalAmount, so that they restate value without moving foreign units.
type GLLine struct {
	ID           int64           `json:"id"`
	JournalID    int64           `json:"journal_id"`
	AccountID    int64           `json:"account_id"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"` // 1 unit = rate units of functional currency
	LocalAmount  decimal.Decimal `json:"local_amount"`  // signed functional-currency equivalent
	Ref          *SubledgerRef   `json:"ref,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`

	AccountData *Account `json:"account,omitempty"`
}

// IsAdjustment reports whether the line restates local value without a
// foreign-amount movement.
func (l *GLLine) IsAdjustment() bool {
	return l.Debit.IsZero() && l.Credit.IsZero() && !l.LocalAmount.IsZero()
}

// DebitLine builds a debit-side line; local amount is derived from the rate.
func DebitLine(accountID int64, amount decimal.Decimal, currency string, rate decimal.Decimal, ref *SubledgerRef) GLLine {
	return GLLine{
		AccountID:    accountID,
		Debit:        amount,
		Credit:       decimal.Zero,
		Currency:     currency,
		ExchangeRate: rate,
		LocalAmount:  LocalValue(amount, rate),
		Ref:          ref,
	}
}

// CreditLine builds a credit-side line; local amount is the negated
// functional equivalent.
func CreditLine(accountID int64, amount decimal.Decimal, currency string, rate decimal.Decimal, ref *SubledgerRef) GLLine {
	return GLLine{
		AccountID:    accountID,
		Debit:        decimal.Zero,
		Credit:       amount,
		Currency:     currency,
		ExchangeRate: rate,
		LocalAmount:  LocalValue(amount, rate).Neg(),
		Ref:          ref,
	}
}

// AdjustmentLine builds a zero-amount line carrying only a signed local
// amount. Positive local is the debit side, negative the credit side.
func AdjustmentLine(accountID int64, currency string, rate, local decimal.Decimal) GLLine {
	return GLLine{
		AccountID:    accountID,
		Debit:        decimal.Zero,
		Credit:       decimal.Zero,
		Currency:     currency,
		ExchangeRate: rate,
		LocalAmount:  Round2(local),
	}
}

// Journal is the balanced transaction aggregate. The voucher number is
// minted once at commit and never reused; corrections are posted as a new,
// reversing journal rather than by mutating this one.
type Journal struct {
	ID          int64      `json:"id"`
	VoucherNo   string     `json:"voucher_no"`
	VoucherDate time.Time  `json:"voucher_date"`
	SourceType  SourceType `json:"source_type"`
	SourceID    int64      `json:"source_id,omitempty"`
	Remarks     string     `json:"remarks,omitempty"`
	Lines       []GLLine   `json:"lines"`
	CreatedAt   time.Time  `json:"created_at"`
}

// LineCreate is a caller-supplied line before account resolution. The
// account may be referenced by ID or by COA code; LocalAmount is optional
// and derived from the rate when absent.
type LineCreate struct {
	AccountID    int64            `json:"account_id,omitempty"`
	AccountCode  string           `json:"account_code,omitempty"`
	Debit        decimal.Decimal  `json:"debit"`
	Credit       decimal.Decimal  `json:"credit"`
	Currency     string           `json:"currency"`
	ExchangeRate decimal.Decimal  `json:"exchange_rate"`
	LocalAmount  *decimal.Decimal `json:"local_amount,omitempty"`
}

// JournalCreate is the request shape for a manually constructed journal.
type JournalCreate struct {
	VoucherDate time.Time    `json:"voucher_date,omitempty"`
	SourceType  SourceType   `json:"source_type"`
	SourceID    int64        `json:"source_id,omitempty"`
	Remarks     string       `json:"remarks,omitempty"`
	Lines       []LineCreate `json:"lines"`
}

// NormalizeLine resolves a LineCreate against its account and produces a
// GLLine with the local amount derived (or re-rounded when supplied).
func NormalizeLine(lc LineCreate, acct *Account) GLLine {
	local := lc.Debit.Sub(lc.Credit).Mul(lc.ExchangeRate)
	if lc.LocalAmount != nil {
		local = *lc.LocalAmount
	}
	return GLLine{
		AccountID:    acct.ID,
		Debit:        lc.Debit,
		Credit:       lc.Credit,
		Currency:     lc.Currency,
		ExchangeRate: lc.ExchangeRate,
		LocalAmount:  Round2(local),
		AccountData:  acct,
	}
}

// ValidateLine enforces the per-line preconditions for caller-supplied
// lines: a postable leaf account, exactly one positive side, a currency,
// and a non-negative rate.
func ValidateLine(l GLLine, acct *Account) error {
	if acct == nil {
		return xerrors.ErrNotFound
	}
	if !acct.IsPostable() {
		return xerrors.Validation("account_not_postable", "account %s is not a postable leaf account", acct.Code)
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return xerrors.Validation("negative_amount", "debit and credit must not be negative")
	}
	hasDebit := l.Debit.IsPositive()
	hasCredit := l.Credit.IsPositive()
	if hasDebit == hasCredit {
		return xerrors.Validation("one_sided_line", "exactly one of debit or credit must be positive")
	}
	if l.Currency == "" {
		return xerrors.Validation("currency_required", "currency is required")
	}
	if l.ExchangeRate.IsNegative() {
		return xerrors.Validation("negative_rate", "exchange rate must not be negative")
	}
	return nil
}

// ValidateBalanced enforces the double-entry invariant: the rounded sum of
// all functional-currency amounts is exactly zero. Fails closed; an
// unbalanced set of lines is rejected whole before any write.
func ValidateBalanced(lines []GLLine) error {
	if len(lines) < 1 {
		return xerrors.Validation("no_lines", "journal requires at least one line")
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(Round2(l.LocalAmount))
	}
	if !Round2(total).IsZero() {
		return xerrors.Validation("unbalanced_journal",
			"journal does not balance: net local amount %s", Round2(total).StringFixed(2))
	}
	return nil
}

// ReversalLines mirrors a posted journal's lines, swapping debit and credit
// and negating local amounts, for use in a correcting journal.
func ReversalLines(j *Journal) []GLLine {
	out := make([]GLLine, 0, len(j.Lines))
	for _, l := range j.Lines {
		out = append(out, GLLine{
			AccountID:    l.AccountID,
			Debit:        l.Credit,
			Credit:       l.Debit,
			Currency:     l.Currency,
			ExchangeRate: l.ExchangeRate,
			LocalAmount:  l.LocalAmount.Neg(),
			Ref:          l.Ref,
		})
	}
	return out
}
