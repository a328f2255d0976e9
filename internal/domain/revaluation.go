package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountActivity is the aggregate of every GL line posted to one ledger
// account in one currency up to a cutoff date. The aggregation itself is a
// repository concern; the revaluation math over it is pure.
type AccountActivity struct {
	AccountID   int64           `json:"account_id"`
	Currency    string          `json:"currency"`
	TotalDebit  decimal.Decimal `json:"total_debit"`  // foreign units
	TotalCredit decimal.Decimal `json:"total_credit"` // foreign units
	BookedLocal decimal.Decimal `json:"booked_local"` // functional units at historical rates
	LineCount   int64           `json:"line_count"`
}

// NetForeign is the account's net foreign-currency position.
func (a AccountActivity) NetForeign() decimal.Decimal {
	return a.TotalDebit.Sub(a.TotalCredit)
}

// RevaluationFigures are the computed inputs and outcome of one revaluation.
// Diff > 0 is an unrealized gain, Diff < 0 an unrealized loss, zero a no-op.
type RevaluationFigures struct {
	NetForeign    decimal.Decimal `json:"net_foreign"`
	BookedLocal   decimal.Decimal `json:"booked_local"`
	RevaluedLocal decimal.Decimal `json:"revalued_local"`
	Diff          decimal.Decimal `json:"diff"`
}

// ComputeRevaluation restates a foreign-currency position at the spot rate.
// Pure; callers supply the aggregated activity.
func ComputeRevaluation(activity AccountActivity, spotRate decimal.Decimal) RevaluationFigures {
	net := activity.NetForeign()
	booked := Round2(activity.BookedLocal)
	revalued := Round2(net.Mul(spotRate))
	return RevaluationFigures{
		NetForeign:    net,
		BookedLocal:   booked,
		RevaluedLocal: revalued,
		Diff:          Round2(revalued.Sub(booked)),
	}
}

// RevaluationRun records one executed revaluation for an account and as-of
// date. A unique index on (bank_account_id, as_of) makes a repeat request
// for the same date a conflict rather than a duplicate journal.
type RevaluationRun struct {
	ID            int64           `json:"id"`
	BankAccountID int64           `json:"bank_account_id"`
	AsOf          time.Time       `json:"as_of"`
	SpotRate      decimal.Decimal `json:"spot_rate"`
	OldLocal      decimal.Decimal `json:"old_local"`
	NewLocal      decimal.Decimal `json:"new_local"`
	Diff          decimal.Decimal `json:"diff"`
	JournalID     int64           `json:"journal_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RevaluationResult is what the engine returns: the figures always, the
// journal and run only when a non-zero difference was booked.
type RevaluationResult struct {
	BankAccountID int64              `json:"bank_account_id"`
	AsOf          time.Time          `json:"as_of"`
	SpotRate      decimal.Decimal    `json:"spot_rate"`
	Figures       RevaluationFigures `json:"figures"`
	Journal       *Journal           `json:"journal,omitempty"`
}
