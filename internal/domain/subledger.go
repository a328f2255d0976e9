package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubledgerSource distinguishes the detail ledger a transaction belongs to.
type SubledgerSource string

const (
	SubledgerSales    SubledgerSource = "SALES"    // accounts receivable
	SubledgerPurchase SubledgerSource = "PURCHASE" // accounts payable
)

// SubledgerTransaction is one AR or AP settlement event: a receipt against a
// sales invoice or a payment against a purchase invoice. It is created in
// the same unit of work as its paired GL journal (exactly one each) and is
// immutable afterwards.
type SubledgerTransaction struct {
	ID             int64           `json:"id"`
	RefCode        string          `json:"ref_code"` // ULID, minted before commit
	TxnDate        time.Time       `json:"txn_date"`
	SourceType     SubledgerSource `json:"source_type"`
	InvoiceNo      string          `json:"invoice_no"`
	CounterpartyID string          `json:"counterparty_id"` // customer or supplier
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	LocalAmount    decimal.Decimal `json:"local_amount"`
	BankAccountID  int64           `json:"bank_account_id"`
	Remarks        string          `json:"remarks,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
