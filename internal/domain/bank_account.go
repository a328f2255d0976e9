package domain

import "time"

// PaymentMethod is the kind of instrument a bank account represents.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "Cash"
	MethodBank   PaymentMethod = "Bank"
	MethodUPI    PaymentMethod = "UPI"
	MethodCrypto PaymentMethod = "Crypto"
	MethodWallet PaymentMethod = "Wallet"
)

// BankAccount is a payment method the posting engine can move money through.
// Every transaction against it must be denominated in its declared currency;
// the linked ledger account is the COA leaf its GL lines post to.
// Deactivation is soft; historical GL lines keep referencing the linked
// account, so a hard delete is never allowed.
type BankAccount struct {
	ID              int64         `json:"id"`
	Code            string        `json:"code"`
	Name            string        `json:"name"`
	Method          PaymentMethod `json:"method"`
	Currency        string        `json:"currency"`
	LedgerAccountID int64         `json:"ledger_account_id"`
	IsActive        bool          `json:"is_active"`
	CreatedAt       time.Time     `json:"-"`
	UpdatedAt       time.Time     `json:"-"`
}

// DefaultBankAccounts seeds one account per common method. Ledger account
// codes are resolved to IDs at seed time.
var DefaultBankAccounts = []struct {
	Code              string
	Name              string
	Method            PaymentMethod
	Currency          string
	LedgerAccountCode string
}{
	{Code: "CASH-MAIN", Name: "Main Cash Drawer", Method: MethodCash, Currency: "INR", LedgerAccountCode: "1.1.1"},
	{Code: "BANK-MAIN", Name: "Primary Current Account", Method: MethodBank, Currency: "INR", LedgerAccountCode: "1.1.2"},
}
