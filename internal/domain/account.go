package domain

import "time"

// AccountType classifies nodes in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// NormalBalance is the side on which an account normally carries its balance.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "debit"
	NormalCredit NormalBalance = "credit"
)

// Account is a node in the chart of accounts. Only leaf nodes with
// AllowManualPost set may appear on a GL line; group nodes exist for
// rollup reporting only.
type Account struct {
	ID              int64         `json:"id"`
	Code            string        `json:"code"` // dotted, e.g. "1.1.2"
	Name            string        `json:"name"`
	Type            AccountType   `json:"type"`
	NormalBalance   NormalBalance `json:"normal_balance"`
	ParentID        int64         `json:"parent_id,omitempty"` // 0 = top level
	IsLeaf          bool          `json:"is_leaf"`
	AllowManualPost bool          `json:"allow_manual_post"`
	CreatedAt       time.Time     `json:"-"`
	UpdatedAt       time.Time     `json:"-"`
}

// IsPostable reports whether GL lines may target this account.
func (a *Account) IsPostable() bool {
	return a.IsLeaf && a.AllowManualPost
}

// Well-known account codes the posting engine resolves by itself.
const (
	CodeAccountsReceivable = "1.1.3"
	CodeAccountsPayable    = "2.1"
	CodeFXGain             = "4.2"
	CodeFXLoss             = "5.2"
)

// DefaultChartOfAccounts is the seed chart. Group nodes are non-leaf and
// never postable; the posting engine depends on the four well-known leaf
// codes existing.
var DefaultChartOfAccounts = []*Account{
	{Code: "1", Name: "Assets", Type: AccountTypeAsset, NormalBalance: NormalDebit},
	{Code: "1.1", Name: "Current Assets", Type: AccountTypeAsset, NormalBalance: NormalDebit},
	{Code: "1.1.1", Name: "Cash In Hand", Type: AccountTypeAsset, NormalBalance: NormalDebit, IsLeaf: true, AllowManualPost: true},
	{Code: "1.1.2", Name: "Bank", Type: AccountTypeAsset, NormalBalance: NormalDebit, IsLeaf: true, AllowManualPost: true},
	{Code: "1.1.3", Name: "Accounts Receivable", Type: AccountTypeAsset, NormalBalance: NormalDebit, IsLeaf: true, AllowManualPost: true},
	{Code: "2", Name: "Liabilities", Type: AccountTypeLiability, NormalBalance: NormalCredit},
	{Code: "2.1", Name: "Accounts Payable", Type: AccountTypeLiability, NormalBalance: NormalCredit, IsLeaf: true, AllowManualPost: true},
	{Code: "3", Name: "Equity", Type: AccountTypeEquity, NormalBalance: NormalCredit},
	{Code: "3.1", Name: "Retained Earnings", Type: AccountTypeEquity, NormalBalance: NormalCredit, IsLeaf: true, AllowManualPost: true},
	{Code: "4", Name: "Revenue", Type: AccountTypeRevenue, NormalBalance: NormalCredit},
	{Code: "4.1", Name: "Sales", Type: AccountTypeRevenue, NormalBalance: NormalCredit, IsLeaf: true, AllowManualPost: true},
	{Code: "4.2", Name: "Foreign Exchange Gain", Type: AccountTypeRevenue, NormalBalance: NormalCredit, IsLeaf: true, AllowManualPost: true},
	{Code: "5", Name: "Expenses", Type: AccountTypeExpense, NormalBalance: NormalDebit},
	{Code: "5.1", Name: "Purchases", Type: AccountTypeExpense, NormalBalance: NormalDebit, IsLeaf: true, AllowManualPost: true},
	{Code: "5.2", Name: "Foreign Exchange Loss", Type: AccountTypeExpense, NormalBalance: NormalDebit, IsLeaf: true, AllowManualPost: true},
}
