package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gl-service/internal/xerrors"
)

var (
	testBank = &Account{ID: 1, Code: "1.1.2", Name: "Bank", Type: AccountTypeAsset, NormalBalance: NormalDebit, IsLeaf: true, AllowManualPost: true}
	testAR   = &Account{ID: 2, Code: "1.1.3", Name: "Accounts Receivable", Type: AccountTypeAsset, NormalBalance: NormalDebit, IsLeaf: true, AllowManualPost: true}
	testRoot = &Account{ID: 3, Code: "1", Name: "Assets", Type: AccountTypeAsset, NormalBalance: NormalDebit}
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDebitCreditLineLocalAmounts(t *testing.T) {
	debit := DebitLine(testBank.ID, d("1000"), "USD", d("75"), nil)
	assert.True(t, debit.LocalAmount.Equal(d("75000")))
	assert.True(t, debit.Credit.IsZero())
	assert.False(t, debit.IsAdjustment())

	credit := CreditLine(testAR.ID, d("1000"), "USD", d("75"), nil)
	assert.True(t, credit.LocalAmount.Equal(d("-75000")))
	assert.True(t, credit.Debit.IsZero())
}

func TestAdjustmentLine(t *testing.T) {
	l := AdjustmentLine(testBank.ID, "USD", d("76"), d("10000.004"))
	assert.True(t, l.Debit.IsZero())
	assert.True(t, l.Credit.IsZero())
	assert.True(t, l.LocalAmount.Equal(d("10000")), "local amount is rounded")
	assert.True(t, l.IsAdjustment())
}

func TestNormalizeLine(t *testing.T) {
	t.Run("derives local from rate", func(t *testing.T) {
		l := NormalizeLine(LineCreate{
			AccountID: testBank.ID, Debit: d("1000"), Currency: "USD", ExchangeRate: d("75"),
		}, testBank)
		assert.True(t, l.LocalAmount.Equal(d("75000")))
		assert.Equal(t, testBank, l.AccountData)
	})

	t.Run("credit derives negative local", func(t *testing.T) {
		l := NormalizeLine(LineCreate{
			AccountID: testAR.ID, Credit: d("1000"), Currency: "USD", ExchangeRate: d("75"),
		}, testAR)
		assert.True(t, l.LocalAmount.Equal(d("-75000")))
	})

	t.Run("supplied local is re-rounded and kept", func(t *testing.T) {
		local := d("74999.996")
		l := NormalizeLine(LineCreate{
			AccountID: testBank.ID, Debit: d("1000"), Currency: "USD", ExchangeRate: d("75"), LocalAmount: &local,
		}, testBank)
		assert.True(t, l.LocalAmount.Equal(d("75000")))
	})
}

func TestValidateLine(t *testing.T) {
	valid := GLLine{AccountID: testBank.ID, Debit: d("100"), Credit: decimal.Zero, Currency: "USD", ExchangeRate: d("75")}
	require.NoError(t, ValidateLine(valid, testBank))

	cases := []struct {
		name string
		line GLLine
		acct *Account
		rule string
	}{
		{
			name: "non-postable parent account",
			line: valid,
			acct: testRoot,
			rule: "account_not_postable",
		},
		{
			name: "negative debit",
			line: GLLine{AccountID: 1, Debit: d("-1"), Currency: "USD", ExchangeRate: d("75")},
			acct: testBank,
			rule: "negative_amount",
		},
		{
			name: "both sides positive",
			line: GLLine{AccountID: 1, Debit: d("5"), Credit: d("5"), Currency: "USD", ExchangeRate: d("75")},
			acct: testBank,
			rule: "one_sided_line",
		},
		{
			name: "neither side positive",
			line: GLLine{AccountID: 1, Currency: "USD", ExchangeRate: d("75")},
			acct: testBank,
			rule: "one_sided_line",
		},
		{
			name: "missing currency",
			line: GLLine{AccountID: 1, Debit: d("5"), ExchangeRate: d("75")},
			acct: testBank,
			rule: "currency_required",
		},
		{
			name: "negative rate",
			line: GLLine{AccountID: 1, Debit: d("5"), Currency: "USD", ExchangeRate: d("-1")},
			acct: testBank,
			rule: "negative_rate",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLine(tc.line, tc.acct)
			require.Error(t, err)
			var verr *xerrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.rule, verr.Rule)
		})
	}

	t.Run("nil account", func(t *testing.T) {
		assert.ErrorIs(t, ValidateLine(valid, nil), xerrors.ErrNotFound)
	})
}

func TestValidateBalanced(t *testing.T) {
	t.Run("balanced pair passes", func(t *testing.T) {
		lines := []GLLine{
			DebitLine(1, d("1000"), "USD", d("75"), nil),
			CreditLine(2, d("1000"), "USD", d("75"), nil),
		}
		assert.NoError(t, ValidateBalanced(lines))
	})

	t.Run("adjustment line closes the gap", func(t *testing.T) {
		lines := []GLLine{
			DebitLine(1, d("800"), "EUR", d("85"), nil),   // +68000
			CreditLine(2, d("1000"), "USD", d("75"), nil), // -75000
			AdjustmentLine(3, "INR", d("1"), d("7000")),
		}
		assert.NoError(t, ValidateBalanced(lines))
	})

	t.Run("sub-cent residue is forgiven by rounding", func(t *testing.T) {
		lines := []GLLine{
			{LocalAmount: d("100.001")},
			{LocalAmount: d("-100")},
		}
		assert.NoError(t, ValidateBalanced(lines))
	})

	t.Run("unbalanced set is rejected whole", func(t *testing.T) {
		lines := []GLLine{
			DebitLine(1, d("1000"), "USD", d("75"), nil),
			CreditLine(2, d("999"), "USD", d("75"), nil),
		}
		err := ValidateBalanced(lines)
		require.Error(t, err)
		var verr *xerrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "unbalanced_journal", verr.Rule)
	})

	t.Run("empty journal is rejected", func(t *testing.T) {
		err := ValidateBalanced(nil)
		require.Error(t, err)
		var verr *xerrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "no_lines", verr.Rule)
	})
}

func TestReversalLines(t *testing.T) {
	orig := &Journal{
		VoucherNo: "RCV-2026-000001",
		Lines: []GLLine{
			DebitLine(1, d("1000"), "USD", d("75"), ARRef(42, 1)),
			CreditLine(2, d("1000"), "USD", d("75"), ARRef(42, 2)),
		},
	}

	rev := ReversalLines(orig)
	require.Len(t, rev, 2)

	assert.True(t, rev[0].Credit.Equal(d("1000")))
	assert.True(t, rev[0].Debit.IsZero())
	assert.True(t, rev[0].LocalAmount.Equal(d("-75000")))
	assert.Equal(t, orig.Lines[0].Ref, rev[0].Ref, "subledger reference is preserved")

	assert.True(t, rev[1].Debit.Equal(d("1000")))
	assert.True(t, rev[1].LocalAmount.Equal(d("75000")))

	// A reversal always balances if the original did.
	assert.NoError(t, ValidateBalanced(rev))
}

func TestSourceTypeVoucherPrefix(t *testing.T) {
	assert.Equal(t, "RCV", SourceARReceipt.VoucherPrefix())
	assert.Equal(t, "PAY", SourceAPPayment.VoucherPrefix())
	assert.Equal(t, "TRF", SourceBankTransfer.VoucherPrefix())
	assert.Equal(t, "RVL", SourceFXRevaluation.VoucherPrefix())
	assert.Equal(t, "JRN", SourceManual.VoucherPrefix())

	assert.Equal(t, "voucher:RCV:2026", SourceARReceipt.SequenceName(2026))
	assert.True(t, SourceManual.IsValid())
	assert.False(t, SourceType("BOGUS").IsValid())
}
