package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"gl-service/internal/domain"
	"gl-service/internal/xerrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRevaluationUsecaseForTest(t *testing.T) (*RevaluationUsecase, *fakeJournalRepo, *fakeRevaluationRepo, *fakePostingRepo) {
	t.Helper()
	journals := newFakeJournalRepo()
	revals := newFakeRevaluationRepo()
	posting := &fakePostingRepo{}
	uc := NewRevaluationUsecase(testAccounts(), testBanks(), journals, revals, posting, nil, nil, nil, "INR")
	return uc, journals, revals, posting
}

func asOfDate(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
}

func TestPostFXRevaluationGain(t *testing.T) {
	uc, journals, _, posting := newRevaluationUsecaseForTest(t)

	// Net 10000 USD on the books at 750000 local; spot 76 restates the
	// balance to 760000, a 10000 unrealized gain.
	journals.activity[activityKey(acctBankUSD.ID, "USD")] = &domain.AccountActivity{
		AccountID:   acctBankUSD.ID,
		Currency:    "USD",
		TotalDebit:  decimal.NewFromInt(10000),
		TotalCredit: decimal.Zero,
		BookedLocal: decimal.NewFromInt(750000),
		LineCount:   3,
	}

	res, err := uc.PostFXRevaluation(context.Background(), RevaluationInput{
		BankAccountID: bankUSD.ID,
		AsOf:          asOfDate(t),
		SpotRate:      decimal.NewFromInt(76),
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Figures.NetForeign.Equal(decimal.NewFromInt(10000)))
	assert.True(t, res.Figures.BookedLocal.Equal(decimal.NewFromInt(750000)))
	assert.True(t, res.Figures.RevaluedLocal.Equal(decimal.NewFromInt(760000)))
	assert.True(t, res.Figures.Diff.Equal(decimal.NewFromInt(10000)))

	j := res.Journal
	require.NotNil(t, j)
	assert.Equal(t, domain.SourceFXRevaluation, j.SourceType)
	assert.True(t, strings.HasPrefix(j.VoucherNo, "RVL-"))
	require.Len(t, j.Lines, 2)

	bankLine, fxLine := j.Lines[0], j.Lines[1]

	// Bank side: local value only, in the account's own currency, no
	// foreign movement.
	assert.Equal(t, acctBankUSD.ID, bankLine.AccountID)
	assert.True(t, bankLine.Debit.IsZero())
	assert.True(t, bankLine.Credit.IsZero())
	assert.True(t, bankLine.LocalAmount.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, "USD", bankLine.Currency)
	assert.True(t, bankLine.IsAdjustment())

	assert.Equal(t, acctFXGain.ID, fxLine.AccountID)
	assert.True(t, fxLine.LocalAmount.Equal(decimal.NewFromInt(-10000)))
	assert.Equal(t, "INR", fxLine.Currency)

	require.Len(t, posting.runs, 1)
	run := posting.runs[0]
	assert.Equal(t, bankUSD.ID, run.BankAccountID)
	assert.True(t, run.OldLocal.Equal(decimal.NewFromInt(750000)))
	assert.True(t, run.NewLocal.Equal(decimal.NewFromInt(760000)))
	assert.True(t, run.Diff.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, j.ID, run.JournalID)
}

func TestPostFXRevaluationLoss(t *testing.T) {
	uc, journals, _, _ := newRevaluationUsecaseForTest(t)

	journals.activity[activityKey(acctBankUSD.ID, "USD")] = &domain.AccountActivity{
		AccountID:   acctBankUSD.ID,
		Currency:    "USD",
		TotalDebit:  decimal.NewFromInt(10000),
		TotalCredit: decimal.Zero,
		BookedLocal: decimal.NewFromInt(750000),
	}

	res, err := uc.PostFXRevaluation(context.Background(), RevaluationInput{
		BankAccountID: bankUSD.ID,
		AsOf:          asOfDate(t),
		SpotRate:      decimal.NewFromInt(74),
	})
	require.NoError(t, err)

	assert.True(t, res.Figures.Diff.Equal(decimal.NewFromInt(-10000)))
	require.NotNil(t, res.Journal)
	require.Len(t, res.Journal.Lines, 2)
	fxLine := res.Journal.Lines[1]
	assert.Equal(t, acctFXLoss.ID, fxLine.AccountID)
	assert.True(t, fxLine.LocalAmount.Equal(decimal.NewFromInt(10000)), "loss is debited")
}

func TestPostFXRevaluationNoOp(t *testing.T) {
	uc, journals, revals, posting := newRevaluationUsecaseForTest(t)

	// Already booked exactly at spot: nothing to restate.
	journals.activity[activityKey(acctBankUSD.ID, "USD")] = &domain.AccountActivity{
		AccountID:   acctBankUSD.ID,
		Currency:    "USD",
		TotalDebit:  decimal.NewFromInt(10000),
		TotalCredit: decimal.Zero,
		BookedLocal: decimal.NewFromInt(760000),
	}

	res, err := uc.PostFXRevaluation(context.Background(), RevaluationInput{
		BankAccountID: bankUSD.ID,
		AsOf:          asOfDate(t),
		SpotRate:      decimal.NewFromInt(76),
	})
	require.NoError(t, err)

	assert.True(t, res.Figures.Diff.IsZero())
	assert.Nil(t, res.Journal, "a no-op revaluation books nothing")
	assert.Empty(t, posting.journals)
	assert.Empty(t, revals.runs, "no run is recorded without a journal")
}

func TestPostFXRevaluationDuplicateDate(t *testing.T) {
	uc, journals, revals, _ := newRevaluationUsecaseForTest(t)

	journals.activity[activityKey(acctBankUSD.ID, "USD")] = &domain.AccountActivity{
		AccountID:   acctBankUSD.ID,
		Currency:    "USD",
		TotalDebit:  decimal.NewFromInt(100),
		TotalCredit: decimal.Zero,
		BookedLocal: decimal.NewFromInt(7500),
	}
	revals.existing[runKey(bankUSD.ID, asOfDate(t))] = true

	_, err := uc.PostFXRevaluation(context.Background(), RevaluationInput{
		BankAccountID: bankUSD.ID,
		AsOf:          asOfDate(t),
		SpotRate:      decimal.NewFromInt(76),
	})
	require.Error(t, err)
	assert.True(t, xerrors.IsConflict(err))
}

func TestPostFXRevaluationGuards(t *testing.T) {
	uc, _, _, _ := newRevaluationUsecaseForTest(t)
	ctx := context.Background()

	_, err := uc.PostFXRevaluation(ctx, RevaluationInput{
		BankAccountID: bankUSD.ID, SpotRate: decimal.NewFromInt(76),
	})
	var verr *xerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "as_of_required", verr.Rule)

	_, err = uc.PostFXRevaluation(ctx, RevaluationInput{
		BankAccountID: bankINR.ID, AsOf: asOfDate(t), SpotRate: decimal.NewFromInt(1),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "functional_currency", verr.Rule)

	_, err = uc.PostFXRevaluation(ctx, RevaluationInput{
		BankAccountID: bankClosed.ID, AsOf: asOfDate(t), SpotRate: decimal.NewFromInt(76),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "bank_account_inactive", verr.Rule)
}
