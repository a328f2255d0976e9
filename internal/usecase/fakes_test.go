package usecase

import (
	"context"
	"fmt"
	"time"

	"gl-service/internal/domain"
	"gl-service/internal/xerrors"

	"github.com/jackc/pgx/v5"
)

// fakeAccountRepo backs the chart of accounts with maps.
type fakeAccountRepo struct {
	byID   map[int64]*domain.Account
	byCode map[string]*domain.Account
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	f := &fakeAccountRepo{
		byID:   make(map[int64]*domain.Account),
		byCode: make(map[string]*domain.Account),
	}
	for _, a := range accounts {
		f.byID[a.ID] = a
		f.byCode[a.Code] = a
	}
	return f
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeAccountRepo) GetByCode(_ context.Context, code string) (*domain.Account, error) {
	if a, ok := f.byCode[code]; ok {
		return a, nil
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeAccountRepo) List(_ context.Context) ([]*domain.Account, error) {
	out := make([]*domain.Account, 0, len(f.byID))
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAccountRepo) Upsert(_ context.Context, a *domain.Account, _ pgx.Tx) error {
	if a.ID == 0 {
		a.ID = int64(len(f.byID) + 1)
	}
	f.byID[a.ID] = a
	f.byCode[a.Code] = a
	return nil
}

type fakeBankRepo struct {
	byID map[int64]*domain.BankAccount
}

func newFakeBankRepo(accounts ...*domain.BankAccount) *fakeBankRepo {
	f := &fakeBankRepo{byID: make(map[int64]*domain.BankAccount)}
	for _, b := range accounts {
		f.byID[b.ID] = b
	}
	return f
}

func (f *fakeBankRepo) GetByID(_ context.Context, id int64) (*domain.BankAccount, error) {
	if b, ok := f.byID[id]; ok {
		return b, nil
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeBankRepo) GetByCode(_ context.Context, code string) (*domain.BankAccount, error) {
	for _, b := range f.byID {
		if b.Code == code {
			return b, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeBankRepo) List(_ context.Context, activeOnly bool) ([]*domain.BankAccount, error) {
	var out []*domain.BankAccount
	for _, b := range f.byID {
		if activeOnly && !b.IsActive {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBankRepo) Upsert(_ context.Context, b *domain.BankAccount, _ pgx.Tx) error {
	if b.ID == 0 {
		b.ID = int64(len(f.byID) + 1)
	}
	f.byID[b.ID] = b
	return nil
}

func (f *fakeBankRepo) Deactivate(_ context.Context, id int64) error {
	b, ok := f.byID[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	b.IsActive = false
	return nil
}

// fakePostingRepo mimics the composite unit of work in memory: it assigns
// ids, stamps subledger references, and mints voucher numbers from
// per-source counters.
type fakePostingRepo struct {
	journals []*domain.Journal
	subs     []*domain.SubledgerTransaction
	runs     []*domain.RevaluationRun
	seq      map[string]int64
	failWith error
}

func (f *fakePostingRepo) PostJournal(_ context.Context, j *domain.Journal, sub *domain.SubledgerTransaction) error {
	if f.failWith != nil {
		return f.failWith
	}
	if sub != nil {
		sub.ID = int64(len(f.subs) + 101)
		f.subs = append(f.subs, sub)
		j.SourceID = sub.ID
		for i := range j.Lines {
			if ref := j.Lines[i].Ref; ref != nil && ref.TransactionID == 0 {
				ref.TransactionID = sub.ID
			}
		}
	}
	f.mint(j)
	f.journals = append(f.journals, j)
	return nil
}

func (f *fakePostingRepo) PostRevaluation(_ context.Context, j *domain.Journal, run *domain.RevaluationRun) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mint(j)
	f.journals = append(f.journals, j)
	run.JournalID = j.ID
	run.ID = int64(len(f.runs) + 201)
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakePostingRepo) mint(j *domain.Journal) {
	if f.seq == nil {
		f.seq = make(map[string]int64)
	}
	year := j.VoucherDate.Year()
	name := j.SourceType.SequenceName(year)
	f.seq[name]++
	j.VoucherNo = fmt.Sprintf("%s-%d-%06d", j.SourceType.VoucherPrefix(), year, f.seq[name])
	j.ID = int64(len(f.journals) + 1)
}

type fakeJournalRepo struct {
	byID     map[int64]*domain.Journal
	activity map[string]*domain.AccountActivity // key accountID:currency
}

func newFakeJournalRepo() *fakeJournalRepo {
	return &fakeJournalRepo{
		byID:     make(map[int64]*domain.Journal),
		activity: make(map[string]*domain.AccountActivity),
	}
}

func activityKey(accountID int64, currency string) string {
	return fmt.Sprintf("%d:%s", accountID, currency)
}

func (f *fakeJournalRepo) Create(_ context.Context, j *domain.Journal, _ pgx.Tx) error {
	f.byID[j.ID] = j
	return nil
}

func (f *fakeJournalRepo) GetByID(_ context.Context, id int64) (*domain.Journal, error) {
	if j, ok := f.byID[id]; ok {
		return j, nil
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeJournalRepo) GetByVoucherNo(_ context.Context, voucherNo string) (*domain.Journal, error) {
	for _, j := range f.byID {
		if j.VoucherNo == voucherNo {
			return j, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeJournalRepo) ListByAccount(_ context.Context, accountID int64, _, _ int) ([]*domain.Journal, error) {
	var out []*domain.Journal
	for _, j := range f.byID {
		for _, l := range j.Lines {
			if l.AccountID == accountID {
				out = append(out, j)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeJournalRepo) AccountActivity(_ context.Context, accountID int64, currency string, _ time.Time) (*domain.AccountActivity, error) {
	if a, ok := f.activity[activityKey(accountID, currency)]; ok {
		return a, nil
	}
	return &domain.AccountActivity{AccountID: accountID, Currency: currency}, nil
}

type fakeRevaluationRepo struct {
	existing map[string]bool // key bankAccountID:asOf date
	runs     []*domain.RevaluationRun
}

func newFakeRevaluationRepo() *fakeRevaluationRepo {
	return &fakeRevaluationRepo{existing: make(map[string]bool)}
}

func runKey(bankAccountID int64, asOf time.Time) string {
	return fmt.Sprintf("%d:%s", bankAccountID, asOf.Format("2006-01-02"))
}

func (f *fakeRevaluationRepo) Create(_ context.Context, run *domain.RevaluationRun, _ pgx.Tx) error {
	key := runKey(run.BankAccountID, run.AsOf)
	if f.existing[key] {
		return xerrors.Conflict("revaluation already posted")
	}
	f.existing[key] = true
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRevaluationRepo) ExistsForDate(_ context.Context, bankAccountID int64, asOf time.Time) (bool, error) {
	return f.existing[runKey(bankAccountID, asOf)], nil
}

func (f *fakeRevaluationRepo) ListByBankAccount(_ context.Context, bankAccountID int64) ([]*domain.RevaluationRun, error) {
	var out []*domain.RevaluationRun
	for _, r := range f.runs {
		if r.BankAccountID == bankAccountID {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, xerrors.ErrNotFound
	}
	return out, nil
}

// recordingEvents captures post-commit notifications.
type recordingEvents struct {
	posted []*domain.Journal
}

func (r *recordingEvents) JournalPosted(_ context.Context, j *domain.Journal) error {
	r.posted = append(r.posted, j)
	return nil
}

// Shared chart-of-accounts fixture.
var (
	acctBankINR = &domain.Account{ID: 10, Code: "1.1.2", Name: "Bank", Type: domain.AccountTypeAsset, NormalBalance: domain.NormalDebit, IsLeaf: true, AllowManualPost: true}
	acctBankUSD = &domain.Account{ID: 11, Code: "1.1.4", Name: "Bank USD", Type: domain.AccountTypeAsset, NormalBalance: domain.NormalDebit, IsLeaf: true, AllowManualPost: true}
	acctAR      = &domain.Account{ID: 12, Code: "1.1.3", Name: "Accounts Receivable", Type: domain.AccountTypeAsset, NormalBalance: domain.NormalDebit, IsLeaf: true, AllowManualPost: true}
	acctAP      = &domain.Account{ID: 13, Code: "2.1", Name: "Accounts Payable", Type: domain.AccountTypeLiability, NormalBalance: domain.NormalCredit, IsLeaf: true, AllowManualPost: true}
	acctFXGain  = &domain.Account{ID: 14, Code: "4.2", Name: "Foreign Exchange Gain", Type: domain.AccountTypeRevenue, NormalBalance: domain.NormalCredit, IsLeaf: true, AllowManualPost: true}
	acctFXLoss  = &domain.Account{ID: 15, Code: "5.2", Name: "Foreign Exchange Loss", Type: domain.AccountTypeExpense, NormalBalance: domain.NormalDebit, IsLeaf: true, AllowManualPost: true}
	acctBankEUR = &domain.Account{ID: 16, Code: "1.1.5", Name: "Bank EUR", Type: domain.AccountTypeAsset, NormalBalance: domain.NormalDebit, IsLeaf: true, AllowManualPost: true}
	acctAssets  = &domain.Account{ID: 20, Code: "1", Name: "Assets", Type: domain.AccountTypeAsset, NormalBalance: domain.NormalDebit}
)

func testAccounts() *fakeAccountRepo {
	return newFakeAccountRepo(acctBankINR, acctBankUSD, acctAR, acctAP, acctFXGain, acctFXLoss, acctBankEUR, acctAssets)
}

var (
	bankUSD      = &domain.BankAccount{ID: 1, Code: "BANK-USD", Name: "USD Current Account", Method: domain.MethodBank, Currency: "USD", LedgerAccountID: 11, IsActive: true}
	bankINR      = &domain.BankAccount{ID: 2, Code: "BANK-INR", Name: "Primary Current Account", Method: domain.MethodBank, Currency: "INR", LedgerAccountID: 10, IsActive: true}
	bankEUR      = &domain.BankAccount{ID: 3, Code: "BANK-EUR", Name: "EUR Current Account", Method: domain.MethodBank, Currency: "EUR", LedgerAccountID: 16, IsActive: true}
	bankClosed   = &domain.BankAccount{ID: 4, Code: "BANK-OLD", Name: "Closed Account", Method: domain.MethodBank, Currency: "USD", LedgerAccountID: 11, IsActive: false}
	bankINRSpare = &domain.BankAccount{ID: 5, Code: "CASH-MAIN", Name: "Main Cash Drawer", Method: domain.MethodCash, Currency: "INR", LedgerAccountID: 10, IsActive: true}
)

func testBanks() *fakeBankRepo {
	return newFakeBankRepo(
		cloneBank(bankUSD), cloneBank(bankINR), cloneBank(bankEUR), cloneBank(bankClosed), cloneBank(bankINRSpare),
	)
}

func cloneBank(b *domain.BankAccount) *domain.BankAccount {
	c := *b
	return &c
}
