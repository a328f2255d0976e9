package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gl-service/internal/domain"
	"gl-service/internal/repository"
	"gl-service/internal/xerrors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// JournalEvents is the post-commit notification hook. Implemented by the
// kafka publisher; nil disables publishing.
type JournalEvents interface {
	JournalPosted(ctx context.Context, j *domain.Journal) error
}

// JournalUsecase builds and validates manually constructed journals and
// serves journal reads. Posted journals are immutable, so single-journal
// cache entries never go stale; only per-account listings need invalidation
// after a posting.
type JournalUsecase struct {
	journalRepo repository.JournalRepository
	accountRepo repository.AccountRepository
	postingRepo repository.PostingRepository
	redisClient *redis.Client
	events      JournalEvents
	logger      *zap.Logger
}

func NewJournalUsecase(
	journalRepo repository.JournalRepository,
	accountRepo repository.AccountRepository,
	postingRepo repository.PostingRepository,
	redisClient *redis.Client,
	events JournalEvents,
	logger *zap.Logger,
) *JournalUsecase {
	return &JournalUsecase{
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		postingRepo: postingRepo,
		redisClient: redisClient,
		events:      events,
		logger:      logger,
	}
}

// CreateJournal validates and posts a caller-constructed journal. Every
// precondition is checked before the unit of work opens: account resolution,
// per-line rules, and the zero-sum balance invariant. A failure here writes
// nothing and consumes no voucher number.
func (uc *JournalUsecase) CreateJournal(ctx context.Context, in *domain.JournalCreate) (*domain.Journal, error) {
	if in.SourceType == "" {
		in.SourceType = domain.SourceManual
	}
	if !in.SourceType.IsValid() {
		return nil, xerrors.Validation("source_type", "unknown source type %q", in.SourceType)
	}
	if len(in.Lines) == 0 {
		return nil, xerrors.Validation("no_lines", "journal requires at least one line")
	}
	voucherDate := in.VoucherDate
	if voucherDate.IsZero() {
		voucherDate = time.Now()
	}

	lines := make([]domain.GLLine, 0, len(in.Lines))
	for i, lc := range in.Lines {
		acct, err := uc.resolveAccount(ctx, lc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		line := domain.NormalizeLine(lc, acct)
		if err := domain.ValidateLine(line, acct); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}

	if err := domain.ValidateBalanced(lines); err != nil {
		return nil, err
	}

	j := &domain.Journal{
		VoucherDate: voucherDate,
		SourceType:  in.SourceType,
		SourceID:    in.SourceID,
		Remarks:     in.Remarks,
		Lines:       lines,
	}

	if err := uc.postingRepo.PostJournal(ctx, j, nil); err != nil {
		return nil, err
	}

	uc.afterPost(ctx, j)
	return j, nil
}

// ReverseJournal posts a new journal that mirrors an existing one.
// Corrections never mutate a posted journal.
func (uc *JournalUsecase) ReverseJournal(ctx context.Context, journalID int64, voucherDate time.Time, remarks string) (*domain.Journal, error) {
	orig, err := uc.journalRepo.GetByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if voucherDate.IsZero() {
		voucherDate = time.Now()
	}
	if remarks == "" {
		remarks = fmt.Sprintf("reversal of %s", orig.VoucherNo)
	}

	rev := &domain.Journal{
		VoucherDate: voucherDate,
		SourceType:  orig.SourceType,
		SourceID:    orig.SourceID,
		Remarks:     remarks,
		Lines:       domain.ReversalLines(orig),
	}
	if err := domain.ValidateBalanced(rev.Lines); err != nil {
		return nil, err
	}

	if err := uc.postingRepo.PostJournal(ctx, rev, nil); err != nil {
		return nil, err
	}

	uc.afterPost(ctx, rev)
	return rev, nil
}

// GetByID retrieves a journal with caching. Journals are immutable after
// commit, so the cache never needs invalidating.
func (uc *JournalUsecase) GetByID(ctx context.Context, id int64) (*domain.Journal, error) {
	cacheKey := fmt.Sprintf("journal:id:%d", id)

	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var j domain.Journal
			if jsonErr := json.Unmarshal([]byte(val), &j); jsonErr == nil {
				return &j, nil
			}
		}
	}

	j, err := uc.journalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.cacheSet(ctx, cacheKey, j, 30*time.Minute)
	return j, nil
}

// GetByVoucherNo retrieves a journal by its voucher number.
func (uc *JournalUsecase) GetByVoucherNo(ctx context.Context, voucherNo string) (*domain.Journal, error) {
	cacheKey := fmt.Sprintf("journal:voucher:%s", voucherNo)

	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var j domain.Journal
			if jsonErr := json.Unmarshal([]byte(val), &j); jsonErr == nil {
				return &j, nil
			}
		}
	}

	j, err := uc.journalRepo.GetByVoucherNo(ctx, voucherNo)
	if err != nil {
		return nil, err
	}

	uc.cacheSet(ctx, cacheKey, j, 30*time.Minute)
	return j, nil
}

// ListByAccount retrieves journals posted against one ledger account.
func (uc *JournalUsecase) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Journal, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	cacheKey := fmt.Sprintf("journal:account:%d:limit_%d:offset_%d", accountID, limit, offset)

	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var journals []*domain.Journal
			if jsonErr := json.Unmarshal([]byte(val), &journals); jsonErr == nil {
				return journals, nil
			}
		}
	}

	journals, err := uc.journalRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list journals by account: %w", err)
	}

	uc.cacheSet(ctx, cacheKey, journals, 1*time.Minute)
	return journals, nil
}

// GetAccountActivity aggregates debit/credit/local totals for one account
// and currency up to a cutoff date.
func (uc *JournalUsecase) GetAccountActivity(ctx context.Context, accountID int64, currency string, cutoff time.Time) (*domain.AccountActivity, error) {
	cacheKey := fmt.Sprintf("journal:activity:%d:%s:%d", accountID, currency, cutoff.Unix())

	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var activity domain.AccountActivity
			if jsonErr := json.Unmarshal([]byte(val), &activity); jsonErr == nil {
				return &activity, nil
			}
		}
	}

	activity, err := uc.journalRepo.AccountActivity(ctx, accountID, currency, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate account activity: %w", err)
	}

	uc.cacheSet(ctx, cacheKey, activity, 5*time.Minute)
	return activity, nil
}

func (uc *JournalUsecase) resolveAccount(ctx context.Context, lc domain.LineCreate) (*domain.Account, error) {
	switch {
	case lc.AccountID != 0:
		return uc.accountRepo.GetByID(ctx, lc.AccountID)
	case lc.AccountCode != "":
		return uc.accountRepo.GetByCode(ctx, lc.AccountCode)
	default:
		return nil, xerrors.Validation("account_required", "line must reference an account by id or code")
	}
}

func (uc *JournalUsecase) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	if uc.redisClient == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = uc.redisClient.Set(ctx, key, data, ttl).Err()
	}
}

// afterPost runs the post-commit side effects: event publishing, cache
// invalidation, and logging. Best effort only; the journal is committed.
func (uc *JournalUsecase) afterPost(ctx context.Context, j *domain.Journal) {
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
		uc.logger.Info("journal posted",
			zap.String("voucher_no", j.VoucherNo),
			zap.String("source_type", string(j.SourceType)),
			zap.Int("lines", len(j.Lines)),
		)
	}
}

// invalidateAccountCaches drops the per-account listing and activity caches
// touched by a posting. Single-journal entries are immutable and stay.
func invalidateAccountCaches(ctx context.Context, rdb *redis.Client, accountIDs ...int64) {
	if rdb == nil {
		return
	}
	for _, id := range accountIDs {
		for _, pattern := range []string{
			fmt.Sprintf("journal:account:%d:*", id),
			fmt.Sprintf("journal:activity:%d:*", id),
		} {
			iter := rdb.Scan(ctx, 0, pattern, 0).Iterator()
			for iter.Next(ctx) {
				_ = rdb.Del(ctx, iter.Val()).Err()
			}
		}
	}
}
