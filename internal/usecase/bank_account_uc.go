package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gl-service/internal/domain"
	"gl-service/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BankAccountUsecase serves payment-method reads and the soft-deactivation
// path. Creation is administrative and handled by the seeder.
type BankAccountUsecase struct {
	bankRepo    repository.BankAccountRepository
	redisClient *redis.Client
	logger      *zap.Logger
}

func NewBankAccountUsecase(bankRepo repository.BankAccountRepository, redisClient *redis.Client, logger *zap.Logger) *BankAccountUsecase {
	return &BankAccountUsecase{
		bankRepo:    bankRepo,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (uc *BankAccountUsecase) GetByID(ctx context.Context, id int64) (*domain.BankAccount, error) {
	cacheKey := fmt.Sprintf("bank_account:id:%d", id)

	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var b domain.BankAccount
			if jsonErr := json.Unmarshal([]byte(val), &b); jsonErr == nil {
				return &b, nil
			}
		}
	}

	b, err := uc.bankRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(b); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, 5*time.Minute).Err()
		}
	}
	return b, nil
}

func (uc *BankAccountUsecase) List(ctx context.Context, activeOnly bool) ([]*domain.BankAccount, error) {
	return uc.bankRepo.List(ctx, activeOnly)
}

// Deactivate soft-disables a bank account and drops its cache entry.
// Historical journals keep their lines; nothing is deleted.
func (uc *BankAccountUsecase) Deactivate(ctx context.Context, id int64) error {
	if err := uc.bankRepo.Deactivate(ctx, id); err != nil {
		return err
	}

	if uc.redisClient != nil {
		_ = uc.redisClient.Del(ctx, fmt.Sprintf("bank_account:id:%d", id)).Err()
	}
	if uc.logger != nil {
		uc.logger.Info("bank account deactivated", zap.Int64("id", id))
	}
	return nil
}
