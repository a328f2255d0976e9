package usecase

import (
	"context"

	"gl-service/internal/domain"
	"gl-service/internal/repository"
)

// SubledgerUsecase serves AR/AP transaction reads. Writes happen only
// through the posting service, paired with their journals.
type SubledgerUsecase struct {
	subledgerRepo repository.SubledgerRepository
}

func NewSubledgerUsecase(subledgerRepo repository.SubledgerRepository) *SubledgerUsecase {
	return &SubledgerUsecase{subledgerRepo: subledgerRepo}
}

func (uc *SubledgerUsecase) GetByID(ctx context.Context, id int64) (*domain.SubledgerTransaction, error) {
	return uc.subledgerRepo.GetByID(ctx, id)
}

func (uc *SubledgerUsecase) GetByRefCode(ctx context.Context, refCode string) (*domain.SubledgerTransaction, error) {
	return uc.subledgerRepo.GetByRefCode(ctx, refCode)
}

func (uc *SubledgerUsecase) ListByCounterparty(ctx context.Context, counterpartyID string, limit, offset int) ([]*domain.SubledgerTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return uc.subledgerRepo.ListByCounterparty(ctx, counterpartyID, limit, offset)
}
