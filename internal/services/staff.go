package services

import (
	"context"

	"repair-system/internal/entities"
	"repair-system/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type StaffServiceInterface interface {
	UpdateHourlyRate(ctx context.Context, staffID uint64, rate float64) (*entities.Staff, error)
}

// StaffService - административные операции над справочником сотрудников.
// Пересмотр ставки инвалидирует кешированные ставку и список исполнителей,
// чтобы расчёт стоимости и подбор не работали по устаревшим данным.
type StaffService struct {
	txManager repositories.TxManagerInterface
	staffRepo repositories.StaffRepositoryInterface
	cache     repositories.CacheRepositoryInterface
	logger    *zap.Logger
}

func NewStaffService(
	txManager repositories.TxManagerInterface,
	staffRepo repositories.StaffRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	logger *zap.Logger,
) StaffServiceInterface {
	return &StaffService{
		txManager: txManager,
		staffRepo: staffRepo,
		cache:     cache,
		logger:    logger,
	}
}

func (s *StaffService) UpdateHourlyRate(ctx context.Context, staffID uint64, rate float64) (*entities.Staff, error) {
	txID := uuid.New()
	var updated *entities.Staff

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		updated, err = s.staffRepo.UpdateHourlyRateInTx(ctx, tx, txID, staffID, rate)
		return err
	})
	if err != nil {
		s.logger.Error("не удалось изменить ставку сотрудника",
			zap.Uint64("staffID", staffID), zap.Float64("rate", rate), zap.Error(err))
		return nil, err
	}

	// Ошибки кеша не фатальны - в худшем случае значения доживут до TTL.
	keys := []string{
		hourlyRateCacheKey(staffID),
		eligibleStaffCacheKey(updated.JobType),
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn("не удалось сбросить кеш после изменения ставки",
			zap.Uint64("staffID", staffID), zap.Error(err))
	}

	s.logger.Info("ставка сотрудника изменена",
		zap.Uint64("staffID", staffID), zap.Float64("rate", rate))
	return s.staffRepo.FindStaff(ctx, staffID)
}
