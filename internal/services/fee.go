package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"repair-system/internal/repositories"
	apperrors "repair-system/pkg/errors"

	"go.uber.org/zap"
)

type FeeCalculatorInterface interface {
	MaterialFee(ctx context.Context, orderID uint64) (float64, error)
	LaborFee(ctx context.Context, orderID uint64) (float64, error)
}

// FeeCalculator считает стоимость заказа по журналу работ:
// материалы - количество на цену за единицу, труд - отработанные часы
// на почасовую ставку сотрудника. Стоимость считается по фактическим
// данным и не зависит от текущего статуса заказа.
type FeeCalculator struct {
	orderRepo      repositories.RepairOrderRepositoryInterface
	assignmentRepo repositories.RepairAssignmentRepositoryInterface
	materialRepo   repositories.MaterialRepositoryInterface
	staffRepo      repositories.StaffRepositoryInterface
	cache          repositories.CacheRepositoryInterface
	rateTTL        time.Duration
	logger         *zap.Logger
}

func NewFeeCalculator(
	orderRepo repositories.RepairOrderRepositoryInterface,
	assignmentRepo repositories.RepairAssignmentRepositoryInterface,
	materialRepo repositories.MaterialRepositoryInterface,
	staffRepo repositories.StaffRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	rateTTL time.Duration,
	logger *zap.Logger,
) FeeCalculatorInterface {
	return &FeeCalculator{
		orderRepo:      orderRepo,
		assignmentRepo: assignmentRepo,
		materialRepo:   materialRepo,
		staffRepo:      staffRepo,
		cache:          cache,
		rateTTL:        rateTTL,
		logger:         logger,
	}
}

func (s *FeeCalculator) MaterialFee(ctx context.Context, orderID uint64) (float64, error) {
	if _, err := s.orderRepo.FindOrder(ctx, orderID); err != nil {
		return 0, err
	}

	materials, err := s.materialRepo.ListByOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("ошибка расчёта стоимости материалов", zap.Uint64("orderID", orderID), zap.Error(err))
		return 0, err
	}

	var total float64
	for _, m := range materials {
		total += m.TotalPrice()
	}
	return total, nil
}

func (s *FeeCalculator) LaborFee(ctx context.Context, orderID uint64) (float64, error) {
	if _, err := s.orderRepo.FindOrder(ctx, orderID); err != nil {
		return 0, err
	}

	assignments, err := s.assignmentRepo.ListByOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("ошибка расчёта стоимости работ", zap.Uint64("orderID", orderID), zap.Error(err))
		return 0, err
	}

	var total float64
	for _, a := range assignments {
		if !a.TimeWorked.Valid || a.TimeWorked.Float64 <= 0 {
			continue
		}
		rate, err := s.hourlyRate(ctx, a.StaffID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				// Сотрудника больше нет в справочнике - его часы не тарифицируются.
				s.logger.Warn("сотрудник не найден, трудозатраты пропущены",
					zap.Uint64("orderID", orderID), zap.Uint64("staffID", a.StaffID))
				continue
			}
			return 0, err
		}
		total += a.TimeWorked.Float64 * rate
	}
	return total, nil
}

func hourlyRateCacheKey(staffID uint64) string {
	return fmt.Sprintf("staff:rate:%d", staffID)
}

// hourlyRate читает ставку сотрудника через кеш. Ошибки кеша не фатальны.
func (s *FeeCalculator) hourlyRate(ctx context.Context, staffID uint64) (float64, error) {
	key := hourlyRateCacheKey(staffID)

	if raw, err := s.cache.Get(ctx, key); err == nil {
		if rate, perr := strconv.ParseFloat(raw, 64); perr == nil {
			return rate, nil
		}
		s.logger.Warn("повреждённый кеш ставки, перечитываем из БД", zap.String("key", key))
	}

	rate, err := s.staffRepo.HourlyRate(ctx, staffID)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Set(ctx, key, strconv.FormatFloat(rate, 'f', -1, 64), s.rateTTL); err != nil {
		s.logger.Warn("не удалось записать кеш ставки", zap.String("key", key), zap.Error(err))
	}
	return rate, nil
}
