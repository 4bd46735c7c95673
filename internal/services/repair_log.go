package services

import (
	"context"
	"fmt"

	"repair-system/internal/dto"
	"repair-system/internal/entities"
	"repair-system/internal/repositories"
	apperrors "repair-system/pkg/errors"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RepairLogServiceInterface interface {
	AddLog(ctx context.Context, payload dto.CreateRepairLogDTO) (*entities.RepairLog, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]entities.RepairLog, error)
	MaterialsByLog(ctx context.Context, logID uint64) ([]entities.Material, error)
	AddFeedback(ctx context.Context, payload dto.CreateFeedbackDTO) (*entities.Feedback, error)
	FeedbackByLog(ctx context.Context, logID uint64) ([]entities.Feedback, error)
}

// RepairLogService - журнал выполненных работ: записи о работах с материалами
// и отзывы клиентов по этим записям.
type RepairLogService struct {
	txManager    repositories.TxManagerInterface
	orderRepo    repositories.RepairOrderRepositoryInterface
	logRepo      repositories.RepairLogRepositoryInterface
	materialRepo repositories.MaterialRepositoryInterface
	feedbackRepo repositories.FeedbackRepositoryInterface
	logger       *zap.Logger
}

func NewRepairLogService(
	txManager repositories.TxManagerInterface,
	orderRepo repositories.RepairOrderRepositoryInterface,
	logRepo repositories.RepairLogRepositoryInterface,
	materialRepo repositories.MaterialRepositoryInterface,
	feedbackRepo repositories.FeedbackRepositoryInterface,
	logger *zap.Logger,
) RepairLogServiceInterface {
	return &RepairLogService{
		txManager:    txManager,
		orderRepo:    orderRepo,
		logRepo:      logRepo,
		materialRepo: materialRepo,
		feedbackRepo: feedbackRepo,
		logger:       logger,
	}
}

// AddLog создаёт запись о работах вместе с израсходованными материалами
// в одной транзакции под общим tx_id.
func (s *RepairLogService) AddLog(ctx context.Context, payload dto.CreateRepairLogDTO) (*entities.RepairLog, error) {
	txID := uuid.New()
	log := &entities.RepairLog{
		OrderID:    payload.OrderID,
		StaffID:    payload.StaffID,
		LogMessage: payload.LogMessage,
	}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.FindOrderForUpdateInTx(ctx, tx, payload.OrderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return fmt.Errorf("заказ %d в статусе %s: %w", order.OrderID, order.Status, apperrors.ErrInvalidState)
		}

		if err := s.logRepo.CreateLogInTx(ctx, tx, txID, log); err != nil {
			return err
		}
		for _, line := range payload.Materials {
			material := &entities.Material{
				LogID:     log.LogID,
				Name:      line.Name,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				Remarks:   null.NewString(line.Remarks, line.Remarks != ""),
			}
			if err := s.materialRepo.CreateMaterialInTx(ctx, tx, txID, material); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("не удалось создать запись о работах",
			zap.Uint64("orderID", payload.OrderID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("запись о работах создана",
		zap.Uint64("orderID", payload.OrderID),
		zap.Uint64("logID", log.LogID),
		zap.Int("materials", len(payload.Materials)))
	return log, nil
}

func (s *RepairLogService) ListByOrder(ctx context.Context, orderID uint64) ([]entities.RepairLog, error) {
	logs, err := s.logRepo.ListByOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("ошибка выборки журнала работ", zap.Uint64("orderID", orderID), zap.Error(err))
		return nil, err
	}
	return logs, nil
}

func (s *RepairLogService) MaterialsByLog(ctx context.Context, logID uint64) ([]entities.Material, error) {
	materials, err := s.materialRepo.ListByLog(ctx, logID)
	if err != nil {
		s.logger.Error("ошибка выборки материалов", zap.Uint64("logID", logID), zap.Error(err))
		return nil, err
	}
	return materials, nil
}

func (s *RepairLogService) AddFeedback(ctx context.Context, payload dto.CreateFeedbackDTO) (*entities.Feedback, error) {
	if payload.Rating < 1 || payload.Rating > 5 {
		return nil, apperrors.NewInvalidInputError("оценка должна быть от 1 до 5, получено %d", payload.Rating)
	}

	txID := uuid.New()
	feedback := &entities.Feedback{
		CustomerID: payload.CustomerID,
		LogID:      payload.LogID,
		Rating:     payload.Rating,
		Comments:   null.NewString(payload.Comments, payload.Comments != ""),
	}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.feedbackRepo.CreateFeedbackInTx(ctx, tx, txID, feedback)
	})
	if err != nil {
		s.logger.Error("не удалось сохранить отзыв", zap.Uint64("logID", payload.LogID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("отзыв сохранён", zap.Uint64("feedbackID", feedback.FeedbackID))
	return feedback, nil
}

func (s *RepairLogService) FeedbackByLog(ctx context.Context, logID uint64) ([]entities.Feedback, error) {
	feedback, err := s.feedbackRepo.ListByLog(ctx, logID)
	if err != nil {
		s.logger.Error("ошибка выборки отзывов", zap.Uint64("logID", logID), zap.Error(err))
		return nil, err
	}
	return feedback, nil
}
