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

type RepairRequestServiceInterface interface {
	FindRequest(ctx context.Context, id uint64) (*entities.RepairRequest, error)
	CreateRequest(ctx context.Context, payload dto.CreateRepairRequestDTO) (*entities.RepairRequest, error)
	ConvertToOrder(ctx context.Context, payload dto.ConvertRequestDTO) (*entities.RepairOrder, error)
}

// RepairRequestService - приём заявок клиентов и их преобразование в заказы.
type RepairRequestService struct {
	txManager   repositories.TxManagerInterface
	requestRepo repositories.RepairRequestRepositoryInterface
	orderRepo   repositories.RepairOrderRepositoryInterface
	logger      *zap.Logger
}

func NewRepairRequestService(
	txManager repositories.TxManagerInterface,
	requestRepo repositories.RepairRequestRepositoryInterface,
	orderRepo repositories.RepairOrderRepositoryInterface,
	logger *zap.Logger,
) RepairRequestServiceInterface {
	return &RepairRequestService{
		txManager:   txManager,
		requestRepo: requestRepo,
		orderRepo:   orderRepo,
		logger:      logger,
	}
}

func (s *RepairRequestService) FindRequest(ctx context.Context, id uint64) (*entities.RepairRequest, error) {
	request, err := s.requestRepo.FindRequest(ctx, id)
	if err != nil {
		s.logger.Error("ошибка поиска заявки", zap.Uint64("requestID", id), zap.Error(err))
		return nil, err
	}
	return request, nil
}

func (s *RepairRequestService) CreateRequest(ctx context.Context, payload dto.CreateRepairRequestDTO) (*entities.RepairRequest, error) {
	txID := uuid.New()
	request := &entities.RepairRequest{
		VehicleID:   payload.VehicleID,
		CustomerID:  payload.CustomerID,
		Description: payload.Description,
		Status:      entities.RequestStatusPending,
	}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.requestRepo.CreateRequestInTx(ctx, tx, txID, request)
	})
	if err != nil {
		s.logger.Error("не удалось создать заявку", zap.Any("payload", payload), zap.Error(err))
		return nil, err
	}

	s.logger.Info("заявка создана", zap.Uint64("requestID", request.RequestID))
	return request, nil
}

// ConvertToOrder атомарно создаёт заказ по заявке и помечает заявку
// обработанной. Обе мутации журналируются под общим tx_id.
func (s *RepairRequestService) ConvertToOrder(ctx context.Context, payload dto.ConvertRequestDTO) (*entities.RepairOrder, error) {
	txID := uuid.New()
	var order *entities.RepairOrder

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		request, err := s.requestRepo.FindRequestForUpdateInTx(ctx, tx, payload.RequestID)
		if err != nil {
			return err
		}
		if request.Status != entities.RequestStatusPending {
			return fmt.Errorf("заявка %d в статусе %s: %w", request.RequestID, request.Status, apperrors.ErrInvalidState)
		}

		order = &entities.RepairOrder{
			VehicleID:         request.VehicleID,
			CustomerID:        request.CustomerID,
			RequestID:         request.RequestID,
			RequiredStaffType: entities.StaffJobType(payload.RequiredStaffType),
			Status:            entities.OrderStatusPending,
			Remarks:           null.NewString(payload.Remarks, payload.Remarks != ""),
		}
		if err := s.orderRepo.CreateOrderInTx(ctx, tx, txID, order); err != nil {
			return err
		}
		return s.requestRepo.MarkOrderCreatedInTx(ctx, tx, txID, request)
	})
	if err != nil {
		s.logger.Error("не удалось преобразовать заявку в заказ",
			zap.Uint64("requestID", payload.RequestID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("заявка преобразована в заказ",
		zap.Uint64("requestID", payload.RequestID), zap.Uint64("orderID", order.OrderID))
	return order, nil
}
