package services

import (
	"context"

	"repair-system/internal/dto"
	"repair-system/internal/entities"
	"repair-system/internal/repositories"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type VehicleServiceInterface interface {
	FindVehicle(ctx context.Context, id uint64) (*entities.Vehicle, error)
	CreateVehicle(ctx context.Context, payload dto.CreateVehicleDTO) (*entities.Vehicle, error)
	UpdateVehicle(ctx context.Context, id uint64, payload dto.UpdateVehicleDTO) (*entities.Vehicle, error)
	DeleteVehicle(ctx context.Context, id uint64) error
}

type VehicleService struct {
	txManager   repositories.TxManagerInterface
	vehicleRepo repositories.VehicleRepositoryInterface
	logger      *zap.Logger
}

func NewVehicleService(
	txManager repositories.TxManagerInterface,
	vehicleRepo repositories.VehicleRepositoryInterface,
	logger *zap.Logger,
) VehicleServiceInterface {
	return &VehicleService{
		txManager:   txManager,
		vehicleRepo: vehicleRepo,
		logger:      logger,
	}
}

func (s *VehicleService) FindVehicle(ctx context.Context, id uint64) (*entities.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindVehicle(ctx, id)
	if err != nil {
		s.logger.Error("ошибка поиска автомобиля", zap.Uint64("vehicleID", id), zap.Error(err))
		return nil, err
	}
	return vehicle, nil
}

func (s *VehicleService) CreateVehicle(ctx context.Context, payload dto.CreateVehicleDTO) (*entities.Vehicle, error) {
	txID := uuid.New()
	vehicle := &entities.Vehicle{
		CustomerID:   payload.CustomerID,
		LicensePlate: payload.LicensePlate,
		Brand:        payload.Brand,
		Model:        payload.Model,
		Type:         payload.Type,
		Color:        payload.Color,
		Remarks:      null.NewString(payload.Remarks, payload.Remarks != ""),
	}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.vehicleRepo.CreateVehicleInTx(ctx, tx, txID, vehicle)
	})
	if err != nil {
		s.logger.Error("не удалось создать автомобиль", zap.Any("payload", payload), zap.Error(err))
		return nil, err
	}

	s.logger.Info("автомобиль создан", zap.Uint64("vehicleID", vehicle.VehicleID))
	return vehicle, nil
}

func (s *VehicleService) UpdateVehicle(ctx context.Context, id uint64, payload dto.UpdateVehicleDTO) (*entities.Vehicle, error) {
	txID := uuid.New()

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.vehicleRepo.UpdateVehicleInTx(ctx, tx, txID, id, payload)
	})
	if err != nil {
		s.logger.Error("не удалось обновить автомобиль", zap.Uint64("vehicleID", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("автомобиль обновлён", zap.Uint64("vehicleID", id))
	return s.vehicleRepo.FindVehicle(ctx, id)
}

func (s *VehicleService) DeleteVehicle(ctx context.Context, id uint64) error {
	txID := uuid.New()

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.vehicleRepo.DeleteVehicleInTx(ctx, tx, txID, id)
	})
	if err != nil {
		s.logger.Error("не удалось удалить автомобиль", zap.Uint64("vehicleID", id), zap.Error(err))
		return err
	}

	s.logger.Info("автомобиль удалён", zap.Uint64("vehicleID", id))
	return nil
}
