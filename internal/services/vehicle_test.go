package services

import (
	"context"
	"testing"

	"repair-system/internal/dto"
	"repair-system/internal/entities"
	"repair-system/internal/repositories"
	apperrors "repair-system/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVehicleRepo struct {
	vehicles map[uint64]*entities.Vehicle
	nextID   uint64
	txIDs    []uuid.UUID
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[uint64]*entities.Vehicle), nextID: 1}
}

func (f *fakeVehicleRepo) FindVehicle(ctx context.Context, id uint64) (*entities.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return v, nil
}

func (f *fakeVehicleRepo) CreateVehicleInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, vehicle *entities.Vehicle) error {
	vehicle.VehicleID = f.nextID
	f.nextID++
	f.vehicles[vehicle.VehicleID] = vehicle
	f.txIDs = append(f.txIDs, txID)
	return nil
}

func (f *fakeVehicleRepo) UpdateVehicleInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, id uint64, payload dto.UpdateVehicleDTO) error {
	v, ok := f.vehicles[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if payload.Color != "" {
		v.Color = payload.Color
	}
	if payload.Brand != "" {
		v.Brand = payload.Brand
	}
	f.txIDs = append(f.txIDs, txID)
	return nil
}

func (f *fakeVehicleRepo) DeleteVehicleInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, id uint64) error {
	if _, ok := f.vehicles[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.vehicles, id)
	f.txIDs = append(f.txIDs, txID)
	return nil
}

var _ repositories.VehicleRepositoryInterface = (*fakeVehicleRepo)(nil)

func newVehicleFixture() (VehicleServiceInterface, *fakeVehicleRepo) {
	repo := newFakeVehicleRepo()
	svc := NewVehicleService(&fakeTxManager{}, repo, zap.NewNop())
	return svc, repo
}

func TestVehicleService_CreateAndFind(t *testing.T) {
	svc, repo := newVehicleFixture()

	vehicle, err := svc.CreateVehicle(context.Background(), dto.CreateVehicleDTO{
		CustomerID:   7,
		LicensePlate: "A100BC",
		Brand:        "Toyota",
		Model:        "Camry",
		Type:         "Седан",
		Color:        "Белый",
	})
	require.NoError(t, err)
	require.NotZero(t, vehicle.VehicleID)
	require.Len(t, repo.txIDs, 1)

	found, err := svc.FindVehicle(context.Background(), vehicle.VehicleID)
	require.NoError(t, err)
	assert.Equal(t, "Toyota", found.Brand)
	assert.False(t, found.Remarks.Valid)
}

func TestVehicleService_UpdateReturnsFreshState(t *testing.T) {
	svc, repo := newVehicleFixture()
	created, err := svc.CreateVehicle(context.Background(), dto.CreateVehicleDTO{
		CustomerID: 7, LicensePlate: "A100BC", Brand: "Toyota", Model: "Camry", Type: "Седан", Color: "Белый",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateVehicle(context.Background(), created.VehicleID, dto.UpdateVehicleDTO{Color: "Чёрный"})
	require.NoError(t, err)
	assert.Equal(t, "Чёрный", updated.Color)
	// Создание и обновление идут в разных логических транзакциях.
	require.Len(t, repo.txIDs, 2)
	assert.NotEqual(t, repo.txIDs[0], repo.txIDs[1])
}

func TestVehicleService_UpdateUnknownVehicle(t *testing.T) {
	svc, _ := newVehicleFixture()

	_, err := svc.UpdateVehicle(context.Background(), 404, dto.UpdateVehicleDTO{Color: "Чёрный"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVehicleService_Delete(t *testing.T) {
	svc, _ := newVehicleFixture()
	created, err := svc.CreateVehicle(context.Background(), dto.CreateVehicleDTO{
		CustomerID: 7, LicensePlate: "A100BC", Brand: "Toyota", Model: "Camry", Type: "Седан", Color: "Белый",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteVehicle(context.Background(), created.VehicleID))

	_, err = svc.FindVehicle(context.Background(), created.VehicleID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
