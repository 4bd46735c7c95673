package services

import (
	"context"
	"testing"

	"repair-system/internal/dto"
	"repair-system/internal/entities"
	apperrors "repair-system/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type requestFixture struct {
	service  RepairRequestServiceInterface
	requests *fakeRequestRepo
	orders   *fakeOrderRepo
}

func newRequestFixture() *requestFixture {
	f := &requestFixture{
		requests: newFakeRequestRepo(),
		orders:   newFakeOrderRepo(),
	}
	f.service = NewRepairRequestService(&fakeTxManager{}, f.requests, f.orders, zap.NewNop())
	return f
}

func TestCreateRequest(t *testing.T) {
	f := newRequestFixture()

	request, err := f.service.CreateRequest(context.Background(), dto.CreateRepairRequestDTO{
		VehicleID:   3,
		CustomerID:  5,
		Description: "Не заводится по утрам",
	})
	require.NoError(t, err)

	assert.NotZero(t, request.RequestID)
	assert.Equal(t, entities.RequestStatusPending, request.Status)
	assert.Equal(t, "Не заводится по утрам", request.Description)
}

func TestConvertToOrder(t *testing.T) {
	f := newRequestFixture()

	request, err := f.service.CreateRequest(context.Background(), dto.CreateRepairRequestDTO{
		VehicleID: 3, CustomerID: 5, Description: "Стук в подвеске",
	})
	require.NoError(t, err)

	order, err := f.service.ConvertToOrder(context.Background(), dto.ConvertRequestDTO{
		RequestID:         request.RequestID,
		RequiredStaffType: string(entities.JobTypeAutoRepairWorker),
		Remarks:           "Диагностика перед ремонтом",
	})
	require.NoError(t, err)

	assert.Equal(t, entities.OrderStatusPending, order.Status)
	assert.Equal(t, request.VehicleID, order.VehicleID)
	assert.Equal(t, request.CustomerID, order.CustomerID)
	assert.Equal(t, request.RequestID, order.RequestID)
	assert.Equal(t, entities.JobTypeAutoRepairWorker, order.RequiredStaffType)
	assert.Equal(t, entities.RequestStatusOrderCreated, request.Status)

	// Обе мутации преобразования идут под общим tx_id.
	require.NotEmpty(t, f.orders.txIDs)
	require.Len(t, f.requests.txIDs, 2)
	assert.Equal(t, f.orders.txIDs[0], f.requests.txIDs[1])
	assert.NotEqual(t, f.requests.txIDs[0], f.requests.txIDs[1])
}

func TestConvertToOrder_AlreadyConverted(t *testing.T) {
	f := newRequestFixture()

	request, err := f.service.CreateRequest(context.Background(), dto.CreateRepairRequestDTO{
		VehicleID: 3, CustomerID: 5, Description: "Стук в подвеске",
	})
	require.NoError(t, err)

	_, err = f.service.ConvertToOrder(context.Background(), dto.ConvertRequestDTO{RequestID: request.RequestID})
	require.NoError(t, err)

	_, err = f.service.ConvertToOrder(context.Background(), dto.ConvertRequestDTO{RequestID: request.RequestID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestConvertToOrder_RequestNotFound(t *testing.T) {
	f := newRequestFixture()

	_, err := f.service.ConvertToOrder(context.Background(), dto.ConvertRequestDTO{RequestID: 42})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
