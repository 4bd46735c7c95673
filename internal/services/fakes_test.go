package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repair-system/internal/entities"
	"repair-system/internal/repositories"
	apperrors "repair-system/pkg/errors"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Фейки хранят данные в памяти и записывают tx_id каждой мутации,
// чтобы тесты могли проверять разбиение операций по логическим транзакциям.

type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fakeOrderRepo struct {
	orders  map[uint64]*entities.RepairOrder
	nextID  uint64
	txIDs   []uuid.UUID
	failSet bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uint64]*entities.RepairOrder), nextID: 1}
}

func (f *fakeOrderRepo) FindOrder(ctx context.Context, id uint64) (*entities.RepairOrder, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) FindOrderForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairOrder, error) {
	return f.FindOrder(ctx, id)
}

func (f *fakeOrderRepo) CreateOrderInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, order *entities.RepairOrder) error {
	order.OrderID = f.nextID
	order.OrderTime = time.Now()
	f.nextID++
	f.orders[order.OrderID] = order
	f.txIDs = append(f.txIDs, txID)
	return nil
}

func (f *fakeOrderRepo) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, order *entities.RepairOrder, status entities.RepairStatus, finishTime null.Time) error {
	if f.failSet {
		return fmt.Errorf("искусственный сбой обновления заказа")
	}
	order.Status = status
	order.FinishTime = finishTime
	f.txIDs = append(f.txIDs, txID)
	return nil
}

type fakeAssignmentRepo struct {
	assignments  map[uint64]*entities.RepairAssignment
	nextID       uint64
	txIDs        []uuid.UUID
	forceCASMiss bool
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[uint64]*entities.RepairAssignment), nextID: 1}
}

func (f *fakeAssignmentRepo) FindAssignment(ctx context.Context, id uint64) (*entities.RepairAssignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return a, nil
}

func (f *fakeAssignmentRepo) FindAssignmentInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairAssignment, error) {
	return f.FindAssignment(ctx, id)
}

func (f *fakeAssignmentRepo) ListByOrder(ctx context.Context, orderID uint64) ([]entities.RepairAssignment, error) {
	var result []entities.RepairAssignment
	for id := uint64(1); id < f.nextID; id++ {
		if a, ok := f.assignments[id]; ok && a.OrderID == orderID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (f *fakeAssignmentRepo) CountLiveInTx(ctx context.Context, tx pgx.Tx, orderID uint64) (int, error) {
	count := 0
	for _, a := range f.assignments {
		if a.OrderID == orderID && (a.Status == entities.AssignmentStatusPending || a.Status == entities.AssignmentStatusAccepted) {
			count++
		}
	}
	return count, nil
}

func (f *fakeAssignmentRepo) CreateAssignmentInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, assignment *entities.RepairAssignment) error {
	assignment.AssignmentID = f.nextID
	f.nextID++
	f.assignments[assignment.AssignmentID] = assignment
	f.txIDs = append(f.txIDs, txID)
	return nil
}

func (f *fakeAssignmentRepo) UpdateStatusIfPendingInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, assignment *entities.RepairAssignment, status entities.AssignmentStatus) (bool, error) {
	if f.forceCASMiss || assignment.Status != entities.AssignmentStatusPending {
		return false, nil
	}
	assignment.Status = status
	f.txIDs = append(f.txIDs, txID)
	return true, nil
}

func (f *fakeAssignmentRepo) UpdateTimeWorkedInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, assignment *entities.RepairAssignment, timeWorked float64) error {
	assignment.TimeWorked = null.Float64From(timeWorked)
	f.txIDs = append(f.txIDs, txID)
	return nil
}

type fakeStaffRepo struct {
	staff map[uint64]entities.Staff
	rates map[uint64]float64
	txIDs []uuid.UUID
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{staff: make(map[uint64]entities.Staff), rates: make(map[uint64]float64)}
}

func (f *fakeStaffRepo) addStaff(id uint64, jobType entities.StaffJobType, rate float64) {
	f.staff[id] = entities.Staff{
		BaseUser:   entities.BaseUser{UserID: id, Role: entities.RoleStaff},
		StaffID:    id,
		JobType:    jobType,
		HourlyRate: rate,
	}
	f.rates[id] = rate
}

func (f *fakeStaffRepo) EligibleStaff(ctx context.Context, jobType entities.StaffJobType, excludeStaffID *uint64) ([]entities.Staff, error) {
	var result []entities.Staff
	for id := uint64(1); id <= uint64(len(f.staff))+100; id++ {
		member, ok := f.staff[id]
		if !ok || member.JobType != jobType {
			continue
		}
		if excludeStaffID != nil && member.StaffID == *excludeStaffID {
			continue
		}
		result = append(result, member)
	}
	return result, nil
}

func (f *fakeStaffRepo) FindStaff(ctx context.Context, staffID uint64) (*entities.Staff, error) {
	member, ok := f.staff[staffID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &member, nil
}

func (f *fakeStaffRepo) HourlyRate(ctx context.Context, staffID uint64) (float64, error) {
	rate, ok := f.rates[staffID]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	return rate, nil
}

func (f *fakeStaffRepo) UpdateHourlyRateInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, staffID uint64, rate float64) (*entities.Staff, error) {
	member, ok := f.staff[staffID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	member.HourlyRate = rate
	f.staff[staffID] = member
	f.rates[staffID] = rate
	f.txIDs = append(f.txIDs, txID)
	return &member, nil
}

type fakeCache struct {
	values map[string]string
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", errors.New("ключ не найден в кеше")
	}
	return value, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.sets++
	switch v := value.(type) {
	case string:
		f.values[key] = v
	case []byte:
		f.values[key] = string(v)
	default:
		return fmt.Errorf("неожиданный тип значения кеша %T", value)
	}
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

// firstStaffSelector делает выбор детерминированным для тестов движка.
type firstStaffSelector struct{}

func (firstStaffSelector) Select(candidates []entities.Staff) entities.Staff {
	return candidates[0]
}

type fakeMaterialRepo struct {
	byOrder map[uint64][]entities.Material
	txIDs   []uuid.UUID
	nextID  uint64
}

func newFakeMaterialRepo() *fakeMaterialRepo {
	return &fakeMaterialRepo{byOrder: make(map[uint64][]entities.Material), nextID: 1}
}

func (f *fakeMaterialRepo) ListByLog(ctx context.Context, logID uint64) ([]entities.Material, error) {
	var result []entities.Material
	for _, materials := range f.byOrder {
		for _, m := range materials {
			if m.LogID == logID {
				result = append(result, m)
			}
		}
	}
	return result, nil
}

func (f *fakeMaterialRepo) ListByOrder(ctx context.Context, orderID uint64) ([]entities.Material, error) {
	return f.byOrder[orderID], nil
}

func (f *fakeMaterialRepo) CreateMaterialInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, material *entities.Material) error {
	material.MaterialID = f.nextID
	f.nextID++
	f.byOrder[material.LogID] = append(f.byOrder[material.LogID], *material)
	f.txIDs = append(f.txIDs, txID)
	return nil
}

type fakeRequestRepo struct {
	requests map[uint64]*entities.RepairRequest
	nextID   uint64
	txIDs    []uuid.UUID
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uint64]*entities.RepairRequest), nextID: 1}
}

func (f *fakeRequestRepo) FindRequest(ctx context.Context, id uint64) (*entities.RepairRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return request, nil
}

func (f *fakeRequestRepo) FindRequestForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairRequest, error) {
	return f.FindRequest(ctx, id)
}

func (f *fakeRequestRepo) CreateRequestInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, request *entities.RepairRequest) error {
	request.RequestID = f.nextID
	request.RequestTime = time.Now()
	f.nextID++
	f.requests[request.RequestID] = request
	f.txIDs = append(f.txIDs, txID)
	return nil
}

func (f *fakeRequestRepo) MarkOrderCreatedInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, request *entities.RepairRequest) error {
	request.Status = entities.RequestStatusOrderCreated
	f.txIDs = append(f.txIDs, txID)
	return nil
}

type fakeLogRepo struct {
	logs   map[uint64]*entities.RepairLog
	nextID uint64
	txIDs  []uuid.UUID
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{logs: make(map[uint64]*entities.RepairLog), nextID: 1}
}

func (f *fakeLogRepo) ListByOrder(ctx context.Context, orderID uint64) ([]entities.RepairLog, error) {
	var result []entities.RepairLog
	for id := uint64(1); id < f.nextID; id++ {
		if l, ok := f.logs[id]; ok && l.OrderID == orderID {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (f *fakeLogRepo) CreateLogInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, log *entities.RepairLog) error {
	log.LogID = f.nextID
	log.LogTime = time.Now()
	f.nextID++
	f.logs[log.LogID] = log
	f.txIDs = append(f.txIDs, txID)
	return nil
}

type fakeFeedbackRepo struct {
	feedback []entities.Feedback
	txIDs    []uuid.UUID
}

func (f *fakeFeedbackRepo) ListByLog(ctx context.Context, logID uint64) ([]entities.Feedback, error) {
	var result []entities.Feedback
	for _, fb := range f.feedback {
		if fb.LogID == logID {
			result = append(result, fb)
		}
	}
	return result, nil
}

func (f *fakeFeedbackRepo) CreateFeedbackInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, feedback *entities.Feedback) error {
	feedback.FeedbackID = uint64(len(f.feedback) + 1)
	feedback.FeedbackTime = time.Now()
	f.feedback = append(f.feedback, *feedback)
	f.txIDs = append(f.txIDs, txID)
	return nil
}

var (
	_ repositories.TxManagerInterface                  = (*fakeTxManager)(nil)
	_ repositories.RepairOrderRepositoryInterface      = (*fakeOrderRepo)(nil)
	_ repositories.RepairAssignmentRepositoryInterface = (*fakeAssignmentRepo)(nil)
	_ repositories.StaffRepositoryInterface            = (*fakeStaffRepo)(nil)
	_ repositories.CacheRepositoryInterface            = (*fakeCache)(nil)
	_ repositories.MaterialRepositoryInterface         = (*fakeMaterialRepo)(nil)
	_ repositories.RepairRequestRepositoryInterface    = (*fakeRequestRepo)(nil)
	_ repositories.RepairLogRepositoryInterface        = (*fakeLogRepo)(nil)
	_ repositories.FeedbackRepositoryInterface         = (*fakeFeedbackRepo)(nil)
	_ StaffSelector                                    = firstStaffSelector{}
)
