package repositories

import (
	"context"
	"errors"
	"fmt"
	"repair-system/internal/entities"
	apperrors "repair-system/pkg/errors"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RepairOrderRepositoryInterface interface {
	FindOrder(ctx context.Context, id uint64) (*entities.RepairOrder, error)
	// FindOrderForUpdateInTx блокирует строку заказа (FOR UPDATE) - все операции
	// над назначениями одного заказа сериализуются через эту блокировку.
	FindOrderForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairOrder, error)
	CreateOrderInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, order *entities.RepairOrder) error
	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, order *entities.RepairOrder, status entities.RepairStatus, finishTime null.Time) error
}

type RepairOrderRepository struct {
	storage *pgxpool.Pool
	audit   AuditRepositoryInterface
}

func NewRepairOrderRepository(storage *pgxpool.Pool, audit AuditRepositoryInterface) RepairOrderRepositoryInterface {
	return &RepairOrderRepository{storage: storage, audit: audit}
}

const repairOrderColumns = `order_id, vehicle_id, customer_id, request_id, required_staff_type, status, order_time, finish_time, remarks`

func (r *RepairOrderRepository) FindOrder(ctx context.Context, id uint64) (*entities.RepairOrder, error) {
	return fetchRepairOrder(ctx, r.storage, id, false)
}

func (r *RepairOrderRepository) FindOrderForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairOrder, error) {
	return fetchRepairOrder(ctx, tx, id, true)
}

func fetchRepairOrder(ctx context.Context, q querier, id uint64, lock bool) (*entities.RepairOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_order WHERE order_id = $1`, repairOrderColumns)
	if lock {
		query += ` FOR UPDATE`
	}
	return scanRepairOrder(q.QueryRow(ctx, query, id))
}

func (r *RepairOrderRepository) CreateOrderInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, order *entities.RepairOrder) error {
	query := `
		INSERT INTO repair_order (vehicle_id, customer_id, request_id, required_staff_type, status, order_time, remarks)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW(), $6)
		RETURNING order_id, order_time`
	err := tx.QueryRow(ctx, query,
		order.VehicleID, order.CustomerID, order.RequestID,
		string(order.RequiredStaffType), order.Status, order.Remarks,
	).Scan(&order.OrderID, &order.OrderTime)
	if err != nil {
		return fmt.Errorf("ошибка создания заказа на ремонт: %w", err)
	}

	entry, err := NewAuditEntry(txID, "repair_order", order.OrderID, entities.OperationInsert, nil, repairOrderSnapshot(order))
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}

// UpdateStatusInTx переводит заказ в новый статус. Переданный order считается
// текущим состоянием строки (прочитанным под блокировкой) и используется как
// снимок old_data; после успешного обновления поля order изменяются на месте.
func (r *RepairOrderRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, order *entities.RepairOrder, status entities.RepairStatus, finishTime null.Time) error {
	oldSnap := repairOrderSnapshot(order)

	query := `UPDATE repair_order SET status = $2, finish_time = $3 WHERE order_id = $1`
	tag, err := tx.Exec(ctx, query, order.OrderID, status, finishTime)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заказа %d: %w", order.OrderID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	order.Status = status
	order.FinishTime = finishTime

	entry, err := NewAuditEntry(txID, "repair_order", order.OrderID, entities.OperationUpdate, oldSnap, repairOrderSnapshot(order))
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}

func scanRepairOrder(row pgx.Row) (*entities.RepairOrder, error) {
	var o entities.RepairOrder
	var staffType null.String
	err := row.Scan(
		&o.OrderID, &o.VehicleID, &o.CustomerID, &o.RequestID,
		&staffType, &o.Status, &o.OrderTime, &o.FinishTime, &o.Remarks,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования заказа: %w", err)
	}
	o.RequiredStaffType = entities.StaffJobType(staffType.String)
	return &o, nil
}

func repairOrderSnapshot(o *entities.RepairOrder) entities.Snapshot {
	snap := entities.Snapshot{
		"order_id":            o.OrderID,
		"vehicle_id":          o.VehicleID,
		"customer_id":         o.CustomerID,
		"request_id":          o.RequestID,
		"required_staff_type": nil,
		"status":              string(o.Status),
		"order_time":          o.OrderTime,
		"finish_time":         o.FinishTime,
		"remarks":             o.Remarks,
	}
	if o.RequiredStaffType != "" {
		snap["required_staff_type"] = string(o.RequiredStaffType)
	}
	return snap
}
