package repositories

import (
	"context"
	"fmt"
	"repair-system/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RepairLogRepositoryInterface interface {
	ListByOrder(ctx context.Context, orderID uint64) ([]entities.RepairLog, error)
	CreateLogInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, log *entities.RepairLog) error
}

type RepairLogRepository struct {
	storage *pgxpool.Pool
	audit   AuditRepositoryInterface
}

func NewRepairLogRepository(storage *pgxpool.Pool, audit AuditRepositoryInterface) RepairLogRepositoryInterface {
	return &RepairLogRepository{storage: storage, audit: audit}
}

func (r *RepairLogRepository) ListByOrder(ctx context.Context, orderID uint64) ([]entities.RepairLog, error) {
	query := `
		SELECT log_id, order_id, staff_id, log_time, log_message
		FROM repair_log
		WHERE order_id = $1
		ORDER BY log_time, log_id`
	rows, err := r.storage.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки журнала работ заказа %d: %w", orderID, err)
	}
	defer rows.Close()

	var result []entities.RepairLog
	for rows.Next() {
		var l entities.RepairLog
		if err := rows.Scan(&l.LogID, &l.OrderID, &l.StaffID, &l.LogTime, &l.LogMessage); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи о работах: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func (r *RepairLogRepository) CreateLogInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, log *entities.RepairLog) error {
	query := `
		INSERT INTO repair_log (order_id, staff_id, log_time, log_message)
		VALUES ($1, $2, NOW(), $3)
		RETURNING log_id, log_time`
	err := tx.QueryRow(ctx, query, log.OrderID, log.StaffID, log.LogMessage).Scan(&log.LogID, &log.LogTime)
	if err != nil {
		return fmt.Errorf("ошибка создания записи о работах: %w", err)
	}

	entry, err := NewAuditEntry(txID, "repair_log", log.LogID, entities.OperationInsert, nil, entities.Snapshot{
		"log_id":      log.LogID,
		"order_id":    log.OrderID,
		"staff_id":    log.StaffID,
		"log_time":    log.LogTime,
		"log_message": log.LogMessage,
	})
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}
