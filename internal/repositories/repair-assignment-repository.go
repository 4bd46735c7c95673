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

type RepairAssignmentRepositoryInterface interface {
	FindAssignment(ctx context.Context, id uint64) (*entities.RepairAssignment, error)
	FindAssignmentInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairAssignment, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]entities.RepairAssignment, error)
	// CountLiveInTx считает назначения заказа в статусах pending/accepted.
	// Вызывается под блокировкой строки заказа.
	CountLiveInTx(ctx context.Context, tx pgx.Tx, orderID uint64) (int, error)
	CreateAssignmentInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, assignment *entities.RepairAssignment) error
	// UpdateStatusIfPendingInTx - условный переход pending -> accepted|rejected.
	// Возвращает false, если строка уже не в статусе pending (конкурирующий
	// вызов успел раньше); переход при этом не применяется.
	UpdateStatusIfPendingInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, assignment *entities.RepairAssignment, status entities.AssignmentStatus) (bool, error)
	UpdateTimeWorkedInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, assignment *entities.RepairAssignment, timeWorked float64) error
}

type RepairAssignmentRepository struct {
	storage *pgxpool.Pool
	audit   AuditRepositoryInterface
}

func NewRepairAssignmentRepository(storage *pgxpool.Pool, audit AuditRepositoryInterface) RepairAssignmentRepositoryInterface {
	return &RepairAssignmentRepository{storage: storage, audit: audit}
}

const repairAssignmentColumns = `assignment_id, order_id, staff_id, status, time_worked`

func (r *RepairAssignmentRepository) FindAssignment(ctx context.Context, id uint64) (*entities.RepairAssignment, error) {
	return fetchRepairAssignment(ctx, r.storage, id, false)
}

func (r *RepairAssignmentRepository) FindAssignmentInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairAssignment, error) {
	return fetchRepairAssignment(ctx, tx, id, true)
}

func fetchRepairAssignment(ctx context.Context, q querier, id uint64, lock bool) (*entities.RepairAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_assignment WHERE assignment_id = $1`, repairAssignmentColumns)
	if lock {
		query += ` FOR UPDATE`
	}
	return scanRepairAssignment(q.QueryRow(ctx, query, id))
}

func (r *RepairAssignmentRepository) ListByOrder(ctx context.Context, orderID uint64) ([]entities.RepairAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_assignment WHERE order_id = $1 ORDER BY assignment_id`, repairAssignmentColumns)
	rows, err := r.storage.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки назначений заказа %d: %w", orderID, err)
	}
	defer rows.Close()

	var result []entities.RepairAssignment
	for rows.Next() {
		var a entities.RepairAssignment
		if err := rows.Scan(&a.AssignmentID, &a.OrderID, &a.StaffID, &a.Status, &a.TimeWorked); err != nil {
			return nil, fmt.Errorf("ошибка сканирования назначения: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *RepairAssignmentRepository) CountLiveInTx(ctx context.Context, tx pgx.Tx, orderID uint64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM repair_assignment WHERE order_id = $1 AND status IN ('pending', 'accepted')`
	if err := tx.QueryRow(ctx, query, orderID).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта живых назначений заказа %d: %w", orderID, err)
	}
	return count, nil
}

func (r *RepairAssignmentRepository) CreateAssignmentInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, assignment *entities.RepairAssignment) error {
	query := `
		INSERT INTO repair_assignment (order_id, staff_id, status)
		VALUES ($1, $2, $3)
		RETURNING assignment_id`
	err := tx.QueryRow(ctx, query, assignment.OrderID, assignment.StaffID, assignment.Status).Scan(&assignment.AssignmentID)
	if err != nil {
		return fmt.Errorf("ошибка создания назначения: %w", err)
	}

	entry, err := NewAuditEntry(txID, "repair_assignment", assignment.AssignmentID, entities.OperationInsert, nil, repairAssignmentSnapshot(assignment))
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}

func (r *RepairAssignmentRepository) UpdateStatusIfPendingInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, assignment *entities.RepairAssignment, status entities.AssignmentStatus) (bool, error) {
	oldSnap := repairAssignmentSnapshot(assignment)

	query := `UPDATE repair_assignment SET status = $2 WHERE assignment_id = $1 AND status = 'pending'`
	tag, err := tx.Exec(ctx, query, assignment.AssignmentID, status)
	if err != nil {
		return false, fmt.Errorf("ошибка перевода назначения %d в статус %s: %w", assignment.AssignmentID, status, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	assignment.Status = status

	entry, err := NewAuditEntry(txID, "repair_assignment", assignment.AssignmentID, entities.OperationUpdate, oldSnap, repairAssignmentSnapshot(assignment))
	if err != nil {
		return false, err
	}
	if err := r.audit.CreateInTx(ctx, tx, entry); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RepairAssignmentRepository) UpdateTimeWorkedInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, assignment *entities.RepairAssignment, timeWorked float64) error {
	oldSnap := repairAssignmentSnapshot(assignment)

	query := `UPDATE repair_assignment SET time_worked = $2 WHERE assignment_id = $1`
	tag, err := tx.Exec(ctx, query, assignment.AssignmentID, timeWorked)
	if err != nil {
		return fmt.Errorf("ошибка записи отработанных часов по назначению %d: %w", assignment.AssignmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	assignment.TimeWorked = null.Float64From(timeWorked)

	entry, err := NewAuditEntry(txID, "repair_assignment", assignment.AssignmentID, entities.OperationUpdate, oldSnap, repairAssignmentSnapshot(assignment))
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}

func scanRepairAssignment(row pgx.Row) (*entities.RepairAssignment, error) {
	var a entities.RepairAssignment
	err := row.Scan(&a.AssignmentID, &a.OrderID, &a.StaffID, &a.Status, &a.TimeWorked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования назначения: %w", err)
	}
	return &a, nil
}

func repairAssignmentSnapshot(a *entities.RepairAssignment) entities.Snapshot {
	return entities.Snapshot{
		"assignment_id": a.AssignmentID,
		"order_id":      a.OrderID,
		"staff_id":      a.StaffID,
		"status":        string(a.Status),
		"time_worked":   a.TimeWorked,
	}
}
