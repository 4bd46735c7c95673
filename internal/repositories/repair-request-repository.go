package repositories

import (
	"context"
	"errors"
	"fmt"
	"repair-system/internal/entities"
	apperrors "repair-system/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RepairRequestRepositoryInterface interface {
	FindRequest(ctx context.Context, id uint64) (*entities.RepairRequest, error)
	FindRequestForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairRequest, error)
	CreateRequestInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, request *entities.RepairRequest) error
	MarkOrderCreatedInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, request *entities.RepairRequest) error
}

type RepairRequestRepository struct {
	storage *pgxpool.Pool
	audit   AuditRepositoryInterface
}

func NewRepairRequestRepository(storage *pgxpool.Pool, audit AuditRepositoryInterface) RepairRequestRepositoryInterface {
	return &RepairRequestRepository{storage: storage, audit: audit}
}

const repairRequestColumns = `request_id, vehicle_id, customer_id, description, status, request_time`

func (r *RepairRequestRepository) FindRequest(ctx context.Context, id uint64) (*entities.RepairRequest, error) {
	return fetchRepairRequest(ctx, r.storage, id, false)
}

func (r *RepairRequestRepository) FindRequestForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RepairRequest, error) {
	return fetchRepairRequest(ctx, tx, id, true)
}

func fetchRepairRequest(ctx context.Context, q querier, id uint64, lock bool) (*entities.RepairRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_request WHERE request_id = $1`, repairRequestColumns)
	if lock {
		query += ` FOR UPDATE`
	}
	return scanRepairRequest(q.QueryRow(ctx, query, id))
}

func (r *RepairRequestRepository) CreateRequestInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, request *entities.RepairRequest) error {
	query := `
		INSERT INTO repair_request (vehicle_id, customer_id, description, status, request_time)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING request_id, request_time`
	err := tx.QueryRow(ctx, query,
		request.VehicleID, request.CustomerID, request.Description, request.Status,
	).Scan(&request.RequestID, &request.RequestTime)
	if err != nil {
		return fmt.Errorf("ошибка создания заявки на ремонт: %w", err)
	}

	entry, err := NewAuditEntry(txID, "repair_request", request.RequestID, entities.OperationInsert, nil, repairRequestSnapshot(request))
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}

func (r *RepairRequestRepository) MarkOrderCreatedInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, request *entities.RepairRequest) error {
	oldSnap := repairRequestSnapshot(request)

	query := `UPDATE repair_request SET status = $2 WHERE request_id = $1`
	tag, err := tx.Exec(ctx, query, request.RequestID, entities.RequestStatusOrderCreated)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заявки %d: %w", request.RequestID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	request.Status = entities.RequestStatusOrderCreated

	entry, err := NewAuditEntry(txID, "repair_request", request.RequestID, entities.OperationUpdate, oldSnap, repairRequestSnapshot(request))
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}

func scanRepairRequest(row pgx.Row) (*entities.RepairRequest, error) {
	var req entities.RepairRequest
	err := row.Scan(&req.RequestID, &req.VehicleID, &req.CustomerID, &req.Description, &req.Status, &req.RequestTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
	}
	return &req, nil
}

func repairRequestSnapshot(req *entities.RepairRequest) entities.Snapshot {
	return entities.Snapshot{
		"request_id":   req.RequestID,
		"vehicle_id":   req.VehicleID,
		"customer_id":  req.CustomerID,
		"description":  req.Description,
		"status":       string(req.Status),
		"request_time": req.RequestTime,
	}
}
