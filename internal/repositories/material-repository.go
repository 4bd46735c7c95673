package repositories

import (
	"context"
	"fmt"
	"repair-system/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MaterialRepositoryInterface interface {
	ListByLog(ctx context.Context, logID uint64) ([]entities.Material, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]entities.Material, error)
	CreateMaterialInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, material *entities.Material) error
}

type MaterialRepository struct {
	storage *pgxpool.Pool
	audit   AuditRepositoryInterface
}

func NewMaterialRepository(storage *pgxpool.Pool, audit AuditRepositoryInterface) MaterialRepositoryInterface {
	return &MaterialRepository{storage: storage, audit: audit}
}

func (r *MaterialRepository) ListByLog(ctx context.Context, logID uint64) ([]entities.Material, error) {
	query := `
		SELECT material_id, log_id, name, quantity, unit_price, remarks
		FROM material
		WHERE log_id = $1
		ORDER BY material_id`
	return r.list(ctx, query, logID)
}

// ListByOrder собирает материалы по всем записям о работах заказа одним запросом.
func (r *MaterialRepository) ListByOrder(ctx context.Context, orderID uint64) ([]entities.Material, error) {
	query := `
		SELECT m.material_id, m.log_id, m.name, m.quantity, m.unit_price, m.remarks
		FROM material m
		JOIN repair_log l ON m.log_id = l.log_id
		WHERE l.order_id = $1
		ORDER BY m.material_id`
	return r.list(ctx, query, orderID)
}

func (r *MaterialRepository) list(ctx context.Context, query string, arg uint64) ([]entities.Material, error) {
	rows, err := r.storage.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки материалов: %w", err)
	}
	defer rows.Close()

	var result []entities.Material
	for rows.Next() {
		var m entities.Material
		if err := rows.Scan(&m.MaterialID, &m.LogID, &m.Name, &m.Quantity, &m.UnitPrice, &m.Remarks); err != nil {
			return nil, fmt.Errorf("ошибка сканирования материала: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *MaterialRepository) CreateMaterialInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, material *entities.Material) error {
	query := `
		INSERT INTO material (log_id, name, quantity, unit_price, remarks)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING material_id`
	err := tx.QueryRow(ctx, query,
		material.LogID, material.Name, material.Quantity, material.UnitPrice, material.Remarks,
	).Scan(&material.MaterialID)
	if err != nil {
		return fmt.Errorf("ошибка добавления материала: %w", err)
	}

	entry, err := NewAuditEntry(txID, "material", material.MaterialID, entities.OperationInsert, nil, entities.Snapshot{
		"material_id": material.MaterialID,
		"log_id":      material.LogID,
		"name":        material.Name,
		"quantity":    material.Quantity,
		"unit_price":  material.UnitPrice,
		"remarks":     material.Remarks,
	})
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}
