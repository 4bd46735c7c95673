package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"repair-system/internal/entities"
	"repair-system/pkg/contextkeys"
	apperrors "repair-system/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditQueryFilter - необязательные фильтры выборки журнала изменений.
type AuditQueryFilter struct {
	Table     string
	Operation entities.OperationType
	Limit     uint64
}

type AuditRepositoryInterface interface {
	// CreateInTx добавляет запись журнала в рамках транзакции вызывающей стороны.
	// Если добавление не удалось, вся объемлющая мутация считается неудавшейся.
	CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.AuditLog) error
	Query(ctx context.Context, filter AuditQueryFilter) ([]entities.AuditLog, error)
	FindLastForRecordInTx(ctx context.Context, tx pgx.Tx, table string, recordID uint64) (*entities.AuditLog, error)
	FindNewestInTx(ctx context.Context, tx pgx.Tx) (*entities.AuditLog, error)
}

type AuditRepository struct {
	storage *pgxpool.Pool
}

func NewAuditRepository(storage *pgxpool.Pool) AuditRepositoryInterface {
	return &AuditRepository{storage: storage}
}

// NewAuditEntry собирает запись журнала из снимков строки до и после операции.
// Пустой снимок сохраняется как NULL.
func NewAuditEntry(txID uuid.UUID, table string, recordID uint64, op entities.OperationType, oldSnap, newSnap entities.Snapshot) (*entities.AuditLog, error) {
	entry := &entities.AuditLog{
		TxID:      txID,
		TableName: table,
		RecordID:  recordID,
		Operation: op,
	}

	var err error
	if oldSnap != nil {
		if entry.OldData, err = json.Marshal(oldSnap); err != nil {
			return nil, fmt.Errorf("не удалось сериализовать снимок old_data: %w", err)
		}
	}
	if newSnap != nil {
		if entry.NewData, err = json.Marshal(newSnap); err != nil {
			return nil, fmt.Errorf("не удалось сериализовать снимок new_data: %w", err)
		}
	}
	return entry, nil
}

func (r *AuditRepository) CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.AuditLog) error {
	if actorID, ok := ctx.Value(contextkeys.ActorIDKey).(uint64); ok {
		entry.OperatedBy = null.Int64From(int64(actorID))
	}

	query := `
		INSERT INTO audit_log (tx_id, table_name, record_id, operation, old_data, new_data, operated_by, operated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING log_id, operated_at`
	err := tx.QueryRow(ctx, query,
		entry.TxID, entry.TableName, entry.RecordID, entry.Operation,
		entry.OldData, entry.NewData, entry.OperatedBy,
	).Scan(&entry.LogID, &entry.OperatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал изменений: %w", err)
	}
	return nil
}

func (r *AuditRepository) Query(ctx context.Context, filter AuditQueryFilter) ([]entities.AuditLog, error) {
	builder := sq.Select("log_id", "tx_id", "table_name", "record_id", "operation", "old_data", "new_data", "operated_by", "operated_at").
		From("audit_log").
		OrderBy("operated_at DESC", "log_id DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Table != "" {
		builder = builder.Where(sq.Eq{"table_name": filter.Table})
	}
	if filter.Operation != "" {
		builder = builder.Where(sq.Eq{"operation": filter.Operation})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса к журналу: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки журнала изменений: %w", err)
	}
	defer rows.Close()

	var result []entities.AuditLog
	for rows.Next() {
		var e entities.AuditLog
		if err := rows.Scan(&e.LogID, &e.TxID, &e.TableName, &e.RecordID, &e.Operation, &e.OldData, &e.NewData, &e.OperatedBy, &e.OperatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи журнала: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *AuditRepository) FindLastForRecordInTx(ctx context.Context, tx pgx.Tx, table string, recordID uint64) (*entities.AuditLog, error) {
	query := `
		SELECT log_id, tx_id, table_name, record_id, operation, old_data, new_data, operated_by, operated_at
		FROM audit_log
		WHERE table_name = $1 AND record_id = $2
		ORDER BY operated_at DESC, log_id DESC
		LIMIT 1`
	return scanAuditRow(tx.QueryRow(ctx, query, table, recordID))
}

func (r *AuditRepository) FindNewestInTx(ctx context.Context, tx pgx.Tx) (*entities.AuditLog, error) {
	query := `
		SELECT log_id, tx_id, table_name, record_id, operation, old_data, new_data, operated_by, operated_at
		FROM audit_log
		ORDER BY operated_at DESC, log_id DESC
		LIMIT 1`
	return scanAuditRow(tx.QueryRow(ctx, query))
}

func scanAuditRow(row pgx.Row) (*entities.AuditLog, error) {
	var e entities.AuditLog
	err := row.Scan(&e.LogID, &e.TxID, &e.TableName, &e.RecordID, &e.Operation, &e.OldData, &e.NewData, &e.OperatedBy, &e.OperatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoAuditHistory
		}
		return nil, fmt.Errorf("ошибка чтения записи журнала: %w", err)
	}
	return &e, nil
}
