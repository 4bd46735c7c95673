package services

import (
	"context"
	"encoding/json"
	"fmt"

	"repair-system/internal/entities"
	"repair-system/internal/repositories"
	apperrors "repair-system/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// rollbackTables - белый список таблиц, подлежащих откату, и их первичных ключей.
// Имена отсюда попадают в SQL как идентификаторы, поэтому единственным их
// источником может быть этот список.
var rollbackTables = map[string]string{
	"users":             "user_id",
	"staff":             "staff_id",
	"vehicle":           "vehicle_id",
	"repair_request":    "request_id",
	"repair_order":      "order_id",
	"repair_assignment": "assignment_id",
	"repair_log":        "log_id",
	"material":          "material_id",
	"feedback":          "feedback_id",
}

type RollbackCoordinatorInterface interface {
	RollbackLast(ctx context.Context, table string, recordID uint64) (*entities.AuditLog, error)
	RollbackMostRecent(ctx context.Context) (*entities.AuditLog, error)
}

// RollbackCoordinator применяет структурную инверсию последней записи журнала
// изменений: INSERT откатывается удалением, UPDATE - восстановлением old_data,
// DELETE - повторной вставкой old_data. Откат сам журналируется, поэтому
// повторный вызов по той же записи откатывает откат. Глубина - один уровень.
type RollbackCoordinator struct {
	txManager repositories.TxManagerInterface
	audit     repositories.AuditRepositoryInterface
	records   repositories.RecordRepositoryInterface
	logger    *zap.Logger
}

func NewRollbackCoordinator(
	txManager repositories.TxManagerInterface,
	audit repositories.AuditRepositoryInterface,
	records repositories.RecordRepositoryInterface,
	logger *zap.Logger,
) RollbackCoordinatorInterface {
	return &RollbackCoordinator{
		txManager: txManager,
		audit:     audit,
		records:   records,
		logger:    logger,
	}
}

func (s *RollbackCoordinator) RollbackLast(ctx context.Context, table string, recordID uint64) (*entities.AuditLog, error) {
	pk, ok := rollbackTables[table]
	if !ok {
		return nil, apperrors.NewInvalidInputError("таблица %q не подлежит откату", table)
	}

	txID := uuid.New()
	var entry *entities.AuditLog

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		entry, err = s.audit.FindLastForRecordInTx(ctx, tx, table, recordID)
		if err != nil {
			return err
		}
		return s.applyInverse(ctx, tx, txID, pk, entry)
	})
	if err != nil {
		s.logger.Error("откат записи не выполнен",
			zap.String("table", table), zap.Uint64("recordID", recordID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("изменение откатано",
		zap.String("table", table),
		zap.Uint64("recordID", recordID),
		zap.String("operation", string(entry.Operation)),
		zap.Uint64("auditLogID", entry.LogID))
	return entry, nil
}

func (s *RollbackCoordinator) RollbackMostRecent(ctx context.Context) (*entities.AuditLog, error) {
	txID := uuid.New()
	var entry *entities.AuditLog

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		entry, err = s.audit.FindNewestInTx(ctx, tx)
		if err != nil {
			return err
		}
		pk, ok := rollbackTables[entry.TableName]
		if !ok {
			return fmt.Errorf("последняя запись журнала относится к таблице %q, не подлежащей откату", entry.TableName)
		}
		return s.applyInverse(ctx, tx, txID, pk, entry)
	})
	if err != nil {
		s.logger.Error("откат последнего изменения не выполнен", zap.Error(err))
		return nil, err
	}

	s.logger.Info("последнее изменение откатано",
		zap.String("table", entry.TableName),
		zap.Uint64("recordID", entry.RecordID),
		zap.String("operation", string(entry.Operation)),
		zap.Uint64("auditLogID", entry.LogID))
	return entry, nil
}

func (s *RollbackCoordinator) applyInverse(ctx context.Context, tx pgx.Tx, txID uuid.UUID, pk string, entry *entities.AuditLog) error {
	switch entry.Operation {
	case entities.OperationInsert:
		current, err := s.records.FindSnapshotInTx(ctx, tx, entry.TableName, pk, entry.RecordID)
		if err != nil {
			return fmt.Errorf("строка %s/%d для отката вставки: %w", entry.TableName, entry.RecordID, err)
		}
		if err := s.records.DeleteInTx(ctx, tx, entry.TableName, pk, entry.RecordID); err != nil {
			return err
		}
		inverse, err := repositories.NewAuditEntry(txID, entry.TableName, entry.RecordID, entities.OperationDelete, current, nil)
		if err != nil {
			return err
		}
		return s.audit.CreateInTx(ctx, tx, inverse)

	case entities.OperationUpdate:
		restored, err := decodeSnapshot(entry.OldData)
		if err != nil {
			return fmt.Errorf("запись журнала %d: %w", entry.LogID, err)
		}
		current, err := s.records.FindSnapshotInTx(ctx, tx, entry.TableName, pk, entry.RecordID)
		if err != nil {
			return fmt.Errorf("строка %s/%d для отката обновления: %w", entry.TableName, entry.RecordID, err)
		}
		if err := s.records.UpdateFromSnapshotInTx(ctx, tx, entry.TableName, pk, entry.RecordID, restored); err != nil {
			return err
		}
		inverse, err := repositories.NewAuditEntry(txID, entry.TableName, entry.RecordID, entities.OperationUpdate, current, restored)
		if err != nil {
			return err
		}
		return s.audit.CreateInTx(ctx, tx, inverse)

	case entities.OperationDelete:
		restored, err := decodeSnapshot(entry.OldData)
		if err != nil {
			return fmt.Errorf("запись журнала %d: %w", entry.LogID, err)
		}
		if err := s.records.InsertFromSnapshotInTx(ctx, tx, entry.TableName, restored); err != nil {
			return err
		}
		inverse, err := repositories.NewAuditEntry(txID, entry.TableName, entry.RecordID, entities.OperationInsert, nil, restored)
		if err != nil {
			return err
		}
		return s.audit.CreateInTx(ctx, tx, inverse)

	default:
		return fmt.Errorf("неизвестная операция журнала %q", entry.Operation)
	}
}

func decodeSnapshot(raw []byte) (entities.Snapshot, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("в записи журнала нет снимка old_data")
	}
	var snap entities.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("ошибка разбора снимка журнала: %w", err)
	}
	return snap, nil
}
