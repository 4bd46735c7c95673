package entities

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
)

type OperationType string

const (
	OperationInsert OperationType = "INSERT"
	OperationUpdate OperationType = "UPDATE"
	OperationDelete OperationType = "DELETE"
)

// Snapshot - сериализуемый снимок полей строки на момент операции
// (имя поля -> значение). Хранится в audit_log как JSONB.
type Snapshot map[string]interface{}

// AuditLog - одна запись журнала изменений. Создаётся синхронно с каждой
// мутацией в той же транзакции; обычный поток её никогда не изменяет и не
// удаляет. TxID группирует записи, сделанные в рамках одной логической
// транзакции.
type AuditLog struct {
	LogID     uint64        `db:"log_id"`
	TxID      uuid.UUID     `db:"tx_id"`
	TableName string        `db:"table_name"`
	RecordID  uint64        `db:"record_id"`
	Operation OperationType `db:"operation"`
	OldData   []byte        `db:"old_data"`
	NewData   []byte        `db:"new_data"`
	// OperatedBy - пользователь, от имени которого шла операция.
	// Пустой, если внешний слой не положил актора в контекст.
	OperatedBy null.Int64 `db:"operated_by"`
	OperatedAt time.Time  `db:"operated_at"`
}
