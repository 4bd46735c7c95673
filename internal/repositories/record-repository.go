package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"repair-system/internal/entities"
	apperrors "repair-system/pkg/errors"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// RecordRepositoryInterface - обобщённые операции над строкой произвольной
// аудируемой таблицы по её снимку. Используется координатором отката:
// структурная инверсия INSERT/UPDATE/DELETE не знает типов конкретной таблицы,
// поэтому данные едут через jsonb_populate_record, а типизацию выполняет сама БД.
//
// Имена таблиц и первичных ключей сюда попадают только из белого списка
// координатора, имена колонок сверяются с information_schema.
type RecordRepositoryInterface interface {
	FindSnapshotInTx(ctx context.Context, tx pgx.Tx, table, pkColumn string, recordID uint64) (entities.Snapshot, error)
	InsertFromSnapshotInTx(ctx context.Context, tx pgx.Tx, table string, snap entities.Snapshot) error
	UpdateFromSnapshotInTx(ctx context.Context, tx pgx.Tx, table, pkColumn string, recordID uint64, snap entities.Snapshot) error
	DeleteInTx(ctx context.Context, tx pgx.Tx, table, pkColumn string, recordID uint64) error
}

type RecordRepository struct{}

func NewRecordRepository() RecordRepositoryInterface {
	return &RecordRepository{}
}

func (r *RecordRepository) FindSnapshotInTx(ctx context.Context, tx pgx.Tx, table, pkColumn string, recordID uint64) (entities.Snapshot, error) {
	query := fmt.Sprintf(`SELECT row_to_json(t)::jsonb FROM %s t WHERE %s = $1`, table, pkColumn)

	var raw []byte
	if err := tx.QueryRow(ctx, query, recordID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения снимка строки %s/%d: %w", table, recordID, err)
	}

	var snap entities.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("ошибка разбора снимка строки %s/%d: %w", table, recordID, err)
	}
	return snap, nil
}

func (r *RecordRepository) InsertFromSnapshotInTx(ctx context.Context, tx pgx.Tx, table string, snap entities.Snapshot) error {
	columns, err := snapshotColumns(ctx, tx, table, snap)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка для вставки в %s: %w", table, err)
	}

	columnList := strings.Join(columns, ", ")
	query := fmt.Sprintf(
		`INSERT INTO %s (%s) SELECT %s FROM jsonb_populate_record(NULL::%s, $1::jsonb)`,
		table, columnList, columnList, table,
	)
	if _, err := tx.Exec(ctx, query, raw); err != nil {
		return fmt.Errorf("ошибка восстановления строки в %s: %w", table, err)
	}
	return nil
}

func (r *RecordRepository) UpdateFromSnapshotInTx(ctx context.Context, tx pgx.Tx, table, pkColumn string, recordID uint64, snap entities.Snapshot) error {
	columns, err := snapshotColumns(ctx, tx, table, snap)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка для обновления %s: %w", table, err)
	}

	columnList := strings.Join(columns, ", ")
	query := fmt.Sprintf(
		`UPDATE %s SET (%s) = (SELECT %s FROM jsonb_populate_record(NULL::%s, $1::jsonb)) WHERE %s = $2`,
		table, columnList, columnList, table, pkColumn,
	)
	tag, err := tx.Exec(ctx, query, raw, recordID)
	if err != nil {
		return fmt.Errorf("ошибка перезаписи строки %s/%d: %w", table, recordID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *RecordRepository) DeleteInTx(ctx context.Context, tx pgx.Tx, table, pkColumn string, recordID uint64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, pkColumn)
	tag, err := tx.Exec(ctx, query, recordID)
	if err != nil {
		return fmt.Errorf("ошибка удаления строки %s/%d: %w", table, recordID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// snapshotColumns сверяет ключи снимка со схемой таблицы и возвращает
// отсортированный список колонок, присутствующих и там и там.
// Ключ снимка, которого нет в схеме, считается ошибкой данных журнала.
func snapshotColumns(ctx context.Context, tx pgx.Tx, table string, snap entities.Snapshot) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1`
	rows, err := tx.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения схемы таблицы %s: %w", table, err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования имени колонки %s: %w", table, err)
		}
		known[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(known) == 0 {
		return nil, fmt.Errorf("таблица %s не найдена в схеме", table)
	}

	columns := make([]string, 0, len(snap))
	for key := range snap {
		if _, ok := known[key]; !ok {
			return nil, fmt.Errorf("колонка %q из снимка отсутствует в таблице %s", key, table)
		}
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns, nil
}
