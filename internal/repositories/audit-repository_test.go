package repositories

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"

	"repair-system/internal/entities"
	"repair-system/migrations"
	"repair-system/pkg/contextkeys"
	apperrors "repair-system/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPool *pgxpool.Pool

// TestMain подключается к тестовой БД из TEST_DATABASE_URL и применяет миграции.
// Если переменная не задана, интеграционные тесты пропускаются.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		os.Exit(m.Run())
	}

	var err error
	testPool, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
	}

	applyMigrations(dsn)

	code := m.Run()
	testPool.Close()
	os.Exit(code)
}

func applyMigrations(dsn string) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("Не удалось открыть соединение для миграций: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Не удалось выбрать диалект миграций: %v", err)
	}
	if err := goose.Up(db, "."); err != nil {
		log.Fatalf("Не удалось применить миграции: %v", err)
	}
}

func requireDB(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан, интеграционные тесты пропущены")
	}
}

// cleanupTables очищает таблицы для обеспечения изоляции тестов.
func cleanupTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		TRUNCATE TABLE audit_log, feedback, material, repair_log, repair_assignment,
			repair_order, repair_request, vehicle, admins, staff, customers, users
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Не удалось очистить таблицы")
}

// seedVehicle создаёт клиента с автомобилем, нужных для ссылочной целостности.
func seedVehicle(t *testing.T, pool *pgxpool.Pool) (customerID, vehicleID uint64) {
	t.Helper()
	ctx := context.Background()

	err := pool.QueryRow(ctx,
		`INSERT INTO users (name, login, role) VALUES ('Тестовый Клиент', 'test.customer', 'customer') RETURNING user_id`,
	).Scan(&customerID)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO customers (customer_id) VALUES ($1)`, customerID)
	require.NoError(t, err)

	err = pool.QueryRow(ctx,
		`INSERT INTO vehicle (customer_id, license_plate, brand, model, type, color)
		 VALUES ($1, 'TEST01', 'Toyota', 'Camry', 'Седан', 'Белый') RETURNING vehicle_id`,
		customerID,
	).Scan(&vehicleID)
	require.NoError(t, err)
	return
}

func inTestTx(t *testing.T, fn func(tx pgx.Tx) error) error {
	t.Helper()
	tx, err := testPool.Begin(context.Background())
	require.NoError(t, err)
	if err := fn(tx); err != nil {
		_ = tx.Rollback(context.Background())
		return err
	}
	return tx.Commit(context.Background())
}

func TestAuditRepository_Integration_CreateAndFindLast(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	_, vehicleID := seedVehicle(t, testPool)
	repo := NewAuditRepository(testPool)

	txID := uuid.New()
	entry, err := NewAuditEntry(txID, "vehicle", vehicleID, entities.OperationInsert, nil, entities.Snapshot{
		"vehicle_id": vehicleID,
		"brand":      "Toyota",
	})
	require.NoError(t, err)

	err = inTestTx(t, func(tx pgx.Tx) error {
		return repo.CreateInTx(context.Background(), tx, entry)
	})
	require.NoError(t, err)
	require.NotZero(t, entry.LogID)
	require.False(t, entry.OperatedAt.IsZero())

	err = inTestTx(t, func(tx pgx.Tx) error {
		found, err := repo.FindLastForRecordInTx(context.Background(), tx, "vehicle", vehicleID)
		if err != nil {
			return err
		}
		assert.Equal(t, entry.LogID, found.LogID)
		assert.Equal(t, txID, found.TxID)
		assert.Equal(t, entities.OperationInsert, found.Operation)
		assert.JSONEq(t, string(entry.NewData), string(found.NewData))
		return nil
	})
	require.NoError(t, err)
}

func TestAuditRepository_Integration_RecordsActorFromContext(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	actorID, vehicleID := seedVehicle(t, testPool)
	repo := NewAuditRepository(testPool)

	ctx := context.WithValue(context.Background(), contextkeys.ActorIDKey, actorID)
	entry, err := NewAuditEntry(uuid.New(), "vehicle", vehicleID, entities.OperationUpdate,
		entities.Snapshot{"color": "Белый"}, entities.Snapshot{"color": "Чёрный"})
	require.NoError(t, err)

	err = inTestTx(t, func(tx pgx.Tx) error {
		return repo.CreateInTx(ctx, tx, entry)
	})
	require.NoError(t, err)

	require.True(t, entry.OperatedBy.Valid)
	assert.Equal(t, int64(actorID), entry.OperatedBy.Int64)
}

func TestAuditRepository_Integration_RollbackDiscardsEntry(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	_, vehicleID := seedVehicle(t, testPool)
	repo := NewAuditRepository(testPool)

	entry, err := NewAuditEntry(uuid.New(), "vehicle", vehicleID, entities.OperationUpdate,
		entities.Snapshot{"color": "Белый"}, entities.Snapshot{"color": "Чёрный"})
	require.NoError(t, err)

	// Запись журнала живёт в транзакции мутации: откат транзакции стирает и её.
	tx, err := testPool.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.CreateInTx(context.Background(), tx, entry))
	require.NoError(t, tx.Rollback(context.Background()))

	err = inTestTx(t, func(tx pgx.Tx) error {
		_, err := repo.FindLastForRecordInTx(context.Background(), tx, "vehicle", vehicleID)
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrNoAuditHistory)
}

func TestAuditRepository_Integration_QueryFilters(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	_, vehicleID := seedVehicle(t, testPool)
	repo := NewAuditRepository(testPool)

	ops := []entities.OperationType{entities.OperationInsert, entities.OperationUpdate, entities.OperationDelete}
	for _, op := range ops {
		entry, err := NewAuditEntry(uuid.New(), "vehicle", vehicleID, op, nil, entities.Snapshot{"brand": "Toyota"})
		require.NoError(t, err)
		require.NoError(t, inTestTx(t, func(tx pgx.Tx) error {
			return repo.CreateInTx(context.Background(), tx, entry)
		}))
	}

	all, err := repo.Query(context.Background(), AuditQueryFilter{Table: "vehicle"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Свежие записи идут первыми.
	assert.Equal(t, entities.OperationDelete, all[0].Operation)

	updates, err := repo.Query(context.Background(), AuditQueryFilter{Operation: entities.OperationUpdate})
	require.NoError(t, err)
	require.Len(t, updates, 1)

	limited, err := repo.Query(context.Background(), AuditQueryFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestRecordRepository_Integration_SnapshotRoundTrip(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	_, vehicleID := seedVehicle(t, testPool)
	repo := NewRecordRepository()

	var snap entities.Snapshot
	err := inTestTx(t, func(tx pgx.Tx) error {
		var err error
		snap, err = repo.FindSnapshotInTx(context.Background(), tx, "vehicle", "vehicle_id", vehicleID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "Toyota", snap["brand"])

	// Удаление и восстановление из снимка возвращают исходную строку.
	err = inTestTx(t, func(tx pgx.Tx) error {
		if err := repo.DeleteInTx(context.Background(), tx, "vehicle", "vehicle_id", vehicleID); err != nil {
			return err
		}
		return repo.InsertFromSnapshotInTx(context.Background(), tx, "vehicle", snap)
	})
	require.NoError(t, err)

	var restored entities.Snapshot
	err = inTestTx(t, func(tx pgx.Tx) error {
		var err error
		restored, err = repo.FindSnapshotInTx(context.Background(), tx, "vehicle", "vehicle_id", vehicleID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, snap["brand"], restored["brand"])
	assert.Equal(t, snap["license_plate"], restored["license_plate"])
}

func TestRecordRepository_Integration_RejectsUnknownColumn(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	seedVehicle(t, testPool)
	repo := NewRecordRepository()

	err := inTestTx(t, func(tx pgx.Tx) error {
		return repo.InsertFromSnapshotInTx(context.Background(), tx, "vehicle", entities.Snapshot{
			"vehicle_id":    uint64(99),
			"evil_column":   "x",
			"customer_id":   uint64(1),
			"license_plate": "XX",
			"brand":         "X",
			"model":         "X",
			"type":          "X",
			"color":         "X",
		})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evil_column")
}
