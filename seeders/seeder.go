package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedStaffDirectory наполняет справочник сотрудников: по каждой специализации
// есть хотя бы два исполнителя.
func SeedStaffDirectory(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения справочника сотрудников...")

	if err := seedStaff(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Сотрудников (Staff): %v", err)
	}
	if err := seedAdmins(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Администраторов (Admins): %v", err)
	}

	log.Println("✅ Наполнение справочника сотрудников завершено!")
}

// SeedDemoCustomers создаёт демонстрационных клиентов с автомобилями.
func SeedDemoCustomers(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения демонстрационных клиентов...")

	if err := seedCustomers(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Клиентов (Customers): %v", err)
	}

	log.Println("✅ Наполнение демонстрационных клиентов завершено!")
}
