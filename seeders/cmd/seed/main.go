package main

import (
	"flag"
	"log"

	"repair-system/pkg/config"
	"repair-system/pkg/database/postgresql"
	"repair-system/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runStaff := flag.Bool("staff", false, "Запустить наполнение справочника сотрудников")
	runDemo := flag.Bool("demo", false, "Запустить создание демонстрационных клиентов и автомобилей")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -staff -demo)")

	flag.Parse()

	if !*runStaff && !*runDemo && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed/main.go -staff")
		log.Println("  go run ./seeders/cmd/seed/main.go -all")
		log.Println("======================================================")
		return
	}

	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Postgres.DSN)
	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	log.Println("======================================================")

	if *runAll || *runStaff {
		seeders.SeedStaffDirectory(dbPool)
		log.Println("======================================================")
	}

	if *runAll || *runDemo {
		// Демонстрационные клиенты не зависят от справочника сотрудников.
		seeders.SeedDemoCustomers(dbPool)
		log.Println("======================================================")
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
	log.Println("======================================================")
}
