package seeders

import (
	"context"
	"log"

	"repair-system/internal/entities"

	"github.com/jackc/pgx/v5/pgxpool"
)

func seedCustomers(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблиц 'customers'/'vehicle'...")

	userQuery := `
		INSERT INTO users (name, login, phone, email, address, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (login) DO UPDATE SET name = EXCLUDED.name
		RETURNING user_id`
	customerQuery := `
		INSERT INTO customers (customer_id)
		VALUES ($1)
		ON CONFLICT (customer_id) DO NOTHING`
	vehicleQuery := `
		INSERT INTO vehicle (customer_id, license_plate, brand, model, type, color)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE NOT EXISTS (SELECT 1 FROM vehicle WHERE license_plate = $2)`

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, c := range customerData {
		var userID uint64
		if err := tx.QueryRow(ctx, userQuery, c.Name, c.Login, c.Phone, c.Email, c.Address, entities.RoleCustomer).Scan(&userID); err != nil {
			log.Printf("Ошибка при вставке клиента '%s': %v", c.Login, err)
			return err
		}
		if _, err := tx.Exec(ctx, customerQuery, userID); err != nil {
			return err
		}
		for _, v := range c.Vehicles {
			if _, err := tx.Exec(ctx, vehicleQuery, userID, v.LicensePlate, v.Brand, v.Model, v.Type, v.Color); err != nil {
				log.Printf("Ошибка при вставке автомобиля '%s': %v", v.LicensePlate, err)
				return err
			}
		}
	}

	return tx.Commit(ctx)
}
