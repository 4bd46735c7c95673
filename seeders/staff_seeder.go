package seeders

import (
	"context"
	"log"

	"repair-system/internal/entities"

	"github.com/jackc/pgx/v5/pgxpool"
)

func seedStaff(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблиц 'users'/'staff'...")

	userQuery := `
		INSERT INTO users (name, login, phone, email, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (login) DO UPDATE SET name = EXCLUDED.name
		RETURNING user_id`
	staffQuery := `
		INSERT INTO staff (staff_id, job_type, hourly_rate)
		VALUES ($1, $2, $3)
		ON CONFLICT (staff_id) DO UPDATE SET job_type = EXCLUDED.job_type, hourly_rate = EXCLUDED.hourly_rate`

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range staffData {
		var userID uint64
		if err := tx.QueryRow(ctx, userQuery, s.Name, s.Login, s.Phone, s.Email, entities.RoleStaff).Scan(&userID); err != nil {
			log.Printf("Ошибка при вставке сотрудника '%s': %v", s.Login, err)
			return err
		}
		if _, err := tx.Exec(ctx, staffQuery, userID, s.JobType, s.HourlyRate); err != nil {
			log.Printf("Ошибка при вставке специализации '%s': %v", s.Login, err)
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedAdmins(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'admins'...")

	userQuery := `
		INSERT INTO users (name, login, email, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (login) DO UPDATE SET name = EXCLUDED.name
		RETURNING user_id`
	adminQuery := `
		INSERT INTO admins (admin_id)
		VALUES ($1)
		ON CONFLICT (admin_id) DO NOTHING`

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, a := range adminData {
		var userID uint64
		if err := tx.QueryRow(ctx, userQuery, a.Name, a.Login, a.Email, entities.RoleAdmin).Scan(&userID); err != nil {
			log.Printf("Ошибка при вставке администратора '%s': %v", a.Login, err)
			return err
		}
		if _, err := tx.Exec(ctx, adminQuery, userID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
