package repositories

import (
	"context"
	"errors"
	"fmt"
	"repair-system/internal/entities"
	apperrors "repair-system/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StaffRepositoryInterface - справочник сотрудников, который потребляет ядро:
// подбор исполнителей по типу работ, почасовые ставки и их пересмотр.
type StaffRepositoryInterface interface {
	EligibleStaff(ctx context.Context, jobType entities.StaffJobType, excludeStaffID *uint64) ([]entities.Staff, error)
	FindStaff(ctx context.Context, staffID uint64) (*entities.Staff, error)
	HourlyRate(ctx context.Context, staffID uint64) (float64, error)
	// UpdateHourlyRateInTx меняет ставку сотрудника и возвращает поля строки
	// staff после изменения (без данных users).
	UpdateHourlyRateInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, staffID uint64, rate float64) (*entities.Staff, error)
}

type StaffRepository struct {
	storage *pgxpool.Pool
	audit   AuditRepositoryInterface
}

func NewStaffRepository(storage *pgxpool.Pool, audit AuditRepositoryInterface) StaffRepositoryInterface {
	return &StaffRepository{storage: storage, audit: audit}
}

const staffColumns = `
	u.user_id, u.name, u.login, u.phone, u.email, u.address, u.role,
	s.staff_id, s.job_type, s.hourly_rate`

func (r *StaffRepository) EligibleStaff(ctx context.Context, jobType entities.StaffJobType, excludeStaffID *uint64) ([]entities.Staff, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM staff s
		JOIN users u ON s.staff_id = u.user_id
		WHERE s.job_type = $1 AND ($2::bigint IS NULL OR s.staff_id <> $2)
		ORDER BY s.staff_id`, staffColumns)

	rows, err := r.storage.Query(ctx, query, jobType, excludeStaffID)
	if err != nil {
		return nil, fmt.Errorf("ошибка подбора сотрудников типа %s: %w", jobType, err)
	}
	defer rows.Close()

	var result []entities.Staff
	for rows.Next() {
		var s entities.Staff
		if err := scanStaffFields(rows, &s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *StaffRepository) FindStaff(ctx context.Context, staffID uint64) (*entities.Staff, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM staff s
		JOIN users u ON s.staff_id = u.user_id
		WHERE s.staff_id = $1`, staffColumns)

	var s entities.Staff
	if err := scanStaffFields(r.storage.QueryRow(ctx, query, staffID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StaffRepository) HourlyRate(ctx context.Context, staffID uint64) (float64, error) {
	var rate float64
	err := r.storage.QueryRow(ctx, `SELECT hourly_rate FROM staff WHERE staff_id = $1`, staffID).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("ошибка чтения ставки сотрудника %d: %w", staffID, err)
	}
	return rate, nil
}

func (r *StaffRepository) UpdateHourlyRateInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, staffID uint64, rate float64) (*entities.Staff, error) {
	var s entities.Staff
	err := tx.QueryRow(ctx,
		`SELECT staff_id, job_type, hourly_rate FROM staff WHERE staff_id = $1 FOR UPDATE`,
		staffID,
	).Scan(&s.StaffID, &s.JobType, &s.HourlyRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения сотрудника %d: %w", staffID, err)
	}
	oldSnap := staffSnapshot(&s)

	if _, err := tx.Exec(ctx, `UPDATE staff SET hourly_rate = $2 WHERE staff_id = $1`, staffID, rate); err != nil {
		return nil, fmt.Errorf("ошибка изменения ставки сотрудника %d: %w", staffID, err)
	}
	s.HourlyRate = rate

	entry, err := NewAuditEntry(txID, "staff", staffID, entities.OperationUpdate, oldSnap, staffSnapshot(&s))
	if err != nil {
		return nil, err
	}
	if err := r.audit.CreateInTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	return &s, nil
}

func staffSnapshot(s *entities.Staff) entities.Snapshot {
	return entities.Snapshot{
		"staff_id":    s.StaffID,
		"job_type":    string(s.JobType),
		"hourly_rate": s.HourlyRate,
	}
}

func scanStaffFields(row pgx.Row, s *entities.Staff) error {
	err := row.Scan(
		&s.UserID, &s.Name, &s.Login, &s.Phone, &s.Email, &s.Address, &s.Role,
		&s.StaffID, &s.JobType, &s.HourlyRate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("ошибка сканирования сотрудника: %w", err)
	}
	return nil
}
