package repositories

import (
	"context"
	"errors"
	"fmt"
	"repair-system/internal/dto"
	"repair-system/internal/entities"
	apperrors "repair-system/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VehicleRepositoryInterface interface {
	FindVehicle(ctx context.Context, id uint64) (*entities.Vehicle, error)
	CreateVehicleInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, vehicle *entities.Vehicle) error
	UpdateVehicleInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, id uint64, payload dto.UpdateVehicleDTO) error
	DeleteVehicleInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, id uint64) error
}

type VehicleRepository struct {
	storage *pgxpool.Pool
	audit   AuditRepositoryInterface
}

func NewVehicleRepository(storage *pgxpool.Pool, audit AuditRepositoryInterface) VehicleRepositoryInterface {
	return &VehicleRepository{storage: storage, audit: audit}
}

const vehicleColumns = `vehicle_id, customer_id, license_plate, brand, model, type, color, remarks`

func (r *VehicleRepository) FindVehicle(ctx context.Context, id uint64) (*entities.Vehicle, error) {
	return fetchVehicle(ctx, r.storage, id, false)
}

func fetchVehicle(ctx context.Context, q querier, id uint64, lock bool) (*entities.Vehicle, error) {
	query := fmt.Sprintf(`SELECT %s FROM vehicle WHERE vehicle_id = $1`, vehicleColumns)
	if lock {
		query += ` FOR UPDATE`
	}
	return scanVehicle(q.QueryRow(ctx, query, id))
}

func (r *VehicleRepository) CreateVehicleInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, vehicle *entities.Vehicle) error {
	query := `
		INSERT INTO vehicle (customer_id, license_plate, brand, model, type, color, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING vehicle_id`
	err := tx.QueryRow(ctx, query,
		vehicle.CustomerID, vehicle.LicensePlate, vehicle.Brand,
		vehicle.Model, vehicle.Type, vehicle.Color, vehicle.Remarks,
	).Scan(&vehicle.VehicleID)
	if err != nil {
		return fmt.Errorf("ошибка создания автомобиля: %w", err)
	}

	entry, err := NewAuditEntry(txID, "vehicle", vehicle.VehicleID, entities.OperationInsert, nil, vehicleSnapshot(vehicle))
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}

func (r *VehicleRepository) UpdateVehicleInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, id uint64, payload dto.UpdateVehicleDTO) error {
	current, err := fetchVehicle(ctx, tx, id, true)
	if err != nil {
		return err
	}
	oldSnap := vehicleSnapshot(current)

	applyVehiclePatch(current, payload)

	query := `
		UPDATE vehicle
		SET license_plate = $2, brand = $3, model = $4, type = $5, color = $6, remarks = $7
		WHERE vehicle_id = $1`
	if _, err := tx.Exec(ctx, query,
		id, current.LicensePlate, current.Brand, current.Model,
		current.Type, current.Color, current.Remarks,
	); err != nil {
		return fmt.Errorf("ошибка обновления автомобиля %d: %w", id, err)
	}

	entry, err := NewAuditEntry(txID, "vehicle", id, entities.OperationUpdate, oldSnap, vehicleSnapshot(current))
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}

func (r *VehicleRepository) DeleteVehicleInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, id uint64) error {
	current, err := fetchVehicle(ctx, tx, id, true)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM vehicle WHERE vehicle_id = $1`, id); err != nil {
		return fmt.Errorf("ошибка удаления автомобиля %d: %w", id, err)
	}

	entry, err := NewAuditEntry(txID, "vehicle", id, entities.OperationDelete, vehicleSnapshot(current), nil)
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}

func applyVehiclePatch(v *entities.Vehicle, payload dto.UpdateVehicleDTO) {
	if payload.LicensePlate != "" {
		v.LicensePlate = payload.LicensePlate
	}
	if payload.Brand != "" {
		v.Brand = payload.Brand
	}
	if payload.Model != "" {
		v.Model = payload.Model
	}
	if payload.Type != "" {
		v.Type = payload.Type
	}
	if payload.Color != "" {
		v.Color = payload.Color
	}
	if payload.Remarks != "" {
		v.Remarks.SetValid(payload.Remarks)
	}
}

func scanVehicle(row pgx.Row) (*entities.Vehicle, error) {
	var v entities.Vehicle
	err := row.Scan(&v.VehicleID, &v.CustomerID, &v.LicensePlate, &v.Brand, &v.Model, &v.Type, &v.Color, &v.Remarks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования автомобиля: %w", err)
	}
	return &v, nil
}

func vehicleSnapshot(v *entities.Vehicle) entities.Snapshot {
	return entities.Snapshot{
		"vehicle_id":    v.VehicleID,
		"customer_id":   v.CustomerID,
		"license_plate": v.LicensePlate,
		"brand":         v.Brand,
		"model":         v.Model,
		"type":          v.Type,
		"color":         v.Color,
		"remarks":       v.Remarks,
	}
}
