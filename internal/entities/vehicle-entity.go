package entities

import "github.com/aarondl/null/v8"

type Vehicle struct {
	VehicleID    uint64      `db:"vehicle_id"`
	CustomerID   uint64      `db:"customer_id"`
	LicensePlate string      `db:"license_plate"`
	Brand        string      `db:"brand"`
	Model        string      `db:"model"`
	Type         string      `db:"type"`
	Color        string      `db:"color"`
	Remarks      null.String `db:"remarks"`
}
