package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type RepairLog struct {
	LogID      uint64    `db:"log_id"`
	OrderID    uint64    `db:"order_id"`
	StaffID    uint64    `db:"staff_id"`
	LogTime    time.Time `db:"log_time"`
	LogMessage string    `db:"log_message"`
}

type Material struct {
	MaterialID uint64      `db:"material_id"`
	LogID      uint64      `db:"log_id"`
	Name       string      `db:"name"`
	Quantity   float64     `db:"quantity"`
	UnitPrice  float64     `db:"unit_price"`
	Remarks    null.String `db:"remarks"`
}

// TotalPrice - стоимость позиции: количество * цена за единицу.
func (m Material) TotalPrice() float64 {
	return m.Quantity * m.UnitPrice
}
