package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type RepairStatus string

const (
	OrderStatusPending    RepairStatus = "Pending"
	OrderStatusInProgress RepairStatus = "In Progress"
	OrderStatusCompleted  RepairStatus = "Completed"
	OrderStatusCancelled  RepairStatus = "Cancelled"
)

// IsTerminal сообщает, допускает ли статус дальнейшие переходы.
func (s RepairStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type RepairOrder struct {
	OrderID    uint64 `db:"order_id"`
	VehicleID  uint64 `db:"vehicle_id"`
	CustomerID uint64 `db:"customer_id"`
	RequestID  uint64 `db:"request_id"`
	// RequiredStaffType пустой, если тип работ ещё не указан - в этом состоянии
	// заказ назначать нельзя.
	RequiredStaffType StaffJobType `db:"required_staff_type"`
	Status            RepairStatus `db:"status"`
	OrderTime         time.Time    `db:"order_time"`
	FinishTime        null.Time    `db:"finish_time"`
	Remarks           null.String  `db:"remarks"`
}
