package entities

import "github.com/aarondl/null/v8"

type AssignmentStatus string

const (
	AssignmentStatusPending  AssignmentStatus = "pending"
	AssignmentStatusAccepted AssignmentStatus = "accepted"
	AssignmentStatusRejected AssignmentStatus = "rejected"
)

// RepairAssignment - привязка заказа к одному сотруднику на один раунд принятия/отказа.
// Инвариант: у заказа в любой момент не более одного назначения в статусе
// pending или accepted.
type RepairAssignment struct {
	AssignmentID uint64           `db:"assignment_id"`
	OrderID      uint64           `db:"order_id"`
	StaffID      uint64           `db:"staff_id"`
	Status       AssignmentStatus `db:"status"`
	// TimeWorked заполняется при завершении заказа, в часах.
	TimeWorked null.Float64 `db:"time_worked"`
}
