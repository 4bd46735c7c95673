package entities

import "time"

type RequestStatus string

const (
	RequestStatusPending      RequestStatus = "pending"
	RequestStatusOrderCreated RequestStatus = "order_created"
)

// RepairRequest - заявка клиента на ремонт. Из заявки в статусе pending
// сотрудник или администратор создаёт заказ на ремонт.
type RepairRequest struct {
	RequestID   uint64        `db:"request_id"`
	VehicleID   uint64        `db:"vehicle_id"`
	CustomerID  uint64        `db:"customer_id"`
	Description string        `db:"description"`
	Status      RequestStatus `db:"status"`
	RequestTime time.Time     `db:"request_time"`
}
