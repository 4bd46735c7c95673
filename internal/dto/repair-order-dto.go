package dto

// AssignmentTimeUpdateDTO - отработанные часы по одному назначению,
// передаются при завершении заказа.
type AssignmentTimeUpdateDTO struct {
	AssignmentID uint64  `json:"assignment_id"`
	TimeWorked   float64 `json:"time_worked"`
}

type FinishOrderDTO struct {
	OrderID     uint64                    `json:"order_id"`
	TimeUpdates []AssignmentTimeUpdateDTO `json:"time_updates"`
}
