package dto

type CreateRepairRequestDTO struct {
	VehicleID   uint64 `json:"vehicle_id"`
	CustomerID  uint64 `json:"customer_id"`
	Description string `json:"description"`
}

// ConvertRequestDTO - параметры преобразования заявки в заказ на ремонт.
type ConvertRequestDTO struct {
	RequestID         uint64 `json:"request_id"`
	RequiredStaffType string `json:"required_staff_type"`
	Remarks           string `json:"remarks,omitempty"`
}
