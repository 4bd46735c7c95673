package dto

type MaterialLineDTO struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Remarks   string  `json:"remarks,omitempty"`
}

type CreateRepairLogDTO struct {
	OrderID    uint64            `json:"order_id"`
	StaffID    uint64            `json:"staff_id"`
	LogMessage string            `json:"log_message"`
	Materials  []MaterialLineDTO `json:"materials,omitempty"`
}

type CreateFeedbackDTO struct {
	CustomerID uint64 `json:"customer_id"`
	LogID      uint64 `json:"log_id"`
	Rating     int    `json:"rating"`
	Comments   string `json:"comments,omitempty"`
}
