package dto

type CreateVehicleDTO struct {
	CustomerID   uint64 `json:"customer_id"`
	LicensePlate string `json:"license_plate"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Type         string `json:"type"`
	Color        string `json:"color"`
	Remarks      string `json:"remarks,omitempty"`
}

type UpdateVehicleDTO struct {
	LicensePlate string `json:"license_plate,omitempty"`
	Brand        string `json:"brand,omitempty"`
	Model        string `json:"model,omitempty"`
	Type         string `json:"type,omitempty"`
	Color        string `json:"color,omitempty"`
	Remarks      string `json:"remarks,omitempty"`
}
