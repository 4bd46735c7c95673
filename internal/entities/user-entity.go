package entities

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleStaff    UserRole = "staff"
	RoleAdmin    UserRole = "admin"
)

// StaffJobType - специализация сотрудника автосервиса.
type StaffJobType string

const (
	JobTypePaintWorker          StaffJobType = "Paint Worker"
	JobTypeWelder               StaffJobType = "Welder"
	JobTypeAutoRepairWorker     StaffJobType = "Auto Repair Worker"
	JobTypeAutoElectrician      StaffJobType = "Auto Electrician"
	JobTypeSheetMetalWorker     StaffJobType = "Sheet Metal Worker"
	JobTypeDiagnosticTechnician StaffJobType = "Diagnostic Technician"
	JobTypeServiceAdvisor       StaffJobType = "Service Advisor"
	JobTypePartsSpecialist      StaffJobType = "Parts Specialist"
)

// BaseUser - общая часть любого пользователя системы.
// Роль задаётся композицией (Customer/Staff/Admin несут свои поля поверх базовой записи),
// а не наследованием от изменяемого базового класса.
type BaseUser struct {
	UserID  uint64   `db:"user_id"`
	Name    string   `db:"name"`
	Login   string   `db:"login"`
	Phone   string   `db:"phone"`
	Email   string   `db:"email"`
	Address string   `db:"address"`
	Role    UserRole `db:"role"`
}

type Customer struct {
	BaseUser
	CustomerID uint64 `db:"customer_id"`
}

type Staff struct {
	BaseUser
	StaffID    uint64       `db:"staff_id"`
	JobType    StaffJobType `db:"job_type"`
	HourlyRate float64      `db:"hourly_rate"`
}

type Admin struct {
	BaseUser
	AdminID uint64 `db:"admin_id"`
}
