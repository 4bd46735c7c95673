package seeders

import "repair-system/internal/entities"

type staffSeed struct {
	Name       string
	Login      string
	Phone      string
	Email      string
	JobType    entities.StaffJobType
	HourlyRate float64
}

// По два сотрудника на каждую специализацию, чтобы переназначение после отказа
// было возможно на демонстрационных данных.
var staffData = []staffSeed{
	{"Рустам Каримов", "r.karimov", "+992900000001", "r.karimov@repair.local", entities.JobTypePaintWorker, 18.50},
	{"Фаррух Азимов", "f.azimov", "+992900000002", "f.azimov@repair.local", entities.JobTypePaintWorker, 17.00},
	{"Джамшед Рахимов", "j.rahimov", "+992900000003", "j.rahimov@repair.local", entities.JobTypeWelder, 22.00},
	{"Сухроб Назаров", "s.nazarov", "+992900000004", "s.nazarov@repair.local", entities.JobTypeWelder, 21.50},
	{"Манучехр Шарипов", "m.sharipov", "+992900000005", "m.sharipov@repair.local", entities.JobTypeAutoRepairWorker, 20.00},
	{"Далер Хакимов", "d.hakimov", "+992900000006", "d.hakimov@repair.local", entities.JobTypeAutoRepairWorker, 19.00},
	{"Исмоил Собиров", "i.sobirov", "+992900000007", "i.sobirov@repair.local", entities.JobTypeAutoElectrician, 24.00},
	{"Бахтиёр Олимов", "b.olimov", "+992900000008", "b.olimov@repair.local", entities.JobTypeAutoElectrician, 23.00},
	{"Парвиз Рустамов", "p.rustamov", "+992900000009", "p.rustamov@repair.local", entities.JobTypeSheetMetalWorker, 19.50},
	{"Шерзод Гафуров", "sh.gafurov", "+992900000010", "sh.gafurov@repair.local", entities.JobTypeSheetMetalWorker, 18.00},
	{"Умед Саидов", "u.saidov", "+992900000011", "u.saidov@repair.local", entities.JobTypeDiagnosticTechnician, 26.00},
	{"Фирдавс Муродов", "f.murodov", "+992900000012", "f.murodov@repair.local", entities.JobTypeDiagnosticTechnician, 25.00},
	{"Нигина Акрамова", "n.akramova", "+992900000013", "n.akramova@repair.local", entities.JobTypeServiceAdvisor, 15.00},
	{"Зарина Юсупова", "z.yusupova", "+992900000014", "z.yusupova@repair.local", entities.JobTypeServiceAdvisor, 15.00},
	{"Хуршед Давлатов", "h.davlatov", "+992900000015", "h.davlatov@repair.local", entities.JobTypePartsSpecialist, 16.00},
	{"Сино Камолов", "s.kamolov", "+992900000016", "s.kamolov@repair.local", entities.JobTypePartsSpecialist, 16.50},
}

type vehicleSeed struct {
	LicensePlate string
	Brand        string
	Model        string
	Type         string
	Color        string
}

type customerSeed struct {
	Name     string
	Login    string
	Phone    string
	Email    string
	Address  string
	Vehicles []vehicleSeed
}

var customerData = []customerSeed{
	{
		Name: "Алишер Турсунов", Login: "a.tursunov", Phone: "+992901000001",
		Email: "a.tursunov@mail.local", Address: "г. Душанбе, ул. Рудаки 15",
		Vehicles: []vehicleSeed{
			{"0101AB01", "Toyota", "Camry", "Седан", "Белый"},
			{"0202CD01", "Opel", "Astra", "Хэтчбек", "Серый"},
		},
	},
	{
		Name: "Мехрубон Сафарова", Login: "m.safarova", Phone: "+992901000002",
		Email: "m.safarova@mail.local", Address: "г. Душанбе, ул. Айни 42",
		Vehicles: []vehicleSeed{
			{"0303EF02", "Hyundai", "Sonata", "Седан", "Чёрный"},
		},
	},
	{
		Name: "Комрон Исоев", Login: "k.isoev", Phone: "+992901000003",
		Email: "k.isoev@mail.local", Address: "г. Худжанд, ул. Ленина 7",
		Vehicles: []vehicleSeed{
			{"0404GH03", "Mercedes-Benz", "Sprinter", "Фургон", "Синий"},
		},
	},
}

var adminData = []struct {
	Name  string
	Login string
	Email string
}{
	{"Администратор Сервиса", "admin", "admin@repair.local"},
}
