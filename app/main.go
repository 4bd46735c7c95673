package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"repair-system/internal/dto"
	"repair-system/internal/entities"
	"repair-system/internal/repositories"
	"repair-system/internal/services"
	"repair-system/pkg/config"
	"repair-system/pkg/contextkeys"
	"repair-system/pkg/database/postgresql"
	applogger "repair-system/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// application - собранный граф сервисов для консольных команд.
type application struct {
	requests    services.RepairRequestServiceInterface
	assignments services.AssignmentEngineInterface
	fees        services.FeeCalculatorInterface
	logs        services.RepairLogServiceInterface
	vehicles    services.VehicleServiceInterface
	staff       services.StaffServiceInterface
	rollback    services.RollbackCoordinatorInterface
	audit       services.AuditQueryServiceInterface
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := applogger.NewLogger()
	defer logger.Sync()

	cfg := config.New()

	dbConn := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	txManager := repositories.NewTxManager(dbConn)
	auditRepo := repositories.NewAuditRepository(dbConn)
	recordRepo := repositories.NewRecordRepository()
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	vehicleRepo := repositories.NewVehicleRepository(dbConn, auditRepo)
	requestRepo := repositories.NewRepairRequestRepository(dbConn, auditRepo)
	orderRepo := repositories.NewRepairOrderRepository(dbConn, auditRepo)
	assignmentRepo := repositories.NewRepairAssignmentRepository(dbConn, auditRepo)
	staffRepo := repositories.NewStaffRepository(dbConn, auditRepo)
	logRepo := repositories.NewRepairLogRepository(dbConn, auditRepo)
	materialRepo := repositories.NewMaterialRepository(dbConn, auditRepo)
	feedbackRepo := repositories.NewFeedbackRepository(dbConn, auditRepo)

	app := &application{
		requests:    services.NewRepairRequestService(txManager, requestRepo, orderRepo, logger),
		assignments: services.NewAssignmentEngine(txManager, orderRepo, assignmentRepo, staffRepo, cacheRepo, services.NewRandomStaffSelector(), cfg.Cache.EligibleStaffTTL, logger),
		fees:        services.NewFeeCalculator(orderRepo, assignmentRepo, materialRepo, staffRepo, cacheRepo, cfg.Cache.StaffRateTTL, logger),
		logs:        services.NewRepairLogService(txManager, orderRepo, logRepo, materialRepo, feedbackRepo, logger),
		vehicles:    services.NewVehicleService(txManager, vehicleRepo, logger),
		staff:       services.NewStaffService(txManager, staffRepo, cacheRepo, logger),
		rollback:    services.NewRollbackCoordinator(txManager, auditRepo, recordRepo, logger),
		audit:       services.NewAuditQueryService(auditRepo, logger),
	}

	if err := app.run(os.Args[1], os.Args[2:]); err != nil {
		logger.Fatal("команда завершилась с ошибкой", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func (app *application) run(command string, args []string) error {
	switch command {
	case "request":
		return app.cmdRequest(args)
	case "convert":
		return app.cmdConvert(args)
	case "assign":
		return app.cmdAssign(args)
	case "respond":
		return app.cmdRespond(args)
	case "finish":
		return app.cmdFinish(args)
	case "cancel":
		return app.cmdCancel(args)
	case "fees":
		return app.cmdFees(args)
	case "log":
		return app.cmdLog(args)
	case "feedback":
		return app.cmdFeedback(args)
	case "rate":
		return app.cmdRate(args)
	case "rollback":
		return app.cmdRollback(args)
	case "audit":
		return app.cmdAudit(args)
	default:
		usage()
		return fmt.Errorf("неизвестная команда: %s", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Использование: repair-system <команда> [флаги]

Команды:
  request   создать заявку на ремонт
  convert   преобразовать заявку в заказ
  assign    назначить исполнителя на заказ
  respond   принять или отклонить назначение
  finish    завершить заказ с учётом отработанных часов
  cancel    отменить заказ
  fees      рассчитать стоимость заказа
  log       добавить запись о выполненных работах
  feedback  оставить отзыв по записи о работах
  rate      изменить почасовую ставку сотрудника
  rollback  откатить последнее изменение записи
  audit     показать журнал изменений

Флаг -actor у каждой команды указывает, от чьего имени идёт операция.`)
}

// actorContext кладёт идентификатор оператора в контекст, чтобы журнал
// изменений зафиксировал, кто выполнил операцию.
func actorContext(actorID uint64) context.Context {
	ctx := context.Background()
	if actorID != 0 {
		ctx = context.WithValue(ctx, contextkeys.ActorIDKey, actorID)
	}
	return ctx
}

func printResult(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func (app *application) cmdRequest(args []string) error {
	fs := flag.NewFlagSet("request", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	vehicleID := fs.Uint64("vehicle", 0, "идентификатор автомобиля")
	customerID := fs.Uint64("customer", 0, "идентификатор клиента")
	description := fs.String("description", "", "описание неисправности")
	fs.Parse(args)

	request, err := app.requests.CreateRequest(actorContext(*actor), dto.CreateRepairRequestDTO{
		VehicleID:   *vehicleID,
		CustomerID:  *customerID,
		Description: *description,
	})
	if err != nil {
		return err
	}
	return printResult(request)
}

func (app *application) cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	requestID := fs.Uint64("request", 0, "идентификатор заявки")
	staffType := fs.String("staff-type", "", "требуемый тип работ")
	remarks := fs.String("remarks", "", "примечания к заказу")
	fs.Parse(args)

	order, err := app.requests.ConvertToOrder(actorContext(*actor), dto.ConvertRequestDTO{
		RequestID:         *requestID,
		RequiredStaffType: *staffType,
		Remarks:           *remarks,
	})
	if err != nil {
		return err
	}
	return printResult(order)
}

func (app *application) cmdAssign(args []string) error {
	fs := flag.NewFlagSet("assign", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	orderID := fs.Uint64("order", 0, "идентификатор заказа")
	fs.Parse(args)

	assignment, err := app.assignments.AssignOrder(actorContext(*actor), *orderID, nil)
	if err != nil {
		return err
	}
	return printResult(assignment)
}

func (app *application) cmdRespond(args []string) error {
	fs := flag.NewFlagSet("respond", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	assignmentID := fs.Uint64("assignment", 0, "идентификатор назначения")
	staffID := fs.Uint64("staff", 0, "идентификатор сотрудника")
	accept := fs.Bool("accept", false, "принять назначение (иначе отказ)")
	fs.Parse(args)

	assignment, err := app.assignments.RespondToAssignment(actorContext(*actor), *assignmentID, *staffID, *accept)
	if assignment != nil {
		if printErr := printResult(assignment); printErr != nil {
			return printErr
		}
	}
	return err
}

func (app *application) cmdFinish(args []string) error {
	fs := flag.NewFlagSet("finish", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	orderID := fs.Uint64("order", 0, "идентификатор заказа")
	times := fs.String("time", "", "отработанные часы в формате назначение=часы[,назначение=часы]")
	fs.Parse(args)

	updates, err := parseTimeUpdates(*times)
	if err != nil {
		return err
	}

	order, err := app.assignments.FinishOrder(actorContext(*actor), dto.FinishOrderDTO{
		OrderID:     *orderID,
		TimeUpdates: updates,
	})
	if err != nil {
		return err
	}
	return printResult(order)
}

func parseTimeUpdates(raw string) ([]dto.AssignmentTimeUpdateDTO, error) {
	if raw == "" {
		return nil, nil
	}

	var updates []dto.AssignmentTimeUpdateDTO
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("некорректная пара назначение=часы: %q", pair)
		}
		assignmentID, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректный идентификатор назначения %q: %w", parts[0], err)
		}
		hours, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("некорректные часы %q: %w", parts[1], err)
		}
		updates = append(updates, dto.AssignmentTimeUpdateDTO{AssignmentID: assignmentID, TimeWorked: hours})
	}
	return updates, nil
}

func (app *application) cmdCancel(args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	orderID := fs.Uint64("order", 0, "идентификатор заказа")
	fs.Parse(args)

	order, err := app.assignments.CancelOrder(actorContext(*actor), *orderID)
	if err != nil {
		return err
	}
	return printResult(order)
}

func (app *application) cmdFees(args []string) error {
	fs := flag.NewFlagSet("fees", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	orderID := fs.Uint64("order", 0, "идентификатор заказа")
	fs.Parse(args)

	ctx := actorContext(*actor)
	materialFee, err := app.fees.MaterialFee(ctx, *orderID)
	if err != nil {
		return err
	}
	laborFee, err := app.fees.LaborFee(ctx, *orderID)
	if err != nil {
		return err
	}

	return printResult(map[string]float64{
		"material_fee": materialFee,
		"labor_fee":    laborFee,
		"total_fee":    materialFee + laborFee,
	})
}

func (app *application) cmdLog(args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	orderID := fs.Uint64("order", 0, "идентификатор заказа")
	staffID := fs.Uint64("staff", 0, "идентификатор сотрудника")
	message := fs.String("message", "", "описание выполненных работ")
	materials := fs.String("materials", "", "материалы в формате название=количество=цена[,...]")
	fs.Parse(args)

	lines, err := parseMaterialLines(*materials)
	if err != nil {
		return err
	}

	entry, err := app.logs.AddLog(actorContext(*actor), dto.CreateRepairLogDTO{
		OrderID:    *orderID,
		StaffID:    *staffID,
		LogMessage: *message,
		Materials:  lines,
	})
	if err != nil {
		return err
	}
	return printResult(entry)
}

func parseMaterialLines(raw string) ([]dto.MaterialLineDTO, error) {
	if raw == "" {
		return nil, nil
	}

	var lines []dto.MaterialLineDTO
	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(item, "=", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("некорректная строка материала: %q", item)
		}
		quantity, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("некорректное количество %q: %w", parts[1], err)
		}
		unitPrice, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("некорректная цена %q: %w", parts[2], err)
		}
		lines = append(lines, dto.MaterialLineDTO{Name: parts[0], Quantity: quantity, UnitPrice: unitPrice})
	}
	return lines, nil
}

func (app *application) cmdFeedback(args []string) error {
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	customerID := fs.Uint64("customer", 0, "идентификатор клиента")
	logID := fs.Uint64("log", 0, "идентификатор записи о работах")
	rating := fs.Int("rating", 0, "оценка от 1 до 5")
	comments := fs.String("comments", "", "комментарий")
	fs.Parse(args)

	feedback, err := app.logs.AddFeedback(actorContext(*actor), dto.CreateFeedbackDTO{
		CustomerID: *customerID,
		LogID:      *logID,
		Rating:     *rating,
		Comments:   *comments,
	})
	if err != nil {
		return err
	}
	return printResult(feedback)
}

func (app *application) cmdRate(args []string) error {
	fs := flag.NewFlagSet("rate", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	staffID := fs.Uint64("staff", 0, "идентификатор сотрудника")
	rate := fs.Float64("rate", 0, "новая почасовая ставка")
	fs.Parse(args)

	updated, err := app.staff.UpdateHourlyRate(actorContext(*actor), *staffID, *rate)
	if err != nil {
		return err
	}
	return printResult(updated)
}

func (app *application) cmdRollback(args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	table := fs.String("table", "", "таблица (пусто - откат самого свежего изменения)")
	recordID := fs.Uint64("record", 0, "идентификатор записи")
	fs.Parse(args)

	ctx := actorContext(*actor)
	var entry *entities.AuditLog
	var err error
	if *table == "" {
		entry, err = app.rollback.RollbackMostRecent(ctx)
	} else {
		entry, err = app.rollback.RollbackLast(ctx, *table, *recordID)
	}
	if err != nil {
		return err
	}
	return printResult(entry)
}

func (app *application) cmdAudit(args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	actor := fs.Uint64("actor", 0, "идентификатор оператора")
	table := fs.String("table", "", "фильтр по таблице")
	operation := fs.String("operation", "", "фильтр по операции (INSERT|UPDATE|DELETE)")
	limit := fs.Uint64("limit", 0, "максимум записей")
	fs.Parse(args)

	entries, err := app.audit.Query(actorContext(*actor), repositories.AuditQueryFilter{
		Table:     *table,
		Operation: entities.OperationType(*operation),
		Limit:     *limit,
	})
	if err != nil {
		return err
	}
	return printResult(entries)
}
