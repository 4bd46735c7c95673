package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"repair-system/internal/dto"
	"repair-system/internal/entities"
	"repair-system/internal/repositories"
	apperrors "repair-system/pkg/errors"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type AssignmentEngineInterface interface {
	AssignOrder(ctx context.Context, orderID uint64, excludeStaffID *uint64) (*entities.RepairAssignment, error)
	RespondToAssignment(ctx context.Context, assignmentID uint64, staffID uint64, accept bool) (*entities.RepairAssignment, error)
	FinishOrder(ctx context.Context, payload dto.FinishOrderDTO) (*entities.RepairOrder, error)
	CancelOrder(ctx context.Context, orderID uint64) (*entities.RepairOrder, error)
}

// AssignmentEngine - жизненный цикл назначения заказа: выбор исполнителя,
// принятие/отказ с автоматическим переназначением и закрытие заказа.
type AssignmentEngine struct {
	txManager      repositories.TxManagerInterface
	orderRepo      repositories.RepairOrderRepositoryInterface
	assignmentRepo repositories.RepairAssignmentRepositoryInterface
	staffRepo      repositories.StaffRepositoryInterface
	cache          repositories.CacheRepositoryInterface
	selector       StaffSelector
	eligibleTTL    time.Duration
	logger         *zap.Logger
}

func NewAssignmentEngine(
	txManager repositories.TxManagerInterface,
	orderRepo repositories.RepairOrderRepositoryInterface,
	assignmentRepo repositories.RepairAssignmentRepositoryInterface,
	staffRepo repositories.StaffRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	selector StaffSelector,
	eligibleTTL time.Duration,
	logger *zap.Logger,
) AssignmentEngineInterface {
	return &AssignmentEngine{
		txManager:      txManager,
		orderRepo:      orderRepo,
		assignmentRepo: assignmentRepo,
		staffRepo:      staffRepo,
		cache:          cache,
		selector:       selector,
		eligibleTTL:    eligibleTTL,
		logger:         logger,
	}
}

func (s *AssignmentEngine) AssignOrder(ctx context.Context, orderID uint64, excludeStaffID *uint64) (*entities.RepairAssignment, error) {
	txID := uuid.New()
	var assignment *entities.RepairAssignment

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.FindOrderForUpdateInTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return fmt.Errorf("заказ %d в статусе %s: %w", orderID, order.Status, apperrors.ErrInvalidState)
		}
		if order.RequiredStaffType == "" {
			return fmt.Errorf("у заказа %d не указан тип работ: %w", orderID, apperrors.ErrInvalidState)
		}

		live, err := s.assignmentRepo.CountLiveInTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if live > 0 {
			return fmt.Errorf("у заказа %d уже есть активное назначение: %w", orderID, apperrors.ErrInvalidState)
		}

		candidates, err := s.eligibleStaff(ctx, order.RequiredStaffType, excludeStaffID)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return fmt.Errorf("тип работ %s: %w", order.RequiredStaffType, apperrors.ErrNoEligibleStaff)
		}

		chosen := s.selector.Select(candidates)
		assignment = &entities.RepairAssignment{
			OrderID: orderID,
			StaffID: chosen.StaffID,
			Status:  entities.AssignmentStatusPending,
		}
		return s.assignmentRepo.CreateAssignmentInTx(ctx, tx, txID, assignment)
	})
	if err != nil {
		s.logger.Error("не удалось назначить заказ", zap.Uint64("orderID", orderID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("заказ назначен сотруднику",
		zap.Uint64("orderID", orderID),
		zap.Uint64("staffID", assignment.StaffID),
		zap.Uint64("assignmentID", assignment.AssignmentID))
	return assignment, nil
}

func (s *AssignmentEngine) RespondToAssignment(ctx context.Context, assignmentID uint64, staffID uint64, accept bool) (*entities.RepairAssignment, error) {
	preview, err := s.assignmentRepo.FindAssignment(ctx, assignmentID)
	if err != nil {
		s.logger.Error("назначение для ответа не найдено", zap.Uint64("assignmentID", assignmentID), zap.Error(err))
		return nil, err
	}

	txID := uuid.New()
	var assignment *entities.RepairAssignment

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// Строка заказа блокируется первой - тот же порядок, что у AssignOrder.
		order, err := s.orderRepo.FindOrderForUpdateInTx(ctx, tx, preview.OrderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return fmt.Errorf("заказ %d в статусе %s: %w", order.OrderID, order.Status, apperrors.ErrInvalidState)
		}

		assignment, err = s.assignmentRepo.FindAssignmentInTx(ctx, tx, assignmentID)
		if err != nil {
			return err
		}
		if assignment.StaffID != staffID {
			return fmt.Errorf("назначение %d принадлежит другому сотруднику: %w", assignmentID, apperrors.ErrForbidden)
		}
		if assignment.Status != entities.AssignmentStatusPending {
			return fmt.Errorf("назначение %d в статусе %s: %w", assignmentID, assignment.Status, apperrors.ErrInvalidState)
		}

		target := entities.AssignmentStatusRejected
		if accept {
			target = entities.AssignmentStatusAccepted
		}

		ok, err := s.assignmentRepo.UpdateStatusIfPendingInTx(ctx, tx, txID, assignment, target)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("назначение %d уже обработано конкурирующим вызовом: %w", assignmentID, apperrors.ErrInvalidState)
		}

		if accept {
			// Неудача перевода заказа фатальна для всего ответа и
			// откатывает в том числе принятие назначения.
			if err := s.orderRepo.UpdateStatusInTx(ctx, tx, txID, order, entities.OrderStatusInProgress, order.FinishTime); err != nil {
				return fmt.Errorf("не удалось перевести заказ %d в работу: %w", order.OrderID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("ошибка обработки ответа на назначение",
			zap.Uint64("assignmentID", assignmentID), zap.Uint64("staffID", staffID), zap.Error(err))
		return nil, err
	}

	if accept {
		s.logger.Info("назначение принято", zap.Uint64("assignmentID", assignmentID), zap.Uint64("staffID", staffID))
		return assignment, nil
	}

	// Переназначение запускается только после коммита отказа, чтобы у заказа
	// не существовало двух живых назначений одновременно.
	next, err := s.AssignOrder(ctx, assignment.OrderID, &staffID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoEligibleStaff) {
			s.logger.Warn("после отказа заказ остался без исполнителя",
				zap.Uint64("orderID", assignment.OrderID), zap.Uint64("rejectedBy", staffID))
		}
		return assignment, err
	}

	s.logger.Info("заказ переназначен после отказа",
		zap.Uint64("orderID", assignment.OrderID),
		zap.Uint64("rejectedBy", staffID),
		zap.Uint64("newAssignmentID", next.AssignmentID))
	return assignment, nil
}

// FinishOrder закрывает заказ целиком: либо фиксируются все отработанные часы
// и заказ становится Completed, либо не меняется ничего.
func (s *AssignmentEngine) FinishOrder(ctx context.Context, payload dto.FinishOrderDTO) (*entities.RepairOrder, error) {
	txID := uuid.New()
	var order *entities.RepairOrder

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.orderRepo.FindOrderForUpdateInTx(ctx, tx, payload.OrderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return fmt.Errorf("заказ %d в статусе %s: %w", order.OrderID, order.Status, apperrors.ErrInvalidState)
		}

		for _, update := range payload.TimeUpdates {
			assignment, err := s.assignmentRepo.FindAssignmentInTx(ctx, tx, update.AssignmentID)
			if err != nil {
				return fmt.Errorf("назначение %d: %w", update.AssignmentID, err)
			}
			if assignment.OrderID != order.OrderID {
				return fmt.Errorf("назначение %d не относится к заказу %d: %w", update.AssignmentID, order.OrderID, apperrors.ErrNotFound)
			}
			if err := s.assignmentRepo.UpdateTimeWorkedInTx(ctx, tx, txID, assignment, update.TimeWorked); err != nil {
				return err
			}
		}

		return s.orderRepo.UpdateStatusInTx(ctx, tx, txID, order, entities.OrderStatusCompleted, null.TimeFrom(time.Now()))
	})
	if err != nil {
		s.logger.Error("не удалось завершить заказ", zap.Uint64("orderID", payload.OrderID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("заказ завершён", zap.Uint64("orderID", order.OrderID))
	return order, nil
}

func (s *AssignmentEngine) CancelOrder(ctx context.Context, orderID uint64) (*entities.RepairOrder, error) {
	txID := uuid.New()
	var order *entities.RepairOrder

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.orderRepo.FindOrderForUpdateInTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return fmt.Errorf("заказ %d в статусе %s: %w", orderID, order.Status, apperrors.ErrInvalidState)
		}
		return s.orderRepo.UpdateStatusInTx(ctx, tx, txID, order, entities.OrderStatusCancelled, order.FinishTime)
	})
	if err != nil {
		s.logger.Error("не удалось отменить заказ", zap.Uint64("orderID", orderID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("заказ отменён", zap.Uint64("orderID", orderID))
	return order, nil
}

// eligibleStaff читает список подходящих сотрудников через кеш.
// Кешируется полный список по типу работ; исключение отказавшегося сотрудника
// применяется уже в памяти. Ошибки кеша не фатальны - источником истины
// остаётся БД.
func (s *AssignmentEngine) eligibleStaff(ctx context.Context, jobType entities.StaffJobType, excludeStaffID *uint64) ([]entities.Staff, error) {
	key := eligibleStaffCacheKey(jobType)

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var cached []entities.Staff
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return filterStaff(cached, excludeStaffID), nil
		}
		s.logger.Warn("повреждённый кеш списка сотрудников, перечитываем из БД", zap.String("key", key))
	}

	staff, err := s.staffRepo.EligibleStaff(ctx, jobType, nil)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(staff); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.eligibleTTL); err != nil {
			s.logger.Warn("не удалось записать кеш списка сотрудников", zap.String("key", key), zap.Error(err))
		}
	}
	return filterStaff(staff, excludeStaffID), nil
}

func eligibleStaffCacheKey(jobType entities.StaffJobType) string {
	return "staff:eligible:" + string(jobType)
}

func filterStaff(staff []entities.Staff, exclude *uint64) []entities.Staff {
	if exclude == nil {
		return staff
	}
	result := make([]entities.Staff, 0, len(staff))
	for _, member := range staff {
		if member.StaffID != *exclude {
			result = append(result, member)
		}
	}
	return result
}
