package errors

import "fmt"

var (
	// Общие ошибки домена
	ErrNotFound        = fmt.Errorf("запись не найдена")
	ErrForbidden       = fmt.Errorf("доступ запрещён")
	ErrInvalidState    = fmt.Errorf("операция недопустима в текущем статусе")
	ErrNoEligibleStaff = fmt.Errorf("нет подходящих сотрудников для назначения")

	// Журнал изменений и откат
	ErrNoAuditHistory = fmt.Errorf("по записи нет истории изменений")

	// Хранилище
	ErrStoreUnavailable = fmt.Errorf("хранилище недоступно")
)

// InvalidInputError - ошибка некорректных входных данных с человекочитаемым сообщением.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
