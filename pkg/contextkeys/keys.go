package contextkeys

type contextKey string

const (
	// ActorIDKey - идентификатор пользователя, от имени которого выполняется операция.
	// Кладётся в контекст внешним (исключённым из ядра) слоем.
	ActorIDKey contextKey = "ActorID"
)
