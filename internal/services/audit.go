package services

import (
	"context"

	"repair-system/internal/entities"
	"repair-system/internal/repositories"

	"go.uber.org/zap"
)

const defaultAuditQueryLimit = 50

type AuditQueryServiceInterface interface {
	Query(ctx context.Context, filter repositories.AuditQueryFilter) ([]entities.AuditLog, error)
}

// AuditQueryService - выборка журнала изменений для административного просмотра.
// Сами записи создают репозитории при каждой мутации; здесь только чтение.
type AuditQueryService struct {
	audit  repositories.AuditRepositoryInterface
	logger *zap.Logger
}

func NewAuditQueryService(audit repositories.AuditRepositoryInterface, logger *zap.Logger) AuditQueryServiceInterface {
	return &AuditQueryService{audit: audit, logger: logger}
}

func (s *AuditQueryService) Query(ctx context.Context, filter repositories.AuditQueryFilter) ([]entities.AuditLog, error) {
	if filter.Limit == 0 {
		filter.Limit = defaultAuditQueryLimit
	}

	entries, err := s.audit.Query(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка выборки журнала изменений", zap.Error(err))
		return nil, err
	}
	return entries, nil
}
