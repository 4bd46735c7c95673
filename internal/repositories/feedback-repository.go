package repositories

import (
	"context"
	"fmt"
	"repair-system/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FeedbackRepositoryInterface interface {
	ListByLog(ctx context.Context, logID uint64) ([]entities.Feedback, error)
	CreateFeedbackInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, feedback *entities.Feedback) error
}

type FeedbackRepository struct {
	storage *pgxpool.Pool
	audit   AuditRepositoryInterface
}

func NewFeedbackRepository(storage *pgxpool.Pool, audit AuditRepositoryInterface) FeedbackRepositoryInterface {
	return &FeedbackRepository{storage: storage, audit: audit}
}

func (r *FeedbackRepository) ListByLog(ctx context.Context, logID uint64) ([]entities.Feedback, error) {
	query := `
		SELECT feedback_id, customer_id, log_id, rating, comments, feedback_time
		FROM feedback
		WHERE log_id = $1
		ORDER BY feedback_time`
	rows, err := r.storage.Query(ctx, query, logID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки отзывов: %w", err)
	}
	defer rows.Close()

	var result []entities.Feedback
	for rows.Next() {
		var f entities.Feedback
		if err := rows.Scan(&f.FeedbackID, &f.CustomerID, &f.LogID, &f.Rating, &f.Comments, &f.FeedbackTime); err != nil {
			return nil, fmt.Errorf("ошибка сканирования отзыва: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *FeedbackRepository) CreateFeedbackInTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID, feedback *entities.Feedback) error {
	query := `
		INSERT INTO feedback (customer_id, log_id, rating, comments, feedback_time)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING feedback_id, feedback_time`
	err := tx.QueryRow(ctx, query,
		feedback.CustomerID, feedback.LogID, feedback.Rating, feedback.Comments,
	).Scan(&feedback.FeedbackID, &feedback.FeedbackTime)
	if err != nil {
		return fmt.Errorf("ошибка создания отзыва: %w", err)
	}

	entry, err := NewAuditEntry(txID, "feedback", feedback.FeedbackID, entities.OperationInsert, nil, entities.Snapshot{
		"feedback_id":   feedback.FeedbackID,
		"customer_id":   feedback.CustomerID,
		"log_id":        feedback.LogID,
		"rating":        feedback.Rating,
		"comments":      feedback.Comments,
		"feedback_time": feedback.FeedbackTime,
	})
	if err != nil {
		return err
	}
	return r.audit.CreateInTx(ctx, tx, entry)
}
