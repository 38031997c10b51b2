package repository

import (
	"database/sql"
	"fmt"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/workflow"
	"go.uber.org/zap"
)

// HistoryRepository handles the append-only approval history ledger.
// Records are never updated or deleted.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a new history record
func (r *HistoryRepository) Create(tx *sql.Tx, record *entity.ApprovalHistory) error {
	query := `
		INSERT INTO approval_history (
			request_id, actor_id, action, comments, step_number
		) VALUES (?, ?, ?, ?, ?)
	`

	args := []interface{}{
		record.RequestID,
		record.ActorID,
		string(record.Action),
		record.Comments,
		record.StepNumber,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// ListByRequest retrieves all history records for a request, ascending by
// timestamp.
func (r *HistoryRepository) ListByRequest(requestID string) ([]*entity.ApprovalHistory, error) {
	query := `
		SELECT id, request_id, actor_id, action, comments, step_number, created_at
		FROM approval_history
		WHERE request_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(query, requestID)
	if err != nil {
		r.logger.Error("Failed to get history by request ID", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.ApprovalHistory
	for rows.Next() {
		var record entity.ApprovalHistory
		var action string
		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.ActorID,
			&action,
			&record.Comments,
			&record.StepNumber,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		record.Action = workflow.Action(action)
		records = append(records, &record)
	}

	return records, rows.Err()
}
