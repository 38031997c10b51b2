package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/workflow"
	"go.uber.org/zap"
)

// RequestRepository handles approval request database operations
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// RequestFilter narrows List results. Zero-valued fields are no-ops; set
// fields combine with AND.
type RequestFilter struct {
	Status         workflow.Status
	RequestType    string
	Priority       string
	RequesterID    string
	ApproverRole   string
	ActionableOnly bool
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

const requestColumns = `id, workflow_id, workflow_type, requester_id, title, description,
	request_type, priority, due_date, steps_snapshot, status, current_step,
	current_approver_role, created_at, updated_at`

// Create inserts a new approval request
func (r *RequestRepository) Create(tx *sql.Tx, request *entity.ApprovalRequest) error {
	snapshotJSON, err := encodeSteps(request.StepsSnapshot)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO approval_requests (
			id, workflow_id, workflow_type, requester_id, title, description,
			request_type, priority, due_date, steps_snapshot, status,
			current_step, current_approver_role
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	args := []interface{}{
		request.ID,
		request.WorkflowID,
		request.WorkflowType,
		request.RequesterID,
		request.Title,
		request.Description,
		request.RequestType,
		request.Priority,
		request.DueDate,
		snapshotJSON,
		string(request.Status),
		request.CurrentStep,
		request.CurrentApproverRole,
	}

	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	if tx != nil {
		return nil
	}
	return r.db.QueryRow(
		"SELECT created_at, updated_at FROM approval_requests WHERE id = ?",
		request.ID,
	).Scan(&request.CreatedAt, &request.UpdatedAt)
}

// GetByID retrieves an approval request by ID. Returns (nil, nil) when
// the id is unknown.
func (r *RequestRepository) GetByID(id string) (*entity.ApprovalRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM approval_requests WHERE id = ?`

	request, err := r.scanRequest(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return request, nil
}

// List retrieves approval requests matching the filter, ordered by
// creation time descending, with the total matching count.
func (r *RequestRepository) List(filter RequestFilter, limit, offset int) ([]*entity.ApprovalRequest, int, error) {
	where, args := buildRequestWhere(filter)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM approval_requests"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	query := `SELECT ` + requestColumns + ` FROM approval_requests` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.ApprovalRequest
	for rows.Next() {
		request, err := r.scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, request)
	}

	return requests, total, rows.Err()
}

// UpdateTransition writes the new (status, step, approver role) of a
// request conditionally on the previously-read status and step still
// holding. Returns false without error when the condition no longer holds,
// which is how the loser of a concurrent transition race is detected.
func (r *RequestRepository) UpdateTransition(
	tx *sql.Tx,
	id string,
	fromStatus workflow.Status,
	fromStep int,
	toStatus workflow.Status,
	toStep *int,
	toRole *string,
) (bool, error) {
	query := `
		UPDATE approval_requests
		SET status = ?, current_step = ?, current_approver_role = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND current_step = ?
	`

	args := []interface{}{
		string(toStatus),
		toStep,
		toRole,
		id,
		string(fromStatus),
		fromStep,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to update request transition", zap.String("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to update request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected == 1, nil
}

// CountNonTerminal returns the number of requests referencing a workflow
// template that are still actionable. Used to guard template step edits
// and deletion.
func (r *RequestRepository) CountNonTerminal(workflowID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM approval_requests
		WHERE workflow_id = ? AND status IN (?, ?)
	`

	var count int
	err := r.db.QueryRow(query, workflowID,
		string(workflow.StatusPending), string(workflow.StatusInProgress),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}

	return count, nil
}

// Statistics aggregates counts by status, request type and priority plus
// the average processing time in hours across terminal requests. An empty
// terminal set yields 0, not an error.
func (r *RequestRepository) Statistics(from, to *time.Time) (*entity.RequestStatistics, error) {
	where, args := buildRequestWhere(RequestFilter{CreatedFrom: from, CreatedTo: to})

	stats := &entity.RequestStatistics{
		ByStatus:      make(map[string]int),
		ByRequestType: make(map[string]int),
		ByPriority:    make(map[string]int),
	}

	if err := r.db.QueryRow("SELECT COUNT(*) FROM approval_requests"+where, args...).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}

	for _, group := range []struct {
		column string
		dest   map[string]int
	}{
		{"status", stats.ByStatus},
		{"request_type", stats.ByRequestType},
		{"priority", stats.ByPriority},
	} {
		query := fmt.Sprintf(
			"SELECT %s, COUNT(*) FROM approval_requests%s GROUP BY %s",
			group.column, where, group.column,
		)
		rows, err := r.db.Query(query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to group by %s: %w", group.column, err)
		}
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s group: %w", group.column, err)
			}
			group.dest[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	terminal := workflow.TerminalStatuses()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(terminal)), ", ")
	avgQuery := fmt.Sprintf(`
		SELECT COALESCE(AVG((julianday(updated_at) - julianday(created_at)) * 24.0), 0)
		FROM approval_requests%s`, whereAnd(where, "status IN ("+placeholders+")"))

	avgArgs := append(append([]interface{}{}, args...), statusArgs(terminal)...)
	if err := r.db.QueryRow(avgQuery, avgArgs...).Scan(&stats.AverageProcessingHours); err != nil {
		return nil, fmt.Errorf("failed to compute average processing hours: %w", err)
	}

	return stats, nil
}

func buildRequestWhere(filter RequestFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.RequestType != "" {
		clauses = append(clauses, "request_type = ?")
		args = append(args, filter.RequestType)
	}
	if filter.Priority != "" {
		clauses = append(clauses, "priority = ?")
		args = append(args, filter.Priority)
	}
	if filter.RequesterID != "" {
		clauses = append(clauses, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.ApproverRole != "" {
		clauses = append(clauses, "current_approver_role = ?")
		args = append(args, filter.ApproverRole)
	}
	if filter.ActionableOnly {
		clauses = append(clauses, "status IN (?, ?)")
		args = append(args, string(workflow.StatusPending), string(workflow.StatusInProgress))
	}
	// created_at is stored as UTC text without a zone offset, while bound
	// time.Time values carry one; datetime() normalizes both sides so the
	// comparison is not lexicographic across zone formats.
	if filter.CreatedFrom != nil {
		clauses = append(clauses, "datetime(created_at) >= datetime(?)")
		args = append(args, filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		clauses = append(clauses, "datetime(created_at) <= datetime(?)")
		args = append(args, filter.CreatedTo.UTC())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func whereAnd(where, clause string) string {
	if where == "" {
		return " WHERE " + clause
	}
	return where + " AND " + clause
}

func statusArgs(statuses []workflow.Status) []interface{} {
	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}
	return args
}

func (r *RequestRepository) scanRequest(row rowScanner) (*entity.ApprovalRequest, error) {
	var request entity.ApprovalRequest
	var snapshotJSON string
	var status string
	var dueDate sql.NullTime
	var currentStep sql.NullInt64
	var currentRole sql.NullString

	err := row.Scan(
		&request.ID,
		&request.WorkflowID,
		&request.WorkflowType,
		&request.RequesterID,
		&request.Title,
		&request.Description,
		&request.RequestType,
		&request.Priority,
		&dueDate,
		&snapshotJSON,
		&status,
		&currentStep,
		&currentRole,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	snapshot, err := decodeSteps(snapshotJSON)
	if err != nil {
		return nil, err
	}
	request.StepsSnapshot = snapshot
	request.Status = workflow.Status(status)

	if dueDate.Valid {
		request.DueDate = &dueDate.Time
	}
	if currentStep.Valid {
		step := int(currentStep.Int64)
		request.CurrentStep = &step
	}
	if currentRole.Valid {
		request.CurrentApproverRole = &currentRole.String
	}

	return &request, nil
}
