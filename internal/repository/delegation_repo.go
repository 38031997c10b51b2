package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"go.uber.org/zap"
)

// DelegationRepository handles delegation database operations
type DelegationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDelegationRepository creates a new delegation repository
func NewDelegationRepository(db *sql.DB, logger *zap.Logger) *DelegationRepository {
	return &DelegationRepository{
		db:     db,
		logger: logger,
	}
}

// DelegationFilter narrows List results by delegator or delegate identity.
type DelegationFilter struct {
	DelegatorID string
	DelegateID  string
}

const delegationColumns = `id, delegator_id, delegator_role, delegate_id, workflow_type,
	start_date, end_date, is_active, created_at, updated_at`

// Create inserts a new delegation
func (r *DelegationRepository) Create(tx *sql.Tx, delegation *entity.Delegation) error {
	query := `
		INSERT INTO delegations (
			id, delegator_id, delegator_role, delegate_id, workflow_type,
			start_date, end_date, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	args := []interface{}{
		delegation.ID,
		delegation.DelegatorID,
		delegation.DelegatorRole,
		delegation.DelegateID,
		delegation.WorkflowType,
		delegation.StartDate,
		delegation.EndDate,
		delegation.IsActive,
	}

	var err error
	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to create delegation", zap.Error(err))
		return fmt.Errorf("failed to create delegation: %w", err)
	}

	if tx != nil {
		return nil
	}
	return r.db.QueryRow(
		"SELECT created_at, updated_at FROM delegations WHERE id = ?",
		delegation.ID,
	).Scan(&delegation.CreatedAt, &delegation.UpdatedAt)
}

// GetByID retrieves a delegation by ID. Returns (nil, nil) when the id is
// unknown.
func (r *DelegationRepository) GetByID(id string) (*entity.Delegation, error) {
	query := `SELECT ` + delegationColumns + ` FROM delegations WHERE id = ?`

	delegation, err := r.scanDelegation(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get delegation by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get delegation: %w", err)
	}

	return delegation, nil
}

// List retrieves delegations matching the filter, newest first, with the
// total matching count.
func (r *DelegationRepository) List(filter DelegationFilter, limit, offset int) ([]*entity.Delegation, int, error) {
	var clauses []string
	var args []interface{}

	if filter.DelegatorID != "" {
		clauses = append(clauses, "delegator_id = ?")
		args = append(args, filter.DelegatorID)
	}
	if filter.DelegateID != "" {
		clauses = append(clauses, "delegate_id = ?")
		args = append(args, filter.DelegateID)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM delegations"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count delegations: %w", err)
	}

	query := `SELECT ` + delegationColumns + ` FROM delegations` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list delegations", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list delegations: %w", err)
	}
	defer rows.Close()

	var delegations []*entity.Delegation
	for rows.Next() {
		delegation, err := r.scanDelegation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan delegation: %w", err)
		}
		delegations = append(delegations, delegation)
	}

	return delegations, total, rows.Err()
}

// Update persists all mutable fields of a delegation
func (r *DelegationRepository) Update(tx *sql.Tx, delegation *entity.Delegation) error {
	query := `
		UPDATE delegations
		SET delegator_id = ?, delegator_role = ?, delegate_id = ?,
			workflow_type = ?, start_date = ?, end_date = ?, is_active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	args := []interface{}{
		delegation.DelegatorID,
		delegation.DelegatorRole,
		delegation.DelegateID,
		delegation.WorkflowType,
		delegation.StartDate,
		delegation.EndDate,
		delegation.IsActive,
		delegation.ID,
	}

	var err error
	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to update delegation", zap.String("id", delegation.ID), zap.Error(err))
		return fmt.Errorf("failed to update delegation: %w", err)
	}

	return nil
}

// Delete removes a delegation. Completed history entries are unaffected.
func (r *DelegationRepository) Delete(tx *sql.Tx, id string) error {
	query := `DELETE FROM delegations WHERE id = ?`

	var err error
	if tx != nil {
		_, err = tx.Exec(query, id)
	} else {
		_, err = r.db.Exec(query, id)
	}
	if err != nil {
		r.logger.Error("Failed to delete delegation", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete delegation: %w", err)
	}

	return nil
}

// FindActiveForRole returns active delegations whose delegator holds the
// given approver role, scoped to the workflow type (a NULL scope matches
// all types) and covering the given date.
func (r *DelegationRepository) FindActiveForRole(approverRole, workflowType string, on time.Time) ([]*entity.Delegation, error) {
	query := `SELECT ` + delegationColumns + ` FROM delegations
		WHERE is_active = 1
			AND delegator_role = ?
			AND (workflow_type IS NULL OR workflow_type = ?)
			AND date(start_date) <= date(?)
			AND (end_date IS NULL OR date(end_date) >= date(?))
	`

	rows, err := r.db.Query(query, approverRole, workflowType, on, on)
	if err != nil {
		r.logger.Error("Failed to find delegations for role", zap.String("role", approverRole), zap.Error(err))
		return nil, fmt.Errorf("failed to find delegations: %w", err)
	}
	defer rows.Close()

	var delegations []*entity.Delegation
	for rows.Next() {
		delegation, err := r.scanDelegation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delegation: %w", err)
		}
		delegations = append(delegations, delegation)
	}

	return delegations, rows.Err()
}

func (r *DelegationRepository) scanDelegation(row rowScanner) (*entity.Delegation, error) {
	var delegation entity.Delegation
	var workflowType sql.NullString
	var endDate sql.NullTime

	err := row.Scan(
		&delegation.ID,
		&delegation.DelegatorID,
		&delegation.DelegatorRole,
		&delegation.DelegateID,
		&workflowType,
		&delegation.StartDate,
		&endDate,
		&delegation.IsActive,
		&delegation.CreatedAt,
		&delegation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if workflowType.Valid {
		delegation.WorkflowType = &workflowType.String
	}
	if endDate.Valid {
		delegation.EndDate = &endDate.Time
	}

	return &delegation, nil
}
