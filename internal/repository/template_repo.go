package repository

import (
	"database/sql"
	"fmt"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"go.uber.org/zap"
)

// TemplateRepository handles workflow template database operations
type TemplateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB, logger *zap.Logger) *TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

const templateColumns = `id, name, description, workflow_type, steps, is_active,
	auto_approve, max_duration_hours, created_at, updated_at`

// Create inserts a new workflow template
func (r *TemplateRepository) Create(tx *sql.Tx, template *entity.WorkflowTemplate) error {
	stepsJSON, err := encodeSteps(template.Steps)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflow_templates (
			id, name, description, workflow_type, steps, is_active,
			auto_approve, max_duration_hours
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	args := []interface{}{
		template.ID,
		template.Name,
		template.Description,
		template.WorkflowType,
		stepsJSON,
		template.IsActive,
		template.AutoApprove,
		template.MaxDurationHours,
	}

	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to create template", zap.Error(err))
		return fmt.Errorf("failed to create template: %w", err)
	}

	if tx != nil {
		// Store-assigned timestamps are only visible after commit
		return nil
	}
	return r.refresh(template)
}

// GetByID retrieves a workflow template by ID. Returns (nil, nil) when
// the id is unknown.
func (r *TemplateRepository) GetByID(id string) (*entity.WorkflowTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM workflow_templates WHERE id = ?`

	template, err := r.scanTemplate(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get template by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return template, nil
}

// List retrieves templates ordered by creation time descending, with the
// total count for pagination.
func (r *TemplateRepository) List(activeOnly bool, limit, offset int) ([]*entity.WorkflowTemplate, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE is_active = 1"
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM workflow_templates" + where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count templates: %w", err)
	}

	query := `SELECT ` + templateColumns + ` FROM workflow_templates` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list templates", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*entity.WorkflowTemplate
	for rows.Next() {
		template, err := r.scanTemplate(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, template)
	}

	return templates, total, rows.Err()
}

// Update persists all mutable fields of a template
func (r *TemplateRepository) Update(tx *sql.Tx, template *entity.WorkflowTemplate) error {
	stepsJSON, err := encodeSteps(template.Steps)
	if err != nil {
		return err
	}

	query := `
		UPDATE workflow_templates
		SET name = ?, description = ?, workflow_type = ?, steps = ?,
			is_active = ?, auto_approve = ?, max_duration_hours = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	args := []interface{}{
		template.Name,
		template.Description,
		template.WorkflowType,
		stepsJSON,
		template.IsActive,
		template.AutoApprove,
		template.MaxDurationHours,
		template.ID,
	}

	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to update template", zap.String("id", template.ID), zap.Error(err))
		return fmt.Errorf("failed to update template: %w", err)
	}

	if tx != nil {
		return nil
	}
	return r.refresh(template)
}

// Delete hard-deletes a template
func (r *TemplateRepository) Delete(tx *sql.Tx, id string) error {
	query := `DELETE FROM workflow_templates WHERE id = ?`

	var err error
	if tx != nil {
		_, err = tx.Exec(query, id)
	} else {
		_, err = r.db.Exec(query, id)
	}
	if err != nil {
		r.logger.Error("Failed to delete template", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *TemplateRepository) scanTemplate(row rowScanner) (*entity.WorkflowTemplate, error) {
	var template entity.WorkflowTemplate
	var stepsJSON string

	err := row.Scan(
		&template.ID,
		&template.Name,
		&template.Description,
		&template.WorkflowType,
		&stepsJSON,
		&template.IsActive,
		&template.AutoApprove,
		&template.MaxDurationHours,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	steps, err := decodeSteps(stepsJSON)
	if err != nil {
		return nil, err
	}
	template.Steps = steps

	return &template, nil
}

// refresh reloads store-assigned timestamps after a write
func (r *TemplateRepository) refresh(template *entity.WorkflowTemplate) error {
	return r.db.QueryRow(
		"SELECT created_at, updated_at FROM workflow_templates WHERE id = ?",
		template.ID,
	).Scan(&template.CreatedAt, &template.UpdatedAt)
}
