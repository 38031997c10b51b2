package service

import (
	"context"
	"strings"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/apperr"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService manages workflow templates: validation, listing and the
// structural guards that protect in-flight requests from step edits.
type CatalogService struct {
	templates *repository.TemplateRepository
	requests  *repository.RequestRepository
	logger    *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	templates *repository.TemplateRepository,
	requests *repository.RequestRepository,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		templates: templates,
		requests:  requests,
		logger:    logger,
	}
}

// CreateTemplateInput carries the fields of a new template.
type CreateTemplateInput struct {
	Name             string
	Description      string
	WorkflowType     string
	Steps            []entity.WorkflowStep
	AutoApprove      bool
	MaxDurationHours int
}

// UpdateTemplateInput carries a partial template update; nil fields are
// left unchanged.
type UpdateTemplateInput struct {
	Name             *string
	Description      *string
	WorkflowType     *string
	Steps            *[]entity.WorkflowStep
	IsActive         *bool
	AutoApprove      *bool
	MaxDurationHours *int
}

// CreateTemplate validates and persists a new workflow template.
func (s *CatalogService) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*entity.WorkflowTemplate, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperr.Validation("name", "name is required")
	}

	steps, err := entity.NormalizeSteps(input.Steps)
	if err != nil {
		return nil, apperr.Validation("steps", err.Error())
	}
	if len(steps) == 0 && !input.AutoApprove {
		return nil, apperr.Validation("steps", "a template without steps must have auto_approve enabled")
	}
	if input.MaxDurationHours < 0 {
		return nil, apperr.Validation("max_duration_hours", "must not be negative")
	}

	template := &entity.WorkflowTemplate{
		ID:               uuid.NewString(),
		Name:             input.Name,
		Description:      input.Description,
		WorkflowType:     input.WorkflowType,
		Steps:            steps,
		IsActive:         true,
		AutoApprove:      input.AutoApprove,
		MaxDurationHours: input.MaxDurationHours,
	}

	if err := s.templates.Create(nil, template); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("Workflow template created",
		zap.String("template_id", template.ID),
		zap.String("name", template.Name),
		zap.Int("steps", len(template.Steps)))

	return template, nil
}

// GetTemplate retrieves a template by id.
func (s *CatalogService) GetTemplate(ctx context.Context, id string) (*entity.WorkflowTemplate, error) {
	template, err := s.templates.GetByID(id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if template == nil {
		return nil, apperr.NotFound("template", id)
	}
	return template, nil
}

// ListTemplates returns templates ordered by creation time descending.
func (s *CatalogService) ListTemplates(ctx context.Context, activeOnly bool, page, limit int) ([]*entity.WorkflowTemplate, int, int, int, error) {
	page, limit, offset := normalizePage(page, limit)

	templates, total, err := s.templates.List(activeOnly, limit, offset)
	if err != nil {
		return nil, 0, 0, 0, apperr.Internal(err)
	}

	return templates, total, page, limit, nil
}

// UpdateTemplate applies a partial update. Step-list changes are rejected
// while the template has requests in a non-terminal status so that
// in-flight requests keep a coherent snapshot lineage.
func (s *CatalogService) UpdateTemplate(ctx context.Context, id string, input UpdateTemplateInput) (*entity.WorkflowTemplate, error) {
	template, err := s.templates.GetByID(id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if template == nil {
		return nil, apperr.NotFound("template", id)
	}

	if input.Steps != nil {
		inFlight, err := s.requests.CountNonTerminal(id)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if inFlight > 0 {
			return nil, apperr.Conflict("cannot change steps while the template has requests in progress; wait for them to finish or create a new template")
		}
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperr.Validation("name", "name is required")
		}
		template.Name = *input.Name
	}
	if input.Description != nil {
		template.Description = *input.Description
	}
	if input.WorkflowType != nil {
		template.WorkflowType = *input.WorkflowType
	}
	if input.Steps != nil {
		steps, err := entity.NormalizeSteps(*input.Steps)
		if err != nil {
			return nil, apperr.Validation("steps", err.Error())
		}
		template.Steps = steps
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}
	if input.AutoApprove != nil {
		template.AutoApprove = *input.AutoApprove
	}
	if input.MaxDurationHours != nil {
		if *input.MaxDurationHours < 0 {
			return nil, apperr.Validation("max_duration_hours", "must not be negative")
		}
		template.MaxDurationHours = *input.MaxDurationHours
	}

	if len(template.Steps) == 0 && !template.AutoApprove {
		return nil, apperr.Validation("steps", "a template without steps must have auto_approve enabled")
	}

	if err := s.templates.Update(nil, template); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("Workflow template updated", zap.String("template_id", template.ID))

	return template, nil
}

// DeleteTemplate hard-deletes a template unless any request referencing
// it is still non-terminal.
func (s *CatalogService) DeleteTemplate(ctx context.Context, id string) error {
	template, err := s.templates.GetByID(id)
	if err != nil {
		return apperr.Internal(err)
	}
	if template == nil {
		return apperr.NotFound("template", id)
	}

	inFlight, err := s.requests.CountNonTerminal(id)
	if err != nil {
		return apperr.Internal(err)
	}
	if inFlight > 0 {
		return apperr.Conflict("cannot delete a template while requests created from it are in progress")
	}

	if err := s.templates.Delete(nil, id); err != nil {
		return apperr.Internal(err)
	}

	s.logger.Info("Workflow template deleted", zap.String("template_id", id))
	return nil
}
