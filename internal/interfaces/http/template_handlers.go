package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/apperr"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/service"
)

// StepRequest is one workflow step in template payloads
type StepRequest struct {
	StepName     string `json:"step_name"`
	ApproverRole string `json:"approver_role"`
	Order        int    `json:"order"`
}

// CreateTemplateRequest is the payload for POST /workflows
type CreateTemplateRequest struct {
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	WorkflowType     string        `json:"workflow_type"`
	Steps            []StepRequest `json:"steps"`
	AutoApprove      bool          `json:"auto_approve"`
	MaxDurationHours int           `json:"max_duration_hours"`
}

// UpdateTemplateRequest is the payload for PUT /workflows/:id; absent
// fields are left unchanged
type UpdateTemplateRequest struct {
	Name             *string        `json:"name"`
	Description      *string        `json:"description"`
	WorkflowType     *string        `json:"workflow_type"`
	Steps            *[]StepRequest `json:"steps"`
	IsActive         *bool          `json:"is_active"`
	AutoApprove      *bool          `json:"auto_approve"`
	MaxDurationHours *int           `json:"max_duration_hours"`
}

// ListTemplatesRequest binds query parameters for GET /workflows
type ListTemplatesRequest struct {
	pageParams
	ActiveOnly bool `form:"active_only"`
}

func toEntitySteps(steps []StepRequest) []entity.WorkflowStep {
	converted := make([]entity.WorkflowStep, len(steps))
	for i, step := range steps {
		converted[i] = entity.WorkflowStep{
			StepName:     step.StepName,
			ApproverRole: step.ApproverRole,
			Order:        step.Order,
		}
	}
	return converted
}

// CreateTemplate handles POST /workflows
func (h *Handlers) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("body", "invalid request body"))
		return
	}

	template, err := h.catalog.CreateTemplate(c.Request.Context(), service.CreateTemplateInput{
		Name:             req.Name,
		Description:      req.Description,
		WorkflowType:     req.WorkflowType,
		Steps:            toEntitySteps(req.Steps),
		AutoApprove:      req.AutoApprove,
		MaxDurationHours: req.MaxDurationHours,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, template)
}

// ListTemplates handles GET /workflows
func (h *Handlers) ListTemplates(c *gin.Context) {
	var req ListTemplatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, apperr.Validation("query", "invalid query parameters"))
		return
	}

	templates, total, page, limit, err := h.catalog.ListTemplates(c.Request.Context(), req.ActiveOnly, req.Page, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if templates == nil {
		templates = []*entity.WorkflowTemplate{}
	}

	respondOK(c, newListData(templates, page, limit, total))
}

// GetTemplate handles GET /workflows/:id
func (h *Handlers) GetTemplate(c *gin.Context) {
	template, err := h.catalog.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, template)
}

// UpdateTemplate handles PUT /workflows/:id
func (h *Handlers) UpdateTemplate(c *gin.Context) {
	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("body", "invalid request body"))
		return
	}

	input := service.UpdateTemplateInput{
		Name:             req.Name,
		Description:      req.Description,
		WorkflowType:     req.WorkflowType,
		IsActive:         req.IsActive,
		AutoApprove:      req.AutoApprove,
		MaxDurationHours: req.MaxDurationHours,
	}
	if req.Steps != nil {
		steps := toEntitySteps(*req.Steps)
		input.Steps = &steps
	}

	template, err := h.catalog.UpdateTemplate(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, template)
}

// DeleteTemplate handles DELETE /workflows/:id
func (h *Handlers) DeleteTemplate(c *gin.Context) {
	if err := h.catalog.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("Template deleted via API",
		zap.String("template_id", c.Param("id")),
		zap.String("actor_id", c.GetString(ctxActorID)))

	respondOK(c, gin.H{"deleted": true})
}
