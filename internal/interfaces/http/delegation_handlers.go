package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/apperr"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/repository"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/service"
)

// CreateDelegationRequest is the payload for POST /delegations
type CreateDelegationRequest struct {
	DelegatorID   string     `json:"delegator_id"`
	DelegatorRole string     `json:"delegator_role"`
	DelegateID    string     `json:"delegate_id"`
	WorkflowType  *string    `json:"workflow_type"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
}

// UpdateDelegationRequest is the payload for PUT /delegations/:id; absent
// fields are left unchanged
type UpdateDelegationRequest struct {
	DelegateID   *string    `json:"delegate_id"`
	WorkflowType *string    `json:"workflow_type"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	IsActive     *bool      `json:"is_active"`
}

// ListDelegationsRequest binds query parameters for GET /delegations
type ListDelegationsRequest struct {
	pageParams
	DelegatorID string `form:"delegator_id"`
	DelegateID  string `form:"delegate_id"`
}

// CreateDelegation handles POST /delegations. An admin may register any
// delegation; any other caller may only delegate their own authority.
func (h *Handlers) CreateDelegation(c *gin.Context) {
	var req CreateDelegationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("body", "invalid request body"))
		return
	}

	actor := actorFrom(c)
	if actor.Role != entity.RoleAdmin {
		if req.DelegatorID != "" && req.DelegatorID != actor.ID {
			respondError(c, apperr.Forbidden("only an admin may delegate another identity's authority"))
			return
		}
		// A non-admin delegates their own authority with their own role claim
		req.DelegatorID = actor.ID
		req.DelegatorRole = actor.Role
	}

	delegation, err := h.delegations.CreateDelegation(c.Request.Context(), service.CreateDelegationInput{
		DelegatorID:   req.DelegatorID,
		DelegatorRole: req.DelegatorRole,
		DelegateID:    req.DelegateID,
		WorkflowType:  req.WorkflowType,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, delegation)
}

// ListDelegations handles GET /delegations
func (h *Handlers) ListDelegations(c *gin.Context) {
	var req ListDelegationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, apperr.Validation("query", "invalid query parameters"))
		return
	}

	delegations, total, page, limit, err := h.delegations.ListDelegations(c.Request.Context(), repository.DelegationFilter{
		DelegatorID: req.DelegatorID,
		DelegateID:  req.DelegateID,
	}, req.Page, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if delegations == nil {
		delegations = []*entity.Delegation{}
	}

	respondOK(c, newListData(delegations, page, limit, total))
}

// GetDelegation handles GET /delegations/:id
func (h *Handlers) GetDelegation(c *gin.Context) {
	delegation, err := h.delegations.GetDelegation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, delegation)
}

// UpdateDelegation handles PUT /delegations/:id
func (h *Handlers) UpdateDelegation(c *gin.Context) {
	delegation, err := h.delegations.GetDelegation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.requireDelegationOwner(c, delegation.DelegatorID); err != nil {
		respondError(c, err)
		return
	}

	var req UpdateDelegationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("body", "invalid request body"))
		return
	}

	updated, err := h.delegations.UpdateDelegation(c.Request.Context(), c.Param("id"), service.UpdateDelegationInput{
		DelegateID:   req.DelegateID,
		WorkflowType: req.WorkflowType,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		IsActive:     req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, updated)
}

// DeleteDelegation handles DELETE /delegations/:id
func (h *Handlers) DeleteDelegation(c *gin.Context) {
	delegation, err := h.delegations.GetDelegation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.requireDelegationOwner(c, delegation.DelegatorID); err != nil {
		respondError(c, err)
		return
	}

	if err := h.delegations.DeleteDelegation(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("Delegation deleted via API",
		zap.String("delegation_id", c.Param("id")),
		zap.String("actor_id", c.GetString(ctxActorID)))

	respondOK(c, gin.H{"deleted": true})
}

// requireDelegationOwner permits admins and the delegation's delegator.
func (h *Handlers) requireDelegationOwner(c *gin.Context, delegatorID string) error {
	actor := actorFrom(c)
	if actor.Role == entity.RoleAdmin || actor.ID == delegatorID {
		return nil
	}
	return apperr.Forbidden("only an admin or the delegator may modify a delegation")
}
