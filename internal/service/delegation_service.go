package service

import (
	"context"
	"time"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/apperr"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/repository"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DelegationService manages the delegation registry. The transition
// engine reads the registry during authorization; mutations here never
// rewrite already-recorded history entries.
type DelegationService struct {
	delegations *repository.DelegationRepository
	logger      *zap.Logger
}

// NewDelegationService creates a new delegation service
func NewDelegationService(delegations *repository.DelegationRepository, logger *zap.Logger) *DelegationService {
	return &DelegationService{
		delegations: delegations,
		logger:      logger,
	}
}

// CreateDelegationInput carries the fields of a new delegation.
type CreateDelegationInput struct {
	DelegatorID   string
	DelegatorRole string
	DelegateID    string
	WorkflowType  *string
	StartDate     time.Time
	EndDate       *time.Time
}

// UpdateDelegationInput carries a partial delegation update; nil fields
// are left unchanged.
type UpdateDelegationInput struct {
	DelegateID   *string
	WorkflowType *string
	StartDate    *time.Time
	EndDate      *time.Time
	IsActive     *bool
}

// CreateDelegation validates and persists a new delegation.
func (s *DelegationService) CreateDelegation(ctx context.Context, input CreateDelegationInput) (*entity.Delegation, error) {
	if err := utils.RequireNonEmpty("delegator_id", input.DelegatorID); err != nil {
		return nil, apperr.Validation("delegator_id", err.Error())
	}
	if err := utils.RequireNonEmpty("delegator_role", input.DelegatorRole); err != nil {
		return nil, apperr.Validation("delegator_role", err.Error())
	}
	if err := utils.RequireNonEmpty("delegate_id", input.DelegateID); err != nil {
		return nil, apperr.Validation("delegate_id", err.Error())
	}
	if input.DelegatorID == input.DelegateID {
		return nil, apperr.Validation("delegate_id", "delegate must differ from delegator")
	}
	if input.StartDate.IsZero() {
		return nil, apperr.Validation("start_date", "start_date is required")
	}
	if err := utils.ValidateDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, apperr.Validation("end_date", err.Error())
	}

	delegation := &entity.Delegation{
		ID:            uuid.NewString(),
		DelegatorID:   input.DelegatorID,
		DelegatorRole: input.DelegatorRole,
		DelegateID:    input.DelegateID,
		WorkflowType:  input.WorkflowType,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		IsActive:      true,
	}

	if err := s.delegations.Create(nil, delegation); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("Delegation created",
		zap.String("delegation_id", delegation.ID),
		zap.String("delegator_id", delegation.DelegatorID),
		zap.String("delegate_id", delegation.DelegateID))

	return delegation, nil
}

// GetDelegation retrieves a delegation by id.
func (s *DelegationService) GetDelegation(ctx context.Context, id string) (*entity.Delegation, error) {
	delegation, err := s.delegations.GetByID(id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if delegation == nil {
		return nil, apperr.NotFound("delegation", id)
	}
	return delegation, nil
}

// ListDelegations returns delegations filtered by delegator or delegate.
func (s *DelegationService) ListDelegations(ctx context.Context, filter repository.DelegationFilter, page, limit int) ([]*entity.Delegation, int, int, int, error) {
	page, limit, offset := normalizePage(page, limit)

	delegations, total, err := s.delegations.List(filter, limit, offset)
	if err != nil {
		return nil, 0, 0, 0, apperr.Internal(err)
	}

	return delegations, total, page, limit, nil
}

// UpdateDelegation applies a partial update. Only an admin or the
// delegator may mutate a delegation; the HTTP layer enforces that rule
// with the delegation loaded through GetDelegation.
func (s *DelegationService) UpdateDelegation(ctx context.Context, id string, input UpdateDelegationInput) (*entity.Delegation, error) {
	delegation, err := s.delegations.GetByID(id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if delegation == nil {
		return nil, apperr.NotFound("delegation", id)
	}

	if input.DelegateID != nil {
		if err := utils.RequireNonEmpty("delegate_id", *input.DelegateID); err != nil {
			return nil, apperr.Validation("delegate_id", err.Error())
		}
		delegation.DelegateID = *input.DelegateID
	}
	if input.WorkflowType != nil {
		if *input.WorkflowType == "" {
			delegation.WorkflowType = nil
		} else {
			delegation.WorkflowType = input.WorkflowType
		}
	}
	if input.StartDate != nil {
		delegation.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		delegation.EndDate = input.EndDate
	}
	if input.IsActive != nil {
		delegation.IsActive = *input.IsActive
	}

	if delegation.DelegatorID == delegation.DelegateID {
		return nil, apperr.Validation("delegate_id", "delegate must differ from delegator")
	}
	if err := utils.ValidateDateRange(delegation.StartDate, delegation.EndDate); err != nil {
		return nil, apperr.Validation("end_date", err.Error())
	}

	if err := s.delegations.Update(nil, delegation); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("Delegation updated", zap.String("delegation_id", delegation.ID))

	return delegation, nil
}

// DeleteDelegation removes a delegation. Deletion has no retroactive
// effect on history entries already written under it.
func (s *DelegationService) DeleteDelegation(ctx context.Context, id string) error {
	delegation, err := s.delegations.GetByID(id)
	if err != nil {
		return apperr.Internal(err)
	}
	if delegation == nil {
		return apperr.NotFound("delegation", id)
	}

	if err := s.delegations.Delete(nil, id); err != nil {
		return apperr.Internal(err)
	}

	s.logger.Info("Delegation deleted", zap.String("delegation_id", id))
	return nil
}
