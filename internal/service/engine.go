package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/apperr"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/workflow"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/repository"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/pkg/database"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine is the transition engine. It owns every status change of an
// approval request: authorization of the acting identity against the
// current step's role (directly or through a delegation), computation of
// the next state, and the atomic write of the transition plus its history
// entry.
type Engine struct {
	db          *database.DB
	templates   *repository.TemplateRepository
	requests    *repository.RequestRepository
	history     *repository.HistoryRepository
	delegations *repository.DelegationRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewEngine creates a new transition engine
func NewEngine(
	db *database.DB,
	templates *repository.TemplateRepository,
	requests *repository.RequestRepository,
	history *repository.HistoryRepository,
	delegations *repository.DelegationRepository,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		db:          db,
		templates:   templates,
		requests:    requests,
		history:     history,
		delegations: delegations,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateRequestInput carries the fields of a new approval request.
type CreateRequestInput struct {
	WorkflowID  string
	Title       string
	Description string
	RequestType string
	Priority    string
	DueDate     *time.Time
}

// TransitionResult is the post-transition view of a request returned by
// approve/reject/return/cancel.
type TransitionResult struct {
	Status              workflow.Status `json:"status"`
	CurrentStep         *int            `json:"current_step,omitempty"`
	CurrentApproverRole *string         `json:"current_approver_role,omitempty"`
}

// CreateRequest instantiates a request against an active template,
// snapshotting the template's steps so later template edits cannot affect
// it. Creation writes no history entry; the audit trail begins at the
// first action.
func (e *Engine) CreateRequest(ctx context.Context, requester Actor, input CreateRequestInput) (*entity.ApprovalRequest, error) {
	input.Title = utils.SanitizeString(input.Title)
	input.Description = utils.SanitizeString(input.Description)
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.Validation("title", "title is required")
	}
	if input.Priority == "" {
		input.Priority = entity.PriorityMedium
	}
	if !entity.ValidPriorities[input.Priority] {
		return nil, apperr.Validationf("priority", "must be one of low, medium, high, urgent")
	}

	template, err := e.templates.GetByID(input.WorkflowID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if template == nil {
		return nil, apperr.NotFound("template", input.WorkflowID)
	}
	if !template.IsActive {
		return nil, apperr.InvalidWorkflow("template is inactive")
	}

	request := &entity.ApprovalRequest{
		ID:            uuid.NewString(),
		WorkflowID:    template.ID,
		WorkflowType:  template.WorkflowType,
		RequesterID:   requester.ID,
		Title:         input.Title,
		Description:   input.Description,
		RequestType:   input.RequestType,
		Priority:      input.Priority,
		DueDate:       input.DueDate,
		StepsSnapshot: template.Steps,
	}

	if len(template.Steps) == 0 {
		// Unreachable when catalog validation holds; defensive check.
		if !template.AutoApprove {
			return nil, apperr.InvalidWorkflow("template has no steps and auto_approve is disabled")
		}
		request.Status = workflow.StatusApproved
	} else {
		step := 1
		role := template.Steps[0].ApproverRole
		request.Status = workflow.StatusPending
		request.CurrentStep = &step
		request.CurrentApproverRole = &role
	}

	if err := e.requests.Create(nil, request); err != nil {
		return nil, apperr.Internal(err)
	}

	e.logger.Info("Approval request created",
		zap.String("request_id", request.ID),
		zap.String("workflow_id", request.WorkflowID),
		zap.String("requester_id", request.RequesterID),
		zap.String("status", request.Status.String()))

	return request, nil
}

// Approve advances the request one step, or approves it when the current
// step is the last one. Comments are optional.
func (e *Engine) Approve(ctx context.Context, requestID string, actor Actor, comments string) (*TransitionResult, error) {
	comments = utils.SanitizeString(comments)
	request, step, err := e.actionableRequest(requestID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(request, actor); err != nil {
		return nil, err
	}

	machine := workflow.NewApprovalMachine(request.Status)

	var toStep *int
	var toRole *string
	trigger := workflow.TriggerAdvance
	if request.AtLastStep() {
		trigger = workflow.TriggerApprove
	} else {
		next := step + 1
		role := request.StepsSnapshot[next-1].ApproverRole
		toStep = &next
		toRole = &role
	}

	if err := machine.Fire(trigger); err != nil {
		return nil, apperr.InvalidState(err.Error())
	}

	result, err := e.commitTransition(ctx, request, actor, step, machine.Status(), toStep, toRole, workflow.ActionApproved, comments)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Request approved at step",
		zap.String("request_id", request.ID),
		zap.String("actor_id", actor.ID),
		zap.Int("step", step),
		zap.String("new_status", result.Status.String()))

	return result, nil
}

// Reject rejects the request. Comments are mandatory.
func (e *Engine) Reject(ctx context.Context, requestID string, actor Actor, comments string) (*TransitionResult, error) {
	return e.finalize(ctx, requestID, actor, comments, workflow.TriggerReject, workflow.ActionRejected)
}

// Return sends the request back to the requester for revision. Comments
// are mandatory.
func (e *Engine) Return(ctx context.Context, requestID string, actor Actor, comments string) (*TransitionResult, error) {
	return e.finalize(ctx, requestID, actor, comments, workflow.TriggerReturn, workflow.ActionReturned)
}

// Cancel withdraws an actionable request. Only the original requester may
// cancel.
func (e *Engine) Cancel(ctx context.Context, requestID string, actor Actor) (*TransitionResult, error) {
	request, step, err := e.actionableRequest(requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != actor.ID {
		return nil, apperr.Forbidden("only the original requester may cancel a request")
	}

	machine := workflow.NewApprovalMachine(request.Status)
	if err := machine.Fire(workflow.TriggerCancel); err != nil {
		return nil, apperr.InvalidState(err.Error())
	}

	result, err := e.commitTransition(ctx, request, actor, step, machine.Status(), nil, nil, workflow.ActionCancelled, "")
	if err != nil {
		return nil, err
	}

	e.logger.Info("Request cancelled",
		zap.String("request_id", request.ID),
		zap.String("actor_id", actor.ID))

	return result, nil
}

// finalize handles the reject and return transitions, which share all
// preconditions and differ only in target status and recorded action.
func (e *Engine) finalize(ctx context.Context, requestID string, actor Actor, comments string, trigger workflow.Trigger, action workflow.Action) (*TransitionResult, error) {
	comments = utils.SanitizeString(comments)
	if strings.TrimSpace(comments) == "" {
		return nil, apperr.Validationf("comments", "comments are required when the action is %s", action)
	}

	request, step, err := e.actionableRequest(requestID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(request, actor); err != nil {
		return nil, err
	}

	machine := workflow.NewApprovalMachine(request.Status)
	if err := machine.Fire(trigger); err != nil {
		return nil, apperr.InvalidState(err.Error())
	}

	result, err := e.commitTransition(ctx, request, actor, step, machine.Status(), nil, nil, action, comments)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Request finalized",
		zap.String("request_id", request.ID),
		zap.String("actor_id", actor.ID),
		zap.String("action", action.String()),
		zap.Int("step", step))

	return result, nil
}

// actionableRequest loads a request and verifies it accepts actions.
func (e *Engine) actionableRequest(requestID string) (*entity.ApprovalRequest, int, error) {
	request, err := e.requests.GetByID(requestID)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	if request == nil {
		return nil, 0, apperr.NotFound("request", requestID)
	}
	if !request.Status.IsActionable() || request.CurrentStep == nil {
		return nil, 0, apperr.InvalidState("request is not actionable in status " + request.Status.String())
	}
	return request, *request.CurrentStep, nil
}

// authorize checks that the actor may act for the request's current
// approver role: either the actor holds the role itself, or an active
// delegation from a holder of the role names the actor as delegate,
// matches the request's workflow type and covers today. Role comparison
// is case-sensitive exact match.
func (e *Engine) authorize(request *entity.ApprovalRequest, actor Actor) error {
	if request.CurrentApproverRole == nil {
		return apperr.InvalidState("request has no current approver")
	}
	required := *request.CurrentApproverRole

	if actor.Role == required {
		return nil
	}

	now := e.now()
	delegations, err := e.delegations.FindActiveForRole(required, request.WorkflowType, now)
	if err != nil {
		return apperr.Internal(err)
	}
	for _, delegation := range delegations {
		if delegation.DelegateID == actor.ID && delegation.CoversDate(now) {
			return nil
		}
	}

	return apperr.Forbidden("actor is not authorized to act for role " + required)
}

// commitTransition performs the atomic read-modify-write: the conditional
// status/step update and the history append run in one transaction. A
// conditional update that matches no row means another action won the
// race; the caller gets InvalidState and is expected to re-fetch.
func (e *Engine) commitTransition(
	ctx context.Context,
	request *entity.ApprovalRequest,
	actor Actor,
	step int,
	toStatus workflow.Status,
	toStep *int,
	toRole *string,
	action workflow.Action,
	comments string,
) (*TransitionResult, error) {
	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		ok, err := e.requests.UpdateTransition(tx, request.ID, request.Status, step, toStatus, toStep, toRole)
		if err != nil {
			return apperr.Internal(err)
		}
		if !ok {
			return apperr.InvalidState("request was modified concurrently; re-fetch and retry")
		}

		record := &entity.ApprovalHistory{
			RequestID:  request.ID,
			ActorID:    actor.ID,
			Action:     action,
			Comments:   comments,
			StepNumber: step,
		}
		if err := e.history.Create(tx, record); err != nil {
			return apperr.Internal(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &TransitionResult{
		Status:              toStatus,
		CurrentStep:         toStep,
		CurrentApproverRole: toRole,
	}, nil
}
