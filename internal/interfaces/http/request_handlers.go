package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/apperr"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/service"
)

// CreateRequestRequest is the payload for POST /requests
type CreateRequestRequest struct {
	WorkflowID  string     `json:"workflow_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	RequestType string     `json:"request_type"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// ActionRequest is the payload for approve/reject/return
type ActionRequest struct {
	Comments string `json:"comments"`
}

// ListRequestsRequest binds query parameters for GET /requests
type ListRequestsRequest struct {
	pageParams
	Status      string `form:"status"`
	RequestType string `form:"request_type"`
	Priority    string `form:"priority"`
	From        string `form:"from"`
	To          string `form:"to"`
}

// CreateRequest handles POST /requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("body", "invalid request body"))
		return
	}

	request, err := h.engine.CreateRequest(c.Request.Context(), actorFrom(c), service.CreateRequestInput{
		WorkflowID:  req.WorkflowID,
		Title:       req.Title,
		Description: req.Description,
		RequestType: req.RequestType,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, request)
}

// ListRequests handles GET /requests
func (h *Handlers) ListRequests(c *gin.Context) {
	filter, req, err := h.bindListFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	requests, total, page, limit, err := h.queries.ListRequests(c.Request.Context(), filter, req.Page, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, newListData(emptyIfNil(requests), page, limit, total))
}

// GetRequest handles GET /requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	detail, err := h.queries.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, detail)
}

// ApproveRequest handles POST /requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	h.handleAction(c, h.engine.Approve)
}

// RejectRequest handles POST /requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	h.handleAction(c, h.engine.Reject)
}

// ReturnRequest handles POST /requests/:id/return
func (h *Handlers) ReturnRequest(c *gin.Context) {
	h.handleAction(c, h.engine.Return)
}

// CancelRequest handles POST /requests/:id/cancel
func (h *Handlers) CancelRequest(c *gin.Context) {
	result, err := h.engine.Cancel(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, result)
}

func (h *Handlers) handleAction(
	c *gin.Context,
	action func(ctx context.Context, requestID string, actor service.Actor, comments string) (*service.TransitionResult, error),
) {
	var req ActionRequest
	// An absent body means no comments; decoding failures are reported
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperr.Validation("body", "invalid request body"))
			return
		}
	}

	result, err := action(c.Request.Context(), c.Param("id"), actorFrom(c), req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("Request transition applied",
		zap.String("request_id", c.Param("id")),
		zap.String("actor_id", c.GetString(ctxActorID)),
		zap.String("status", result.Status.String()))

	respondOK(c, result)
}

// ListPending handles GET /requests/pending
func (h *Handlers) ListPending(c *gin.Context) {
	h.listForRole(c)
}

// ListAssigned handles GET /requests/assigned. Assigned and pending share
// the same worklist semantics: requests whose current approver role
// matches the caller's role.
func (h *Handlers) ListAssigned(c *gin.Context) {
	h.listForRole(c)
}

func (h *Handlers) listForRole(c *gin.Context) {
	var req pageParams
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, apperr.Validation("query", "invalid query parameters"))
		return
	}

	requests, total, page, limit, err := h.queries.ListForRole(c.Request.Context(), c.GetString(ctxActorRole), req.Page, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, newListData(emptyIfNil(requests), page, limit, total))
}

// ListCreated handles GET /requests/created
func (h *Handlers) ListCreated(c *gin.Context) {
	var req pageParams
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, apperr.Validation("query", "invalid query parameters"))
		return
	}

	requests, total, page, limit, err := h.queries.ListCreatedBy(c.Request.Context(), c.GetString(ctxActorID), req.Page, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, newListData(emptyIfNil(requests), page, limit, total))
}

// GetStatistics handles GET /requests/stats
func (h *Handlers) GetStatistics(c *gin.Context) {
	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		respondError(c, apperr.Validation("from", "invalid date"))
		return
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		respondError(c, apperr.Validation("to", "invalid date"))
		return
	}

	stats, err := h.queries.Statistics(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, stats)
}

// ExportRequests handles GET /requests/export: the filtered request list
// plus summary statistics as an xlsx workbook.
func (h *Handlers) ExportRequests(c *gin.Context) {
	filter, _, err := h.bindListFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	requests, err := h.queries.RequestsForExport(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := h.queries.Statistics(c.Request.Context(), filter.CreatedFrom, filter.CreatedTo)
	if err != nil {
		respondError(c, err)
		return
	}

	workbook, err := h.exporter.Build(requests, stats)
	if err != nil {
		respondError(c, apperr.Internal(err))
		return
	}

	filename := "approval-requests-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := workbook.Write(c.Writer); err != nil {
		h.logger.Error("Failed to stream workbook", zap.Error(err))
	}
}

func (h *Handlers) bindListFilter(c *gin.Context) (service.ListFilter, ListRequestsRequest, error) {
	var req ListRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return service.ListFilter{}, req, apperr.Validation("query", "invalid query parameters")
	}

	from, err := parseTimeParam(req.From)
	if err != nil {
		return service.ListFilter{}, req, apperr.Validation("from", "invalid date")
	}
	to, err := parseTimeParam(req.To)
	if err != nil {
		return service.ListFilter{}, req, apperr.Validation("to", "invalid date")
	}

	return service.ListFilter{
		Status:      req.Status,
		RequestType: req.RequestType,
		Priority:    req.Priority,
		CreatedFrom: from,
		CreatedTo:   to,
	}, req, nil
}

func emptyIfNil(requests []*entity.ApprovalRequest) []*entity.ApprovalRequest {
	if requests == nil {
		return []*entity.ApprovalRequest{}
	}
	return requests
}
