package service

import (
	"context"
	"time"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/apperr"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/workflow"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/repository"
	"go.uber.org/zap"
)

// QueryService serves the read side: request detail with history,
// filtered lists, worklists and aggregate statistics.
type QueryService struct {
	requests *repository.RequestRepository
	history  *repository.HistoryRepository
	logger   *zap.Logger
}

// NewQueryService creates a new query service
func NewQueryService(
	requests *repository.RequestRepository,
	history *repository.HistoryRepository,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		requests: requests,
		history:  history,
		logger:   logger,
	}
}

// RequestDetail is a request together with its ordered history.
type RequestDetail struct {
	Request *entity.ApprovalRequest   `json:"request"`
	History []*entity.ApprovalHistory `json:"history"`
}

// ListFilter narrows request listings. Unset fields are no-ops; set
// fields combine conjunctively.
type ListFilter struct {
	Status      string
	RequestType string
	Priority    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// GetRequest returns a request and its full history, ascending by
// timestamp.
func (s *QueryService) GetRequest(ctx context.Context, id string) (*RequestDetail, error) {
	request, err := s.requests.GetByID(id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if request == nil {
		return nil, apperr.NotFound("request", id)
	}

	history, err := s.history.ListByRequest(id)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &RequestDetail{Request: request, History: history}, nil
}

// ListRequests returns requests matching the filter, creation time
// descending.
func (s *QueryService) ListRequests(ctx context.Context, filter ListFilter, page, limit int) ([]*entity.ApprovalRequest, int, int, int, error) {
	if filter.Status != "" && !workflow.Status(filter.Status).IsValid() {
		return nil, 0, 0, 0, apperr.Validationf("status", "unknown status %q", filter.Status)
	}
	if filter.Priority != "" && !entity.ValidPriorities[filter.Priority] {
		return nil, 0, 0, 0, apperr.Validationf("priority", "unknown priority %q", filter.Priority)
	}

	page, limit, offset := normalizePage(page, limit)

	requests, total, err := s.requests.List(repository.RequestFilter{
		Status:      workflow.Status(filter.Status),
		RequestType: filter.RequestType,
		Priority:    filter.Priority,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
	}, limit, offset)
	if err != nil {
		return nil, 0, 0, 0, apperr.Internal(err)
	}

	return requests, total, page, limit, nil
}

// ListForRole returns requests currently waiting on the given approver
// role. Backs both the pending and the assigned worklist views.
func (s *QueryService) ListForRole(ctx context.Context, role string, page, limit int) ([]*entity.ApprovalRequest, int, int, int, error) {
	if role == "" {
		return nil, 0, 0, 0, apperr.Validation("role", "role is required")
	}

	page, limit, offset := normalizePage(page, limit)

	requests, total, err := s.requests.List(repository.RequestFilter{
		ApproverRole:   role,
		ActionableOnly: true,
	}, limit, offset)
	if err != nil {
		return nil, 0, 0, 0, apperr.Internal(err)
	}

	return requests, total, page, limit, nil
}

// ListCreatedBy returns all requests authored by the requester,
// regardless of status.
func (s *QueryService) ListCreatedBy(ctx context.Context, requesterID string, page, limit int) ([]*entity.ApprovalRequest, int, int, int, error) {
	if requesterID == "" {
		return nil, 0, 0, 0, apperr.Validation("requester_id", "requester id is required")
	}

	page, limit, offset := normalizePage(page, limit)

	requests, total, err := s.requests.List(repository.RequestFilter{
		RequesterID: requesterID,
	}, limit, offset)
	if err != nil {
		return nil, 0, 0, 0, apperr.Internal(err)
	}

	return requests, total, page, limit, nil
}

// Statistics aggregates request counts and average processing time,
// optionally bounded to a creation-date range.
func (s *QueryService) Statistics(ctx context.Context, from, to *time.Time) (*entity.RequestStatistics, error) {
	stats, err := s.requests.Statistics(from, to)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return stats, nil
}

// RequestsForExport collects every request matching the filter, paging
// through the store, for the workbook exporter.
func (s *QueryService) RequestsForExport(ctx context.Context, filter ListFilter) ([]*entity.ApprovalRequest, error) {
	var all []*entity.ApprovalRequest
	for page := 1; ; page++ {
		requests, total, _, limit, err := s.ListRequests(ctx, filter, page, maxPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, requests...)
		if len(all) >= total || len(requests) < limit {
			break
		}
	}
	return all, nil
}
