// Package report builds downloadable xlsx reports over approval requests.
package report

import (
	"fmt"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Exporter renders approval requests and their aggregate statistics into
// an Excel workbook.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

const (
	requestsSheet = "Requests"
	summarySheet  = "Summary"
)

var requestHeaders = []string{
	"ID", "Title", "Workflow Type", "Request Type", "Priority",
	"Status", "Current Step", "Approver Role", "Requester", "Created At", "Updated At",
}

// Build renders the workbook: one sheet listing the requests, one sheet
// summarizing counts and average processing time.
func (e *Exporter) Build(requests []*entity.ApprovalRequest, stats *entity.RequestStatistics) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(requestsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create requests sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for col, header := range requestHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(requestsSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, request := range requests {
		step := ""
		if request.CurrentStep != nil {
			step = fmt.Sprintf("%d", *request.CurrentStep)
		}
		role := ""
		if request.CurrentApproverRole != nil {
			role = *request.CurrentApproverRole
		}

		values := []interface{}{
			request.ID,
			request.Title,
			request.WorkflowType,
			request.RequestType,
			request.Priority,
			request.Status.String(),
			step,
			role,
			request.RequesterID,
			request.CreatedAt.Format("2006-01-02 15:04:05"),
			request.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(requestsSheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	if err := e.writeSummary(f, stats); err != nil {
		return nil, err
	}

	// Drop the default sheet created by excelize
	if err := f.DeleteSheet("Sheet1"); err != nil {
		e.logger.Warn("Failed to remove default sheet", zap.Error(err))
	}

	e.logger.Info("Report workbook built", zap.Int("requests", len(requests)))
	return f, nil
}

func (e *Exporter) writeSummary(f *excelize.File, stats *entity.RequestStatistics) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Total Requests", stats.Total},
		{"Average Processing Hours", stats.AverageProcessingHours},
		{},
		{"By Status", ""},
	}
	for status, count := range stats.ByStatus {
		rows = append(rows, []interface{}{status, count})
	}
	rows = append(rows, []interface{}{}, []interface{}{"By Request Type", ""})
	for requestType, count := range stats.ByRequestType {
		rows = append(rows, []interface{}{requestType, count})
	}
	rows = append(rows, []interface{}{}, []interface{}{"By Priority", ""})
	for priority, count := range stats.ByPriority {
		rows = append(rows, []interface{}{priority, count})
	}

	for i, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return fmt.Errorf("failed to compute summary cell: %w", err)
			}
			if err := f.SetCellValue(summarySheet, cell, value); err != nil {
				return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
			}
		}
	}

	return nil
}
