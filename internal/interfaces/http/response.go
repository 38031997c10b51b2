package http

import (
	"net/http"
	"time"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Pagination describes the page window of a list response
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ListData is the envelope for all list endpoints
type ListData struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

func newListData(items interface{}, page, limit, total int) ListData {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return ListData{
		Items: items,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	}
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalidWorkflow:
		status = http.StatusUnprocessableEntity
	case apperr.KindInvalidState, apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindForbidden:
		status = http.StatusForbidden
	}

	c.JSON(status, Response{Success: false, Error: apperr.MessageOf(err)})
}

// parseTimeParam accepts RFC3339 timestamps or bare dates.
func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
