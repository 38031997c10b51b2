package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/apperr"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/workflow"
)

func seedRequests(t *testing.T, env *testEnv) (templateID string) {
	t.Helper()
	ctx := context.Background()
	template := env.createTemplate(t, threeSteps())

	inputs := []CreateRequestInput{
		{WorkflowID: template.ID, Title: "Laptops", RequestType: "equipment", Priority: entity.PriorityHigh},
		{WorkflowID: template.ID, Title: "Monitors", RequestType: "equipment", Priority: entity.PriorityLow},
		{WorkflowID: template.ID, Title: "Conference trip", RequestType: "travel", Priority: entity.PriorityHigh},
	}
	for i, input := range inputs {
		requester := Actor{ID: "user-1", Role: "employee"}
		if i == 2 {
			requester = Actor{ID: "user-2", Role: "employee"}
		}
		_, err := env.engine.CreateRequest(ctx, requester, input)
		require.NoError(t, err)
	}
	return template.ID
}

func TestListRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedRequests(t, env)

	t.Run("unfiltered", func(t *testing.T) {
		requests, total, page, limit, err := env.queries.ListRequests(ctx, ListFilter{}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, 1, page)
		assert.Equal(t, defaultPageSize, limit)
		assert.Len(t, requests, 3)
	})

	t.Run("filters combine conjunctively", func(t *testing.T) {
		requests, total, _, _, err := env.queries.ListRequests(ctx, ListFilter{
			RequestType: "equipment",
			Priority:    entity.PriorityHigh,
		}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, requests, 1)
		assert.Equal(t, "Laptops", requests[0].Title)
	})

	t.Run("status filter", func(t *testing.T) {
		requests, total, _, _, err := env.queries.ListRequests(ctx, ListFilter{
			Status: string(workflow.StatusPending),
		}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, requests, 3)
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		_, _, _, _, err := env.queries.ListRequests(ctx, ListFilter{Status: "draft"}, 1, 10)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("unknown priority is a validation error", func(t *testing.T) {
		_, _, _, _, err := env.queries.ListRequests(ctx, ListFilter{Priority: "critical"}, 1, 10)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("date range matches regardless of filter zone", func(t *testing.T) {
		// Rows store created_at as UTC text; a filter bound in a
		// non-UTC zone must still cover them.
		tokyo := time.FixedZone("UTC+9", 9*60*60)
		from := time.Now().In(tokyo).Add(-time.Hour)
		to := time.Now().In(tokyo).Add(time.Hour)

		requests, total, _, _, err := env.queries.ListRequests(ctx, ListFilter{
			CreatedFrom: &from,
			CreatedTo:   &to,
		}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, requests, 3)

		stats, err := env.queries.Statistics(ctx, &from, &to)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Total)
	})

	t.Run("pagination", func(t *testing.T) {
		first, total, page, limit, err := env.queries.ListRequests(ctx, ListFilter{}, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, 1, page)
		assert.Equal(t, 2, limit)
		assert.Len(t, first, 2)

		second, total, _, _, err := env.queries.ListRequests(ctx, ListFilter{}, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, second, 1)
	})
}

func TestWorklists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedRequests(t, env)

	t.Run("requests waiting on a role", func(t *testing.T) {
		requests, total, _, _, err := env.queries.ListForRole(ctx, "manager", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, requests, 3)

		requests, total, _, _, err = env.queries.ListForRole(ctx, "director", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, requests)
	})

	t.Run("worklist follows the request through steps", func(t *testing.T) {
		requests, _, _, _, err := env.queries.ListForRole(ctx, "manager", 1, 1)
		require.NoError(t, err)
		require.NotEmpty(t, requests)

		_, err = env.engine.Approve(ctx, requests[0].ID, Actor{ID: "mgr-1", Role: "manager"}, "")
		require.NoError(t, err)

		_, total, _, _, err := env.queries.ListForRole(ctx, "manager", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		_, total, _, _, err = env.queries.ListForRole(ctx, "director", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("role is required", func(t *testing.T) {
		_, _, _, _, err := env.queries.ListForRole(ctx, "", 1, 10)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("requests created by a requester", func(t *testing.T) {
		requests, total, _, _, err := env.queries.ListCreatedBy(ctx, "user-1", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, requests, 2)
	})
}

func TestGetRequestDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	template := env.createTemplate(t, threeSteps())
	request := env.createRequest(t, template.ID, Actor{ID: "user-1", Role: "employee"})

	_, err := env.engine.Approve(ctx, request.ID, Actor{ID: "mgr-1", Role: "manager"}, "fine")
	require.NoError(t, err)
	_, err = env.engine.Return(ctx, request.ID, Actor{ID: "dir-1", Role: "director"}, "needs a second quote")
	require.NoError(t, err)

	detail, err := env.queries.GetRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusReturned, detail.Request.Status)
	require.Len(t, detail.History, 2)
	assert.Equal(t, workflow.ActionApproved, detail.History[0].Action)
	assert.Equal(t, workflow.ActionReturned, detail.History[1].Action)
	assert.Equal(t, "needs a second quote", detail.History[1].Comments)

	_, err = env.queries.GetRequest(ctx, "no-such-id")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestStatistics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedRequests(t, env)

	requests, _, _, _, err := env.queries.ListRequests(ctx, ListFilter{RequestType: "travel"}, 1, 1)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	_, err = env.engine.Reject(ctx, requests[0].ID, Actor{ID: "mgr-1", Role: "manager"}, "no budget")
	require.NoError(t, err)

	stats, err := env.queries.Statistics(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[string(workflow.StatusPending)])
	assert.Equal(t, 1, stats.ByStatus[string(workflow.StatusRejected)])
	assert.Equal(t, 2, stats.ByRequestType["equipment"])
	assert.Equal(t, 1, stats.ByRequestType["travel"])
	assert.Equal(t, 2, stats.ByPriority[entity.PriorityHigh])
	assert.Equal(t, 1, stats.ByPriority[entity.PriorityLow])
	assert.GreaterOrEqual(t, stats.AverageProcessingHours, 0.0)

	t.Run("empty range yields zeroes", func(t *testing.T) {
		from := time.Now().AddDate(1, 0, 0)
		stats, err := env.queries.Statistics(ctx, &from, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Total)
		assert.Empty(t, stats.ByStatus)
		assert.Zero(t, stats.AverageProcessingHours)
	})
}

func TestStatisticsAverageProcessingHours(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	template := env.createTemplate(t, threeSteps()[:1])

	// Two terminal requests backdated to 2h and 4h of processing time.
	for _, span := range []string{"-2 hours", "-4 hours"} {
		request := env.createRequest(t, template.ID, Actor{ID: "user-1", Role: "employee"})
		_, err := env.engine.Reject(ctx, request.ID, Actor{ID: "mgr-1", Role: "manager"}, "over budget")
		require.NoError(t, err)
		_, err = env.db.Exec(
			"UPDATE approval_requests SET created_at = datetime(updated_at, ?) WHERE id = ?",
			span, request.ID,
		)
		require.NoError(t, err)
	}

	// A pending request must not contribute to the average.
	env.createRequest(t, template.ID, Actor{ID: "user-1", Role: "employee"})

	stats, err := env.queries.Statistics(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.InDelta(t, 3.0, stats.AverageProcessingHours, 0.01)
}

func TestRequestsForExport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedRequests(t, env)

	all, err := env.queries.RequestsForExport(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	equipment, err := env.queries.RequestsForExport(ctx, ListFilter{RequestType: "equipment"})
	require.NoError(t, err)
	assert.Len(t, equipment, 2)
}
