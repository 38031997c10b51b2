package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/repository"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/pkg/database"
)

// testEnv wires the full service stack against a temp-file sqlite
// database with migrations applied. A file-backed database is used
// instead of :memory: because each pooled connection would otherwise see
// its own empty in-memory database.
type testEnv struct {
	db          *database.DB
	requests    *repository.RequestRepository
	catalog     *CatalogService
	engine      *Engine
	queries     *QueryService
	delegations *DelegationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run())

	templateRepo := repository.NewTemplateRepository(db.DB, logger)
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	delegationRepo := repository.NewDelegationRepository(db.DB, logger)

	return &testEnv{
		db:          db,
		requests:    requestRepo,
		catalog:     NewCatalogService(templateRepo, requestRepo, logger),
		engine:      NewEngine(db, templateRepo, requestRepo, historyRepo, delegationRepo, logger),
		queries:     NewQueryService(requestRepo, historyRepo, logger),
		delegations: NewDelegationService(delegationRepo, logger),
	}
}

func threeSteps() []entity.WorkflowStep {
	return []entity.WorkflowStep{
		{StepName: "Manager Review", ApproverRole: "manager", Order: 1},
		{StepName: "Director Review", ApproverRole: "director", Order: 2},
		{StepName: "VP Review", ApproverRole: "vp", Order: 3},
	}
}

func (env *testEnv) createTemplate(t *testing.T, steps []entity.WorkflowStep) *entity.WorkflowTemplate {
	t.Helper()

	template, err := env.catalog.CreateTemplate(context.Background(), CreateTemplateInput{
		Name:         "Purchase Approval",
		WorkflowType: "purchase",
		Steps:        steps,
	})
	require.NoError(t, err)
	return template
}

func (env *testEnv) createRequest(t *testing.T, workflowID string, requester Actor) *entity.ApprovalRequest {
	t.Helper()

	request, err := env.engine.CreateRequest(context.Background(), requester, CreateRequestInput{
		WorkflowID:  workflowID,
		Title:       "New laptops",
		RequestType: "equipment",
		Priority:    entity.PriorityHigh,
	})
	require.NoError(t, err)
	return request
}
