package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/inboxops/relay/config"
	"github.com/inboxops/relay/model"
	"github.com/stretchr/testify/require"
)

func newTestDaos(t *testing.T) (*sqliteWorkflowDao, *sqliteRunDao, *sqliteCredentialDao) {
	t.Helper()
	db, err := Open(config.SqliteStorageConfig{Path: filepath.Join(t.TempDir(), "relay.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSqliteWorkflowDao(db), NewSqliteRunDao(db), NewSqliteCredentialDao(db)
}

func TestRunLedger(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, workflowDao *sqliteWorkflowDao, runDao *sqliteRunDao,
	){
		"create and read back a run":      testCreateRun,
		"step results are ordered":        testStepResultOrdering,
		"close is idempotent":             testIdempotentClose,
		"listing is capped and ordered":   testListRuns,
		"abandoned runs are failed":       testFailAbandoned,
		"last run time tracks new runs":   testLastRunStartedAt,
		"runs never leak across tenants":  testOrgScoping,
	} {
		t.Run(scenario, func(t *testing.T) {
			workflowDao, runDao, _ := newTestDaos(t)
			fn(t, workflowDao, runDao)
		})
	}
}

func testCreateRun(t *testing.T, workflowDao *sqliteWorkflowDao, runDao *sqliteRunDao) {
	require.NoError(t, workflowDao.Save(model.Workflow{
		Id: "wf-1", OrgId: "org-1", Name: "welcome", TriggerType: model.TRIGGER_TYPE_MANUAL, Active: true,
	}))
	require.NoError(t, runDao.CreateRun(model.Run{
		Id: "run-1", OrgId: "org-1", WorkflowId: "wf-1",
		TriggerData: map[string]any{"channel": "C1"},
	}))

	run, err := runDao.GetRun("org-1", "run-1")
	require.NoError(t, err)
	require.Equal(t, model.RUN_STATE_RUNNING, run.State)
	require.Equal(t, "welcome", run.WorkflowName)
	require.Equal(t, "C1", run.TriggerData["channel"])
	require.Nil(t, run.CompletedAt)
}

func testStepResultOrdering(t *testing.T, workflowDao *sqliteWorkflowDao, runDao *sqliteRunDao) {
	require.NoError(t, runDao.CreateRun(model.Run{Id: "run-1", OrgId: "org-1", WorkflowId: "wf-1"}))
	for i := 1; i <= 3; i++ {
		require.NoError(t, runDao.RecordStepResult(model.StepResult{
			RunId: "run-1", StepNumber: i, State: model.RUN_STATE_COMPLETED,
			Output: map[string]any{"n": i},
		}))
	}
	results, err := runDao.ListStepResults("run-1")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, result := range results {
		require.Equal(t, i+1, result.StepNumber)
		require.Equal(t, "run-1", result.RunId)
	}
}

func testIdempotentClose(t *testing.T, workflowDao *sqliteWorkflowDao, runDao *sqliteRunDao) {
	require.NoError(t, runDao.CreateRun(model.Run{Id: "run-1", OrgId: "org-1", WorkflowId: "wf-1"}))

	require.NoError(t, runDao.CompleteRun("run-1", model.RUN_STATE_FAILED, "boom"))
	require.NoError(t, runDao.CompleteRun("run-1", model.RUN_STATE_COMPLETED, ""))

	run, err := runDao.GetRun("org-1", "run-1")
	require.NoError(t, err)
	require.Equal(t, model.RUN_STATE_FAILED, run.State)
	require.Equal(t, "boom", run.ErrorMessage)
	require.NotNil(t, run.CompletedAt)
}

func testListRuns(t *testing.T, workflowDao *sqliteWorkflowDao, runDao *sqliteRunDao) {
	for i := 0; i < 60; i++ {
		workflowId := "wf-1"
		if i%2 == 0 {
			workflowId = "wf-2"
		}
		require.NoError(t, runDao.CreateRun(model.Run{
			Id: fmt.Sprintf("run-%d", i), OrgId: "org-1", WorkflowId: workflowId,
			StartedAt: int64(1000 + i),
		}))
	}

	runs, err := runDao.ListRuns("org-1", "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 50)
	// newest first
	require.Equal(t, "run-59", runs[0].Id)
	require.True(t, runs[0].StartedAt >= runs[len(runs)-1].StartedAt)

	filtered, err := runDao.ListRuns("org-1", "wf-1", 50)
	require.NoError(t, err)
	require.Len(t, filtered, 30)
	for _, run := range filtered {
		require.Equal(t, "wf-1", run.WorkflowId)
	}
}

func testFailAbandoned(t *testing.T, workflowDao *sqliteWorkflowDao, runDao *sqliteRunDao) {
	old := time.Now().Add(-2 * time.Hour).Unix()
	require.NoError(t, runDao.CreateRun(model.Run{Id: "run-old", OrgId: "org-1", WorkflowId: "wf-1", StartedAt: old}))
	require.NoError(t, runDao.CreateRun(model.Run{Id: "run-new", OrgId: "org-1", WorkflowId: "wf-1"}))

	count, err := runDao.FailAbandoned(time.Hour, "abandoned by recovery sweep")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	oldRun, err := runDao.GetRun("org-1", "run-old")
	require.NoError(t, err)
	require.Equal(t, model.RUN_STATE_FAILED, oldRun.State)
	require.Equal(t, "abandoned by recovery sweep", oldRun.ErrorMessage)

	newRun, err := runDao.GetRun("org-1", "run-new")
	require.NoError(t, err)
	require.Equal(t, model.RUN_STATE_RUNNING, newRun.State)
}

func testLastRunStartedAt(t *testing.T, workflowDao *sqliteWorkflowDao, runDao *sqliteRunDao) {
	last, err := runDao.LastRunStartedAt("wf-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), last)

	require.NoError(t, runDao.CreateRun(model.Run{Id: "run-1", OrgId: "org-1", WorkflowId: "wf-1", StartedAt: 500}))
	require.NoError(t, runDao.CreateRun(model.Run{Id: "run-2", OrgId: "org-1", WorkflowId: "wf-1", StartedAt: 900}))

	last, err = runDao.LastRunStartedAt("wf-1")
	require.NoError(t, err)
	require.Equal(t, int64(900), last)
}

func testOrgScoping(t *testing.T, workflowDao *sqliteWorkflowDao, runDao *sqliteRunDao) {
	require.NoError(t, runDao.CreateRun(model.Run{Id: "run-1", OrgId: "org-1", WorkflowId: "wf-1"}))

	_, err := runDao.GetRun("org-2", "run-1")
	require.Error(t, err)

	runs, err := runDao.ListRuns("org-2", "", 50)
	require.NoError(t, err)
	require.Empty(t, runs)
}
