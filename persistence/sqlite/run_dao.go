package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	api_v1 "github.com/inboxops/relay/api/v1"
	"github.com/inboxops/relay/model"
	"github.com/inboxops/relay/persistence"
)

const maxRunPageSize = 50

var _ persistence.RunDao = new(sqliteRunDao)

type sqliteRunDao struct {
	baseDao
}

func NewSqliteRunDao(db *sql.DB) *sqliteRunDao {
	return &sqliteRunDao{baseDao: baseDao{db: db}}
}

func (dao *sqliteRunDao) CreateRun(run model.Run) error {
	triggerData, err := json.Marshal(run.TriggerData)
	if err != nil {
		return err
	}
	if run.StartedAt == 0 {
		run.StartedAt = time.Now().Unix()
	}
	_, err = dao.db.Exec(`INSERT INTO runs(id, org_id, workflow_id, status, trigger_data, started_at)
		VALUES(?,?,?,?,?,?)`,
		run.Id, run.OrgId, run.WorkflowId, string(model.RUN_STATE_RUNNING), string(triggerData), run.StartedAt)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (dao *sqliteRunDao) GetRun(orgId string, runId string) (*model.Run, error) {
	row := dao.db.QueryRow(`SELECT r.id, r.org_id, r.workflow_id, COALESCE(w.name, ''), r.status, r.trigger_data,
			r.started_at, r.completed_at, COALESCE(r.error_message, '')
		FROM runs r LEFT JOIN workflows w ON w.id = r.workflow_id
		WHERE r.org_id = ? AND r.id = ?`, orgId, runId)
	return scanRun(row, runId)
}

// RecordStepResult is append-only: a step number is written at most once per run.
func (dao *sqliteRunDao) RecordStepResult(result model.StepResult) error {
	var output []byte
	var err error
	if result.Output != nil {
		output, err = json.Marshal(result.Output)
		if err != nil {
			return err
		}
	}
	if result.RecordedAt == 0 {
		result.RecordedAt = time.Now().Unix()
	}
	_, err = dao.db.Exec(`INSERT INTO run_step_results(run_id, step_number, status, output, error, recorded_at)
		VALUES(?,?,?,?,?,?)`,
		result.RunId, result.StepNumber, string(result.State), string(output), result.Error, result.RecordedAt)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

// CompleteRun closes a run exactly once. A second close finds no row in
// running state and is a no-op.
func (dao *sqliteRunDao) CompleteRun(runId string, state model.RunState, errorMessage string) error {
	_, err := dao.db.Exec(`UPDATE runs SET status = ?, completed_at = ?, error_message = ?
		WHERE id = ? AND status = ?`,
		string(state), time.Now().Unix(), errorMessage, runId, string(model.RUN_STATE_RUNNING))
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (dao *sqliteRunDao) ListRuns(orgId string, workflowId string, limit int) ([]model.Run, error) {
	if limit <= 0 || limit > maxRunPageSize {
		limit = maxRunPageSize
	}
	query := `SELECT r.id, r.org_id, r.workflow_id, COALESCE(w.name, ''), r.status, r.trigger_data,
			r.started_at, r.completed_at, COALESCE(r.error_message, '')
		FROM runs r LEFT JOIN workflows w ON w.id = r.workflow_id
		WHERE r.org_id = ?`
	args := []any{orgId}
	if len(workflowId) > 0 {
		query += ` AND r.workflow_id = ?`
		args = append(args, workflowId)
	}
	query += ` ORDER BY r.started_at DESC LIMIT ?`
	args = append(args, limit)
	rows, err := dao.db.Query(query, args...)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	defer rows.Close()
	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows, "")
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (dao *sqliteRunDao) ListStepResults(runId string) ([]model.StepResult, error) {
	rows, err := dao.db.Query(`SELECT run_id, step_number, status, output, error, recorded_at
		FROM run_step_results WHERE run_id = ? ORDER BY step_number ASC`, runId)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	defer rows.Close()
	var results []model.StepResult
	for rows.Next() {
		var result model.StepResult
		var state, output string
		if err := rows.Scan(&result.RunId, &result.StepNumber, &state, &output, &result.Error, &result.RecordedAt); err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		result.State = model.RunState(state)
		if len(output) > 0 {
			if err := json.Unmarshal([]byte(output), &result.Output); err != nil {
				return nil, err
			}
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (dao *sqliteRunDao) LastRunStartedAt(workflowId string) (int64, error) {
	var startedAt int64
	err := dao.db.QueryRow(`SELECT COALESCE(MAX(started_at), 0) FROM runs WHERE workflow_id = ?`, workflowId).Scan(&startedAt)
	if err != nil {
		return 0, persistence.StorageLayerError{Message: err.Error()}
	}
	return startedAt, nil
}

func (dao *sqliteRunDao) FailAbandoned(olderThan time.Duration, message string) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := dao.db.Exec(`UPDATE runs SET status = ?, completed_at = ?, error_message = ?
		WHERE status = ? AND started_at < ?`,
		string(model.RUN_STATE_FAILED), time.Now().Unix(), message, string(model.RUN_STATE_RUNNING), cutoff)
	if err != nil {
		return 0, persistence.StorageLayerError{Message: err.Error()}
	}
	return res.RowsAffected()
}

func scanRun(row rowScanner, runId string) (*model.Run, error) {
	var run model.Run
	var state, triggerData string
	var completedAt sql.NullInt64
	err := row.Scan(&run.Id, &run.OrgId, &run.WorkflowId, &run.WorkflowName, &state, &triggerData,
		&run.StartedAt, &completedAt, &run.ErrorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, api_v1.NotFoundError{Resource: "run", Id: runId}
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	run.State = model.RunState(state)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Int64
	}
	if err := json.Unmarshal([]byte(triggerData), &run.TriggerData); err != nil {
		return nil, err
	}
	return &run, nil
}
