package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	api_v1 "github.com/inboxops/relay/api/v1"
	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/model"
	"github.com/inboxops/relay/persistence"
	"go.uber.org/zap"
)

var _ persistence.WorkflowDao = new(sqliteWorkflowDao)

type sqliteWorkflowDao struct {
	baseDao
}

func NewSqliteWorkflowDao(db *sql.DB) *sqliteWorkflowDao {
	return &sqliteWorkflowDao{baseDao: baseDao{db: db}}
}

func (dao *sqliteWorkflowDao) Save(wf model.Workflow) error {
	triggerConfig, err := json.Marshal(wf.TriggerConfig)
	if err != nil {
		return err
	}
	steps, err := json.Marshal(wf.Steps)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	if wf.CreatedAt == 0 {
		wf.CreatedAt = now
	}
	_, err = dao.db.Exec(`INSERT INTO workflows(id, org_id, name, trigger_type, trigger_config, steps, active, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, trigger_type=excluded.trigger_type,
			trigger_config=excluded.trigger_config, steps=excluded.steps, active=excluded.active, updated_at=excluded.updated_at`,
		wf.Id, wf.OrgId, wf.Name, string(wf.TriggerType), string(triggerConfig), string(steps), wf.Active, wf.CreatedAt, now)
	if err != nil {
		logger.Error("error saving workflow", zap.String("id", wf.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (dao *sqliteWorkflowDao) Delete(orgId string, id string) error {
	res, err := dao.db.Exec(`DELETE FROM workflows WHERE org_id = ? AND id = ?`, orgId, id)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return api_v1.NotFoundError{Resource: "workflow", Id: id}
	}
	return nil
}

func (dao *sqliteWorkflowDao) Get(orgId string, id string) (*model.Workflow, error) {
	row := dao.db.QueryRow(`SELECT id, org_id, name, trigger_type, trigger_config, steps, active, created_at, updated_at
		FROM workflows WHERE org_id = ? AND id = ?`, orgId, id)
	return dao.scanWorkflow(row, id)
}

func (dao *sqliteWorkflowDao) GetByWebhookId(webhookId string) (*model.Workflow, error) {
	row := dao.db.QueryRow(`SELECT id, org_id, name, trigger_type, trigger_config, steps, active, created_at, updated_at
		FROM workflows WHERE trigger_type = ? AND json_extract(trigger_config, '$.webhook_id') = ?`,
		string(model.TRIGGER_TYPE_WEBHOOK), webhookId)
	return dao.scanWorkflow(row, webhookId)
}

func (dao *sqliteWorkflowDao) List(orgId string) ([]model.Workflow, error) {
	rows, err := dao.db.Query(`SELECT id, org_id, name, trigger_type, trigger_config, steps, active, created_at, updated_at
		FROM workflows WHERE org_id = ? ORDER BY created_at DESC`, orgId)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	defer rows.Close()
	return dao.scanWorkflows(rows)
}

func (dao *sqliteWorkflowDao) ListActiveByTrigger(triggerType model.TriggerType) ([]model.Workflow, error) {
	rows, err := dao.db.Query(`SELECT id, org_id, name, trigger_type, trigger_config, steps, active, created_at, updated_at
		FROM workflows WHERE trigger_type = ? AND active = 1`, string(triggerType))
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	defer rows.Close()
	return dao.scanWorkflows(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (dao *sqliteWorkflowDao) scanWorkflow(row rowScanner, id string) (*model.Workflow, error) {
	var wf model.Workflow
	var triggerType, triggerConfig, steps string
	err := row.Scan(&wf.Id, &wf.OrgId, &wf.Name, &triggerType, &triggerConfig, &steps, &wf.Active, &wf.CreatedAt, &wf.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, api_v1.NotFoundError{Resource: "workflow", Id: id}
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	wf.TriggerType = model.TriggerType(triggerType)
	if err := json.Unmarshal([]byte(triggerConfig), &wf.TriggerConfig); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(steps), &wf.Steps); err != nil {
		return nil, err
	}
	return &wf, nil
}

func (dao *sqliteWorkflowDao) scanWorkflows(rows *sql.Rows) ([]model.Workflow, error) {
	var workflows []model.Workflow
	for rows.Next() {
		wf, err := dao.scanWorkflow(rows, "")
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, *wf)
	}
	return workflows, rows.Err()
}
