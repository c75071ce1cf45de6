package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	api_v1 "github.com/inboxops/relay/api/v1"
	"github.com/inboxops/relay/model"
	"github.com/inboxops/relay/service"
	"github.com/inboxops/relay/util"
	"github.com/stretchr/testify/require"
)

type fakeMetadata struct {
	workflows map[string]model.Workflow
}

func (f *fakeMetadata) SaveWorkflow(wf model.Workflow) (*model.Workflow, error) {
	f.workflows[wf.Id] = wf
	return &wf, nil
}

func (f *fakeMetadata) DeleteWorkflow(orgId string, id string) error {
	delete(f.workflows, id)
	return nil
}

func (f *fakeMetadata) GetWorkflow(orgId string, id string) (*model.Workflow, error) {
	wf, ok := f.workflows[id]
	if !ok || wf.OrgId != orgId {
		return nil, api_v1.NotFoundError{Resource: "workflow", Id: id}
	}
	return &wf, nil
}

func (f *fakeMetadata) ListWorkflows(orgId string) ([]model.Workflow, error) {
	return nil, nil
}

func (f *fakeMetadata) GetActiveWorkflow(orgId string, id string) (*model.Workflow, error) {
	wf, err := f.GetWorkflow(orgId, id)
	if err != nil {
		return nil, err
	}
	if !wf.Active {
		return nil, api_v1.NotFoundError{Resource: "workflow", Id: id}
	}
	return wf, nil
}

func (f *fakeMetadata) GetWorkflowByWebhookId(webhookId string) (*model.Workflow, error) {
	for _, wf := range f.workflows {
		if wf.Active && wf.TriggerConfig["webhook_id"] == webhookId {
			return &wf, nil
		}
	}
	return nil, api_v1.NotFoundError{Resource: "webhook", Id: webhookId}
}

type memQueue struct {
	mu       sync.Mutex
	messages [][]byte
}

func (q *memQueue) Push(queueName string, message []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, message)
	return nil
}

func (q *memQueue) Pop(queueName string, batchSize int) ([]string, error) {
	return nil, nil
}

type memRunDao struct {
	mu   sync.Mutex
	runs map[string]model.Run
}

func (d *memRunDao) CreateRun(run model.Run) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runs[run.Id] = run
	return nil
}

func (d *memRunDao) GetRun(orgId string, runId string) (*model.Run, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	run, ok := d.runs[runId]
	if !ok {
		return nil, api_v1.NotFoundError{Resource: "run", Id: runId}
	}
	return &run, nil
}

func (d *memRunDao) RecordStepResult(result model.StepResult) error { return nil }

func (d *memRunDao) CompleteRun(runId string, state model.RunState, errorMessage string) error {
	return nil
}

func (d *memRunDao) ListRuns(orgId string, workflowId string, limit int) ([]model.Run, error) {
	return nil, nil
}

func (d *memRunDao) ListStepResults(runId string) ([]model.StepResult, error) { return nil, nil }

func (d *memRunDao) LastRunStartedAt(workflowId string) (int64, error) { return 0, nil }

func (d *memRunDao) FailAbandoned(olderThan time.Duration, message string) (int64, error) {
	return 0, nil
}

type memCredentialDao struct {
	sealed map[string][]byte
}

func (d *memCredentialDao) Save(orgId string, integration string, sealed []byte) error {
	d.sealed[orgId+":"+integration] = sealed
	return nil
}

func (d *memCredentialDao) Get(orgId string, integration string) ([]byte, error) {
	sealed, ok := d.sealed[orgId+":"+integration]
	if !ok {
		return nil, api_v1.CredentialMissingError{Integration: integration}
	}
	return sealed, nil
}

func (d *memCredentialDao) ListStatus(orgId string) ([]model.CredentialStatus, error) {
	var statuses []model.CredentialStatus
	for range d.sealed {
		statuses = append(statuses, model.CredentialStatus{Configured: true})
	}
	return statuses, nil
}

type serverFixture struct {
	server *Server
	queue  *memQueue
	runDao *memRunDao
	creds  *memCredentialDao
}

func newServerFixture(t *testing.T, workflows ...model.Workflow) *serverFixture {
	t.Helper()
	meta := &fakeMetadata{workflows: map[string]model.Workflow{}}
	for _, wf := range workflows {
		meta.workflows[wf.Id] = wf
	}
	queue := &memQueue{}
	runDao := &memRunDao{runs: map[string]model.Run{}}
	creds := &memCredentialDao{sealed: map[string][]byte{}}
	executionService := service.NewWorkflowExecutionService(meta, runDao, creds, queue)
	cipher, err := util.NewCipher("test-secret")
	require.NoError(t, err)
	credentialService := service.NewCredentialService(creds, nil, cipher)
	server, err := NewServer(0, meta, executionService, credentialService)
	require.NoError(t, err)
	return &serverFixture{server: server, queue: queue, runDao: runDao, creds: creds}
}

func webhookWorkflow() model.Workflow {
	return model.Workflow{
		Id:            "wf-1",
		OrgId:         "org-1",
		Name:          "hooked",
		TriggerType:   model.TRIGGER_TYPE_WEBHOOK,
		TriggerConfig: map[string]any{"webhook_id": "hook-1"},
		Steps:         []model.Step{{Type: "slack:send_message", Config: map[string]any{"channel": "C1", "message": "hi"}}},
		Active:        true,
	}
}

func TestWebhookAcknowledgesWithoutExecuting(t *testing.T) {
	f := newServerFixture(t, webhookWorkflow())

	body := bytes.NewBufferString(`{"channel":"C1","name":"Ada"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/hook-1", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, true, resp["success"])
	runId := resp["runId"].(string)
	require.NotEmpty(t, runId)

	// the run is on the queue, nothing executed it yet
	require.Len(t, f.queue.messages, 1)
	var queued model.RunExecutionRequest
	require.NoError(t, json.Unmarshal(f.queue.messages[0], &queued))
	require.Equal(t, runId, queued.RunId)
	require.Equal(t, "Ada", queued.TriggerData["name"])

	run, err := f.runDao.GetRun("org-1", runId)
	require.NoError(t, err)
	require.Equal(t, model.RUN_STATE_RUNNING, run.State)
}

func TestWebhookUnknownIdIs404(t *testing.T) {
	f := newServerFixture(t, webhookWorkflow())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/hook-unknown", nil)
	rec := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, f.queue.messages)
}

func TestWebhookInactiveWorkflowIs404(t *testing.T) {
	wf := webhookWorkflow()
	wf.Active = false
	f := newServerFixture(t, wf)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/hook-1", nil)
	rec := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookNonJsonBodyBecomesEmptyPayload(t *testing.T) {
	f := newServerFixture(t, webhookWorkflow())

	body := bytes.NewBufferString("name=Ada&channel=C1")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/hook-1", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var queued model.RunExecutionRequest
	require.NoError(t, json.Unmarshal(f.queue.messages[0], &queued))
	require.Empty(t, queued.TriggerData)
}

func TestManualTrigger(t *testing.T) {
	wf := webhookWorkflow()
	wf.TriggerType = model.TRIGGER_TYPE_MANUAL
	f := newServerFixture(t, wf)
	f.creds.sealed["org-1:slack"] = []byte("sealed")

	body := bytes.NewBufferString(`{"workflowId":"wf-1","triggerData":{"name":"Ada"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orgs/org-1/executions", body)
	rec := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, true, resp["success"])
	require.NotEmpty(t, resp["runId"])
	require.Len(t, f.queue.messages, 1)
}

func TestManualTriggerUnknownWorkflowIs404(t *testing.T) {
	f := newServerFixture(t)

	body := bytes.NewBufferString(`{"workflowId":"wf-missing"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orgs/org-1/executions", body)
	rec := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestManualTriggerMissingCredentialIs400(t *testing.T) {
	wf := webhookWorkflow()
	wf.TriggerType = model.TRIGGER_TYPE_MANUAL
	f := newServerFixture(t, wf)

	body := bytes.NewBufferString(`{"workflowId":"wf-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orgs/org-1/executions", body)
	rec := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "not connected")
	require.Empty(t, f.queue.messages)
}
