package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/inboxops/relay/integration"
	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/metadata"
	"github.com/inboxops/relay/model"
	"github.com/inboxops/relay/persistence"
	"github.com/inboxops/relay/util"
	"go.uber.org/zap"
)

// reserved namespace the trigger payload is published under in the run context
const triggerNamespace = "webhook"

// RunEngine drains RunExecutionRequests from its channel through a fixed pool
// of workers. Steps within one run execute strictly in order; separate runs
// ride separate workers and share nothing but the database.
type RunEngine struct {
	metadataService metadata.MetadataService
	runDao          persistence.RunDao
	credentialDao   persistence.CredentialDao
	registry        *integration.Registry
	cipher          *util.Cipher
	requestChan     chan util.Task
	workers         []*util.Worker
	wg              *sync.WaitGroup
}

func NewRunEngine(metadataService metadata.MetadataService, runDao persistence.RunDao,
	credentialDao persistence.CredentialDao, registry *integration.Registry,
	cipher *util.Cipher, capacity int, wg *sync.WaitGroup) *RunEngine {
	if capacity <= 0 {
		capacity = 4
	}
	e := &RunEngine{
		metadataService: metadataService,
		runDao:          runDao,
		credentialDao:   credentialDao,
		registry:        registry,
		cipher:          cipher,
		requestChan:     make(chan util.Task, capacity*4),
		wg:              wg,
	}
	for i := 0; i < capacity; i++ {
		worker := util.NewWorker(fmt.Sprintf("run-executor-%d", i), wg, e.requestChan, e.handle)
		e.workers = append(e.workers, worker)
	}
	return e
}

func (e *RunEngine) Start() {
	for _, w := range e.workers {
		w.Start()
	}
}

func (e *RunEngine) Stop() error {
	for _, w := range e.workers {
		w.Stop()
	}
	return nil
}

// Submit hands a run to the pool. It blocks only when the request buffer is full.
func (e *RunEngine) Submit(req model.RunExecutionRequest) {
	e.requestChan <- req
}

func (e *RunEngine) handle(task util.Task) error {
	req, ok := task.(model.RunExecutionRequest)
	if !ok {
		return fmt.Errorf("unexpected task type %T", task)
	}
	e.executeRun(req)
	return nil
}

func (e *RunEngine) executeRun(req model.RunExecutionRequest) {
	wf, err := e.metadataService.GetWorkflow(req.OrgId, req.WorkflowId)
	if err != nil {
		logger.Error("workflow not found for queued run", zap.String("runId", req.RunId), zap.String("workflowId", req.WorkflowId), zap.Error(err))
		e.completeRun(req.RunId, model.RUN_STATE_FAILED, err.Error())
		return
	}
	logger.Info("run started", zap.String("runId", req.RunId), zap.String("workflow", wf.Name), zap.Int("steps", len(wf.Steps)))
	triggerData := req.TriggerData
	if triggerData == nil {
		triggerData = map[string]any{}
	}
	runData := map[string]any{triggerNamespace: triggerData}
	for i, step := range wf.Steps {
		stepNumber := i + 1
		resolved := util.ResolveStepConfig(runData, step.Config)
		output, err := e.executeStep(req.OrgId, step.Type, resolved, runData)
		if err != nil {
			logger.Error("step failed, halting run", zap.String("runId", req.RunId), zap.Int("step", stepNumber), zap.String("type", step.Type), zap.Error(err))
			e.recordStepResult(model.StepResult{
				RunId:      req.RunId,
				StepNumber: stepNumber,
				State:      model.RUN_STATE_FAILED,
				Error:      err.Error(),
			})
			e.completeRun(req.RunId, model.RUN_STATE_FAILED, err.Error())
			return
		}
		runData[fmt.Sprintf("step%d", stepNumber)] = output
		e.recordStepResult(model.StepResult{
			RunId:      req.RunId,
			StepNumber: stepNumber,
			State:      model.RUN_STATE_COMPLETED,
			Output:     output,
		})
	}
	e.completeRun(req.RunId, model.RUN_STATE_COMPLETED, "")
	logger.Info("run completed", zap.String("runId", req.RunId), zap.String("workflow", wf.Name))
}

func (e *RunEngine) executeStep(orgId string, stepType string, config map[string]any, runData map[string]any) (map[string]any, error) {
	if stepType == "script" {
		return evalScript(config, runData)
	}
	integrationName, action, ok := strings.Cut(stepType, ":")
	if !ok {
		return nil, fmt.Errorf("invalid step type %s", stepType)
	}
	adapter, err := e.registry.Get(integrationName)
	if err != nil {
		return nil, err
	}
	creds, err := e.loadCredentials(orgId, integrationName)
	if err != nil {
		return nil, err
	}
	return adapter.Execute(context.Background(), action, creds, config, runData)
}

func (e *RunEngine) loadCredentials(orgId string, integrationName string) (map[string]any, error) {
	sealed, err := e.credentialDao.Get(orgId, integrationName)
	if err != nil {
		return nil, err
	}
	plaintext, err := e.cipher.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("unsealing %s credentials: %w", integrationName, err)
	}
	var creds map[string]any
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("decoding %s credentials: %w", integrationName, err)
	}
	return creds, nil
}

func (e *RunEngine) recordStepResult(result model.StepResult) {
	if err := e.runDao.RecordStepResult(result); err != nil {
		logger.Error("error recording step result", zap.String("runId", result.RunId), zap.Int("step", result.StepNumber), zap.Error(err))
	}
}

func (e *RunEngine) completeRun(runId string, state model.RunState, errorMessage string) {
	if err := e.runDao.CompleteRun(runId, state, errorMessage); err != nil {
		logger.Error("error closing run", zap.String("runId", runId), zap.Error(err))
	}
}
