package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/metadata"
	"github.com/inboxops/relay/model"
	"github.com/inboxops/relay/persistence"
	"github.com/inboxops/relay/util"
	"go.uber.org/zap"
)

// WorkflowExecutionService turns triggers into queued runs. Configuration
// problems (missing workflow, inactive workflow, unconnected integration)
// surface synchronously here; everything after the enqueue is the engine's.
type WorkflowExecutionService struct {
	metadataService metadata.MetadataService
	runDao          persistence.RunDao
	credentialDao   persistence.CredentialDao
	queue           persistence.Queue
	encoderDecoder  util.EncoderDecoder[model.RunExecutionRequest]
}

func NewWorkflowExecutionService(metadataService metadata.MetadataService, runDao persistence.RunDao,
	credentialDao persistence.CredentialDao, queue persistence.Queue) *WorkflowExecutionService {
	return &WorkflowExecutionService{
		metadataService: metadataService,
		runDao:          runDao,
		credentialDao:   credentialDao,
		queue:           queue,
		encoderDecoder:  util.NewJsonEncoderDecoder[model.RunExecutionRequest](),
	}
}

// StartRun handles a manual trigger. The workflow and its integrations are
// validated before anything is enqueued so the caller gets a 4xx instead of a
// failed run for configuration mistakes.
func (s *WorkflowExecutionService) StartRun(orgId string, workflowId string, triggerData map[string]any) (string, error) {
	wf, err := s.metadataService.GetActiveWorkflow(orgId, workflowId)
	if err != nil {
		return "", err
	}
	if err := s.checkCredentials(wf); err != nil {
		return "", err
	}
	return s.enqueue(wf, triggerData)
}

// StartWebhookRun handles an inbound webhook delivery. Lookup failures map to
// 404 at the edge; execution errors are only ever logged.
func (s *WorkflowExecutionService) StartWebhookRun(webhookId string, payload map[string]any) (string, error) {
	wf, err := s.metadataService.GetWorkflowByWebhookId(webhookId)
	if err != nil {
		return "", err
	}
	return s.enqueue(wf, payload)
}

func (s *WorkflowExecutionService) ListRuns(orgId string, workflowId string, limit int) ([]model.Run, error) {
	return s.runDao.ListRuns(orgId, workflowId, limit)
}

func (s *WorkflowExecutionService) GetRun(orgId string, runId string) (*model.Run, []model.StepResult, error) {
	run, err := s.runDao.GetRun(orgId, runId)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.runDao.ListStepResults(runId)
	if err != nil {
		return nil, nil, err
	}
	return run, results, nil
}

func (s *WorkflowExecutionService) enqueue(wf *model.Workflow, triggerData map[string]any) (string, error) {
	if triggerData == nil {
		triggerData = map[string]any{}
	}
	runId := uuid.New().String()
	run := model.Run{
		Id:          runId,
		OrgId:       wf.OrgId,
		WorkflowId:  wf.Id,
		State:       model.RUN_STATE_RUNNING,
		TriggerData: triggerData,
	}
	if err := s.runDao.CreateRun(run); err != nil {
		return "", err
	}
	req := model.RunExecutionRequest{
		RunId:       runId,
		OrgId:       wf.OrgId,
		WorkflowId:  wf.Id,
		TriggerData: triggerData,
	}
	encoded, err := s.encoderDecoder.Encode(req)
	if err != nil {
		return "", err
	}
	if err := s.queue.Push(persistence.RunQueueName, encoded); err != nil {
		return "", err
	}
	logger.Info("run enqueued", zap.String("runId", runId), zap.String("workflow", wf.Name))
	return runId, nil
}

func (s *WorkflowExecutionService) checkCredentials(wf *model.Workflow) error {
	seen := make(map[string]bool)
	for _, step := range wf.Steps {
		integrationName, _, ok := strings.Cut(step.Type, ":")
		if !ok || seen[integrationName] {
			continue
		}
		seen[integrationName] = true
		if _, err := s.credentialDao.Get(wf.OrgId, integrationName); err != nil {
			return err
		}
	}
	return nil
}
