package persistence

import (
	"fmt"
	"time"

	"github.com/inboxops/relay/model"
)

// RunQueueName is the queue carrying RunExecutionRequests from trigger
// ingestion to the engine.
const RunQueueName = "runs"

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type WorkflowDao interface {
	Save(wf model.Workflow) error
	Delete(orgId string, id string) error
	Get(orgId string, id string) (*model.Workflow, error)
	GetByWebhookId(webhookId string) (*model.Workflow, error)
	List(orgId string) ([]model.Workflow, error)
	ListActiveByTrigger(triggerType model.TriggerType) ([]model.Workflow, error)
}

type RunDao interface {
	CreateRun(run model.Run) error
	GetRun(orgId string, runId string) (*model.Run, error)
	RecordStepResult(result model.StepResult) error
	CompleteRun(runId string, state model.RunState, errorMessage string) error
	ListRuns(orgId string, workflowId string, limit int) ([]model.Run, error)
	ListStepResults(runId string) ([]model.StepResult, error)
	LastRunStartedAt(workflowId string) (int64, error)
	FailAbandoned(olderThan time.Duration, message string) (int64, error)
}

type CredentialDao interface {
	Save(orgId string, integration string, sealed []byte) error
	Get(orgId string, integration string) ([]byte, error)
	ListStatus(orgId string) ([]model.CredentialStatus, error)
}

type Queue interface {
	Push(queueName string, message []byte) error
	Pop(queueName string, batchSize int) ([]string, error)
}
