package model

type RunState string

const RUN_STATE_RUNNING RunState = "running"
const RUN_STATE_COMPLETED RunState = "completed"
const RUN_STATE_FAILED RunState = "failed"

type Run struct {
	Id           string         `json:"id"`
	OrgId        string         `json:"orgId"`
	WorkflowId   string         `json:"workflowId"`
	WorkflowName string         `json:"workflow_name"`
	State        RunState       `json:"status"`
	TriggerData  map[string]any `json:"triggerData,omitempty"`
	StartedAt    int64          `json:"started_at"`
	CompletedAt  *int64         `json:"completed_at"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

type StepResult struct {
	RunId      string         `json:"runId"`
	StepNumber int            `json:"stepNumber"`
	State      RunState       `json:"status"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	RecordedAt int64          `json:"recordedAt"`
}

// RunExecutionRequest is the unit of work carried on the run queue between
// trigger ingestion and the engine.
type RunExecutionRequest struct {
	RunId       string         `json:"runId"`
	OrgId       string         `json:"orgId"`
	WorkflowId  string         `json:"workflowId"`
	TriggerData map[string]any `json:"triggerData"`
}
