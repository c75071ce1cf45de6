package model

type TriggerType string

const TRIGGER_TYPE_MANUAL TriggerType = "manual"
const TRIGGER_TYPE_WEBHOOK TriggerType = "webhook"
const TRIGGER_TYPE_SCHEDULE TriggerType = "schedule"

type Workflow struct {
	Id            string         `json:"id"`
	OrgId         string         `json:"orgId"`
	Name          string         `json:"name"`
	TriggerType   TriggerType    `json:"triggerType"`
	TriggerConfig map[string]any `json:"triggerConfig"`
	Steps         []Step         `json:"steps"`
	Active        bool           `json:"active"`
	CreatedAt     int64          `json:"createdAt"`
	UpdatedAt     int64          `json:"updatedAt"`
}

type Step struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config"`
}

type WorkflowRunRequest struct {
	WorkflowId  string         `json:"workflowId"`
	TriggerData map[string]any `json:"triggerData"`
}
