package metadata

import (
	"fmt"
	"time"

	c "github.com/patrickmn/go-cache"

	api_v1 "github.com/inboxops/relay/api/v1"
	"github.com/inboxops/relay/integration"
	"github.com/inboxops/relay/model"
	"github.com/inboxops/relay/persistence"
	"github.com/google/uuid"
)

type MetadataService interface {
	SaveWorkflow(wf model.Workflow) (*model.Workflow, error)
	DeleteWorkflow(orgId string, id string) error
	GetWorkflow(orgId string, id string) (*model.Workflow, error)
	ListWorkflows(orgId string) ([]model.Workflow, error)
	GetActiveWorkflow(orgId string, id string) (*model.Workflow, error)
	GetWorkflowByWebhookId(webhookId string) (*model.Workflow, error)
}

type metadataService struct {
	workflowDao persistence.WorkflowDao
	registry    *integration.Registry
	cache       *c.Cache
}

func NewMetadataService(workflowDao persistence.WorkflowDao, registry *integration.Registry) MetadataService {
	return &metadataService{
		workflowDao: workflowDao,
		registry:    registry,
		cache:       c.New(30*time.Second, 5*time.Minute),
	}
}

func (s *metadataService) SaveWorkflow(wf model.Workflow) (*model.Workflow, error) {
	if err := s.validate(&wf); err != nil {
		return nil, err
	}
	if len(wf.Id) == 0 {
		wf.Id = uuid.New().String()
	}
	if err := s.workflowDao.Save(wf); err != nil {
		return nil, err
	}
	s.cache.Delete(workflowKey(wf.OrgId, wf.Id))
	if webhookId, ok := wf.TriggerConfig["webhook_id"].(string); ok {
		s.cache.Delete(webhookKey(webhookId))
	}
	return &wf, nil
}

func (s *metadataService) validate(wf *model.Workflow) error {
	if len(wf.Name) == 0 {
		return api_v1.ValidationError{Message: "workflow name can not be empty"}
	}
	if len(wf.OrgId) == 0 {
		return api_v1.ValidationError{Message: "workflow organization can not be empty"}
	}
	switch wf.TriggerType {
	case model.TRIGGER_TYPE_MANUAL:
	case model.TRIGGER_TYPE_WEBHOOK:
		if wf.TriggerConfig == nil {
			wf.TriggerConfig = make(map[string]any)
		}
		if _, ok := wf.TriggerConfig["webhook_id"].(string); !ok {
			wf.TriggerConfig["webhook_id"] = uuid.New().String()
		}
	case model.TRIGGER_TYPE_SCHEDULE:
		interval, ok := asSeconds(wf.TriggerConfig["interval_seconds"])
		if !ok || interval <= 0 {
			return api_v1.ValidationError{Message: "schedule trigger requires a positive interval_seconds"}
		}
	default:
		return api_v1.ValidationError{Message: fmt.Sprintf("invalid trigger type %s", wf.TriggerType)}
	}
	for i, step := range wf.Steps {
		if err := s.registry.ValidateStepType(step.Type); err != nil {
			return api_v1.ValidationError{Message: fmt.Sprintf("step %d: %s", i+1, err.Error())}
		}
	}
	return nil
}

func (s *metadataService) DeleteWorkflow(orgId string, id string) error {
	wf, err := s.workflowDao.Get(orgId, id)
	if err != nil {
		return err
	}
	if err := s.workflowDao.Delete(orgId, id); err != nil {
		return err
	}
	s.cache.Delete(workflowKey(orgId, id))
	if webhookId, ok := wf.TriggerConfig["webhook_id"].(string); ok {
		s.cache.Delete(webhookKey(webhookId))
	}
	return nil
}

func (s *metadataService) GetWorkflow(orgId string, id string) (*model.Workflow, error) {
	if cached, found := s.cache.Get(workflowKey(orgId, id)); found {
		wf := cached.(model.Workflow)
		return &wf, nil
	}
	wf, err := s.workflowDao.Get(orgId, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(workflowKey(orgId, id), *wf)
	return wf, nil
}

func (s *metadataService) ListWorkflows(orgId string) ([]model.Workflow, error) {
	return s.workflowDao.List(orgId)
}

// GetActiveWorkflow is the loader contract for triggers: the workflow must
// exist, belong to the caller's organization and be active.
func (s *metadataService) GetActiveWorkflow(orgId string, id string) (*model.Workflow, error) {
	wf, err := s.GetWorkflow(orgId, id)
	if err != nil {
		return nil, err
	}
	if !wf.Active {
		return nil, api_v1.NotFoundError{Resource: "workflow", Id: id}
	}
	return wf, nil
}

func (s *metadataService) GetWorkflowByWebhookId(webhookId string) (*model.Workflow, error) {
	if cached, found := s.cache.Get(webhookKey(webhookId)); found {
		wf := cached.(model.Workflow)
		if !wf.Active {
			return nil, api_v1.NotFoundError{Resource: "webhook", Id: webhookId}
		}
		return &wf, nil
	}
	wf, err := s.workflowDao.GetByWebhookId(webhookId)
	if err != nil {
		return nil, api_v1.NotFoundError{Resource: "webhook", Id: webhookId}
	}
	s.cache.SetDefault(webhookKey(webhookId), *wf)
	if !wf.Active {
		return nil, api_v1.NotFoundError{Resource: "webhook", Id: webhookId}
	}
	return wf, nil
}

func workflowKey(orgId string, id string) string {
	return fmt.Sprintf("wf:%s:%s", orgId, id)
}

func webhookKey(webhookId string) string {
	return fmt.Sprintf("hook:%s", webhookId)
}

func asSeconds(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
