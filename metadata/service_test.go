package metadata

import (
	"testing"

	api_v1 "github.com/inboxops/relay/api/v1"
	"github.com/inboxops/relay/integration"
	"github.com/inboxops/relay/model"
	"github.com/inboxops/relay/persistence"
	"github.com/stretchr/testify/require"
)

type memWorkflowDao struct {
	workflows map[string]model.Workflow
}

var _ persistence.WorkflowDao = new(memWorkflowDao)

func newMemWorkflowDao() *memWorkflowDao {
	return &memWorkflowDao{workflows: make(map[string]model.Workflow)}
}

func (d *memWorkflowDao) Save(wf model.Workflow) error {
	d.workflows[wf.Id] = wf
	return nil
}

func (d *memWorkflowDao) Delete(orgId string, id string) error {
	delete(d.workflows, id)
	return nil
}

func (d *memWorkflowDao) Get(orgId string, id string) (*model.Workflow, error) {
	wf, ok := d.workflows[id]
	if !ok || wf.OrgId != orgId {
		return nil, api_v1.NotFoundError{Resource: "workflow", Id: id}
	}
	return &wf, nil
}

func (d *memWorkflowDao) GetByWebhookId(webhookId string) (*model.Workflow, error) {
	for _, wf := range d.workflows {
		if wf.TriggerConfig["webhook_id"] == webhookId {
			return &wf, nil
		}
	}
	return nil, api_v1.NotFoundError{Resource: "webhook", Id: webhookId}
}

func (d *memWorkflowDao) List(orgId string) ([]model.Workflow, error) {
	var out []model.Workflow
	for _, wf := range d.workflows {
		if wf.OrgId == orgId {
			out = append(out, wf)
		}
	}
	return out, nil
}

func (d *memWorkflowDao) ListActiveByTrigger(triggerType model.TriggerType) ([]model.Workflow, error) {
	var out []model.Workflow
	for _, wf := range d.workflows {
		if wf.Active && wf.TriggerType == triggerType {
			out = append(out, wf)
		}
	}
	return out, nil
}

func newTestService() (MetadataService, *memWorkflowDao) {
	dao := newMemWorkflowDao()
	return NewMetadataService(dao, integration.NewRegistry(nil)), dao
}

func TestSaveWorkflowValidation(t *testing.T) {
	s, _ := newTestService()

	_, err := s.SaveWorkflow(model.Workflow{OrgId: "org-1", TriggerType: model.TRIGGER_TYPE_MANUAL})
	require.Error(t, err, "name required")

	_, err = s.SaveWorkflow(model.Workflow{Name: "x", OrgId: "org-1", TriggerType: "cron"})
	require.Error(t, err, "invalid trigger type")

	_, err = s.SaveWorkflow(model.Workflow{Name: "x", OrgId: "org-1", TriggerType: model.TRIGGER_TYPE_SCHEDULE})
	require.Error(t, err, "schedule needs interval")

	_, err = s.SaveWorkflow(model.Workflow{
		Name: "x", OrgId: "org-1", TriggerType: model.TRIGGER_TYPE_MANUAL,
		Steps: []model.Step{{Type: "telegraph:tap"}},
	})
	require.Error(t, err, "unknown integration")

	saved, err := s.SaveWorkflow(model.Workflow{
		Name: "x", OrgId: "org-1", TriggerType: model.TRIGGER_TYPE_MANUAL,
		Steps: []model.Step{{Type: "slack:send_message"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.Id)
}

func TestWebhookIdAssignedOnSave(t *testing.T) {
	s, _ := newTestService()

	saved, err := s.SaveWorkflow(model.Workflow{
		Name: "hooked", OrgId: "org-1", TriggerType: model.TRIGGER_TYPE_WEBHOOK, Active: true,
	})
	require.NoError(t, err)
	webhookId, ok := saved.TriggerConfig["webhook_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, webhookId)

	byHook, err := s.GetWorkflowByWebhookId(webhookId)
	require.NoError(t, err)
	require.Equal(t, saved.Id, byHook.Id)
}

func TestInactiveWorkflowIsInvisibleToTriggers(t *testing.T) {
	s, dao := newTestService()

	wf := model.Workflow{
		Id: "wf-1", Name: "paused", OrgId: "org-1",
		TriggerType:   model.TRIGGER_TYPE_WEBHOOK,
		TriggerConfig: map[string]any{"webhook_id": "hook-1"},
		Active:        false,
	}
	require.NoError(t, dao.Save(wf))

	_, err := s.GetActiveWorkflow("org-1", "wf-1")
	var notFound api_v1.NotFoundError
	require.ErrorAs(t, err, &notFound)

	_, err = s.GetWorkflowByWebhookId("hook-1")
	require.ErrorAs(t, err, &notFound)

	// direct reads still see it for editing
	got, err := s.GetWorkflow("org-1", "wf-1")
	require.NoError(t, err)
	require.False(t, got.Active)
}
