package sqlite

import (
	"testing"

	"github.com/inboxops/relay/model"
	"github.com/stretchr/testify/require"
)

func TestWorkflowDao(t *testing.T) {
	workflowDao, _, _ := newTestDaos(t)

	wf := model.Workflow{
		Id:            "wf-1",
		OrgId:         "org-1",
		Name:          "lead intake",
		TriggerType:   model.TRIGGER_TYPE_WEBHOOK,
		TriggerConfig: map[string]any{"webhook_id": "hook-abc"},
		Steps: []model.Step{
			{Type: "slack:send_message", Config: map[string]any{"channel": "{{webhook.channel}}"}},
		},
		Active: true,
	}
	require.NoError(t, workflowDao.Save(wf))

	got, err := workflowDao.Get("org-1", "wf-1")
	require.NoError(t, err)
	require.Equal(t, "lead intake", got.Name)
	require.Len(t, got.Steps, 1)
	require.Equal(t, "slack:send_message", got.Steps[0].Type)

	byHook, err := workflowDao.GetByWebhookId("hook-abc")
	require.NoError(t, err)
	require.Equal(t, "wf-1", byHook.Id)

	_, err = workflowDao.GetByWebhookId("hook-missing")
	require.Error(t, err)

	// other tenants can not see it
	_, err = workflowDao.Get("org-2", "wf-1")
	require.Error(t, err)

	wf.Name = "lead intake v2"
	wf.Active = false
	require.NoError(t, workflowDao.Save(wf))
	got, err = workflowDao.Get("org-1", "wf-1")
	require.NoError(t, err)
	require.Equal(t, "lead intake v2", got.Name)
	require.False(t, got.Active)

	require.NoError(t, workflowDao.Delete("org-1", "wf-1"))
	_, err = workflowDao.Get("org-1", "wf-1")
	require.Error(t, err)
}

func TestCredentialDao(t *testing.T) {
	_, _, credentialDao := newTestDaos(t)

	_, err := credentialDao.Get("org-1", "slack")
	require.Error(t, err)

	require.NoError(t, credentialDao.Save("org-1", "slack", []byte("sealed-v1")))
	sealed, err := credentialDao.Get("org-1", "slack")
	require.NoError(t, err)
	require.Equal(t, []byte("sealed-v1"), sealed)

	// reconnect overwrites the whole blob
	require.NoError(t, credentialDao.Save("org-1", "slack", []byte("sealed-v2")))
	sealed, err = credentialDao.Get("org-1", "slack")
	require.NoError(t, err)
	require.Equal(t, []byte("sealed-v2"), sealed)

	statuses, err := credentialDao.ListStatus("org-1")
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.Equal(t, "slack", statuses[0].Integration)
	require.True(t, statuses[0].Configured)

	// status listing is org scoped
	statuses, err = credentialDao.ListStatus("org-2")
	require.NoError(t, err)
	require.Empty(t, statuses)
}
