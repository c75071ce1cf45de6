package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	api_v1 "github.com/inboxops/relay/api/v1"
	"github.com/stretchr/testify/require"
)

func newSlackTestServer(t *testing.T, postResponse map[string]any) (*slackAdapter, *[]map[string]any) {
	t.Helper()
	var posted []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/conversations.list":
			json.NewEncoder(w).Encode(map[string]any{
				"ok": true,
				"channels": []any{
					map[string]any{"id": "C42", "name": "general"},
				},
			})
		case "/chat.postMessage":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			posted = append(posted, body)
			json.NewEncoder(w).Encode(postResponse)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)
	adapter := NewSlackAdapter(server.Client())
	adapter.baseUrl = server.URL
	return adapter, &posted
}

func TestSlackSendMessage(t *testing.T) {
	adapter, posted := newSlackTestServer(t, map[string]any{"ok": true, "channel": "C1", "ts": "1.2"})

	creds := map[string]any{"access_token": "xoxb-1"}
	config := map[string]any{"channel": "C1", "message": "Hi Ada"}
	result, err := adapter.Execute(context.Background(), "send_message", creds, config, nil)
	require.NoError(t, err)
	require.Equal(t, "C1", result["channel"])

	require.Len(t, *posted, 1)
	require.Equal(t, "C1", (*posted)[0]["channel"])
	require.Equal(t, "Hi Ada", (*posted)[0]["text"])
}

func TestSlackUpstreamErrorFailsCall(t *testing.T) {
	adapter, _ := newSlackTestServer(t, map[string]any{"ok": false, "error": "channel_not_found"})

	creds := map[string]any{"access_token": "xoxb-1"}
	config := map[string]any{"channel": "C1", "message": "Hi"}
	_, err := adapter.Execute(context.Background(), "send_message", creds, config, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "channel_not_found")
	var upstream api_v1.UpstreamError
	require.ErrorAs(t, err, &upstream)
}

func TestSlackNormalizesChannelName(t *testing.T) {
	adapter, posted := newSlackTestServer(t, map[string]any{"ok": true, "channel": "C42", "ts": "1.2"})

	creds := map[string]any{"access_token": "xoxb-1"}
	config := map[string]any{"channel": "#general", "message": "Hi"}
	_, err := adapter.Execute(context.Background(), "send_message", creds, config, nil)
	require.NoError(t, err)
	require.Equal(t, "C42", (*posted)[0]["channel"])
}

func TestSlackMissingCredential(t *testing.T) {
	adapter, _ := newSlackTestServer(t, map[string]any{"ok": true})

	_, err := adapter.Execute(context.Background(), "send_message", map[string]any{}, map[string]any{"channel": "C1", "message": "Hi"}, nil)
	var missing api_v1.CredentialMissingError
	require.ErrorAs(t, err, &missing)
}

func TestSlackUnknownAction(t *testing.T) {
	adapter, _ := newSlackTestServer(t, nil)

	_, err := adapter.Execute(context.Background(), "delete_channel", map[string]any{"access_token": "x"}, nil, nil)
	var unknown api_v1.UnknownActionError
	require.ErrorAs(t, err, &unknown)
}

func TestRegistryValidateStepType(t *testing.T) {
	registry := NewRegistry(nil)

	require.NoError(t, registry.ValidateStepType("slack:send_message"))
	require.NoError(t, registry.ValidateStepType("script"))
	require.Error(t, registry.ValidateStepType("slack"))
	require.Error(t, registry.ValidateStepType("slack:unknown_action"))
	require.Error(t, registry.ValidateStepType("smoke_signals:send"))
}
