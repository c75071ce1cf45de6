package integration

import (
	"context"
	"net/http"

	api_v1 "github.com/inboxops/relay/api/v1"
)

const mailerliteDefaultBaseUrl = "https://connect.mailerlite.com/api"

type mailerliteAdapter struct {
	client  *http.Client
	baseUrl string
}

func NewMailerliteAdapter(client *http.Client) *mailerliteAdapter {
	return &mailerliteAdapter{client: client, baseUrl: mailerliteDefaultBaseUrl}
}

func (a *mailerliteAdapter) Name() string {
	return "mailerlite"
}

func (a *mailerliteAdapter) Actions() []string {
	return []string{"add_subscriber"}
}

func (a *mailerliteAdapter) Execute(ctx context.Context, action string, creds map[string]any, config map[string]any, runCtx map[string]any) (map[string]any, error) {
	switch action {
	case "add_subscriber":
		return a.addSubscriber(ctx, creds, config)
	default:
		return nil, api_v1.UnknownActionError{Integration: a.Name(), Action: action}
	}
}

func (a *mailerliteAdapter) addSubscriber(ctx context.Context, creds map[string]any, config map[string]any) (map[string]any, error) {
	apiKey, err := credString(creds, "api_key", a.Name())
	if err != nil {
		return nil, err
	}
	email, err := configString(config, "email")
	if err != nil {
		return nil, err
	}
	payload := map[string]any{"email": email}
	if groupId, ok := config["group_id"].(string); ok && len(groupId) > 0 {
		payload["groups"] = []string{groupId}
	}
	if fields, ok := config["fields"].(map[string]any); ok {
		payload["fields"] = fields
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	body, status, err := postJSON(ctx, a.client, a.baseUrl+"/subscribers", headers, payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	result := map[string]any{"email": email}
	if data, ok := body["data"].(map[string]any); ok {
		result["subscriberId"] = data["id"]
	}
	return result, nil
}
