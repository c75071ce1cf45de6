package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	api_v1 "github.com/inboxops/relay/api/v1"
)

const airtableDefaultBaseUrl = "https://api.airtable.com/v0"

type airtableAdapter struct {
	client  *http.Client
	baseUrl string
}

func NewAirtableAdapter(client *http.Client) *airtableAdapter {
	return &airtableAdapter{client: client, baseUrl: airtableDefaultBaseUrl}
}

func (a *airtableAdapter) Name() string {
	return "airtable"
}

func (a *airtableAdapter) Actions() []string {
	return []string{"create_record"}
}

func (a *airtableAdapter) Execute(ctx context.Context, action string, creds map[string]any, config map[string]any, runCtx map[string]any) (map[string]any, error) {
	switch action {
	case "create_record":
		return a.createRecord(ctx, creds, config)
	default:
		return nil, api_v1.UnknownActionError{Integration: a.Name(), Action: action}
	}
}

func (a *airtableAdapter) createRecord(ctx context.Context, creds map[string]any, config map[string]any) (map[string]any, error) {
	token, err := credString(creds, "access_token", a.Name())
	if err != nil {
		return nil, err
	}
	baseId, err := configString(config, "base_id")
	if err != nil {
		return nil, err
	}
	table, err := configString(config, "table")
	if err != nil {
		return nil, err
	}
	fields, ok := config["fields"].(map[string]any)
	if !ok {
		return nil, api_v1.ValidationError{Message: "missing required config field fields"}
	}
	endpoint := fmt.Sprintf("%s/%s/%s", a.baseUrl, baseId, url.PathEscape(table))
	headers := map[string]string{"Authorization": "Bearer " + token}
	body, status, err := postJSON(ctx, a.client, endpoint, headers, map[string]any{"fields": fields})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	return map[string]any{
		"recordId": body["id"],
	}, nil
}
