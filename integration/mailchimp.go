package integration

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	api_v1 "github.com/inboxops/relay/api/v1"
)

type mailchimpAdapter struct {
	client *http.Client
	// baseUrl overrides the datacenter-derived url when set (tests)
	baseUrl string
}

func NewMailchimpAdapter(client *http.Client) *mailchimpAdapter {
	return &mailchimpAdapter{client: client}
}

func (a *mailchimpAdapter) Name() string {
	return "mailchimp"
}

func (a *mailchimpAdapter) Actions() []string {
	return []string{"add_subscriber"}
}

func (a *mailchimpAdapter) Execute(ctx context.Context, action string, creds map[string]any, config map[string]any, runCtx map[string]any) (map[string]any, error) {
	switch action {
	case "add_subscriber":
		return a.addSubscriber(ctx, creds, config)
	default:
		return nil, api_v1.UnknownActionError{Integration: a.Name(), Action: action}
	}
}

func (a *mailchimpAdapter) addSubscriber(ctx context.Context, creds map[string]any, config map[string]any) (map[string]any, error) {
	apiKey, err := credString(creds, "api_key", a.Name())
	if err != nil {
		return nil, err
	}
	listId, err := configString(config, "list_id")
	if err != nil {
		return nil, err
	}
	email, err := configString(config, "email")
	if err != nil {
		return nil, err
	}
	baseUrl := a.baseUrl
	if len(baseUrl) == 0 {
		// the datacenter rides after the dash in the api key
		_, dc, ok := strings.Cut(apiKey, "-")
		if !ok {
			return nil, api_v1.UpstreamError{Integration: a.Name(), Message: "api key has no datacenter suffix"}
		}
		baseUrl = fmt.Sprintf("https://%s.api.mailchimp.com/3.0", dc)
	}
	payload := map[string]any{
		"email_address": email,
		"status":        "subscribed",
	}
	if fields, ok := config["merge_fields"].(map[string]any); ok {
		payload["merge_fields"] = fields
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	body, status, err := postJSON(ctx, a.client, fmt.Sprintf("%s/lists/%s/members", baseUrl, listId), headers, payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	return map[string]any{
		"email":    email,
		"memberId": body["id"],
	}, nil
}
