package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	api_v1 "github.com/inboxops/relay/api/v1"
)

const kartraDefaultBaseUrl = "https://app.kartra.com/api"

type kartraAdapter struct {
	client  *http.Client
	baseUrl string
}

func NewKartraAdapter(client *http.Client) *kartraAdapter {
	return &kartraAdapter{client: client, baseUrl: kartraDefaultBaseUrl}
}

func (a *kartraAdapter) Name() string {
	return "kartra"
}

func (a *kartraAdapter) Actions() []string {
	return []string{"create_lead"}
}

func (a *kartraAdapter) Execute(ctx context.Context, action string, creds map[string]any, config map[string]any, runCtx map[string]any) (map[string]any, error) {
	switch action {
	case "create_lead":
		return a.createLead(ctx, creds, config)
	default:
		return nil, api_v1.UnknownActionError{Integration: a.Name(), Action: action}
	}
}

func (a *kartraAdapter) createLead(ctx context.Context, creds map[string]any, config map[string]any) (map[string]any, error) {
	apiKey, err := credString(creds, "api_key", a.Name())
	if err != nil {
		return nil, err
	}
	apiPassword, err := credString(creds, "api_password", a.Name())
	if err != nil {
		return nil, err
	}
	email, err := configString(config, "email")
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("api_key", apiKey)
	form.Set("api_password", apiPassword)
	form.Set("lead[email]", email)
	if firstName, ok := config["first_name"].(string); ok && len(firstName) > 0 {
		form.Set("lead[first_name]", firstName)
	}
	form.Set("actions[0][cmd]", "create_lead")
	body, status, err := postForm(ctx, a.client, a.baseUrl, nil, form.Encode())
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	// kartra reports failures with status "0" inside a 200 response
	if s, ok := body["status"].(string); ok && s != "1" && s != "Success" {
		return nil, api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	return map[string]any{
		"email":  email,
		"result": fmt.Sprintf("%v", body["status"]),
	}, nil
}
