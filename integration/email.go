package integration

import (
	"context"
	"net/http"

	api_v1 "github.com/inboxops/relay/api/v1"
)

const emailDefaultBaseUrl = "https://api.resend.com"

// emailAdapter sends transactional mail through the organization's configured
// provider key.
type emailAdapter struct {
	client  *http.Client
	baseUrl string
}

func NewEmailAdapter(client *http.Client) *emailAdapter {
	return &emailAdapter{client: client, baseUrl: emailDefaultBaseUrl}
}

func (a *emailAdapter) Name() string {
	return "email"
}

func (a *emailAdapter) Actions() []string {
	return []string{"send"}
}

func (a *emailAdapter) Execute(ctx context.Context, action string, creds map[string]any, config map[string]any, runCtx map[string]any) (map[string]any, error) {
	switch action {
	case "send":
		return a.send(ctx, creds, config)
	default:
		return nil, api_v1.UnknownActionError{Integration: a.Name(), Action: action}
	}
}

func (a *emailAdapter) send(ctx context.Context, creds map[string]any, config map[string]any) (map[string]any, error) {
	apiKey, err := credString(creds, "api_key", a.Name())
	if err != nil {
		return nil, err
	}
	from, err := credString(creds, "from_address", a.Name())
	if err != nil {
		return nil, err
	}
	to, err := configString(config, "to")
	if err != nil {
		return nil, err
	}
	subject, err := configString(config, "subject")
	if err != nil {
		return nil, err
	}
	bodyText, err := configString(config, "body")
	if err != nil {
		return nil, err
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	body, status, err := postJSON(ctx, a.client, a.baseUrl+"/emails", headers, map[string]any{
		"from":    from,
		"to":      []string{to},
		"subject": subject,
		"html":    bodyText,
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	return map[string]any{
		"messageId": body["id"],
		"to":        to,
	}, nil
}
