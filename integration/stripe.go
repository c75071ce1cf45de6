package integration

import (
	"context"
	"net/http"
	"net/url"

	api_v1 "github.com/inboxops/relay/api/v1"
)

const stripeDefaultBaseUrl = "https://api.stripe.com/v1"

type stripeAdapter struct {
	client  *http.Client
	baseUrl string
}

func NewStripeAdapter(client *http.Client) *stripeAdapter {
	return &stripeAdapter{client: client, baseUrl: stripeDefaultBaseUrl}
}

func (a *stripeAdapter) Name() string {
	return "stripe"
}

func (a *stripeAdapter) Actions() []string {
	return []string{"create_customer"}
}

func (a *stripeAdapter) Execute(ctx context.Context, action string, creds map[string]any, config map[string]any, runCtx map[string]any) (map[string]any, error) {
	switch action {
	case "create_customer":
		return a.createCustomer(ctx, creds, config)
	default:
		return nil, api_v1.UnknownActionError{Integration: a.Name(), Action: action}
	}
}

func (a *stripeAdapter) createCustomer(ctx context.Context, creds map[string]any, config map[string]any) (map[string]any, error) {
	secretKey, err := credString(creds, "secret_key", a.Name())
	if err != nil {
		return nil, err
	}
	email, err := configString(config, "email")
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("email", email)
	if name, ok := config["name"].(string); ok && len(name) > 0 {
		form.Set("name", name)
	}
	headers := map[string]string{"Authorization": "Bearer " + secretKey}
	body, status, err := postForm(ctx, a.client, a.baseUrl+"/customers", headers, form.Encode())
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	return map[string]any{
		"customerId": body["id"],
		"email":      body["email"],
	}, nil
}
