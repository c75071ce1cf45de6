package integration

import (
	"context"
	"fmt"
	"net/http"

	api_v1 "github.com/inboxops/relay/api/v1"
)

const facebookDefaultBaseUrl = "https://graph.facebook.com/v18.0"

type facebookAdapter struct {
	client  *http.Client
	baseUrl string
}

func NewFacebookAdapter(client *http.Client) *facebookAdapter {
	return &facebookAdapter{client: client, baseUrl: facebookDefaultBaseUrl}
}

func (a *facebookAdapter) Name() string {
	return "facebook"
}

func (a *facebookAdapter) Actions() []string {
	return []string{"create_post"}
}

func (a *facebookAdapter) Execute(ctx context.Context, action string, creds map[string]any, config map[string]any, runCtx map[string]any) (map[string]any, error) {
	switch action {
	case "create_post":
		return a.createPost(ctx, creds, config)
	default:
		return nil, api_v1.UnknownActionError{Integration: a.Name(), Action: action}
	}
}

func (a *facebookAdapter) createPost(ctx context.Context, creds map[string]any, config map[string]any) (map[string]any, error) {
	pageToken, err := credString(creds, "page_access_token", a.Name())
	if err != nil {
		return nil, err
	}
	pageId, err := credString(creds, "page_id", a.Name())
	if err != nil {
		return nil, err
	}
	message, err := configString(config, "message")
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/%s/feed", a.baseUrl, pageId)
	body, status, err := postJSON(ctx, a.client, endpoint, nil, map[string]any{
		"message":      message,
		"access_token": pageToken,
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	return map[string]any{
		"postId": body["id"],
	}, nil
}
