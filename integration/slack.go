package integration

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	api_v1 "github.com/inboxops/relay/api/v1"
)

const slackDefaultBaseUrl = "https://slack.com/api"

type slackAdapter struct {
	client  *http.Client
	baseUrl string
}

func NewSlackAdapter(client *http.Client) *slackAdapter {
	return &slackAdapter{client: client, baseUrl: slackDefaultBaseUrl}
}

func (a *slackAdapter) Name() string {
	return "slack"
}

func (a *slackAdapter) Actions() []string {
	return []string{"send_message"}
}

func (a *slackAdapter) Execute(ctx context.Context, action string, creds map[string]any, config map[string]any, runCtx map[string]any) (map[string]any, error) {
	switch action {
	case "send_message":
		return a.sendMessage(ctx, creds, config)
	default:
		return nil, api_v1.UnknownActionError{Integration: a.Name(), Action: action}
	}
}

func (a *slackAdapter) sendMessage(ctx context.Context, creds map[string]any, config map[string]any) (map[string]any, error) {
	token, err := credString(creds, "access_token", a.Name())
	if err != nil {
		return nil, err
	}
	channel, err := configString(config, "channel")
	if err != nil {
		return nil, err
	}
	message, err := configString(config, "message")
	if err != nil {
		return nil, err
	}
	channel, err = a.normalizeChannel(ctx, token, channel)
	if err != nil {
		return nil, err
	}
	headers := map[string]string{"Authorization": "Bearer " + token}
	body, status, err := postJSON(ctx, a.client, a.baseUrl+"/chat.postMessage", headers, map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return nil, err
	}
	if ok, _ := body["ok"].(bool); !ok {
		return nil, api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	return map[string]any{
		"channel": body["channel"],
		"ts":      body["ts"],
	}, nil
}

// normalizeChannel maps a "#general" style name to its channel id; ids and
// bare names are passed through to the post call untouched.
func (a *slackAdapter) normalizeChannel(ctx context.Context, token string, channel string) (string, error) {
	if !strings.HasPrefix(channel, "#") {
		return channel, nil
	}
	name := strings.TrimPrefix(channel, "#")
	headers := map[string]string{"Authorization": "Bearer " + token}
	body, status, err := getJSON(ctx, a.client, a.baseUrl+"/conversations.list?limit=1000", headers)
	if err != nil {
		return "", err
	}
	if ok, _ := body["ok"].(bool); !ok {
		return "", api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	channels, _ := body["channels"].([]any)
	for _, c := range channels {
		ch, _ := c.(map[string]any)
		if ch["name"] == name {
			return fmt.Sprintf("%v", ch["id"]), nil
		}
	}
	return "", api_v1.UpstreamError{Integration: a.Name(), Message: "channel_not_found"}
}
