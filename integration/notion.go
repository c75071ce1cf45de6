package integration

import (
	"context"
	"net/http"

	api_v1 "github.com/inboxops/relay/api/v1"
)

const notionDefaultBaseUrl = "https://api.notion.com/v1"
const notionVersion = "2022-06-28"

type notionAdapter struct {
	client  *http.Client
	baseUrl string
}

func NewNotionAdapter(client *http.Client) *notionAdapter {
	return &notionAdapter{client: client, baseUrl: notionDefaultBaseUrl}
}

func (a *notionAdapter) Name() string {
	return "notion"
}

func (a *notionAdapter) Actions() []string {
	return []string{"create_page"}
}

func (a *notionAdapter) Execute(ctx context.Context, action string, creds map[string]any, config map[string]any, runCtx map[string]any) (map[string]any, error) {
	switch action {
	case "create_page":
		return a.createPage(ctx, creds, config)
	default:
		return nil, api_v1.UnknownActionError{Integration: a.Name(), Action: action}
	}
}

func (a *notionAdapter) createPage(ctx context.Context, creds map[string]any, config map[string]any) (map[string]any, error) {
	token, err := credString(creds, "access_token", a.Name())
	if err != nil {
		return nil, err
	}
	databaseId, err := configString(config, "database_id")
	if err != nil {
		return nil, err
	}
	title, err := configString(config, "title")
	if err != nil {
		return nil, err
	}
	page := map[string]any{
		"parent": map[string]any{"database_id": databaseId},
		"properties": map[string]any{
			"Name": map[string]any{
				"title": []any{
					map[string]any{"text": map[string]any{"content": title}},
				},
			},
		},
	}
	if content, ok := config["content"].(string); ok && len(content) > 0 {
		page["children"] = []any{
			map[string]any{
				"object": "block",
				"type":   "paragraph",
				"paragraph": map[string]any{
					"rich_text": []any{
						map[string]any{"text": map[string]any{"content": content}},
					},
				},
			},
		}
	}
	headers := map[string]string{
		"Authorization":  "Bearer " + token,
		"Notion-Version": notionVersion,
	}
	body, status, err := postJSON(ctx, a.client, a.baseUrl+"/pages", headers, page)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	return map[string]any{
		"pageId": body["id"],
		"url":    body["url"],
	}, nil
}
