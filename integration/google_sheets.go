package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	api_v1 "github.com/inboxops/relay/api/v1"
)

const sheetsDefaultBaseUrl = "https://sheets.googleapis.com/v4"

type googleSheetsAdapter struct {
	client  *http.Client
	baseUrl string
}

func NewGoogleSheetsAdapter(client *http.Client) *googleSheetsAdapter {
	return &googleSheetsAdapter{client: client, baseUrl: sheetsDefaultBaseUrl}
}

func (a *googleSheetsAdapter) Name() string {
	return "google_sheets"
}

func (a *googleSheetsAdapter) Actions() []string {
	return []string{"append_row"}
}

func (a *googleSheetsAdapter) Execute(ctx context.Context, action string, creds map[string]any, config map[string]any, runCtx map[string]any) (map[string]any, error) {
	switch action {
	case "append_row":
		return a.appendRow(ctx, creds, config)
	default:
		return nil, api_v1.UnknownActionError{Integration: a.Name(), Action: action}
	}
}

func (a *googleSheetsAdapter) appendRow(ctx context.Context, creds map[string]any, config map[string]any) (map[string]any, error) {
	token, err := credString(creds, "access_token", a.Name())
	if err != nil {
		return nil, err
	}
	spreadsheetId, err := configString(config, "spreadsheet_id")
	if err != nil {
		return nil, err
	}
	sheetRange := "A1"
	if r, ok := config["range"].(string); ok && len(r) > 0 {
		sheetRange = r
	}
	values, ok := config["values"].([]any)
	if !ok {
		return nil, api_v1.ValidationError{Message: "missing required config field values"}
	}
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		a.baseUrl, spreadsheetId, url.PathEscape(sheetRange))
	headers := map[string]string{"Authorization": "Bearer " + token}
	body, status, err := postJSON(ctx, a.client, endpoint, headers, map[string]any{
		"values": []any{values},
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, api_v1.UpstreamError{Integration: a.Name(), Message: upstreamMessage(body, status)}
	}
	return map[string]any{
		"spreadsheetId": spreadsheetId,
		"updates":       body["updates"],
	}, nil
}
