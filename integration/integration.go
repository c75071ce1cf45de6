package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	api_v1 "github.com/inboxops/relay/api/v1"
)

// Adapter is one external integration. Execute performs the named action with
// the organization's decrypted credentials, the resolved step configuration and
// the accumulated run context, returning a JSON-serializable result.
type Adapter interface {
	Name() string
	Actions() []string
	Execute(ctx context.Context, action string, creds map[string]any, config map[string]any, runCtx map[string]any) (map[string]any, error)
}

// Registry is the fixed, explicitly enumerated set of adapters. Step types
// select an adapter by integration name; there is no dynamic lookup beyond
// this map.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	adapters := []Adapter{
		NewSlackAdapter(client),
		NewGoogleSheetsAdapter(client),
		NewNotionAdapter(client),
		NewAirtableAdapter(client),
		NewStripeAdapter(client),
		NewEmailAdapter(client),
		NewKartraAdapter(client),
		NewMailerliteAdapter(client),
		NewMailchimpAdapter(client),
		NewFacebookAdapter(client),
	}
	return NewRegistryWithAdapters(adapters...)
}

func NewRegistryWithAdapters(adapters ...Adapter) *Registry {
	byName := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Registry{adapters: byName}
}

func (r *Registry) Get(name string) (Adapter, error) {
	adapter, ok := r.adapters[name]
	if !ok {
		return nil, api_v1.NotFoundError{Resource: "integration", Id: name}
	}
	return adapter, nil
}

// ValidateStepType checks a step's "integration:action" identifier against the
// registered adapters. The script step is handled by the engine itself.
func (r *Registry) ValidateStepType(stepType string) error {
	if stepType == "script" {
		return nil
	}
	integration, action, ok := strings.Cut(stepType, ":")
	if !ok {
		return api_v1.ValidationError{Message: fmt.Sprintf("invalid step type %s, expected integration:action", stepType)}
	}
	adapter, err := r.Get(integration)
	if err != nil {
		return api_v1.ValidationError{Message: fmt.Sprintf("unknown integration %s", integration)}
	}
	for _, a := range adapter.Actions() {
		if a == action {
			return nil
		}
	}
	return api_v1.ValidationError{Message: api_v1.UnknownActionError{Integration: integration, Action: action}.Error()}
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any) (map[string]any, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return doRequest(client, req)
}

func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string) (map[string]any, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return doRequest(client, req)
}

func postForm(ctx context.Context, client *http.Client, url string, headers map[string]string, form string) (map[string]any, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(form))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return doRequest(client, req)
}

func doRequest(client *http.Client, req *http.Request) (map[string]any, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			decoded = map[string]any{"raw": string(raw)}
		}
	}
	return decoded, resp.StatusCode, nil
}

// upstreamMessage digs a human readable error out of the common response shapes
// third-party APIs use.
func upstreamMessage(body map[string]any, statusCode int) string {
	for _, key := range []string{"error", "message", "detail"} {
		switch v := body[key].(type) {
		case string:
			if len(v) > 0 {
				return v
			}
		case map[string]any:
			if msg, ok := v["message"].(string); ok && len(msg) > 0 {
				return msg
			}
		}
	}
	return fmt.Sprintf("unexpected status %d", statusCode)
}

func configString(config map[string]any, key string) (string, error) {
	v, ok := config[key]
	if !ok {
		return "", api_v1.ValidationError{Message: fmt.Sprintf("missing required config field %s", key)}
	}
	s := fmt.Sprintf("%v", v)
	if len(s) == 0 {
		return "", api_v1.ValidationError{Message: fmt.Sprintf("missing required config field %s", key)}
	}
	return s, nil
}

func credString(creds map[string]any, key string, integration string) (string, error) {
	v, ok := creds[key].(string)
	if !ok || len(v) == 0 {
		return "", api_v1.CredentialMissingError{Integration: integration}
	}
	return v, nil
}
