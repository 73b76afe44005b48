package outreach

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookRelay forwards the parsed assistant payload to a user-configured
// endpoint as a GET with the object flattened into query parameters.
type WebhookRelay struct {
	client *http.Client
}

func NewWebhookRelay() *WebhookRelay {
	return &WebhookRelay{client: &http.Client{Timeout: 20 * time.Second}}
}

// Notify issues the GET and renders the outcome as a status-message fragment.
func (wh *WebhookRelay) Notify(ctx context.Context, url string, fields map[string]any) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Sprintf("Webhook Error: %v", err)
	}
	q := req.URL.Query()
	for k, v := range fields {
		q.Set(k, flatten(v))
	}
	req.URL.RawQuery = q.Encode()

	resp, err := wh.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Webhook Error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Webhook Failed (%d)", resp.StatusCode)
	}

	// A JSON body (e.g. a "respond to webhook" node) is rendered to a string
	// for the log; anything else goes in raw.
	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		return fmt.Sprintf("%v", decoded)
	}
	return string(body)
}

// flatten renders one parsed field as a single query-parameter value.
func flatten(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
