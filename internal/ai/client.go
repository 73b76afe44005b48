package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultMaxWait      = 60 * time.Second
)

// Client drives one assistants-v2 run: upload images, open a thread, start a
// run, poll until terminal state, read back the assistant's reply. Strictly
// sequential; the provider offers no completion signal other than polling.
type Client struct {
	httpc *http.Client
	log   zerolog.Logger

	pollInterval time.Duration
	maxWait      time.Duration
}

func NewClient(log zerolog.Logger) *Client {
	return &Client{
		httpc:        &http.Client{Timeout: 20 * time.Second},
		log:          log,
		pollInterval: defaultPollInterval,
		maxWait:      defaultMaxWait,
	}
}

// Run sends the profile to the assistant and returns its raw text reply.
// An empty reply with a nil error means the run finished but the assistant
// produced no text; the caller's parser will simply find nothing to extract.
func (c *Client) Run(ctx context.Context, creds Credentials, profileURL string, images []Image) (string, error) {
	base := strings.TrimRight(creds.APIBase, "/")

	content := make([]map[string]any, 0, 1+len(images))
	if profileURL != "" {
		content = append(content, map[string]any{
			"type": "text",
			"text": "Social media profile URL: " + profileURL + "\n",
		})
	} else if len(images) == 0 {
		content = append(content, map[string]any{
			"type": "text",
			"text": "Please analyze this profile.",
		})
	}

	for _, img := range images {
		fileID, err := c.uploadImage(ctx, base, creds.APIKey, img)
		if err != nil {
			return "", err
		}
		content = append(content, map[string]any{
			"type":       "image_file",
			"image_file": map[string]any{"file_id": fileID},
		})
	}

	// Thread with the initial user message.
	raw, err := c.do(ctx, http.MethodPost, base+"/threads", creds.APIKey, map[string]any{
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
	}, "create thread")
	if err != nil {
		return "", err
	}
	var thread struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &thread); err != nil || thread.ID == "" {
		return "", errors.New("assistant thread ID missing in API response")
	}

	raw, err = c.do(ctx, http.MethodPost, base+"/threads/"+thread.ID+"/runs", creds.APIKey, map[string]any{
		"assistant_id": creds.AssistantID,
	}, "start run")
	if err != nil {
		return "", err
	}
	var run struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &run); err != nil || run.ID == "" {
		return "", errors.New("assistant run ID missing in API response")
	}

	c.log.Debug().Str("thread", thread.ID).Str("run", run.ID).Msg("assistant run started")

	// Poll until terminal state. Fixed interval, no backoff; the ceiling is
	// the only bound on total latency.
	statusURL := base + "/threads/" + thread.ID + "/runs/" + run.ID
	var waited time.Duration
	for {
		raw, err := c.do(ctx, http.MethodGet, statusURL, creds.APIKey, nil, "poll run")
		if err != nil {
			return "", err
		}
		var st struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(raw, &st)

		switch st.Status {
		case "completed", "requires_action":
			// requires_action is treated as done: no tool-call handling,
			// go straight to the messages.
			return c.lastAssistantText(ctx, base, creds.APIKey, thread.ID)
		case "failed", "cancelled", "expired":
			return "", &RunStateError{State: st.Status}
		}

		if waited >= c.maxWait {
			return "", fmt.Errorf("%w after %s", ErrRunTimeout, waited)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
		waited += c.pollInterval
	}
}

func (c *Client) uploadImage(ctx context.Context, base, apiKey string, img Image) (string, error) {
	name := img.Name
	if name == "" {
		name = "screenshot.png"
	}

	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return "", fmt.Errorf("decode image %s: %w", name, err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.WriteField("purpose", "vision"); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/files", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", &APIError{Step: "upload image " + name, StatusCode: resp.StatusCode, Body: snippet(body)}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.ID == "" {
		return "", fmt.Errorf("upload image %s: file ID missing in API response", name)
	}
	return out.ID, nil
}

func (c *Client) lastAssistantText(ctx context.Context, base, apiKey, threadID string) (string, error) {
	raw, err := c.do(ctx, http.MethodGet, base+"/threads/"+threadID+"/messages?limit=10", apiKey, nil, "fetch messages")
	if err != nil {
		return "", err
	}

	var out struct {
		Data []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text struct {
					Value string `json:"value"`
				} `json:"text"`
			} `json:"content"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("fetch messages: %w", err)
	}

	for _, msg := range out.Data {
		if msg.Role != "assistant" {
			continue
		}
		for _, part := range msg.Content {
			if part.Type == "text" {
				c.log.Debug().Str("thread", threadID).Msg("assistant reply received")
				return part.Text.Value, nil
			}
		}
	}
	return "", nil
}

func (c *Client) do(ctx context.Context, method, url, apiKey string, payload any, step string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, &APIError{Step: step, StatusCode: resp.StatusCode, Body: snippet(raw)}
	}
	return raw, nil
}
