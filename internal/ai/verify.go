package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// AssistantInfo is what the settings screen shows after a successful test.
type AssistantInfo struct {
	Name  string
	Model string
}

// Verify reads the assistant's metadata with the supplied credentials and maps
// the outcome onto the classified errors: a 401 means the key is bad, a 404
// means the assistant ID is bad, a timeout and any other network failure each
// get their own message.
func Verify(ctx context.Context, creds Credentials) (AssistantInfo, error) {
	cfg := openai.DefaultConfig(creds.APIKey)
	if base := strings.TrimRight(creds.APIBase, "/"); base != "" {
		cfg.BaseURL = base
	}
	client := openai.NewClientWithConfig(cfg)

	asst, err := client.RetrieveAssistant(ctx, creds.AssistantID)
	if err != nil {
		return AssistantInfo{}, classify(err)
	}

	info := AssistantInfo{Model: asst.Model}
	if asst.Name != nil {
		info.Name = *asst.Name
	}
	return info, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrAssistantNotFound, apiErr.Message)
		}
		return fmt.Errorf("assistant API error: HTTP %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusNotFound:
			return ErrAssistantNotFound
		}
		return fmt.Errorf("assistant API error: HTTP %d", reqErr.HTTPStatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return ErrConnectTimeout
	}
	return fmt.Errorf("assistant API unreachable: %w", err)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
