// Package upstream implements the OpenAI-compatible completion client used
// by the proxy. Two call shapes exist: free-text completion and
// schema-constrained structured completion.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/adithyag/studytoolsgpt/internal/prompt"
)

// ErrRequestFailed reports a network or service-level failure calling the
// model.
var ErrRequestFailed = errors.New("upstream request failed")

const defaultRequestTimeout = 60 * time.Second

// Client handles communication with the completion API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a new completion client.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaSpec struct {
	Name   string `json:"name"`
	Strict bool   `json:"strict"`
	Schema any    `json:"schema"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CompleteText requests a free-text completion.
func (c *Client) CompleteText(ctx context.Context, instruction string, history []prompt.Turn, temperature float64) (string, error) {
	return c.complete(ctx, instruction, history, temperature, nil)
}

// CompleteStructured requests a completion constrained to the cheat sheet
// schema with deterministic decoding. The returned payload is the raw JSON
// document; the caller validates it.
func (c *Client) CompleteStructured(ctx context.Context, instruction string, history []prompt.Turn) (json.RawMessage, error) {
	content, err := c.complete(ctx, instruction, history, 0, &responseFormat{
		Type: "json_schema",
		JSONSchema: &jsonSchemaSpec{
			Name:   "cheat_sheet",
			Strict: true,
			Schema: CheatSheetSchema(),
		},
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(content), nil
}

func (c *Client) complete(ctx context.Context, instruction string, history []prompt.Turn, temperature float64, format *responseFormat) (string, error) {
	messages := make([]chatMessage, 0, len(history)+1)
	messages = append(messages, chatMessage{Role: "system", Content: instruction})
	for _, t := range history {
		messages = append(messages, chatMessage{Role: t.Role, Content: t.Content})
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    temperature,
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close upstream response body", "error", closeErr)
		}
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrRequestFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, apiErrorMessage(payload))
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: response contains no choices", ErrRequestFailed)
	}
	return parsed.Choices[0].Message.Content, nil
}

// apiErrorMessage extracts a human-readable message from an error payload,
// falling back to the raw body.
func apiErrorMessage(payload []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	msg := strings.TrimSpace(string(payload))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return msg
}
