// Package client implements the StudyToolsGPT terminal client core: the
// proxy HTTP client and the request lifecycle controller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adithyag/studytoolsgpt/internal/domain"
)

// ErrProxyUnavailable reports a failure reaching the proxy.
var ErrProxyUnavailable = errors.New("proxy unavailable")

// Reply is the strict tagged union decoded from a respond call: exactly one
// of Document or Text is set, selected by Kind.
type Reply struct {
	Kind     domain.Kind
	Document *domain.StructuredDocument
	Text     string
}

// HTTPClient talks to the proxy API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the proxy at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

type respondPayload struct {
	ModeLabel string            `json:"modeLabel"`
	Messages  []domain.ChatTurn `json:"messages"`
}

type respondReply struct {
	Kind     domain.Kind     `json:"kind"`
	Document json.RawMessage `json:"document"`
	Text     *string         `json:"text"`
	Error    string          `json:"error"`
}

// Respond posts one conversation turn and decodes the tagged reply.
func (c *HTTPClient) Respond(ctx context.Context, modeLabel string, turns []domain.ChatTurn) (*Reply, error) {
	if turns == nil {
		turns = []domain.ChatTurn{}
	}
	body, err := json.Marshal(respondPayload{ModeLabel: modeLabel, Messages: turns})
	if err != nil {
		return nil, fmt.Errorf("marshal respond payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/respond", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build respond request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrProxyUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrProxyUnavailable, err)
	}

	var reply respondReply
	if err := json.Unmarshal(payload, &reply); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrProxyUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		if reply.Error != "" {
			return nil, fmt.Errorf("proxy error: %s", reply.Error)
		}
		return nil, fmt.Errorf("proxy error: status %d", resp.StatusCode)
	}

	switch reply.Kind {
	case domain.KindStructured:
		doc, err := domain.ParseDocument(reply.Document)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProxyUnavailable, err)
		}
		return &Reply{Kind: domain.KindStructured, Document: doc}, nil
	case domain.KindText:
		if reply.Text == nil {
			return nil, fmt.Errorf("%w: text reply without text", ErrProxyUnavailable)
		}
		return &Reply{Kind: domain.KindText, Text: *reply.Text}, nil
	default:
		return nil, fmt.Errorf("%w: unknown reply kind %q", ErrProxyUnavailable, reply.Kind)
	}
}

// Health pings the proxy health endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProxyUnavailable, err)
	}
	defer resp.Body.Close()

	var status struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil || !status.OK {
		return fmt.Errorf("%w: unhealthy reply", ErrProxyUnavailable)
	}
	return nil
}
