package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ProxyClient calls a completion proxy that answers with a `data: {type, content}`
// event stream.
type ProxyClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewProxyClient creates a client for endpoint. The timeout covers the whole
// streamed response, so keep it generous.
func NewProxyClient(apiKey, endpoint string, timeout time.Duration) *ProxyClient {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ProxyClient{
		apiKey:   apiKey,
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// StreamCompletion posts req and concatenates every event's content in arrival
// order, passing each non-empty piece to onChunk.
func (c *ProxyClient) StreamCompletion(ctx context.Context, req CompletionRequest, onChunk func(string)) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("completion proxy endpoint not configured")
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Printf("Completion proxy error response body: %s", string(body))
		return "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var sb strings.Builder
	completed := false
	err = DecodeEventStream(resp.Body, func(ev Event) error {
		switch ev.Type {
		case EventError:
			return fmt.Errorf("completion proxy reported error: %s", ev.Content)
		case EventComplete:
			completed = true
		case EventProgress:
		default:
			log.Printf("WARN: unknown completion event type %q, keeping content", ev.Type)
		}
		if ev.Content != "" {
			sb.WriteString(ev.Content)
			if onChunk != nil {
				onChunk(ev.Content)
			}
		}
		return nil
	})
	if err != nil {
		return sb.String(), err
	}
	if !completed {
		log.Printf("WARN: completion stream for mode %q closed without a complete event", req.Mode)
	}
	return sb.String(), nil
}

// StatusError is a non-200 answer from the completion proxy.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion proxy returned non-success status: %s", e.Status)
}
