package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyClientConcatenatesEvents(t *testing.T) {
	var gotReq CompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "text/event-stream")
		_ = EncodeEvent(w, Event{Type: EventProgress, Content: "<file path=\"a.js\">"})
		_, _ = w.Write([]byte("data: garbage\n\n"))
		_ = EncodeEvent(w, Event{Type: EventProgress, Content: "x"})
		_ = EncodeEvent(w, Event{Type: EventComplete, Content: "</file>"})
	}))
	defer srv.Close()

	c := NewProxyClient("secret", srv.URL, time.Second)
	var chunks []string
	text, err := c.StreamCompletion(context.Background(), CompletionRequest{Prompt: "p", Mode: ModeComponent}, func(s string) {
		chunks = append(chunks, s)
	})
	require.NoError(t, err)
	assert.Equal(t, "<file path=\"a.js\">x</file>", text)
	assert.Len(t, chunks, 3)
	assert.Equal(t, CompletionRequest{Prompt: "p", Mode: ModeComponent}, gotReq)
}

func TestProxyClientNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewProxyClient("", srv.URL, time.Second).StreamCompletion(context.Background(), CompletionRequest{Prompt: "p"}, nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestProxyClientErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = EncodeEvent(w, Event{Type: EventProgress, Content: "partial"})
		_ = EncodeEvent(w, Event{Type: EventError, Content: "upstream failed"})
	}))
	defer srv.Close()

	text, err := NewProxyClient("", srv.URL, time.Second).StreamCompletion(context.Background(), CompletionRequest{Prompt: "p"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream failed")
	assert.Equal(t, "partial", text)
}

func TestProxyClientUnconfigured(t *testing.T) {
	_, err := NewProxyClient("", "", 0).StreamCompletion(context.Background(), CompletionRequest{Prompt: "p"}, nil)
	assert.Error(t, err)
}
