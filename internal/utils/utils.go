package utils

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"

	"sitegen_server/internal/ai"
)

// ShouldRetry reports whether err looks transient. Nothing retries on its own;
// the answer is surfaced to callers as the "retryable" field of API errors.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *ai.StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}
	var openAIErr *openai.APIError
	if errors.As(err, &openAIErr) {
		return retryableStatus(openAIErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	errMsg := strings.ToLower(err.Error())
	for _, marker := range []string{"rate limit", "timeout", "connection reset by peer", "connection refused", "unexpected eof"} {
		if strings.Contains(errMsg, marker) {
			return true
		}
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// DetermineFileType names the kind of a generated file for listings.
func DetermineFileType(filename string) string {
	lowerFilename := strings.ToLower(filename)
	base := filepath.Base(lowerFilename)
	switch {
	case strings.Contains(base, ".config."):
		return "Config"
	case base == ".npmrc":
		return "Config"
	}
	switch filepath.Ext(lowerFilename) {
	case ".html":
		return "HTML"
	case ".css":
		return "CSS"
	case ".js", ".mjs", ".cjs":
		return "JavaScript"
	case ".jsx":
		return "JSX"
	case ".ts":
		return "TypeScript"
	case ".tsx":
		return "TSX"
	case ".json":
		return "JSON"
	case ".md":
		return "Markdown"
	case ".svg":
		return "SVG"
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico":
		return "Image"
	case ".txt":
		return "Text"
	default:
		return "Unknown"
	}
}
