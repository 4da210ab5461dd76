package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"sitegen_server/internal/ai"
)

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{fmt.Errorf("stream: %w", context.DeadlineExceeded), true},
		{&ai.StatusError{StatusCode: 429, Status: "429 Too Many Requests"}, true},
		{fmt.Errorf("unit Hero: %w", &ai.StatusError{StatusCode: 503}), true},
		{&ai.StatusError{StatusCode: 400}, false},
		{&openai.APIError{HTTPStatusCode: 500}, true},
		{&openai.APIError{HTTPStatusCode: 401}, false},
		{errors.New("read: connection reset by peer"), true},
		{errors.New("invalid prompt"), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ShouldRetry(c.err), "%v", c.err)
	}
}

func TestDetermineFileType(t *testing.T) {
	assert.Equal(t, "JSX", DetermineFileType("src/App.jsx"))
	assert.Equal(t, "Config", DetermineFileType("vite.config.js"))
	assert.Equal(t, "Config", DetermineFileType(".npmrc"))
	assert.Equal(t, "JSON", DetermineFileType("package.json"))
	assert.Equal(t, "CSS", DetermineFileType("src/index.css"))
	assert.Equal(t, "Unknown", DetermineFileType("LICENSE"))
}
