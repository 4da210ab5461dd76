package ai

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEvents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeEvent(&buf, Event{Type: EventProgress, Content: "<file path=\"a\">"}))
	require.NoError(t, EncodeEvent(&buf, Event{Type: EventComplete, Content: "x</file>"}))
	assert.True(t, strings.HasPrefix(buf.String(), "data: {"))

	var got []Event
	require.NoError(t, DecodeEventStream(&buf, func(ev Event) error {
		got = append(got, ev)
		return nil
	}))
	assert.Equal(t, []Event{
		{Type: EventProgress, Content: "<file path=\"a\">"},
		{Type: EventComplete, Content: "x</file>"},
	}, got)
}

func TestDecodeSkipsMalformedChunks(t *testing.T) {
	stream := "data: {\"type\":\"progress\",\"content\":\"a\"}\n\n" +
		"data: {not json\n\n" +
		": keep-alive comment\n\n" +
		"event: message\ndata: {\"type\":\"progress\",\"content\":\"b\"}\n\n" +
		"data: [DONE]\n\n" +
		"data: {\"type\":\"complete\",\"content\":\"c\"}"

	var content strings.Builder
	require.NoError(t, DecodeEventStream(strings.NewReader(stream), func(ev Event) error {
		content.WriteString(ev.Content)
		return nil
	}))
	assert.Equal(t, "abc", content.String())
}

func TestDecodeStopsOnCallbackError(t *testing.T) {
	stream := "data: {\"type\":\"error\",\"content\":\"boom\"}\n\ndata: {\"type\":\"progress\",\"content\":\"late\"}\n\n"
	calls := 0
	err := DecodeEventStream(strings.NewReader(stream), func(ev Event) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}
