package ai

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
)

// Event types carried on the completion event stream.
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// Event is one `data: {...}` frame of the completion stream.
type Event struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// EncodeEvent writes ev as a single server-sent-event frame.
func EncodeEvent(w io.Writer, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal stream event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", raw)
	return err
}

// maxFrameSize bounds one data line; a whole file can arrive in a single frame.
const maxFrameSize = 4 << 20

// DecodeEventStream reads frames from r and calls fn for each decoded event in
// arrival order. Frames with malformed JSON are logged and skipped; the stream
// carries on. Multi-line data fields are joined with newlines.
func DecodeEventStream(r io.Reader, fn func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	var data []string
	flush := func() error {
		if len(data) == 0 {
			return nil
		}
		payload := strings.Join(data, "\n")
		data = data[:0]
		if payload == "[DONE]" {
			return nil
		}
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			log.Printf("WARN: skipping malformed stream chunk (%v): %.120s", err, payload)
			return nil
		}
		return fn(ev)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// event:, id:, retry: and comments carry nothing we use.
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read completion stream: %w", err)
	}
	return flush()
}
