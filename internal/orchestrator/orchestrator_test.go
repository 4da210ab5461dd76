package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen_server/internal/ai"
	"sitegen_server/internal/plan"
	"sitegen_server/internal/policy"
	"sitegen_server/internal/types"
)

// scriptedCompleter answers each request via respond and streams the answer in
// small chunks so the parser sees split markers.
type scriptedCompleter struct {
	respond func(req ai.CompletionRequest) (string, error)
	calls   []ai.CompletionRequest
}

func (s *scriptedCompleter) StreamCompletion(ctx context.Context, req ai.CompletionRequest, onChunk func(string)) (string, error) {
	s.calls = append(s.calls, req)
	text, err := s.respond(req)
	if err != nil {
		return "", err
	}
	for i := 0; i < len(text); i += 5 {
		end := i + 5
		if end > len(text) {
			end = len(text)
		}
		onChunk(text[i:end])
	}
	return text, nil
}

var createRe = regexp.MustCompile("Create exactly one file: `([^`]+)`")

func fileFor(req ai.CompletionRequest) string {
	switch req.Mode {
	case ai.ModeStructure:
		return `<file path="package.json">{"dependencies":{}}</file>
<file path="src/main.jsx">import App from './App'</file>`
	default:
		m := createRe.FindStringSubmatch(req.Prompt)
		if m == nil {
			return ""
		}
		return fmt.Sprintf("Sure!\n<file path=%q>\nexport default function X() { return <div/> }\n</file>\n", m[1])
	}
}

func testPlan() plan.ProjectPlan {
	return plan.New("landing", []string{"Header", "Footer"}, []string{"Home"}, nil, "a site for Acme")
}

func noSleep(recorded *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*recorded = append(*recorded, d)
		return nil
	}
}

func TestRunAllStagesInOrder(t *testing.T) {
	c := &scriptedCompleter{respond: func(req ai.CompletionRequest) (string, error) { return fileFor(req), nil }}
	o := New(c, policy.Default(), 2*time.Second)
	var sleeps []time.Duration
	o.Sleep = noSleep(&sleeps)

	var events []types.ProgressEvent
	res, err := o.Run(context.Background(), testPlan(), func(ev types.ProgressEvent) { events = append(events, ev) })
	require.NoError(t, err)

	var modes []string
	for _, call := range c.calls {
		modes = append(modes, call.Mode)
	}
	assert.Equal(t, []string{ai.ModeStructure, ai.ModeComponent, ai.ModeComponent, ai.ModePage, ai.ModeRoot}, modes)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second}, sleeps)

	require.Len(t, res.Stages, 4)
	assert.Equal(t, StageStructure, res.Stages[0].Stage)
	assert.Equal(t, 2, res.Stages[1].Units)
	assert.Equal(t, []string{
		"package.json",
		"src/main.jsx",
		"src/components/Header.jsx",
		"src/components/Footer.jsx",
		"src/pages/Home.jsx",
		"src/App.jsx",
	}, res.Tree.Paths())

	// The composition root prompt lists everything generated before it.
	assert.Contains(t, c.calls[4].Prompt, "src/pages/Home.jsx")

	var kinds []types.ProgressType
	for _, ev := range events {
		kinds = append(kinds, ev.Type)
	}
	assert.Equal(t, types.ProgressInfo, kinds[0])
	assert.NotContains(t, kinds, types.ProgressError)
	assert.Equal(t, types.ProgressSuccess, kinds[len(kinds)-1])
}

func TestUnitFailureAbortsWithPartial(t *testing.T) {
	boom := errors.New("connection reset")
	c := &scriptedCompleter{respond: func(req ai.CompletionRequest) (string, error) {
		if req.Mode == ai.ModeComponent && strings.Contains(req.Prompt, "**Footer**") {
			return "", boom
		}
		return fileFor(req), nil
	}}
	o := New(c, policy.Default(), 0)

	var last types.ProgressEvent
	res, err := o.Run(context.Background(), testPlan(), func(ev types.ProgressEvent) { last = ev })
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)

	se, ok := IsStageError(err)
	require.True(t, ok)
	assert.Equal(t, StageComponents, se.Stage)
	assert.Equal(t, "Footer", se.Unit)
	require.Len(t, se.Partial.Files, 1)
	assert.Equal(t, "src/components/Header.jsx", se.Partial.Files[0].Path)
	assert.Equal(t, types.ProgressError, last.Type)

	// No further requests after the failure.
	assert.Len(t, c.calls, 3)
}

func TestCancelledDelayAborts(t *testing.T) {
	c := &scriptedCompleter{respond: func(req ai.CompletionRequest) (string, error) { return fileFor(req), nil }}
	o := New(c, policy.Default(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	o.Sleep = func(ctx context.Context, d time.Duration) error {
		calls++
		cancel()
		return sleepContext(ctx, d)
	}
	_, err := o.Run(ctx, testPlan(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Len(t, c.calls, 1)
}

func TestTruncatedUnitIsWarningNotFailure(t *testing.T) {
	c := &scriptedCompleter{respond: func(req ai.CompletionRequest) (string, error) {
		if req.Mode == ai.ModePage {
			return `<file path="src/pages/Home.jsx">export default function Home() {`, nil
		}
		return fileFor(req), nil
	}}
	o := New(c, policy.Default(), 0)

	var warnings []string
	res, err := o.Run(context.Background(), testPlan(), func(ev types.ProgressEvent) {
		if ev.Type == types.ProgressWarning {
			warnings = append(warnings, ev.Message)
		}
	})
	require.NoError(t, err)
	assert.False(t, res.Tree.Exists("src/pages/Home.jsx"))
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "truncated-block", res.Issues[0].Kind)
	assert.NotEmpty(t, warnings)
}

func TestLaterStageOverwriteIsRecorded(t *testing.T) {
	c := &scriptedCompleter{respond: func(req ai.CompletionRequest) (string, error) {
		if req.Mode == ai.ModeRoot {
			return `<file path="src/App.jsx">root</file><file path="src/main.jsx">rewritten</file>`, nil
		}
		return fileFor(req), nil
	}}
	o := New(c, policy.Default(), 0)

	res, err := o.Run(context.Background(), testPlan(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.jsx"}, res.Overwrites)
	content, _ := res.Tree.Content("src/main.jsx")
	assert.Equal(t, "rewritten", content)
}

func TestEmptyComponentListSkipsStage(t *testing.T) {
	c := &scriptedCompleter{respond: func(req ai.CompletionRequest) (string, error) { return fileFor(req), nil }}
	o := New(c, policy.Default(), 0)
	p := plan.New("landing", nil, []string{"Home"}, nil, "r")

	res, err := o.Run(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stages[1].Units)
	assert.Len(t, c.calls, 3)
}

func TestStageSequence(t *testing.T) {
	var seq []Stage
	for s := StageStructure; s != StageDone; s = s.Next() {
		seq = append(seq, s)
	}
	assert.Equal(t, []Stage{StageStructure, StageComponents, StagePages, StageCompositionRoot}, seq)
	assert.Equal(t, StageDone, StageDone.Next())
}
