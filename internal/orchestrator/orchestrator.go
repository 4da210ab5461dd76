// Package orchestrator drives the fixed generation stages against a streaming
// completion endpoint and assembles the parsed files into one tree.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"sitegen_server/internal/ai"
	"sitegen_server/internal/ai/prompts"
	"sitegen_server/internal/parser"
	"sitegen_server/internal/plan"
	"sitegen_server/internal/policy"
	"sitegen_server/internal/tree"
	"sitegen_server/internal/types"
)

// Completer streams one completion. onChunk receives text pieces in arrival
// order; the returned string is their concatenation.
type Completer interface {
	StreamCompletion(ctx context.Context, req ai.CompletionRequest, onChunk func(string)) (string, error)
}

// DefaultUnitDelay spaces consecutive completion requests.
const DefaultUnitDelay = 1500 * time.Millisecond

// Orchestrator runs STRUCTURE -> COMPONENTS -> PAGES -> COMPOSITION_ROOT -> DONE.
// It holds no per-run state and may serve concurrent runs.
type Orchestrator struct {
	completer Completer
	policy    policy.GenerationPolicy
	delay     time.Duration

	// Sleep waits between requests; replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New returns an Orchestrator. A negative delay is treated as zero.
func New(c Completer, pol policy.GenerationPolicy, delay time.Duration) *Orchestrator {
	if delay < 0 {
		delay = 0
	}
	return &Orchestrator{
		completer: c,
		policy:    pol,
		delay:     delay,
		Sleep:     sleepContext,
	}
}

// Policy returns the generation policy the orchestrator prompts with.
func (o *Orchestrator) Policy() policy.GenerationPolicy { return o.policy }

// Result is the outcome of a completed run.
type Result struct {
	Tree   *tree.Tree
	Stages []StageResult
	// Issues are soft parser issues (truncated or nested blocks).
	Issues []types.Issue
	// Overwrites lists paths a later unit replaced. Last write wins.
	Overwrites []string
}

// StageError aborts a run. Partial holds what the stage produced before the
// failing unit; it is kept for diagnostics and never handed off.
type StageError struct {
	Stage   Stage
	Unit    string
	Partial StageResult
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed at %s: %v", e.Stage, e.Unit, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type unit struct {
	name string
	mode string
	// prompt is built lazily so the composition root sees every earlier file.
	prompt func(t *tree.Tree) string
}

type run struct {
	tree     *tree.Tree
	requests int
	result   *Result
}

// Run executes every stage in order for p. On failure the returned error is a
// *StageError and no tree is returned.
func (o *Orchestrator) Run(ctx context.Context, p plan.ProjectPlan, progress types.ProgressFunc) (*Result, error) {
	r := &run{tree: tree.New(), result: &Result{}}

	for stage := StageStructure; stage != StageDone; stage = stage.Next() {
		units := o.units(stage, p)
		progress.Emit(types.ProgressInfo, string(stage), fmt.Sprintf("Starting %s (%d request(s))", stage.Label(), len(units)))

		sr, err := o.runStage(ctx, r, stage, units, progress)
		if err != nil {
			progress.Emit(types.ProgressError, string(stage), err.Error())
			return nil, err
		}
		r.result.Stages = append(r.result.Stages, sr)
		progress.Emit(types.ProgressSuccess, string(stage), fmt.Sprintf("Finished %s: %d file(s)", stage.Label(), len(sr.Files)))
	}

	r.result.Tree = r.tree
	return r.result, nil
}

func (o *Orchestrator) units(stage Stage, p plan.ProjectPlan) []unit {
	pol := o.policy
	switch stage {
	case StageStructure:
		return []unit{{name: "scaffold", mode: ai.ModeStructure, prompt: func(*tree.Tree) string {
			return prompts.StructurePrompt(p, pol)
		}}}
	case StageComponents:
		var out []unit
		for _, name := range p.Components() {
			name := name
			out = append(out, unit{name: name, mode: ai.ModeComponent, prompt: func(*tree.Tree) string {
				return prompts.ComponentPrompt(p, pol, name)
			}})
		}
		return out
	case StagePages:
		var out []unit
		for _, name := range p.Pages() {
			name := name
			out = append(out, unit{name: name, mode: ai.ModePage, prompt: func(*tree.Tree) string {
				return prompts.PagePrompt(p, pol, name)
			}})
		}
		return out
	case StageCompositionRoot:
		return []unit{{name: "App", mode: ai.ModeRoot, prompt: func(t *tree.Tree) string {
			return prompts.RootPrompt(p, pol, t.Paths())
		}}}
	}
	return nil
}

func (o *Orchestrator) runStage(ctx context.Context, r *run, stage Stage, units []unit, progress types.ProgressFunc) (StageResult, error) {
	sr := StageResult{Stage: stage}
	if len(units) == 0 {
		progress.Emit(types.ProgressWarning, string(stage), fmt.Sprintf("Nothing planned for %s", stage.Label()))
		return sr, nil
	}

	var raw strings.Builder
	for _, u := range units {
		if r.requests > 0 {
			if err := o.Sleep(ctx, o.delay); err != nil {
				sr.RawText = raw.String()
				return sr, &StageError{Stage: stage, Unit: u.name, Partial: sr, Err: err}
			}
		}
		r.requests++

		prs := parser.New()
		text, err := o.completer.StreamCompletion(ctx, ai.CompletionRequest{Prompt: u.prompt(r.tree), Mode: u.mode}, func(chunk string) {
			prs.Feed(chunk)
		})
		if err != nil {
			sr.RawText = raw.String()
			return sr, &StageError{Stage: stage, Unit: u.name, Partial: sr, Err: err}
		}
		if prs.Raw() == "" && text != "" {
			prs.Feed(text)
		}
		raw.WriteString(prs.Raw())
		sr.Units++

		for _, issue := range prs.Finish() {
			r.result.Issues = append(r.result.Issues, issue)
			progress.Emit(types.ProgressWarning, string(stage), fmt.Sprintf("%s: %s (%s)", u.name, issue.Message, issue.File))
		}
		for _, issue := range prs.Issues() {
			if issue.Kind == "nested-marker" {
				r.result.Issues = append(r.result.Issues, issue)
				progress.Emit(types.ProgressWarning, string(stage), fmt.Sprintf("%s: %s (%s)", u.name, issue.Message, issue.File))
			}
		}

		files := prs.Files()
		if len(files) == 0 {
			progress.Emit(types.ProgressWarning, string(stage), fmt.Sprintf("%s produced no files", u.name))
			continue
		}
		merged := o.merge(r, files, stage, progress)
		sr.Files = append(sr.Files, merged...)
		progress.Emit(types.ProgressSuccess, string(stage), fmt.Sprintf("Generated %s (%d file(s))", u.name, len(merged)))
	}
	sr.RawText = raw.String()
	return sr, nil
}

func (o *Orchestrator) merge(r *run, files []types.FileRecord, stage Stage, progress types.ProgressFunc) []types.FileRecord {
	var merged []types.FileRecord
	for _, f := range files {
		existed, err := r.tree.Upsert(f.Path, f.Content)
		if err != nil {
			log.Printf("WARN: skipping generated file %q: %v", f.Path, err)
			progress.Emit(types.ProgressWarning, string(stage), fmt.Sprintf("Skipped %s: %v", f.Path, err))
			continue
		}
		if existed {
			p := tree.NormalizePath(f.Path)
			r.result.Overwrites = append(r.result.Overwrites, p)
			log.Printf("Info: %s overwrote earlier content of %s", stage, p)
		}
		merged = append(merged, f)
	}
	return merged
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsStageError reports whether err aborted a stage and returns it.
func IsStageError(err error) (*StageError, bool) {
	var se *StageError
	ok := errors.As(err, &se)
	return se, ok
}
