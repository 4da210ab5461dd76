// Package repair runs the fixed sequence of structural repair passes over a
// generated tree. Each pass is idempotent and reports what it changed.
package repair

import (
	"fmt"
	"log"

	"sitegen_server/internal/plan"
	"sitegen_server/internal/policy"
	"sitegen_server/internal/tree"
	"sitegen_server/internal/types"
)

// Env is the read-only context every pass receives.
type Env struct {
	Plan   plan.ProjectPlan
	Policy policy.GenerationPolicy
}

// Fix describes one change a pass made.
type Fix struct {
	Pass        string `json:"pass"`
	File        string `json:"file"`
	Description string `json:"description"`
}

// Result is what a single pass reports.
type Result struct {
	Fixes  []Fix
	Issues []types.Issue
}

func (r *Result) fix(pass, file, format string, args ...any) {
	r.Fixes = append(r.Fixes, Fix{Pass: pass, File: file, Description: fmt.Sprintf(format, args...)})
}

func (r *Result) issue(kind string, sev types.Severity, file, format string, args ...any) {
	r.Issues = append(r.Issues, types.Issue{Kind: kind, Severity: sev, File: file, Message: fmt.Sprintf(format, args...)})
}

// Pass is one repair step. Apply mutates t in place.
type Pass interface {
	Name() string
	Apply(t *tree.Tree, env Env) Result
}

// Report aggregates every pass of one engine run.
type Report struct {
	Fixes  []Fix         `json:"fixes"`
	Issues []types.Issue `json:"issues"`
	// Counts maps pass name to the number of fixes it made.
	Counts map[string]int `json:"counts"`
}

// Engine applies passes in order. Later passes rely on what earlier ones
// guarantee, so the order is fixed at construction.
type Engine struct {
	passes []Pass
}

// NewEngine returns an engine running the given passes in order.
func NewEngine(passes ...Pass) *Engine {
	return &Engine{passes: passes}
}

// DefaultEngine returns the standard six-pass engine.
func DefaultEngine() *Engine {
	return NewEngine(
		&DependencyReconciler{},
		&ScaffoldCompleter{},
		&PlaceholderRegenerator{},
		&ImportNormalizer{},
		&StylingFixer{},
		&MarkupBalancer{Fixer: LineBalancer{}},
	)
}

// Passes returns the pass names in run order.
func (e *Engine) Passes() []string {
	names := make([]string, len(e.passes))
	for i, p := range e.passes {
		names[i] = p.Name()
	}
	return names
}

// Run applies every pass to t and reports each fix to progress.
func (e *Engine) Run(t *tree.Tree, env Env, progress types.ProgressFunc) Report {
	report := Report{Counts: make(map[string]int, len(e.passes))}
	for _, p := range e.passes {
		res := p.Apply(t, env)
		report.Fixes = append(report.Fixes, res.Fixes...)
		report.Issues = append(report.Issues, res.Issues...)
		report.Counts[p.Name()] = len(res.Fixes)

		for _, f := range res.Fixes {
			progress.Emit(types.ProgressInfo, "REPAIR", fmt.Sprintf("%s: %s (%s)", p.Name(), f.Description, f.File))
		}
		for _, is := range res.Issues {
			progress.Emit(types.ProgressWarning, "REPAIR", fmt.Sprintf("%s: %s (%s)", p.Name(), is.Message, is.File))
		}
		if len(res.Fixes) > 0 {
			log.Printf("Info: repair pass %s applied %d fix(es)", p.Name(), len(res.Fixes))
		}
	}
	progress.Emit(types.ProgressSuccess, "REPAIR", fmt.Sprintf("Repair complete: %d fix(es) across %d passes", len(report.Fixes), len(e.passes)))
	return report
}
