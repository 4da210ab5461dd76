// Package pipeline wires planning, staged generation, repair, scoring, the
// project cache and hand-off into one service.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitegen_server/internal/orchestrator"
	"sitegen_server/internal/plan"
	"sitegen_server/internal/policy"
	"sitegen_server/internal/quality"
	"sitegen_server/internal/repair"
	"sitegen_server/internal/sandbox"
	"sitegen_server/internal/store"
	"sitegen_server/internal/tree"
	"sitegen_server/internal/types"
)

var (
	// ErrBlocked wraps every BlockedError.
	ErrBlocked = errors.New("critical quality issues block hand-off")
	// ErrEmptyRequest is returned for a blank generation request.
	ErrEmptyRequest = errors.New("request must not be empty")
)

// BlockedError carries the critical issues that stopped hand-off.
type BlockedError struct {
	Issues []types.Issue
}

func (e *BlockedError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = fmt.Sprintf("%s: %s", is.File, is.Message)
	}
	return fmt.Sprintf("%v: %s", ErrBlocked, strings.Join(msgs, "; "))
}

func (e *BlockedError) Is(target error) bool { return target == ErrBlocked }

// Runner runs the generation stages for a plan.
type Runner interface {
	Run(ctx context.Context, p plan.ProjectPlan, progress types.ProgressFunc) (*orchestrator.Result, error)
}

// Planner drafts a plan with a model.
type Planner interface {
	DraftPlan(ctx context.Context, request string, allowed []string) (plan.Draft, error)
}

// Project is a generated (or repaired) project.
type Project struct {
	ID        uuid.UUID        `json:"id"`
	Plan      plan.ProjectPlan `json:"plan"`
	Tree      *tree.Tree       `json:"-"`
	Report    quality.Report   `json:"report"`
	Fixes     []repair.Fix     `json:"fixes"`
	Issues    []types.Issue    `json:"generationIssues,omitempty"`
	Handoff   *sandbox.Handoff `json:"handoff,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Blocked reports whether the project has critical issues.
func (p *Project) Blocked() bool { return len(p.Report.Blocking()) > 0 }

// Deps are the collaborators of a Service. Planner and Runtime are optional.
type Deps struct {
	Runner      Runner
	Policy      policy.GenerationPolicy
	Store       *store.Store[*Project]
	Engine      *repair.Engine
	Planner     Planner
	Runtime     *sandbox.Runtime
	AutoHandoff bool
}

// Service runs requests end to end. Each request is independent; the store is
// the only shared state.
type Service struct {
	runner      Runner
	policy      policy.GenerationPolicy
	store       *store.Store[*Project]
	engine      *repair.Engine
	planner     Planner
	runtime     *sandbox.Runtime
	autoHandoff bool

	handoffMu sync.Mutex
	now       func() time.Time
}

func NewService(d Deps) *Service {
	engine := d.Engine
	if engine == nil {
		engine = repair.DefaultEngine()
	}
	return &Service{
		runner:      d.Runner,
		policy:      d.Policy,
		store:       d.Store,
		engine:      engine,
		planner:     d.Planner,
		runtime:     d.Runtime,
		autoHandoff: d.AutoHandoff,
		now:         time.Now,
	}
}

// Plan builds the project plan. A model draft is used when a planner is set
// and succeeds; otherwise the keyword heuristics decide.
func (s *Service) Plan(ctx context.Context, request string) plan.ProjectPlan {
	if s.planner != nil {
		draft, err := s.planner.DraftPlan(ctx, request, s.policy.LibraryNames())
		if err == nil {
			return plan.FromDraft(request, draft, s.policy)
		}
		log.Printf("WARN: plan drafting failed, falling back to heuristics: %v", err)
	}
	return plan.Build(request, s.policy)
}

// Generate plans, generates, repairs and scores a project, then stores it.
// A project with critical issues is stored for inspection and returned along
// with a *BlockedError; it is never handed off.
func (s *Service) Generate(ctx context.Context, request string, progress types.ProgressFunc) (*Project, error) {
	if strings.TrimSpace(request) == "" {
		return nil, ErrEmptyRequest
	}
	p := s.Plan(ctx, request)
	progress.Emit(types.ProgressInfo, "PLAN", fmt.Sprintf("Planned %s site: %d component(s), %d page(s)", p.Kind(), len(p.Components()), len(p.Pages())))

	res, err := s.runner.Run(ctx, p, progress)
	if err != nil {
		log.Printf("ERROR: generation failed: %v", err)
		return nil, err
	}
	for _, path := range res.Overwrites {
		progress.Emit(types.ProgressWarning, "MERGE", fmt.Sprintf("A later stage replaced %s", path))
	}

	project := s.finish(p, res.Tree, res.Issues, progress)
	if project.Blocked() {
		return project, &BlockedError{Issues: project.Report.Blocking()}
	}
	if s.autoHandoff && s.runtime != nil {
		if _, err := s.Handoff(ctx, project.ID.String()); err != nil {
			progress.Emit(types.ProgressWarning, "HANDOFF", fmt.Sprintf("Hand-off failed: %v", err))
		}
	}
	return project, nil
}

// Repair runs the repair passes and scorer over posted files. request, when
// given, drives personalisation and the composition root template.
func (s *Service) Repair(files []types.FileRecord, request string, progress types.ProgressFunc) (*Project, error) {
	t, err := tree.FromRecords(files)
	if err != nil {
		return nil, fmt.Errorf("assemble posted files: %w", err)
	}
	p := plan.Build(request, s.policy)
	return s.finish(p, t, nil, progress), nil
}

func (s *Service) finish(p plan.ProjectPlan, t *tree.Tree, genIssues []types.Issue, progress types.ProgressFunc) *Project {
	rep := s.engine.Run(t, repair.Env{Plan: p, Policy: s.policy}, progress)
	report := quality.Score(t)
	progress.Emit(types.ProgressInfo, "SCORE", fmt.Sprintf("Quality score %d (%s), %d issue(s)", report.Score, report.Grade, len(report.Issues)))
	for _, is := range report.Blocking() {
		progress.Emit(types.ProgressError, "SCORE", fmt.Sprintf("Blocking: %s (%s)", is.Message, is.File))
	}

	project := &Project{
		ID:        uuid.New(),
		Plan:      p,
		Tree:      t,
		Report:    report,
		Fixes:     rep.Fixes,
		Issues:    append(genIssues, rep.Issues...),
		CreatedAt: s.now(),
	}
	s.store.Put(project.ID.String(), project)
	log.Printf("Info: stored project %s (%d files, score %d)", project.ID, len(t.Paths()), report.Score)
	return project
}

// Get returns a stored project.
func (s *Service) Get(id string) (*Project, error) {
	return s.store.Get(id)
}

// Handoff materialises a stored project through the runtime.
func (s *Service) Handoff(ctx context.Context, id string) (*sandbox.Handoff, error) {
	project, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if project.Blocked() {
		return nil, &BlockedError{Issues: project.Report.Blocking()}
	}
	if s.runtime == nil {
		return nil, sandbox.ErrNoRuntime
	}

	s.handoffMu.Lock()
	defer s.handoffMu.Unlock()
	h, err := s.runtime.Handoff(ctx, id, project.Tree, project.Report)
	if err != nil {
		return nil, err
	}
	project.Handoff = h
	return h, nil
}
