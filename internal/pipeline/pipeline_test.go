package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen_server/internal/orchestrator"
	"sitegen_server/internal/plan"
	"sitegen_server/internal/policy"
	"sitegen_server/internal/quality"
	"sitegen_server/internal/sandbox"
	"sitegen_server/internal/store"
	"sitegen_server/internal/tree"
	"sitegen_server/internal/types"
)

const appWithDanglingPage = `import Home from './pages/Home';
import About from './pages/About';

export default function App() {
  return (
    <div>
      <Home />
      <About />
    </div>
  );
}
`

const homePage = `export default function Home() {
  return (
    <main>
      <h1>Welcome</h1>
    </main>
  );
}
`

type fakeRunner struct {
	files      []types.FileRecord
	overwrites []string
	err        error
	plans      []plan.ProjectPlan
}

func (f *fakeRunner) Run(ctx context.Context, p plan.ProjectPlan, progress types.ProgressFunc) (*orchestrator.Result, error) {
	f.plans = append(f.plans, p)
	if f.err != nil {
		return nil, f.err
	}
	t, err := tree.FromRecords(f.files)
	if err != nil {
		return nil, err
	}
	return &orchestrator.Result{Tree: t, Overwrites: f.overwrites}, nil
}

type fakePlanner struct {
	draft plan.Draft
	err   error
}

func (f fakePlanner) DraftPlan(ctx context.Context, request string, allowed []string) (plan.Draft, error) {
	return f.draft, f.err
}

func newService(t *testing.T, d Deps) *Service {
	t.Helper()
	s, err := store.New[*Project](8)
	require.NoError(t, err)
	d.Store = s
	d.Policy = policy.Default()
	return NewService(d)
}

func collect(events *[]types.ProgressEvent) types.ProgressFunc {
	return func(ev types.ProgressEvent) { *events = append(*events, ev) }
}

func TestGenerateRepairsScoresAndStores(t *testing.T) {
	runner := &fakeRunner{
		files: []types.FileRecord{
			{Path: "src/App.jsx", Content: appWithDanglingPage},
			{Path: "src/pages/Home.jsx", Content: homePage},
		},
		overwrites: []string{"src/App.jsx"},
	}
	svc := newService(t, Deps{Runner: runner})

	var events []types.ProgressEvent
	project, err := svc.Generate(context.Background(), `A landing page for "Acme Bakery"`, collect(&events))
	require.NoError(t, err)

	assert.False(t, project.Blocked())
	assert.True(t, project.Tree.Exists("src/pages/About.jsx"), "dangling page import should be synthesised")
	assert.True(t, project.Tree.Exists("src/main.jsx"))
	assert.True(t, project.Tree.Exists("package.json"))
	assert.NotEmpty(t, project.Fixes)

	stored, err := svc.Get(project.ID.String())
	require.NoError(t, err)
	assert.Same(t, project, stored)

	var sawOverwrite, sawScore bool
	for _, ev := range events {
		switch ev.Stage {
		case "MERGE":
			sawOverwrite = ev.Type == types.ProgressWarning
		case "SCORE":
			sawScore = true
		}
	}
	assert.True(t, sawOverwrite)
	assert.True(t, sawScore)
}

func TestGenerateRejectsEmptyRequest(t *testing.T) {
	svc := newService(t, Deps{Runner: &fakeRunner{}})
	_, err := svc.Generate(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyRequest)
}

func TestGenerateSurfacesStageError(t *testing.T) {
	boom := &orchestrator.StageError{Stage: orchestrator.StageComponents, Unit: "Header", Err: errors.New("timeout")}
	svc := newService(t, Deps{Runner: &fakeRunner{err: boom}})

	project, err := svc.Generate(context.Background(), "a portfolio", nil)
	assert.Nil(t, project)
	_, ok := orchestrator.IsStageError(err)
	assert.True(t, ok)
}

func TestPlanFallsBackWhenDraftFails(t *testing.T) {
	svc := newService(t, Deps{Runner: &fakeRunner{}, Planner: fakePlanner{err: errors.New("rate limited")}})
	request := "a restaurant site with a menu"
	assert.Equal(t, plan.Build(request, policy.Default()).Kind(), svc.Plan(context.Background(), request).Kind())
}

func TestPlanUsesDraft(t *testing.T) {
	svc := newService(t, Deps{
		Runner:  &fakeRunner{},
		Planner: fakePlanner{draft: plan.Draft{ProjectKind: "portfolio", Components: []string{"Gallery"}}},
	})
	p := svc.Plan(context.Background(), "something")
	assert.Equal(t, "portfolio", p.Kind())
	assert.Equal(t, []string{"Gallery"}, p.Components())
}

func TestAutoHandoffWritesProject(t *testing.T) {
	ws := t.TempDir()
	runner := &fakeRunner{files: []types.FileRecord{{Path: "src/pages/Home.jsx", Content: homePage}}}
	svc := newService(t, Deps{Runner: runner, Runtime: sandbox.NewRuntime(ws, ""), AutoHandoff: true})

	project, err := svc.Generate(context.Background(), "a blog", nil)
	require.NoError(t, err)
	require.NotNil(t, project.Handoff)
	_, err = os.Stat(filepath.Join(ws, project.ID.String(), "src", "App.jsx"))
	assert.NoError(t, err)
}

func TestHandoffRefusesBlockedProject(t *testing.T) {
	svc := newService(t, Deps{Runner: &fakeRunner{}, Runtime: sandbox.NewRuntime(t.TempDir(), "")})
	id := uuid.New()
	svc.store.Put(id.String(), &Project{
		ID:   id,
		Tree: tree.New(),
		Report: quality.NewReport([]quality.FileScore{
			quality.NewFileScore("src/main.jsx", []types.Issue{{Kind: "missing-entry", Severity: types.SeverityCritical, Message: "no entry"}}),
		}),
	})

	_, err := svc.Handoff(context.Background(), id.String())
	assert.ErrorIs(t, err, ErrBlocked)
	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Len(t, blocked.Issues, 1)
}

func TestHandoffWithoutRuntime(t *testing.T) {
	runner := &fakeRunner{files: []types.FileRecord{{Path: "src/pages/Home.jsx", Content: homePage}}}
	svc := newService(t, Deps{Runner: runner})
	project, err := svc.Generate(context.Background(), "a blog", nil)
	require.NoError(t, err)

	_, err = svc.Handoff(context.Background(), project.ID.String())
	assert.ErrorIs(t, err, sandbox.ErrNoRuntime)
}

func TestHandoffUnknownProject(t *testing.T) {
	svc := newService(t, Deps{Runner: &fakeRunner{}})
	_, err := svc.Handoff(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRepairPostedFiles(t *testing.T) {
	svc := newService(t, Deps{Runner: &fakeRunner{}})
	project, err := svc.Repair([]types.FileRecord{
		{Path: "src/App.jsx", Content: appWithDanglingPage},
		{Path: "src/pages/Home.jsx", Content: homePage},
	}, "", nil)
	require.NoError(t, err)
	assert.True(t, project.Tree.Exists("src/pages/About.jsx"))
	assert.Empty(t, project.Report.Blocking())
}
