package orchestrator

import "sitegen_server/internal/types"

// Stage is one phase of the fixed generation pipeline.
type Stage string

const (
	StageStructure       Stage = "STRUCTURE"
	StageComponents      Stage = "COMPONENTS"
	StagePages           Stage = "PAGES"
	StageCompositionRoot Stage = "COMPOSITION_ROOT"
	StageDone            Stage = "DONE"
)

// Next is the stage that follows s. DONE is terminal.
func (s Stage) Next() Stage {
	switch s {
	case StageStructure:
		return StageComponents
	case StageComponents:
		return StagePages
	case StagePages:
		return StageCompositionRoot
	default:
		return StageDone
	}
}

// Label is the human-readable stage name used in progress messages.
func (s Stage) Label() string {
	switch s {
	case StageStructure:
		return "project structure"
	case StageComponents:
		return "components"
	case StagePages:
		return "pages"
	case StageCompositionRoot:
		return "composition root"
	default:
		return "done"
	}
}

// StageResult is what one stage produced. Files appear in the order they were
// merged; RawText is the concatenated completion text of every unit.
type StageResult struct {
	Stage   Stage              `json:"stageName"`
	Files   []types.FileRecord `json:"files"`
	RawText string             `json:"rawText"`
	Units   int                `json:"units"`
}
