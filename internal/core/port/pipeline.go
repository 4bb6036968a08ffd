package port

import (
	"context"

	"creative-mango/internal/core/domain"
)

// Step names one pipeline stage.
type Step string

const (
	StepFetch   Step = "fetch"
	StepRemove  Step = "remove"
	StepUpload  Step = "upload"
	StepMapping Step = "refresh-mapping"
)

// ParseStep validates a step name from the CLI or HTTP surface.
func ParseStep(s string) (Step, bool) {
	switch Step(s) {
	case StepFetch, StepRemove, StepUpload, StepMapping:
		return Step(s), true
	}
	return "", false
}

// Pipeline is the primary port into the application: the four sync
// steps and the combined run. Implementations never abort a run on a
// per-row or per-campaign failure; problems are aggregated into the
// returned results.
type Pipeline interface {
	// Run executes all steps in the fixed order fetch, remove, upload,
	// refresh-mapping (the last gated by configuration).
	Run(ctx context.Context) domain.RunReport
	// RunStep executes a single step.
	RunStep(ctx context.Context, step Step) domain.StepResult
}
