package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"creative-mango/internal/core/domain"
	"creative-mango/internal/core/port"
)

// Options carries the run-scoped settings of the sync pipeline.
type Options struct {
	// SpreadsheetIDs lists the sheets to process, in order.
	SpreadsheetIDs []string
	// DriveFolderIDs limits the fetch step to specific folders. Empty
	// means every folder the credentials can see.
	DriveFolderIDs []string
	// FetchLookback is how far back the fetch step looks for new files.
	FetchLookback time.Duration
	// YouTubeEnabled switches on video uploads to the managed channel.
	YouTubeEnabled bool
	// YouTubeWindow is how far back channel uploads are listed during
	// fetch. Zero disables channel listing.
	YouTubeWindow time.Duration
	// YouTubeWait bounds the poll for video processing after upload.
	YouTubeWait time.Duration
	// RefreshMapping gates the final step of a combined run.
	RefreshMapping bool
	// LoginCustomerID is the manager account used to enumerate child
	// accounts. Empty means all accessible customers.
	LoginCustomerID string
	// AliasFromAppID and AliasFromCampaign derive a default ad group
	// alias when the Mapping sheet has none.
	AliasFromAppID    bool
	AliasFromCampaign bool
}

// SyncService implements port.Pipeline. It orchestrates the sheet,
// ad platform, asset store and video host collaborators around the
// reconciler.
type SyncService struct {
	sheets port.SheetStore
	ads    port.AdPlatform
	assets port.AssetStore
	videos port.VideoHost
	opts   Options
	logger *slog.Logger

	now func() time.Time
}

// NewSyncService wires the pipeline with its collaborators. The video
// host may be nil when YouTube is disabled.
func NewSyncService(sheets port.SheetStore, ads port.AdPlatform, assets port.AssetStore, videos port.VideoHost, opts Options, logger *slog.Logger) *SyncService {
	if opts.FetchLookback <= 0 {
		opts.FetchLookback = 24 * time.Hour
	}
	if opts.YouTubeWait <= 0 {
		opts.YouTubeWait = time.Minute
	}
	return &SyncService{
		sheets: sheets,
		ads:    ads,
		assets: assets,
		videos: videos,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes all steps in the fixed order. A failing step is recorded
// and the remaining steps still run.
func (s *SyncService) Run(ctx context.Context) domain.RunReport {
	report := domain.RunReport{
		ID:        uuid.NewString(),
		StartedAt: s.now(),
	}
	s.logger.Info("run started", slog.String("run_id", report.ID))

	steps := []port.Step{port.StepFetch, port.StepRemove, port.StepUpload}
	if s.opts.RefreshMapping {
		steps = append(steps, port.StepMapping)
	}
	for _, step := range steps {
		report.Steps = append(report.Steps, s.RunStep(ctx, step))
	}

	report.FinishedAt = s.now()
	s.logger.Info("run finished",
		slog.String("run_id", report.ID),
		slog.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
		slog.Bool("failed", report.Failed()))
	return report
}

// RunStep executes a single pipeline step and reports its outcome.
func (s *SyncService) RunStep(ctx context.Context, step port.Step) domain.StepResult {
	res := domain.StepResult{Step: string(step), StartedAt: s.now()}

	var err error
	switch step {
	case port.StepFetch:
		err = s.runFetch(ctx, &res)
	case port.StepRemove:
		err = s.runRemove(ctx, &res)
	case port.StepUpload:
		err = s.runUpload(ctx, &res)
	case port.StepMapping:
		err = s.runMapping(ctx, &res)
	}
	res.Duration = s.now().Sub(res.StartedAt).String()
	if err != nil {
		res.Err = err.Error()
		s.logger.Error("step failed", slog.String("step", string(step)), slog.Any("error", err))
	} else {
		s.logger.Info("step finished",
			slog.String("step", string(step)),
			slog.Int("succeeded", res.Succeeded),
			slog.Int("skipped", res.Skipped),
			slog.Int("failed", res.Failed))
	}
	return res
}

// report appends an issue to the step result and logs it.
func (s *SyncService) report(res *domain.StepResult, issue domain.Issue) {
	res.Issues = append(res.Issues, issue)
	s.logger.Warn(issue.Msg,
		slog.String("kind", string(issue.Kind)),
		slog.String("customer_id", issue.Campaign.CustomerID),
		slog.String("ad_group_id", issue.Campaign.AdGroupID),
		slog.Int("row", issue.RowIndex))
}
