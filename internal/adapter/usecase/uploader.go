package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"creative-mango/internal/core/domain"
)

var assetResourceName = regexp.MustCompile(`^customers/\d+/assets/\d+$`)

// uploadOutcome is the result of applying one request to one ad group,
// collected from the parallel workers and written back sequentially.
type uploadOutcome struct {
	req          domain.CreativeRequest
	campaign     domain.CampaignRef
	resourceName string
	message      string
	ok           bool
}

// runUpload reads the Upload tab, maps aliases to ad groups and
// attaches the requested creatives, evicting underperformers when an
// ad group is at capacity. Every outcome is appended to Change History
// and successful uploads are tracked in the Time Managed tab.
func (s *SyncService) runUpload(ctx context.Context, res *domain.StepResult) error {
	for _, spreadsheetID := range s.opts.SpreadsheetIDs {
		if err := s.uploadFromSheet(ctx, res, spreadsheetID); err != nil {
			s.report(res, domain.Issue{
				Kind: domain.IssueCollaborator,
				Msg:  fmt.Sprintf("spreadsheet %s: %v", spreadsheetID, err),
			})
			res.Failed++
		}
	}
	return nil
}

func (s *SyncService) uploadFromSheet(ctx context.Context, res *domain.StepResult, spreadsheetID string) error {
	mapping, err := s.readMapping(ctx, spreadsheetID)
	if err != nil {
		return err
	}

	rows, err := s.sheets.Values(ctx, spreadsheetID, uploadSheetRange)
	if err != nil {
		return fmt.Errorf("read upload sheet: %w", err)
	}
	now := s.now()
	var requests []domain.CreativeRequest
	for i, row := range rows {
		req, issue, ok := parseUploadRow(row, i+2)
		if issue != nil {
			s.report(res, *issue)
			s.appendChangeHistory(ctx, res, spreadsheetID,
				changeHistoryRow(req, domain.CampaignRef{}, "", issue.Msg, now))
			res.Failed++
			continue
		}
		if !ok {
			continue
		}
		if req.Expired(now) {
			s.report(res, domain.Issue{
				Kind:     domain.IssueValidation,
				RowIndex: req.RowIndex,
				Msg:      "the flight window has elapsed, row skipped",
			})
			s.appendChangeHistory(ctx, res, spreadsheetID,
				changeHistoryRow(req, domain.CampaignRef{}, "", "The flight window has elapsed.", now))
			res.Skipped++
			continue
		}
		if !req.FlightStart.IsZero() && domain.DateOnly(now).Before(domain.DateOnly(req.FlightStart)) {
			// Not yet in flight; the row stays for a later run.
			res.Skipped++
			continue
		}
		requests = append(requests, req)
	}

	videoIDs := s.prepareVideos(ctx, res, spreadsheetID, requests)

	for _, req := range requests {
		campaigns := matchAdGroups(req, mapping)
		if len(campaigns) == 0 {
			res.Skipped++
			continue
		}

		outcomes := s.applyToAdGroups(ctx, res, req, campaigns, videoIDs)

		var succeeded []string
		var history [][]string
		for _, out := range outcomes {
			if out.ok {
				succeeded = append(succeeded, out.campaign.AdGroupID)
				res.Succeeded++
				s.trackUpload(ctx, res, spreadsheetID, out)
			} else {
				res.Failed++
			}
			history = append(history, changeHistoryRow(out.req, out.campaign, out.resourceName, out.message, now))
		}
		if len(succeeded) > 0 {
			used := req.UsedAdGroupIDs + "/" + strings.Join(succeeded, "/")
			rng := fmt.Sprintf("%s%d", usedAdGroupColumn, req.RowIndex)
			if err := s.sheets.Update(ctx, spreadsheetID, rng, [][]string{{used}}); err != nil {
				s.report(res, domain.Issue{
					Kind:     domain.IssueCollaborator,
					RowIndex: req.RowIndex,
					Msg:      fmt.Sprintf("update used ad group ids: %v", err),
				})
			}
		}
		if len(history) > 0 {
			if err := s.sheets.Append(ctx, spreadsheetID, changeHistoryRange, history); err != nil {
				s.report(res, domain.Issue{
					Kind: domain.IssueCollaborator,
					Msg:  fmt.Sprintf("append change history: %v", err),
				})
			}
		}
	}
	return nil
}

func (s *SyncService) readMapping(ctx context.Context, spreadsheetID string) ([]domain.MappingRow, error) {
	rows, err := s.sheets.Values(ctx, spreadsheetID, mappingSheetRange)
	if err != nil {
		return nil, fmt.Errorf("read mapping sheet: %w", err)
	}
	var mapping []domain.MappingRow
	for _, row := range rows {
		alias := cell(row, colMapAlias)
		customerID := normalizeCustomerID(cell(row, colMapCustomerID))
		adGroupID := cell(row, colMapAdGroupID)
		if alias == "" || customerID == "" || adGroupID == "" {
			continue
		}
		mapping = append(mapping, domain.MappingRow{
			Alias:    alias,
			Campaign: domain.CampaignRef{CustomerID: customerID, AdGroupID: adGroupID},
		})
	}
	return mapping, nil
}

// matchAdGroups resolves a request's alias against the mapping rows,
// skipping ad groups the row was already applied to.
func matchAdGroups(req domain.CreativeRequest, mapping []domain.MappingRow) []domain.CampaignRef {
	var matched []domain.CampaignRef
	for _, m := range mapping {
		if !strings.EqualFold(req.Alias, m.Alias) {
			continue
		}
		if strings.Contains(req.UsedAdGroupIDs, m.Campaign.AdGroupID) {
			continue
		}
		matched = append(matched, m.Campaign)
	}
	return matched
}

// applyToAdGroups reconciles and applies one request against each
// matched ad group. Ad groups are disjoint, so they are processed in
// parallel; sheet writes happen afterwards on the caller's goroutine.
func (s *SyncService) applyToAdGroups(ctx context.Context, res *domain.StepResult, req domain.CreativeRequest, campaigns []domain.CampaignRef, videoIDs map[string]string) []uploadOutcome {
	var (
		mu       sync.Mutex
		outcomes []uploadOutcome
		issues   []domain.Issue
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, campaign := range campaigns {
		campaign := campaign
		g.Go(func() error {
			out, iss := s.applyToAdGroup(gctx, req, campaign, videoIDs)
			mu.Lock()
			outcomes = append(outcomes, out)
			issues = append(issues, iss...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	for _, issue := range issues {
		s.report(res, issue)
	}
	return outcomes
}

func (s *SyncService) applyToAdGroup(ctx context.Context, req domain.CreativeRequest, campaign domain.CampaignRef, videoIDs map[string]string) (uploadOutcome, []domain.Issue) {
	out := uploadOutcome{req: req, campaign: campaign}

	// Replacing a named asset takes precedence over capacity eviction.
	if req.Replace != "" {
		if err := s.removeNamedAsset(ctx, req, campaign, videoIDs); err != nil {
			out.message = "Unable to remove the asset to be replaced. Errors: " + err.Error()
			return out, nil
		}
	} else {
		issues, err := s.makeRoom(ctx, req, campaign)
		if err != nil {
			out.message = "Unable to free a creative slot. Errors: " + err.Error()
			return out, issues
		}
		if len(issues) > 0 {
			out.message = issues[len(issues)-1].Msg
			return out, issues
		}
	}

	resourceName, err := s.attachAsset(ctx, req, campaign, videoIDs)
	if err != nil {
		out.message = "Unable to upload the asset. Errors: " + err.Error()
		return out, nil
	}
	out.resourceName = resourceName
	out.message = "Action succeed."
	out.ok = true
	return out, nil
}

// makeRoom runs the reconciler for the target ad group and detaches the
// evicted underperformers so the new creative fits. A non-empty issue
// list with a nil error means the creative cannot be placed.
func (s *SyncService) makeRoom(ctx context.Context, req domain.CreativeRequest, campaign domain.CampaignRef) ([]domain.Issue, error) {
	counts, _, err := s.ads.AssetCounts(ctx, campaign)
	if err != nil {
		return nil, err
	}
	live, err := s.ads.AttachedAssets(ctx, campaign, req.Type)
	if err != nil {
		return nil, err
	}
	slots := domain.CampaignSlotState{
		Campaign: campaign,
		Type:     req.Type,
		MaxSlots: domain.MaxAssets(req.Type),
		Occupied: counts.Of(req.Type),
		Counts:   counts,
	}
	delta, issues := Reconcile(s.now(), []domain.CreativeRequest{req}, live, slots)
	if len(issues) > 0 {
		return issues, nil
	}
	for _, lc := range delta.ToRemove {
		if err := s.ads.DetachAsset(ctx, campaign, lc.Type, lc.ID); err != nil {
			return nil, err
		}
	}
	if len(delta.ToAdd) == 0 {
		return []domain.Issue{{
			Kind:     domain.IssueConfiguration,
			Campaign: campaign,
			RowIndex: req.RowIndex,
			Msg:      fmt.Sprintf("the ad group has no free %s slot and no creative may be evicted", req.Type),
		}}, nil
	}
	return nil, nil
}

// removeNamedAsset detaches the asset named in the replace column.
func (s *SyncService) removeNamedAsset(ctx context.Context, req domain.CreativeRequest, campaign domain.CampaignRef, videoIDs map[string]string) error {
	ref := req.Replace
	switch {
	case req.Type.IsText():
		// Text assets are replaced by value.
	case assetResourceName.MatchString(ref):
		// Already a resource name.
	case req.Type == domain.AssetImage:
		resolved, _, err := s.resolveImageAsset(ctx, campaign.CustomerID, ref, ref)
		if err != nil {
			return err
		}
		if resolved == "" {
			return fmt.Errorf("image asset %q to be replaced does not exist", ref)
		}
		ref = resolved
	case req.Type == domain.AssetVideo:
		id := ref
		if mapped, ok := videoIDs[ref]; ok {
			id = mapped
		}
		resolved, err := s.ads.CreateVideoAsset(ctx, campaign.CustomerID, id)
		if err != nil {
			return err
		}
		ref = resolved
	}
	return s.ads.DetachAsset(ctx, campaign, req.Type, ref)
}

// attachAsset uploads the creative to the ad group and returns its
// resource name (the text value for text assets).
func (s *SyncService) attachAsset(ctx context.Context, req domain.CreativeRequest, campaign domain.CampaignRef, videoIDs map[string]string) (string, error) {
	switch req.Type {
	case domain.AssetHeadline, domain.AssetDescription:
		return req.Name, s.ads.AttachAsset(ctx, campaign, req.Type, req.Name)

	case domain.AssetImage:
		resourceName, data, err := s.resolveImageAsset(ctx, campaign.CustomerID, req.Name, req.AssetRef)
		if err != nil {
			return "", err
		}
		if resourceName == "" {
			// When an asset with the same content exists under another
			// name the platform keeps the old name, so reuse is safe.
			resourceName, err = s.ads.CreateImageAsset(ctx, campaign.CustomerID, req.Name, data)
			if err != nil {
				return "", err
			}
		}
		return resourceName, s.ads.AttachAsset(ctx, campaign, req.Type, resourceName)

	case domain.AssetVideo:
		id := req.AssetRef
		if mapped, ok := videoIDs[req.AssetRef]; ok {
			id = mapped
		} else if ytid := youtubeID(req.AssetRef); ytid != "" {
			id = ytid
		}
		resourceName, err := s.ads.CreateVideoAsset(ctx, campaign.CustomerID, id)
		if err != nil {
			return "", err
		}
		return resourceName, s.ads.AttachAsset(ctx, campaign, req.Type, resourceName)
	}
	return "", fmt.Errorf("unknown asset type %q", req.Type)
}

// resolveImageAsset looks for an existing image asset by name first,
// then by content hash. When no match is found the downloaded bytes
// are returned so the caller can create the asset.
func (s *SyncService) resolveImageAsset(ctx context.Context, customerID, name, url string) (string, []byte, error) {
	existing, err := s.ads.ImageAssets(ctx, customerID)
	if err != nil {
		return "", nil, err
	}
	if name != "" {
		for _, img := range existing {
			if img.Name == name {
				return img.ResourceName, nil, nil
			}
		}
	}
	if url == "" || !strings.Contains(url, "://") {
		return "", nil, nil
	}
	data, err := s.assets.Download(ctx, url)
	if err != nil {
		return "", nil, err
	}
	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])
	for _, img := range existing {
		if img.MD5 == hash {
			return img.ResourceName, nil, nil
		}
	}
	return "", data, nil
}

// trackUpload appends a Time Managed row for a creative the tool just
// attached so later runs can manage its flight and performance.
func (s *SyncService) trackUpload(ctx context.Context, res *domain.StepResult, spreadsheetID string, out uploadOutcome) {
	start := out.req.FlightStart
	if start.IsZero() {
		start = domain.DateOnly(s.now())
	}
	row := []string{
		out.req.Alias,
		string(out.req.Type),
		out.req.Name,
		out.req.AssetRef,
		out.campaign.CustomerID,
		out.campaign.AdGroupID,
		out.resourceName,
		formatSheetDate(start),
		formatSheetDate(out.req.FlightEnd),
	}
	if err := s.sheets.Append(ctx, spreadsheetID, timeManagedRange, [][]string{row}); err != nil {
		s.report(res, domain.Issue{
			Kind:     domain.IssueCollaborator,
			Campaign: out.campaign,
			RowIndex: out.req.RowIndex,
			Msg:      fmt.Sprintf("append time managed row: %v", err),
		})
	}
}

// prepareVideos resolves Drive-hosted video requests to YouTube ids,
// uploading them to the managed channel when enabled, and records new
// ids in the YT List tab.
func (s *SyncService) prepareVideos(ctx context.Context, res *domain.StepResult, spreadsheetID string, requests []domain.CreativeRequest) map[string]string {
	videoIDs := make(map[string]string)
	if rows, err := s.sheets.Values(ctx, spreadsheetID, ytListRange); err == nil {
		for _, row := range rows {
			if id := youtubeID(cell(row, 0)); id != "" && cell(row, 1) != "" {
				videoIDs[cell(row, 1)] = id
			}
		}
	}

	var newRows [][]string
	var newIDs []string
	for _, req := range requests {
		if req.Type != domain.AssetVideo {
			continue
		}
		url := req.AssetRef
		if url == "" || videoIDs[url] != "" {
			continue
		}
		if id := youtubeID(url); id != "" {
			videoIDs[url] = id
			continue
		}
		if !strings.Contains(url, "://") {
			// A bare value is already a video id.
			videoIDs[url] = url
			continue
		}
		if !s.opts.YouTubeEnabled || s.videos == nil {
			continue
		}
		name := req.Name
		if name == "" {
			name = req.Alias
		}
		data, err := s.assets.Download(ctx, url)
		if err != nil {
			s.report(res, domain.Issue{
				Kind:     domain.IssueCollaborator,
				RowIndex: req.RowIndex,
				Msg:      fmt.Sprintf("download video: %v", err),
			})
			continue
		}
		id, err := s.videos.Upload(ctx, name, data)
		if err != nil {
			s.report(res, domain.Issue{
				Kind:     domain.IssueCollaborator,
				RowIndex: req.RowIndex,
				Msg:      fmt.Sprintf("upload video to channel: %v", err),
			})
			continue
		}
		videoIDs[url] = id
		newIDs = append(newIDs, id)
		newRows = append(newRows, []string{youtubeURL + id, url, name})
	}

	if len(newRows) > 0 {
		if err := s.sheets.Append(ctx, spreadsheetID, ytListRange, newRows); err != nil {
			s.report(res, domain.Issue{
				Kind: domain.IssueCollaborator,
				Msg:  fmt.Sprintf("append yt list rows: %v", err),
			})
		}
		s.awaitVideoProcessing(ctx, res, newIDs)
	}
	return videoIDs
}

// awaitVideoProcessing polls until the freshly uploaded videos are
// ready to be referenced as assets, bounded by the configured wait.
func (s *SyncService) awaitVideoProcessing(ctx context.Context, res *domain.StepResult, ids []string) {
	deadline := time.NewTimer(s.opts.YouTubeWait)
	defer deadline.Stop()
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		done, err := s.videos.Processed(ctx, ids)
		if err == nil && done {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			s.report(res, domain.Issue{
				Kind: domain.IssueCollaborator,
				Msg:  fmt.Sprintf("videos still processing after %s, the upload may fail and the run should be repeated", s.opts.YouTubeWait),
			})
			return
		case <-tick.C:
		}
	}
}
