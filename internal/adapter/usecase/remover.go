package usecase

import (
	"context"
	"fmt"

	"creative-mango/internal/core/domain"
)

// runRemove tears down creatives whose flight has elapsed or that were
// flagged for performance-based removal, then re-evaluates the
// performance of the remaining tracked creatives and writes the notes
// back to the Time Managed tab.
func (s *SyncService) runRemove(ctx context.Context, res *domain.StepResult) error {
	for _, spreadsheetID := range s.opts.SpreadsheetIDs {
		if err := s.removeFromSheet(ctx, res, spreadsheetID); err != nil {
			s.report(res, domain.Issue{
				Kind: domain.IssueCollaborator,
				Msg:  fmt.Sprintf("spreadsheet %s: %v", spreadsheetID, err),
			})
			res.Failed++
		}
	}
	return nil
}

func (s *SyncService) removeFromSheet(ctx context.Context, res *domain.StepResult, spreadsheetID string) error {
	sheetID, err := s.sheets.SheetID(ctx, spreadsheetID, timeManagedSheetName)
	if err != nil {
		return fmt.Errorf("resolve time managed sheet id: %w", err)
	}

	tracked, err := s.readTimeManaged(ctx, spreadsheetID)
	if err != nil {
		return err
	}

	deleted, errorNotes := s.teardown(ctx, res, spreadsheetID, tracked)

	// Clear the previous run's notes before rewriting them. The flagged
	// removals above were decided on the old notes.
	if err := s.sheets.Clear(ctx, spreadsheetID, timeManagedNoteRange); err != nil {
		s.report(res, domain.Issue{
			Kind: domain.IssueCollaborator,
			Msg:  fmt.Sprintf("clear time managed notes: %v", err),
		})
	}
	for row, note := range errorNotes {
		s.writeErrorNote(ctx, res, spreadsheetID, row, note)
	}
	if len(deleted) > 0 {
		if err := s.sheets.DeleteRows(ctx, spreadsheetID, sheetID, deleted); err != nil {
			return fmt.Errorf("delete time managed rows: %w", err)
		}
	}

	return s.evaluatePerformance(ctx, res, spreadsheetID)
}

func (s *SyncService) readTimeManaged(ctx context.Context, spreadsheetID string) ([]timeManagedRow, error) {
	rows, err := s.sheets.Values(ctx, spreadsheetID, timeManagedRange)
	if err != nil {
		return nil, fmt.Errorf("read time managed sheet: %w", err)
	}
	var tracked []timeManagedRow
	for i, row := range rows {
		if tm, ok := parseTimeManagedRow(row, i+2); ok {
			tracked = append(tracked, tm)
		}
	}
	return tracked, nil
}

// teardown removes flight-expired and performance-flagged creatives.
// It returns the sheet rows that were removed and the error notes to
// write for rows that could not be.
func (s *SyncService) teardown(ctx context.Context, res *domain.StepResult, spreadsheetID string, tracked []timeManagedRow) (deleted []int, errorNotes map[int]string) {
	errorNotes = make(map[int]string)
	now := s.now()

	type groupKey struct {
		campaign domain.CampaignRef
		t        domain.AssetType
	}
	groups := make(map[groupKey][]timeManagedRow)
	for _, tm := range tracked {
		k := groupKey{tm.campaign, tm.req.Type}
		groups[k] = append(groups[k], tm)
	}

	countsCache := make(map[domain.CampaignRef]domain.AssetCounts)
	for key, rows := range groups {
		counts, ok := countsCache[key.campaign]
		if !ok {
			var err error
			counts, _, err = s.ads.AssetCounts(ctx, key.campaign)
			if err != nil {
				msg := err.Error()
				for _, tm := range rows {
					errorNotes[tm.req.RowIndex] = msg
				}
				res.Failed += len(rows)
				continue
			}
			countsCache[key.campaign] = counts
		}

		byRow := make(map[int]timeManagedRow, len(rows))
		requests := make([]domain.CreativeRequest, 0, len(rows))
		live := make([]domain.LiveCreative, 0, len(rows))
		for _, tm := range rows {
			byRow[tm.req.RowIndex] = tm
			requests = append(requests, tm.req)
			live = append(live, domain.LiveCreative{
				ID:            tm.req.AssetID,
				Campaign:      key.campaign,
				Type:          key.t,
				AttachedSince: tm.req.FlightStart,
			})
		}
		slots := domain.CampaignSlotState{
			Campaign: key.campaign,
			Type:     key.t,
			MaxSlots: domain.MaxAssets(key.t),
			Occupied: counts.Of(key.t),
			Counts:   counts,
		}
		delta, issues := Reconcile(now, requests, live, slots)
		for _, issue := range issues {
			s.report(res, issue)
			if issue.RowIndex > 0 {
				errorNotes[issue.RowIndex] = issue.Msg
			}
		}

		remove := make(map[string]bool, len(delta.ToRemove))
		for _, lc := range delta.ToRemove {
			remove[lc.ID] = true
		}
		remaining := counts
		for _, tm := range rows {
			flagged := tm.deleteByPerf && (tm.perfNote == perfNoteLow || tm.perfNote == perfNoteNoRecords)
			if !remove[tm.req.AssetID] && !flagged {
				continue
			}
			if remaining.Of(key.t) <= domain.MinAssets(key.t) {
				errorNotes[tm.req.RowIndex] = fmt.Sprintf(
					"not enough %s assets left in the ad group, the count must stay above %d",
					key.t, domain.MinAssets(key.t))
				res.Failed++
				continue
			}
			if err := s.ads.DetachAsset(ctx, key.campaign, key.t, tm.req.AssetID); err != nil {
				errorNotes[tm.req.RowIndex] = err.Error()
				res.Failed++
				continue
			}
			remaining = remaining.Add(key.t, -1)
			deleted = append(deleted, tm.req.RowIndex)
			res.Succeeded++
			s.appendChangeHistory(ctx, res, spreadsheetID,
				changeHistoryRow(tm.req, key.campaign, tm.req.AssetID, "Creative successfully removed", now))
		}
	}
	return deleted, errorNotes
}

// evaluatePerformance re-reads the surviving rows and writes LOW /
// NO RECENT RECORDS notes based on the configured conditions.
func (s *SyncService) evaluatePerformance(ctx context.Context, res *domain.StepResult, spreadsheetID string) error {
	condRows, err := s.sheets.Values(ctx, spreadsheetID, perfConditionsRange)
	if err != nil {
		return fmt.Errorf("read performance conditions: %w", err)
	}
	cond, err := parsePerfConditions(condRows)
	if err != nil {
		s.report(res, domain.Issue{
			Kind: domain.IssueConfiguration,
			Msg:  fmt.Sprintf("skipping performance evaluation: %v", err),
		})
		return nil
	}

	tracked, err := s.readTimeManaged(ctx, spreadsheetID)
	if err != nil {
		return err
	}

	engagementCache := make(map[domain.CampaignRef]bool)
	for _, tm := range tracked {
		if tm.req.FlightStart.IsZero() {
			// The start cell did not parse; served days cannot be computed.
			s.writeErrorNote(ctx, res, spreadsheetID, tm.req.RowIndex, tm.errorNote)
			res.Failed++
			continue
		}
		engagement, known := engagementCache[tm.campaign]
		if !known {
			var err error
			_, engagement, err = s.ads.AssetCounts(ctx, tm.campaign)
			if err != nil {
				s.writeErrorNote(ctx, res, spreadsheetID, tm.req.RowIndex, err.Error())
				res.Failed++
				continue
			}
			engagementCache[tm.campaign] = engagement
		}
		if engagement {
			// Engagement ads have no asset-level performance reporting.
			s.writeErrorNote(ctx, res, spreadsheetID, tm.req.RowIndex,
				"performance reporting is not supported for engagement campaigns")
			res.Skipped++
			continue
		}

		served := int(domain.DateOnly(s.now()).Sub(domain.DateOnly(tm.req.FlightStart)).Hours() / 24)
		if served < cond.ActiveDays {
			s.writeErrorNote(ctx, res, spreadsheetID, tm.req.RowIndex,
				"creative needs to serve more days before its performance can be evaluated")
			res.Skipped++
			continue
		}

		metrics, err := s.ads.AssetMetrics(ctx, tm.campaign, tm.req.Type, tm.req.AssetID, cond.Duration)
		if err != nil {
			s.writeErrorNote(ctx, res, spreadsheetID, tm.req.RowIndex, err.Error())
			res.Failed++
			continue
		}
		note := cond.evaluate(metrics)
		if note == "" && tm.perfNote == "" {
			continue
		}
		s.writePerfNote(ctx, res, spreadsheetID, tm.req.RowIndex, note)
		res.Succeeded++
	}
	return nil
}

func (s *SyncService) writePerfNote(ctx context.Context, res *domain.StepResult, spreadsheetID string, row int, note string) {
	rng := fmt.Sprintf("%s!K%d", timeManagedSheetName, row)
	if err := s.sheets.Update(ctx, spreadsheetID, rng, [][]string{{note}}); err != nil {
		s.report(res, domain.Issue{
			Kind:     domain.IssueCollaborator,
			RowIndex: row,
			Msg:      fmt.Sprintf("write performance note: %v", err),
		})
	}
}

func (s *SyncService) writeErrorNote(ctx context.Context, res *domain.StepResult, spreadsheetID string, row int, note string) {
	rng := fmt.Sprintf("%s!L%d", timeManagedSheetName, row)
	if err := s.sheets.Update(ctx, spreadsheetID, rng, [][]string{{note}}); err != nil {
		s.report(res, domain.Issue{
			Kind:     domain.IssueCollaborator,
			RowIndex: row,
			Msg:      fmt.Sprintf("write error note: %v", err),
		})
	}
}

func (s *SyncService) appendChangeHistory(ctx context.Context, res *domain.StepResult, spreadsheetID string, row []string) {
	if err := s.sheets.Append(ctx, spreadsheetID, changeHistoryRange, [][]string{row}); err != nil {
		s.report(res, domain.Issue{
			Kind: domain.IssueCollaborator,
			Msg:  fmt.Sprintf("append change history: %v", err),
		})
	}
}
