package usecase

import (
	"context"
	"fmt"

	"creative-mango/internal/core/domain"
)

// runFetch lists recently created image and video files in the asset
// store (and, when enabled, recent channel uploads) and appends rows
// for the ones not yet present to the Upload tab of every managed
// spreadsheet.
func (s *SyncService) runFetch(ctx context.Context, res *domain.StepResult) error {
	since := s.now().Add(-s.opts.FetchLookback)
	files, err := s.assets.ListFiles(ctx, s.opts.DriveFolderIDs, since)
	if err != nil {
		return fmt.Errorf("list asset files: %w", err)
	}

	var videos []domain.VideoEntry
	if s.opts.YouTubeEnabled && s.opts.YouTubeWindow > 0 && s.videos != nil {
		videos, err = s.videos.Uploads(ctx, s.now().Add(-s.opts.YouTubeWindow))
		if err != nil {
			s.report(res, domain.Issue{
				Kind: domain.IssueCollaborator,
				Msg:  fmt.Sprintf("list channel uploads: %v", err),
			})
		}
	}

	for _, spreadsheetID := range s.opts.SpreadsheetIDs {
		if err := s.fetchIntoSheet(ctx, res, spreadsheetID, files, videos); err != nil {
			s.report(res, domain.Issue{
				Kind: domain.IssueCollaborator,
				Msg:  fmt.Sprintf("spreadsheet %s: %v", spreadsheetID, err),
			})
			res.Failed++
		}
	}
	return nil
}

func (s *SyncService) fetchIntoSheet(ctx context.Context, res *domain.StepResult, spreadsheetID string, files []domain.AssetFile, videos []domain.VideoEntry) error {
	uploadRows, err := s.sheets.Values(ctx, spreadsheetID, uploadSheetRange)
	if err != nil {
		return fmt.Errorf("read upload sheet: %w", err)
	}
	ytRows, err := s.sheets.Values(ctx, spreadsheetID, ytListRange)
	if err != nil {
		return fmt.Errorf("read yt list sheet: %w", err)
	}

	knownURLs := make(map[string]bool)
	knownVideoIDs := make(map[string]bool)
	for _, row := range uploadRows {
		url := cell(row, colUploadURL)
		if url == "" {
			continue
		}
		knownURLs[url] = true
		if id := youtubeID(url); id != "" {
			knownVideoIDs[id] = true
		}
	}
	for _, row := range ytRows {
		if id := youtubeID(cell(row, 0)); id != "" {
			knownVideoIDs[id] = true
		}
	}

	var newRows [][]string
	for _, f := range files {
		if knownURLs[f.URL] {
			res.Skipped++
			continue
		}
		newRows = append(newRows, []string{"", string(f.Type), f.Name, f.URL})
	}
	for _, v := range videos {
		if knownVideoIDs[v.ID] {
			res.Skipped++
			continue
		}
		newRows = append(newRows, []string{"", string(domain.AssetVideo), v.Title, youtubeURL + v.ID})
	}

	if len(newRows) == 0 {
		return nil
	}
	if err := s.sheets.Append(ctx, spreadsheetID, uploadSheetRange, newRows); err != nil {
		return fmt.Errorf("append upload rows: %w", err)
	}
	res.Succeeded += len(newRows)
	return nil
}
