package gapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"creative-mango/internal/core/port"
)

const sheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// SheetStore reads and writes spreadsheet ranges through the Sheets
// API. It implements port.SheetStore.
type SheetStore struct {
	client *http.Client
}

var _ port.SheetStore = (*SheetStore)(nil)

func NewSheetStore(client *http.Client) *SheetStore {
	return &SheetStore{client: client}
}

type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

func (s *SheetStore) Values(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	u := fmt.Sprintf("%s/%s/values/%s", sheetsBaseURL, spreadsheetID, url.PathEscape(readRange))
	var out valueRange
	if err := doJSON(ctx, s.client, http.MethodGet, u, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("read range %s: %w", readRange, err)
	}
	return out.Values, nil
}

func (s *SheetStore) Append(ctx context.Context, spreadsheetID, writeRange string, values [][]string) error {
	u := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=USER_ENTERED&insertDataOption=INSERT_ROWS",
		sheetsBaseURL, spreadsheetID, url.PathEscape(writeRange))
	body := valueRange{Values: values}
	if err := doJSON(ctx, s.client, http.MethodPost, u, nil, body, nil); err != nil {
		return fmt.Errorf("append to range %s: %w", writeRange, err)
	}
	return nil
}

func (s *SheetStore) Update(ctx context.Context, spreadsheetID, writeRange string, values [][]string) error {
	u := fmt.Sprintf("%s/%s/values/%s?valueInputOption=USER_ENTERED",
		sheetsBaseURL, spreadsheetID, url.PathEscape(writeRange))
	body := valueRange{Values: values}
	if err := doJSON(ctx, s.client, http.MethodPut, u, nil, body, nil); err != nil {
		return fmt.Errorf("update range %s: %w", writeRange, err)
	}
	return nil
}

func (s *SheetStore) Clear(ctx context.Context, spreadsheetID, clearRange string) error {
	u := fmt.Sprintf("%s/%s/values/%s:clear", sheetsBaseURL, spreadsheetID, url.PathEscape(clearRange))
	if err := doJSON(ctx, s.client, http.MethodPost, u, nil, struct{}{}, nil); err != nil {
		return fmt.Errorf("clear range %s: %w", clearRange, err)
	}
	return nil
}

func (s *SheetStore) SheetID(ctx context.Context, spreadsheetID, sheetName string) (int64, error) {
	u := fmt.Sprintf("%s/%s?fields=sheets.properties", sheetsBaseURL, spreadsheetID)
	var out struct {
		Sheets []struct {
			Properties struct {
				SheetID int64  `json:"sheetId"`
				Title   string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := doJSON(ctx, s.client, http.MethodGet, u, nil, nil, &out); err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sh := range out.Sheets {
		if sh.Properties.Title == sheetName {
			return sh.Properties.SheetID, nil
		}
	}
	return 0, fmt.Errorf("sheet %q: %w", sheetName, port.ErrNotFound)
}

// DeleteRows removes the given 1-based rows in one batchUpdate. Rows
// are deleted bottom-up so earlier deletions do not shift later ones.
func (s *SheetStore) DeleteRows(ctx context.Context, spreadsheetID string, sheetID int64, rows []int) error {
	if len(rows) == 0 {
		return nil
	}
	sorted := append([]int(nil), rows...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	type dimensionRange struct {
		SheetID    int64  `json:"sheetId"`
		Dimension  string `json:"dimension"`
		StartIndex int    `json:"startIndex"`
		EndIndex   int    `json:"endIndex"`
	}
	type request struct {
		DeleteDimension struct {
			Range dimensionRange `json:"range"`
		} `json:"deleteDimension"`
	}

	reqs := make([]request, 0, len(sorted))
	for _, row := range sorted {
		var r request
		r.DeleteDimension.Range = dimensionRange{
			SheetID:    sheetID,
			Dimension:  "ROWS",
			StartIndex: row - 1,
			EndIndex:   row,
		}
		reqs = append(reqs, r)
	}

	u := fmt.Sprintf("%s/%s:batchUpdate", sheetsBaseURL, spreadsheetID)
	body := map[string]any{"requests": reqs}
	if err := doJSON(ctx, s.client, http.MethodPost, u, nil, body, nil); err != nil {
		return fmt.Errorf("delete %d rows: %w", len(rows), err)
	}
	return nil
}
