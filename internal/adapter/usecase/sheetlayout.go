package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"creative-mango/internal/core/domain"
)

// Tab names and ranges of the managed spreadsheet. The layout follows
// the sheet template shipped with the tool; headers live in row 1.
const (
	uploadSheetRange     = "Upload!A2:I"
	usedAdGroupColumn    = "Upload!H"
	timeManagedSheetName = "Time Managed"
	timeManagedRange     = "Time Managed!A2:L"
	timeManagedNoteRange = "Time Managed!J2:L"
	mappingSheetRange    = "Mapping!A2:K"
	mappingDateCell      = "Mapping!N1"
	changeHistoryRange   = "Change History!A2:K"
	perfConditionsRange  = "Performance Conditions!B2:B8"
	ytListRange          = "YT List!A2:C"
)

// Upload tab columns.
const (
	colUploadAlias = iota
	colUploadType
	colUploadName
	colUploadURL
	colUploadReplace
	colUploadStart
	colUploadEnd
	colUploadUsedAdGroups
	colUploadPriority
	uploadColumns = 9
)

// Time Managed tab columns.
const (
	colTMAlias = iota
	colTMType
	colTMName
	colTMURL
	colTMCustomerID
	colTMAdGroupID
	colTMAssetID
	colTMStart
	colTMEnd
	colTMDeleteByPerf
	colTMPerfNote
	colTMErrorNote
	timeManagedColumns = 12
)

// Mapping tab columns.
const (
	colMapAlias = iota
	colMapCustomerID
	colMapAdGroupID
	colMapAdGroupName
	colMapCampaignID
	colMapCampaignName
	colMapAppID
	colMapHeadlines
	colMapDescriptions
	colMapImages
	colMapVideos
	mappingColumns = 11
)

const (
	sheetDateFormat = "2006-01-02"
	youtubeURL      = "https://www.youtube.com/watch?v="
)

// padRow extends a sheet row with empty cells up to n columns. The
// Sheets API omits trailing empty cells.
func padRow(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// parseSheetDate parses a YYYY-MM-DD cell; empty is a zero time.
func parseSheetDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(sheetDateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not in the format YYYY-MM-DD", s)
	}
	return t, nil
}

// normalizeCustomerID strips the dashes and spaces customers tend to
// paste along with their account id.
func normalizeCustomerID(s string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(s)
}

// parseUploadRow converts one Upload tab row into a CreativeRequest.
// rowIndex is the 1-based sheet row. Rows without an alias are blank
// separators and yield ok=false without an issue.
func parseUploadRow(row []string, rowIndex int) (domain.CreativeRequest, *domain.Issue, bool) {
	row = padRow(row, uploadColumns)
	if cell(row, colUploadAlias) == "" {
		return domain.CreativeRequest{}, nil, false
	}

	t, ok := domain.ParseAssetType(cell(row, colUploadType))
	if !ok {
		return domain.CreativeRequest{}, &domain.Issue{
			Kind:     domain.IssueValidation,
			RowIndex: rowIndex,
			Msg:      fmt.Sprintf("unknown creative type %q, only HEADLINE, DESCRIPTION, IMAGE and VIDEO are allowed", cell(row, colUploadType)),
		}, false
	}

	start, err := parseSheetDate(cell(row, colUploadStart))
	if err != nil {
		return domain.CreativeRequest{}, &domain.Issue{
			Kind: domain.IssueValidation, RowIndex: rowIndex, Msg: "start " + err.Error(),
		}, false
	}
	end, err := parseSheetDate(cell(row, colUploadEnd))
	if err != nil {
		return domain.CreativeRequest{}, &domain.Issue{
			Kind: domain.IssueValidation, RowIndex: rowIndex, Msg: "end " + err.Error(),
		}, false
	}

	priority := 0
	if p := cell(row, colUploadPriority); p != "" {
		priority, err = strconv.Atoi(p)
		if err != nil {
			return domain.CreativeRequest{}, &domain.Issue{
				Kind: domain.IssueValidation, RowIndex: rowIndex,
				Msg: fmt.Sprintf("priority %q is not a number", p),
			}, false
		}
	}

	req := domain.CreativeRequest{
		Alias:          cell(row, colUploadAlias),
		Type:           t,
		Name:           cell(row, colUploadName),
		AssetRef:       cell(row, colUploadURL),
		Replace:        cell(row, colUploadReplace),
		FlightStart:    start,
		FlightEnd:      end,
		Priority:       priority,
		UsedAdGroupIDs: cell(row, colUploadUsedAdGroups),
		RowIndex:       rowIndex,
	}
	if t.IsText() {
		req.AssetRef = req.Name
	}
	return req, nil, true
}

// timeManagedRow is one tracked creative from the Time Managed tab.
type timeManagedRow struct {
	req          domain.CreativeRequest
	campaign     domain.CampaignRef
	deleteByPerf bool
	perfNote     string
	errorNote    string
}

// parseTimeManagedRow converts one Time Managed tab row. Rows missing
// any of customer id, ad group id, asset id, type or start date are
// skipped without an issue, matching how partially filled rows are
// treated by the sheet template.
func parseTimeManagedRow(row []string, rowIndex int) (timeManagedRow, bool) {
	row = padRow(row, timeManagedColumns)

	t, ok := domain.ParseAssetType(cell(row, colTMType))
	customerID := normalizeCustomerID(cell(row, colTMCustomerID))
	adGroupID := cell(row, colTMAdGroupID)
	assetID := cell(row, colTMAssetID)
	startCell := cell(row, colTMStart)
	if !ok || customerID == "" || adGroupID == "" || assetID == "" || startCell == "" {
		return timeManagedRow{}, false
	}

	start, startErr := parseSheetDate(startCell)
	end, endErr := parseSheetDate(cell(row, colTMEnd))

	tm := timeManagedRow{
		req: domain.CreativeRequest{
			Alias:       cell(row, colTMAlias),
			Type:        t,
			Name:        cell(row, colTMName),
			AssetRef:    cell(row, colTMURL),
			AssetID:     assetID,
			FlightStart: start,
			FlightEnd:   end,
			RowIndex:    rowIndex,
		},
		campaign:     domain.CampaignRef{CustomerID: customerID, AdGroupID: adGroupID},
		deleteByPerf: strings.EqualFold(cell(row, colTMDeleteByPerf), "TRUE"),
		perfNote:     strings.ToUpper(cell(row, colTMPerfNote)),
		errorNote:    cell(row, colTMErrorNote),
	}
	if endErr != nil {
		tm.errorNote = "END_DATE is not in the format YYYY-MM-DD"
	}
	if startErr != nil {
		tm.errorNote = "START_DATE is not in the format YYYY-MM-DD"
	}
	return tm, true
}

// changeHistoryRow formats a Change History entry for a request.
func changeHistoryRow(req domain.CreativeRequest, campaign domain.CampaignRef, resourceName, message string, now time.Time) []string {
	return []string{
		req.Alias,
		string(req.Type),
		req.Name,
		req.AssetRef,
		campaign.CustomerID,
		campaign.AdGroupID,
		resourceName,
		formatSheetDate(req.FlightStart),
		formatSheetDate(req.FlightEnd),
		message,
		now.Format(time.DateTime),
	}
}

func formatSheetDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(sheetDateFormat)
}

// youtubeID extracts the video id from a watch URL, tolerating extra
// query parameters. Returns "" when the URL is not a watch link.
func youtubeID(url string) string {
	if !strings.Contains(url, youtubeURL) {
		return ""
	}
	id := url[strings.Index(url, "v=")+2:]
	if amp := strings.IndexAny(id, "&#"); amp >= 0 {
		id = id[:amp]
	}
	return id
}
