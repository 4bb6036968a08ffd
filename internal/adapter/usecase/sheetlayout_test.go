package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creative-mango/internal/core/domain"
)

func TestParseUploadRow(t *testing.T) {
	row := []string{
		"my-app", "IMAGE", "banner_300x250", "https://drive.google.com/open?id=abc",
		"", "2024-06-01", "2024-06-30", "111/222", "1",
	}

	req, issue, ok := parseUploadRow(row, 5)
	require.Nil(t, issue)
	require.True(t, ok)
	assert.Equal(t, "my-app", req.Alias)
	assert.Equal(t, domain.AssetImage, req.Type)
	assert.Equal(t, "https://drive.google.com/open?id=abc", req.AssetRef)
	assert.Equal(t, day("2024-06-01"), req.FlightStart)
	assert.Equal(t, day("2024-06-30"), req.FlightEnd)
	assert.Equal(t, 1, req.Priority)
	assert.Equal(t, "111/222", req.UsedAdGroupIDs)
	assert.Equal(t, 5, req.RowIndex)
}

func TestParseUploadRowTextUsesValueAsRef(t *testing.T) {
	req, issue, ok := parseUploadRow([]string{"my-app", "HEADLINE", "Play now"}, 2)
	require.Nil(t, issue)
	require.True(t, ok)
	assert.Equal(t, "Play now", req.AssetRef)
}

func TestParseUploadRowBlankAliasSkipped(t *testing.T) {
	_, issue, ok := parseUploadRow([]string{"", "IMAGE", "x"}, 2)
	assert.Nil(t, issue)
	assert.False(t, ok)
}

func TestParseUploadRowBadType(t *testing.T) {
	_, issue, ok := parseUploadRow([]string{"my-app", "BANNER", "x"}, 3)
	require.NotNil(t, issue)
	assert.False(t, ok)
	assert.Equal(t, domain.IssueValidation, issue.Kind)
	assert.Equal(t, 3, issue.RowIndex)
}

func TestParseUploadRowBadDate(t *testing.T) {
	_, issue, ok := parseUploadRow([]string{"my-app", "IMAGE", "x", "url", "", "06/01/2024"}, 3)
	require.NotNil(t, issue)
	assert.False(t, ok)
	assert.Contains(t, issue.Msg, "YYYY-MM-DD")
}

func TestParseTimeManagedRow(t *testing.T) {
	row := []string{
		"my-app", "VIDEO", "teaser", "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"123-456-7890", "999", "customers/1234567890/assets/42",
		"2024-06-01", "", "TRUE", "LOW", "",
	}

	tm, ok := parseTimeManagedRow(row, 7)
	require.True(t, ok)
	assert.Equal(t, "1234567890", tm.campaign.CustomerID)
	assert.Equal(t, "999", tm.campaign.AdGroupID)
	assert.Equal(t, "customers/1234567890/assets/42", tm.req.AssetID)
	assert.True(t, tm.deleteByPerf)
	assert.Equal(t, "LOW", tm.perfNote)
	assert.Equal(t, 7, tm.req.RowIndex)
}

func TestParseTimeManagedRowBadStartNoted(t *testing.T) {
	row := []string{
		"my-app", "IMAGE", "banner", "url", "1234567890", "999",
		"customers/1234567890/assets/42", "01/06/2024",
	}

	tm, ok := parseTimeManagedRow(row, 3)
	require.True(t, ok)
	assert.True(t, tm.req.FlightStart.IsZero())
	assert.Equal(t, "START_DATE is not in the format YYYY-MM-DD", tm.errorNote)
}

func TestParseTimeManagedRowIncompleteSkipped(t *testing.T) {
	_, ok := parseTimeManagedRow([]string{"my-app", "VIDEO", "teaser"}, 2)
	assert.False(t, ok)
}

func TestYoutubeID(t *testing.T) {
	assert.Equal(t, "dQw4w9WgXcQ", youtubeID("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.Equal(t, "dQw4w9WgXcQ", youtubeID("https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10"))
	assert.Equal(t, "", youtubeID("https://drive.google.com/open?id=abc"))
}

func TestNormalizeCustomerID(t *testing.T) {
	assert.Equal(t, "1234567890", normalizeCustomerID("123-456-7890"))
	assert.Equal(t, "1234567890", normalizeCustomerID("123 456 7890"))
}
