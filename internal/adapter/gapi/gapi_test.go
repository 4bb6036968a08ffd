package gapi

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creative-mango/internal/core/domain"
)

func TestDriveFileID(t *testing.T) {
	assert.Equal(t, "abc123", driveFileID("https://drive.google.com/open?id=abc123"))
	assert.Equal(t, "abc123", driveFileID("https://drive.google.com/file/d/abc123/view?usp=sharing"))
	assert.Equal(t, "", driveFileID("https://cdn.example.com/banner.png"))
}

func TestTranslateAdsErrorFriendly(t *testing.T) {
	body := `{"error":{"message":"Request contains an invalid argument.","details":[{"errors":[
		{"errorCode":{"assetError":"DUPLICATE_ASSET_NAME"},"message":"Duplicate asset name."}]}]}}`
	err := translateAdsError(&apiError{StatusCode: 400, Body: []byte(body)})
	require.Error(t, err)
	assert.Equal(t, "A creative with this name already exists, pick another name.", err.Error())
}

func TestTranslateAdsErrorFallsBackToMessage(t *testing.T) {
	body := `{"error":{"message":"The caller does not have permission"}}`
	err := translateAdsError(&apiError{StatusCode: 403, Body: []byte(body)})
	assert.Equal(t, "The caller does not have permission", err.Error())
}

func TestTranslateAdsErrorPassthrough(t *testing.T) {
	plain := errors.New("dial tcp: connection refused")
	assert.Equal(t, plain, translateAdsError(plain))
}

func TestRetryableClassification(t *testing.T) {
	assert.True(t, retryable(&apiError{StatusCode: 429}))
	assert.True(t, retryable(&apiError{StatusCode: 503}))
	assert.False(t, retryable(&apiError{StatusCode: 400}))
	assert.False(t, retryable(errors.New("boom")))
}

func assetRow(resource, label, date string, impressions int64, conversions float64, cost int64) searchRow {
	var row searchRow
	row.Asset.ResourceName = resource
	row.AdGroupAdAssetView.PerformanceLabel = label
	row.Segments.Date = date
	row.Metrics.Impressions = fmt.Sprint(impressions)
	row.Metrics.Conversions = conversions
	row.Metrics.CostMicros = fmt.Sprint(cost)
	return row
}

func TestLiveFromAssetRowsAggregates(t *testing.T) {
	campaign := domain.CampaignRef{CustomerID: "1234567890", AdGroupID: "111"}
	rows := []searchRow{
		// Zero-impression day: must not count as the attachment date.
		assetRow("customers/1/assets/1", "LOW", "2024-05-01", 0, 0, 0),
		assetRow("customers/1/assets/1", "LOW", "2024-05-10", 100, 2, 5000),
		assetRow("customers/1/assets/1", "LOW", "2024-05-03", 50, 1, 2500),
		assetRow("customers/1/assets/2", "GOOD", "2024-05-02", 10, 0, 9000),
	}

	live := liveFromAssetRows(campaign, domain.AssetImage, rows)
	require.Len(t, live, 2)

	first := live[0]
	assert.Equal(t, "customers/1/assets/1", first.ID)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), first.AttachedSince)
	assert.InDelta(t, 3.0/150.0, first.Metric, 1e-9)
	assert.Equal(t, domain.LabelLow, first.Label)

	second := live[1]
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), second.AttachedSince)
	// No conversions: the cost fallback sorts cheaper assets first.
	assert.Equal(t, -9000.0, second.Metric)
}

func TestLiveFromAssetRowsTextID(t *testing.T) {
	var row searchRow
	row.Asset.TextAsset.Text = "Play now"
	row.Segments.Date = "2024-05-01"
	row.Metrics.Impressions = "5"

	live := liveFromAssetRows(domain.CampaignRef{}, domain.AssetHeadline, []searchRow{row})
	require.Len(t, live, 1)
	assert.Equal(t, "Play now", live[0].ID)
}

func TestUpdateTextList(t *testing.T) {
	texts := []adTextAsset{{Text: "Play now"}, {Text: "Install today"}}

	updated, changed := updateTextList(texts, "New headline", true)
	require.True(t, changed)
	assert.Len(t, updated, 3)

	_, changed = updateTextList(texts, "Play now", true)
	assert.False(t, changed)

	updated, changed = updateTextList(texts, "Play now", false)
	require.True(t, changed)
	assert.Equal(t, []adTextAsset{{Text: "Install today"}}, updated)

	_, changed = updateTextList(texts, "missing", false)
	assert.False(t, changed)
}

func TestUpdateMediaList(t *testing.T) {
	items := []adMediaAsset{{Asset: "customers/1/assets/1"}}

	updated, changed := updateMediaList(items, "customers/1/assets/2", true)
	require.True(t, changed)
	assert.Len(t, updated, 2)

	updated, changed = updateMediaList(items, "customers/1/assets/1", false)
	require.True(t, changed)
	assert.Empty(t, updated)
}
