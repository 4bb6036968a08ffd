package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creative-mango/internal/core/domain"
	"creative-mango/internal/core/port"
	"creative-mango/internal/core/port/mocks"
)

type fixtures struct {
	sheets *mocks.SheetStore
	ads    *mocks.AdPlatform
	assets *mocks.AssetStore
	videos *mocks.VideoHost
	svc    *SyncService
}

func newFixtures(t *testing.T, opts Options) *fixtures {
	t.Helper()
	f := &fixtures{
		sheets: &mocks.SheetStore{},
		ads:    &mocks.AdPlatform{},
		assets: &mocks.AssetStore{},
		videos: &mocks.VideoHost{},
	}
	if len(opts.SpreadsheetIDs) == 0 {
		opts.SpreadsheetIDs = []string{"sheet-1"}
	}
	f.svc = NewSyncService(f.sheets, f.ads, f.assets, f.videos, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *fixtures) assertExpectations(t *testing.T) {
	f.sheets.AssertExpectations(t)
	f.ads.AssertExpectations(t)
	f.assets.AssertExpectations(t)
	f.videos.AssertExpectations(t)
}

func TestFetchAppendsOnlyNewFiles(t *testing.T) {
	f := newFixtures(t, Options{})

	f.assets.On("ListFiles", mock.Anything, mock.Anything, testNow.Add(-24*time.Hour)).
		Return([]domain.AssetFile{
			{Type: domain.AssetImage, Name: "known", URL: "https://drive.google.com/open?id=known"},
			{Type: domain.AssetVideo, Name: "fresh", URL: "https://drive.google.com/open?id=fresh"},
		}, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", uploadSheetRange).
		Return([][]string{{"app", "IMAGE", "known", "https://drive.google.com/open?id=known"}}, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", ytListRange).
		Return(nil, nil)
	f.sheets.On("Append", mock.Anything, "sheet-1", uploadSheetRange,
		[][]string{{"", "VIDEO", "fresh", "https://drive.google.com/open?id=fresh"}}).
		Return(nil)

	res := f.svc.RunStep(context.Background(), port.StepFetch)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Err)
	f.assertExpectations(t)
}

func TestRemoveExpiredCreative(t *testing.T) {
	f := newFixtures(t, Options{})
	campaign := domain.CampaignRef{CustomerID: "1234567890", AdGroupID: "999"}

	f.sheets.On("SheetID", mock.Anything, "sheet-1", timeManagedSheetName).
		Return(int64(5), nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", timeManagedRange).
		Return([][]string{{
			"app", "IMAGE", "banner", "url", "1234567890", "999",
			"customers/1234567890/assets/42", "2024-01-01", "2024-02-01",
		}}, nil)
	f.ads.On("AssetCounts", mock.Anything, campaign).
		Return(domain.AssetCounts{Images: 3}, false, nil)
	f.ads.On("DetachAsset", mock.Anything, campaign, domain.AssetImage, "customers/1234567890/assets/42").
		Return(nil)
	f.sheets.On("Append", mock.Anything, "sheet-1", changeHistoryRange, mock.Anything).
		Return(nil)
	f.sheets.On("Clear", mock.Anything, "sheet-1", timeManagedNoteRange).
		Return(nil)
	f.sheets.On("DeleteRows", mock.Anything, "sheet-1", int64(5), []int{2}).
		Return(nil)
	// Empty conditions skip the performance evaluation pass.
	f.sheets.On("Values", mock.Anything, "sheet-1", perfConditionsRange).
		Return(nil, nil)

	res := f.svc.RunStep(context.Background(), port.StepRemove)
	assert.Equal(t, 1, res.Succeeded)
	assert.Empty(t, res.Err)
	f.assertExpectations(t)
}

func TestRemoveKeepsMinimumAssets(t *testing.T) {
	f := newFixtures(t, Options{})
	campaign := domain.CampaignRef{CustomerID: "1234567890", AdGroupID: "999"}

	f.sheets.On("SheetID", mock.Anything, "sheet-1", timeManagedSheetName).
		Return(int64(5), nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", timeManagedRange).
		Return([][]string{{
			"app", "IMAGE", "banner", "url", "1234567890", "999",
			"customers/1234567890/assets/42", "2024-01-01", "2024-02-01",
		}}, nil)
	// Only one image left: the floor forbids removing it.
	f.ads.On("AssetCounts", mock.Anything, campaign).
		Return(domain.AssetCounts{Images: 1}, false, nil)
	f.sheets.On("Clear", mock.Anything, "sheet-1", timeManagedNoteRange).
		Return(nil)
	f.sheets.On("Update", mock.Anything, "sheet-1", fmt.Sprintf("%s!L%d", timeManagedSheetName, 2), mock.Anything).
		Return(nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", perfConditionsRange).
		Return(nil, nil)

	res := f.svc.RunStep(context.Background(), port.StepRemove)
	assert.Equal(t, 1, res.Failed)
	f.ads.AssertNotCalled(t, "DetachAsset", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestRemoveBadStartDateGetsErrorNote(t *testing.T) {
	f := newFixtures(t, Options{})
	campaign := domain.CampaignRef{CustomerID: "1234567890", AdGroupID: "999"}

	f.sheets.On("SheetID", mock.Anything, "sheet-1", timeManagedSheetName).
		Return(int64(5), nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", timeManagedRange).
		Return([][]string{{
			"app", "IMAGE", "banner", "url", "1234567890", "999",
			"customers/1234567890/assets/42", "01/06/2024",
		}}, nil)
	f.ads.On("AssetCounts", mock.Anything, campaign).
		Return(domain.AssetCounts{Images: 3}, false, nil)
	f.sheets.On("Clear", mock.Anything, "sheet-1", timeManagedNoteRange).
		Return(nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", perfConditionsRange).
		Return(conditionRows("14", "30", "1000"), nil)
	// The unparseable start date must surface as an error note, not slip
	// past the active-days gate.
	f.sheets.On("Update", mock.Anything, "sheet-1", fmt.Sprintf("%s!L%d", timeManagedSheetName, 2),
		[][]string{{"START_DATE is not in the format YYYY-MM-DD"}}).
		Return(nil)

	res := f.svc.RunStep(context.Background(), port.StepRemove)
	assert.Equal(t, 1, res.Failed)
	f.ads.AssertNotCalled(t, "AssetMetrics", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestUploadHeadlineToMappedAdGroup(t *testing.T) {
	f := newFixtures(t, Options{})
	campaign := domain.CampaignRef{CustomerID: "1234567890", AdGroupID: "111"}

	f.sheets.On("Values", mock.Anything, "sheet-1", mappingSheetRange).
		Return([][]string{{"app", "123-456-7890", "111"}}, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", uploadSheetRange).
		Return([][]string{{"app", "HEADLINE", "Play now"}}, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", ytListRange).
		Return(nil, nil)
	f.ads.On("AssetCounts", mock.Anything, campaign).
		Return(domain.AssetCounts{Headlines: 2}, false, nil)
	f.ads.On("AttachedAssets", mock.Anything, campaign, domain.AssetHeadline).
		Return(nil, nil)
	f.ads.On("AttachAsset", mock.Anything, campaign, domain.AssetHeadline, "Play now").
		Return(nil)
	f.sheets.On("Append", mock.Anything, "sheet-1", timeManagedRange, mock.Anything).
		Return(nil)
	f.sheets.On("Update", mock.Anything, "sheet-1", usedAdGroupColumn+"2", [][]string{{"/111"}}).
		Return(nil)
	f.sheets.On("Append", mock.Anything, "sheet-1", changeHistoryRange, mock.MatchedBy(func(rows [][]string) bool {
		return len(rows) == 1 && rows[0][9] == "Action succeed."
	})).Return(nil)

	res := f.svc.RunStep(context.Background(), port.StepUpload)
	assert.Equal(t, 1, res.Succeeded)
	assert.Empty(t, res.Err)
	f.assertExpectations(t)
}

func TestUploadEvictsUnderperformerWhenFull(t *testing.T) {
	f := newFixtures(t, Options{})
	campaign := domain.CampaignRef{CustomerID: "1234567890", AdGroupID: "111"}

	live := make([]domain.LiveCreative, domain.MaxAssets(domain.AssetImage))
	for i := range live {
		live[i] = domain.LiveCreative{
			ID:       fmt.Sprintf("customers/1234567890/assets/%d", i),
			Campaign: campaign,
			Type:     domain.AssetImage,
			Metric:   float64(i),
		}
	}

	f.sheets.On("Values", mock.Anything, "sheet-1", mappingSheetRange).
		Return([][]string{{"app", "1234567890", "111"}}, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", uploadSheetRange).
		Return([][]string{{"app", "IMAGE", "banner", "https://cdn.example.com/banner.png"}}, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", ytListRange).
		Return(nil, nil)
	f.ads.On("AssetCounts", mock.Anything, campaign).
		Return(domain.AssetCounts{Images: len(live)}, false, nil)
	f.ads.On("AttachedAssets", mock.Anything, campaign, domain.AssetImage).
		Return(live, nil)
	// The worst performer goes first.
	f.ads.On("DetachAsset", mock.Anything, campaign, domain.AssetImage, "customers/1234567890/assets/0").
		Return(nil)
	f.ads.On("ImageAssets", mock.Anything, "1234567890").
		Return(nil, nil)
	f.assets.On("Download", mock.Anything, "https://cdn.example.com/banner.png").
		Return([]byte("png-bytes"), nil)
	f.ads.On("CreateImageAsset", mock.Anything, "1234567890", "banner", []byte("png-bytes")).
		Return("customers/1234567890/assets/900", nil)
	f.ads.On("AttachAsset", mock.Anything, campaign, domain.AssetImage, "customers/1234567890/assets/900").
		Return(nil)
	f.sheets.On("Append", mock.Anything, "sheet-1", timeManagedRange, mock.Anything).
		Return(nil)
	f.sheets.On("Update", mock.Anything, "sheet-1", usedAdGroupColumn+"2", mock.Anything).
		Return(nil)
	f.sheets.On("Append", mock.Anything, "sheet-1", changeHistoryRange, mock.Anything).
		Return(nil)

	res := f.svc.RunStep(context.Background(), port.StepUpload)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 0, res.Failed)
	f.assertExpectations(t)
}

func TestUploadDefersFutureFlight(t *testing.T) {
	f := newFixtures(t, Options{})

	f.sheets.On("Values", mock.Anything, "sheet-1", mappingSheetRange).
		Return([][]string{{"app", "1234567890", "111"}}, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", uploadSheetRange).
		Return([][]string{{"app", "HEADLINE", "Soon", "", "", "2030-01-01"}}, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", ytListRange).
		Return(nil, nil)

	res := f.svc.RunStep(context.Background(), port.StepUpload)
	assert.Equal(t, 1, res.Skipped)
	f.ads.AssertNotCalled(t, "AttachAsset", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestUploadReportsElapsedFlight(t *testing.T) {
	f := newFixtures(t, Options{})

	f.sheets.On("Values", mock.Anything, "sheet-1", mappingSheetRange).
		Return([][]string{{"app", "1234567890", "111"}}, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", uploadSheetRange).
		Return([][]string{{"app", "HEADLINE", "Old promo", "", "", "2024-01-01", "2024-02-01"}}, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", ytListRange).
		Return(nil, nil)
	f.sheets.On("Append", mock.Anything, "sheet-1", changeHistoryRange, mock.MatchedBy(func(rows [][]string) bool {
		return len(rows) == 1 && rows[0][9] == "The flight window has elapsed."
	})).Return(nil)

	res := f.svc.RunStep(context.Background(), port.StepUpload)
	assert.Equal(t, 1, res.Skipped)
	f.ads.AssertNotCalled(t, "AttachAsset", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestMappingRefreshCarriesAliases(t *testing.T) {
	f := newFixtures(t, Options{LoginCustomerID: "123-456-7890", RefreshMapping: true})

	f.ads.On("ChildAccounts", mock.Anything, "1234567890").
		Return([]string{"111"}, nil)
	f.ads.On("AppAdGroups", mock.Anything, "111").
		Return([]domain.AdGroupInfo{
			{
				Campaign:     domain.CampaignRef{CustomerID: "111", AdGroupID: "b2"},
				AdGroupName:  "Ad group B", CampaignID: "20", CampaignName: "Campaign B",
				Counts: domain.AssetCounts{Headlines: 2, Descriptions: 2, Images: 1, Videos: 5},
			},
			{
				Campaign:     domain.CampaignRef{CustomerID: "111", AdGroupID: "a1"},
				AdGroupName:  "Ad group A", CampaignID: "10", CampaignName: "Campaign A",
				Counts: domain.AssetCounts{Headlines: 3, Descriptions: 4, Images: 2, Videos: 6},
			},
		}, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", mappingSheetRange).
		Return([][]string{{"kept-alias", "111", "a1"}}, nil)
	f.sheets.On("Clear", mock.Anything, "sheet-1", mappingSheetRange).
		Return(nil)
	f.sheets.On("Update", mock.Anything, "sheet-1", mappingSheetRange, mock.MatchedBy(func(rows [][]string) bool {
		// Rows sorted by alias; the hand-assigned alias survives.
		return len(rows) == 2 && rows[0][0] == "" && rows[1][0] == "kept-alias" && rows[1][2] == "a1"
	})).Return(nil)
	f.sheets.On("Update", mock.Anything, "sheet-1", mappingDateCell, mock.Anything).
		Return(nil)

	res := f.svc.RunStep(context.Background(), port.StepMapping)
	assert.Equal(t, 1, res.Succeeded)
	assert.Empty(t, res.Err)
	f.assertExpectations(t)
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	f := newFixtures(t, Options{})

	// Empty sheets everywhere: every step is a no-op.
	f.assets.On("ListFiles", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.sheets.On("Values", mock.Anything, "sheet-1", mock.Anything).Return(nil, nil)
	f.sheets.On("SheetID", mock.Anything, "sheet-1", timeManagedSheetName).Return(int64(5), nil)
	f.sheets.On("Clear", mock.Anything, "sheet-1", timeManagedNoteRange).Return(nil)

	report := f.svc.Run(context.Background())
	require.Len(t, report.Steps, 3)
	assert.Equal(t, string(port.StepFetch), report.Steps[0].Step)
	assert.Equal(t, string(port.StepRemove), report.Steps[1].Step)
	assert.Equal(t, string(port.StepUpload), report.Steps[2].Step)
	assert.NotEmpty(t, report.ID)
}
