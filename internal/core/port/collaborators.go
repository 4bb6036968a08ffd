package port

import (
	"context"
	"errors"
	"time"

	"creative-mango/internal/core/domain"
)

// ErrNotFound is returned by collaborators when a referenced entity
// does not exist on the remote side.
var ErrNotFound = errors.New("not found")

// SheetStore is the spreadsheet collaborator. It is an outbound port;
// implementations wrap the Sheets API and must retry transient
// failures with backoff before surfacing an error.
type SheetStore interface {
	// Values reads a range as rows of strings. Trailing empty cells may
	// be omitted per row.
	Values(ctx context.Context, spreadsheetID, readRange string) ([][]string, error)
	// Append appends rows after the last non-empty row of the range.
	Append(ctx context.Context, spreadsheetID, writeRange string, values [][]string) error
	// Update overwrites cells starting at the top-left of the range.
	Update(ctx context.Context, spreadsheetID, writeRange string, values [][]string) error
	// Clear empties the cells in the range.
	Clear(ctx context.Context, spreadsheetID, clearRange string) error
	// SheetID resolves a tab name to its numeric sheet id.
	SheetID(ctx context.Context, spreadsheetID, sheetName string) (int64, error)
	// DeleteRows removes the given 1-based row indexes from a tab.
	DeleteRows(ctx context.Context, spreadsheetID string, sheetID int64, rows []int) error
}

// AdPlatform is the ad platform collaborator: reads current campaign
// state and applies creative mutations.
type AdPlatform interface {
	// AccessibleCustomers lists customer ids reachable with the
	// configured credentials.
	AccessibleCustomers(ctx context.Context) ([]string, error)
	// ChildAccounts lists non-manager accounts under a customer id.
	ChildAccounts(ctx context.Context, customerID string) ([]string, error)
	// AppAdGroups lists App Campaign ad groups of a customer with
	// campaign metadata and per-type asset counts.
	AppAdGroups(ctx context.Context, customerID string) ([]domain.AdGroupInfo, error)
	// AssetCounts returns the per-type asset counts of one ad group and
	// whether the ad is an engagement ad (which has no asset-level
	// performance reporting).
	AssetCounts(ctx context.Context, campaign domain.CampaignRef) (domain.AssetCounts, bool, error)
	// AttachedAssets lists the creatives of one type currently attached
	// to an ad group's App ad, with performance labels and metrics.
	AttachedAssets(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType) ([]domain.LiveCreative, error)
	// AssetMetrics returns the recent performance of one attached
	// asset. A nil result means no records in the lookback window.
	AssetMetrics(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType, assetRef string, lookbackDays int) (*domain.AssetMetrics, error)
	// ImageAssets lists image assets of a customer account with content
	// hashes for duplicate detection.
	ImageAssets(ctx context.Context, customerID string) ([]domain.ImageAsset, error)
	// CreateImageAsset uploads image bytes as a named asset and returns
	// its resource name.
	CreateImageAsset(ctx context.Context, customerID, name string, data []byte) (string, error)
	// CreateVideoAsset registers a hosted video as an asset and returns
	// its resource name.
	CreateVideoAsset(ctx context.Context, customerID, videoID string) (string, error)
	// AttachAsset adds an asset to an ad group's App ad. The reference
	// is the text value for text assets and the resource name otherwise.
	AttachAsset(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType, ref string) error
	// DetachAsset removes an asset from an ad group's App ad.
	DetachAsset(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType, ref string) error
}

// AssetStore is the creative file collaborator (Drive).
type AssetStore interface {
	// ListFiles lists image and video files created since the given
	// time in the configured folders; all accessible folders when
	// folderIDs is empty.
	ListFiles(ctx context.Context, folderIDs []string, since time.Time) ([]domain.AssetFile, error)
	// Download fetches asset bytes from a Drive or plain URL.
	Download(ctx context.Context, url string) ([]byte, error)
}

// VideoHost is the video platform collaborator (YouTube).
type VideoHost interface {
	// Upload pushes video bytes to the channel and returns the video id.
	Upload(ctx context.Context, title string, data []byte) (string, error)
	// Uploads lists channel uploads published since the given time.
	Uploads(ctx context.Context, since time.Time) ([]domain.VideoEntry, error)
	// Processed reports whether all given videos finished processing.
	Processed(ctx context.Context, ids []string) (bool, error)
}
