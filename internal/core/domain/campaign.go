package domain

import "time"

// CampaignRef addresses one App Campaign ad group within a customer
// account.
type CampaignRef struct {
	CustomerID string
	AdGroupID  string
}

// PerformanceLabel is the platform's own rating of an attached asset.
type PerformanceLabel string

const (
	LabelLow     PerformanceLabel = "LOW"
	LabelGood    PerformanceLabel = "GOOD"
	LabelBest    PerformanceLabel = "BEST"
	LabelUnknown PerformanceLabel = "UNKNOWN"
)

// LiveCreative is a read-only snapshot of a creative currently attached
// to a campaign, taken at the start of a run.
type LiveCreative struct {
	// ID is the asset resource name, or the text value for text assets.
	ID       string
	Campaign CampaignRef
	Type     AssetType
	// Metric is the performance figure removals are ordered by,
	// ascending. Conversion rate when conversions are reported, with a
	// cost-based fallback computed by the caller.
	Metric float64
	Label  PerformanceLabel
	// AttachedSince is the date the creative was attached.
	AttachedSince time.Time
}

// AssetCounts holds the number of attached assets per type in one
// ad group.
type AssetCounts struct {
	Headlines    int
	Descriptions int
	Images       int
	Videos       int
}

// Of returns the count for the given asset type.
func (c AssetCounts) Of(t AssetType) int {
	switch t {
	case AssetHeadline:
		return c.Headlines
	case AssetDescription:
		return c.Descriptions
	case AssetImage:
		return c.Images
	case AssetVideo:
		return c.Videos
	}
	return 0
}

// Add returns the counts with the given type incremented by n.
func (c AssetCounts) Add(t AssetType, n int) AssetCounts {
	switch t {
	case AssetHeadline:
		c.Headlines += n
	case AssetDescription:
		c.Descriptions += n
	case AssetImage:
		c.Images += n
	case AssetVideo:
		c.Videos += n
	}
	return c
}

// MinAssets is the number of assets per type an ad group must keep.
// Removing below these floors would degrade ad serving.
func MinAssets(t AssetType) int {
	switch t {
	case AssetHeadline, AssetDescription:
		return 2
	case AssetImage:
		return 1
	case AssetVideo:
		return 5
	}
	return 0
}

// MaxAssets is the platform limit of assets per type in one ad group:
// 5 headlines and descriptions, 20 images and videos.
func MaxAssets(t AssetType) int {
	if t.IsText() {
		return 5
	}
	return 20
}

// CampaignSlotState captures slot occupancy of one ad group for a
// single asset type at the start of a run.
type CampaignSlotState struct {
	Campaign CampaignRef
	Type     AssetType
	// MaxSlots is the slot capacity for this asset type.
	MaxSlots int
	// Occupied is the number of currently attached assets of this type.
	Occupied int
	// Counts holds the per-type totals of the whole ad group, used to
	// enforce minimum floors.
	Counts AssetCounts
}

// AdGroupInfo is one Mapping sheet row's worth of campaign metadata.
type AdGroupInfo struct {
	Alias        string
	Campaign     CampaignRef
	AdGroupName  string
	CampaignID   string
	CampaignName string
	AppID        string
	Counts       AssetCounts
}

// MappingRow associates an ad group alias with a campaign target.
type MappingRow struct {
	Alias    string
	Campaign CampaignRef
}

// AssetFile is a creative file discovered in the asset store.
type AssetFile struct {
	Type AssetType
	Name string
	URL  string
}

// VideoEntry is one upload on the managed video channel.
type VideoEntry struct {
	ID    string
	Title string
}

// ImageAsset describes an image asset already present in the customer
// account, used for duplicate detection by name or content hash.
type ImageAsset struct {
	ResourceName string
	Name         string
	URL          string
	MD5          string
}

// AssetMetrics is the per-asset performance readout used by the
// performance evaluation step. A nil result means no recent records.
type AssetMetrics struct {
	Impressions      int64
	Clicks           int64
	Conversions      float64
	ConversionsValue float64
	CTR              float64
	CostMicros       int64
	Label            PerformanceLabel
}

// ConversionRate returns conversions per impression, zero when the
// asset has no impressions.
func (m AssetMetrics) ConversionRate() float64 {
	if m.Impressions == 0 {
		return 0
	}
	return m.Conversions / float64(m.Impressions)
}
