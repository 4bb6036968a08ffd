package domain

import (
	"strings"
	"time"
)

// AssetType identifies the kind of creative attached to an App ad.
type AssetType string

const (
	AssetHeadline    AssetType = "HEADLINE"
	AssetDescription AssetType = "DESCRIPTION"
	AssetImage       AssetType = "IMAGE"
	AssetVideo       AssetType = "VIDEO"
)

// ParseAssetType normalises a spreadsheet value into an AssetType. The
// second return value is false for unknown types.
func ParseAssetType(s string) (AssetType, bool) {
	t := AssetType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case AssetHeadline, AssetDescription, AssetImage, AssetVideo:
		return t, true
	}
	return "", false
}

// IsText reports whether the asset is a text asset. Text assets are
// referenced by their text value rather than by an asset id.
func (t AssetType) IsText() bool {
	return t == AssetHeadline || t == AssetDescription
}

// CreativeRequest is one desired-state row declared in the Upload sheet.
// It is an immutable input to a reconciliation run.
type CreativeRequest struct {
	// Alias names the target ad groups via the Mapping sheet.
	Alias string
	Type  AssetType
	// Name is the creative name for media assets and the text value for
	// text assets.
	Name string
	// AssetRef is the Drive/YouTube URL for media assets or the text
	// itself for text assets.
	AssetRef string
	// AssetID is the platform resource name once the creative has been
	// attached. Empty for not-yet-uploaded requests.
	AssetID string
	// Replace optionally names an existing asset to detach before this
	// one is attached.
	Replace string
	// FlightStart and FlightEnd bound the date window in which the
	// creative should be live. Both are inclusive; a zero FlightEnd
	// means open-ended.
	FlightStart time.Time
	FlightEnd   time.Time
	// Priority orders competing requests for free slots. Lower wins.
	Priority int
	// UsedAdGroupIDs records ad groups this row was already applied to.
	UsedAdGroupIDs string
	// RowIndex is the 1-based sheet row the request came from.
	RowIndex int
}

// ValidWindow reports whether the flight window is well formed.
func (r CreativeRequest) ValidWindow() bool {
	if r.FlightStart.IsZero() || r.FlightEnd.IsZero() {
		return true
	}
	return !r.FlightStart.After(r.FlightEnd)
}

// InFlight reports whether the flight window contains the given date.
func (r CreativeRequest) InFlight(now time.Time) bool {
	day := DateOnly(now)
	if !r.FlightStart.IsZero() && day.Before(DateOnly(r.FlightStart)) {
		return false
	}
	if !r.FlightEnd.IsZero() && day.After(DateOnly(r.FlightEnd)) {
		return false
	}
	return true
}

// Expired reports whether the flight window has fully elapsed.
func (r CreativeRequest) Expired(now time.Time) bool {
	return !r.FlightEnd.IsZero() && DateOnly(r.FlightEnd).Before(DateOnly(now))
}

// Ref returns the identity used to match a request against a live
// creative: the platform id when known, the asset reference otherwise.
func (r CreativeRequest) Ref() string {
	if r.AssetID != "" {
		return r.AssetID
	}
	return r.AssetRef
}

// DateOnly truncates a time to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
