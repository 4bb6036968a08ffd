package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseAssetType(t *testing.T) {
	for _, raw := range []string{"IMAGE", "image", " Image "} {
		typ, ok := ParseAssetType(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, AssetImage, typ)
	}
	_, ok := ParseAssetType("BANNER")
	assert.False(t, ok)
}

func TestFlightWindow(t *testing.T) {
	now := date(2024, 6, 15)

	open := CreativeRequest{FlightStart: date(2024, 6, 1)}
	assert.True(t, open.ValidWindow())
	assert.True(t, open.InFlight(now))
	assert.False(t, open.Expired(now))

	bounded := CreativeRequest{FlightStart: date(2024, 6, 1), FlightEnd: date(2024, 6, 15)}
	// End dates are inclusive.
	assert.True(t, bounded.InFlight(now))
	assert.False(t, bounded.Expired(now))

	past := CreativeRequest{FlightStart: date(2024, 1, 1), FlightEnd: date(2024, 2, 1)}
	assert.True(t, past.Expired(now))
	assert.False(t, past.InFlight(now))

	inverted := CreativeRequest{FlightStart: date(2024, 7, 1), FlightEnd: date(2024, 6, 1)}
	assert.False(t, inverted.ValidWindow())
}

func TestRefPrefersAssetID(t *testing.T) {
	req := CreativeRequest{AssetRef: "https://drive.google.com/open?id=x", AssetID: "customers/1/assets/2"}
	assert.Equal(t, "customers/1/assets/2", req.Ref())
	req.AssetID = ""
	assert.Equal(t, "https://drive.google.com/open?id=x", req.Ref())
}

func TestAssetFloorsAndLimits(t *testing.T) {
	assert.Equal(t, 2, MinAssets(AssetHeadline))
	assert.Equal(t, 2, MinAssets(AssetDescription))
	assert.Equal(t, 1, MinAssets(AssetImage))
	assert.Equal(t, 5, MinAssets(AssetVideo))

	assert.Equal(t, 5, MaxAssets(AssetHeadline))
	assert.Equal(t, 20, MaxAssets(AssetImage))
}
