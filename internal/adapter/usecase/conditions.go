package usecase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"creative-mango/internal/core/domain"
)

// Performance note values written to the Time Managed sheet.
const (
	perfNoteLow       = "LOW"
	perfNoteNoRecords = "NO RECENT RECORDS"
)

// perfConditions holds the eviction thresholds read from the
// Performance Conditions tab. Metric thresholds are optional; at least
// one must be set.
type perfConditions struct {
	// ActiveDays is the minimum number of days a creative must have
	// served before it is evaluated at all.
	ActiveDays int
	// Duration is the lookback window of the performance query, in days.
	Duration int

	Impressions      *int64
	Conversions      *float64
	ConversionsValue *float64
	CTR              *float64
	Clicks           *int64
}

// parsePerfConditions reads the single-column condition range. Row
// order: active days, duration, impressions, conversions, conversions
// value, CTR, clicks.
func parsePerfConditions(rows [][]string) (perfConditions, error) {
	if len(rows) == 0 {
		return perfConditions{}, errors.New("performance conditions sheet is empty")
	}

	vals := make([]string, 7)
	for i := range vals {
		if i < len(rows) && len(rows[i]) > 0 {
			vals[i] = strings.ReplaceAll(strings.TrimSpace(rows[i][0]), " ", "")
		}
	}

	var cond perfConditions
	var err error
	if vals[0] == "" {
		return cond, errors.New("minimum active days condition is empty")
	}
	if cond.ActiveDays, err = strconv.Atoi(vals[0]); err != nil {
		return cond, fmt.Errorf("minimum active days: %w", err)
	}
	if vals[1] == "" {
		return cond, errors.New("evaluation duration condition is empty")
	}
	if cond.Duration, err = strconv.Atoi(vals[1]); err != nil {
		return cond, fmt.Errorf("evaluation duration: %w", err)
	}
	if cond.Duration <= 0 {
		return cond, errors.New("evaluation duration must be greater than 0")
	}

	parseInt := func(s string) (*int64, error) {
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		return &v, err
	}
	parseFloat := func(s string) (*float64, error) {
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		return &v, err
	}

	if cond.Impressions, err = parseInt(vals[2]); err != nil {
		return cond, fmt.Errorf("impressions threshold: %w", err)
	}
	if cond.Conversions, err = parseFloat(vals[3]); err != nil {
		return cond, fmt.Errorf("conversions threshold: %w", err)
	}
	if cond.ConversionsValue, err = parseFloat(vals[4]); err != nil {
		return cond, fmt.Errorf("conversions value threshold: %w", err)
	}
	if cond.CTR, err = parseFloat(vals[5]); err != nil {
		return cond, fmt.Errorf("ctr threshold: %w", err)
	}
	if cond.Clicks, err = parseInt(vals[6]); err != nil {
		return cond, fmt.Errorf("clicks threshold: %w", err)
	}

	if cond.Impressions == nil && cond.Conversions == nil && cond.ConversionsValue == nil &&
		cond.CTR == nil && cond.Clicks == nil {
		return cond, errors.New("all metric thresholds are empty, fill in at least one")
	}
	return cond, nil
}

// evaluate grades an asset against the thresholds. Only assets the
// platform already labels LOW are considered for eviction; the last
// configured threshold decides.
func (c perfConditions) evaluate(m *domain.AssetMetrics) string {
	if m == nil {
		return perfNoteNoRecords
	}
	if m.Label != domain.LabelLow {
		return ""
	}

	low := false
	if c.Impressions != nil {
		low = m.Impressions < *c.Impressions
	}
	if c.Conversions != nil {
		low = m.Conversions < *c.Conversions
	}
	if c.ConversionsValue != nil {
		low = m.ConversionsValue < *c.ConversionsValue
	}
	if c.CTR != nil {
		low = m.CTR < *c.CTR
	}
	if c.Clicks != nil {
		low = m.Clicks < *c.Clicks
	}
	if low {
		return perfNoteLow
	}
	return ""
}
