package usecase

import (
	"fmt"
	"sort"
	"time"

	"creative-mango/internal/core/domain"
)

// Reconcile computes the add/remove delta for one ad group and asset
// type. It is a pure function of its inputs: applying the delta is the
// caller's job, and calling it twice on the same inputs yields the same
// delta.
//
// Rules, in order:
//   - requests outside their flight window never enter ToAdd;
//   - live creatives whose declared flight has elapsed always enter
//     ToRemove, independent of performance;
//   - when live plus newly eligible creatives exceed the slot
//     capacity, live creatives are evicted worst metric first, ties
//     broken by oldest attachment, but never below the per-type floor;
//   - eligible requests fill the remaining free slots ordered by
//     declared priority, then earliest flight start.
//
// Malformed rows and bad slot configuration are reported as issues and
// excluded; they never fail the reconciliation.
func Reconcile(now time.Time, requests []domain.CreativeRequest, live []domain.LiveCreative, slots domain.CampaignSlotState) (domain.ReconciliationDelta, []domain.Issue) {
	var (
		delta  domain.ReconciliationDelta
		issues []domain.Issue
	)

	if slots.MaxSlots <= 0 {
		issues = append(issues, domain.Issue{
			Kind:     domain.IssueConfiguration,
			Campaign: slots.Campaign,
			Msg:      fmt.Sprintf("ad group has non-positive slot capacity %d for %s assets, skipping", slots.MaxSlots, slots.Type),
		})
		return delta, issues
	}

	liveByRef := make(map[string]domain.LiveCreative, len(live))
	for _, lc := range live {
		liveByRef[lc.ID] = lc
	}

	removed := make(map[string]bool)
	typeCount := slots.Counts.Of(slots.Type)

	var eligible []domain.CreativeRequest
	for _, req := range requests {
		if !req.ValidWindow() {
			issues = append(issues, domain.Issue{
				Kind:     domain.IssueValidation,
				Campaign: slots.Campaign,
				RowIndex: req.RowIndex,
				Msg:      "flight start is after flight end, row skipped",
			})
			continue
		}
		if req.Expired(now) {
			// Elapsed flights are torn down regardless of performance.
			if lc, ok := liveByRef[req.Ref()]; ok && !removed[lc.ID] {
				delta.ToRemove = append(delta.ToRemove, lc)
				removed[lc.ID] = true
				typeCount--
			}
			continue
		}
		if !req.InFlight(now) {
			continue
		}
		if _, ok := liveByRef[req.Ref()]; ok {
			continue
		}
		eligible = append(eligible, req)
	}

	occupied := slots.Occupied - len(delta.ToRemove)
	free := slots.MaxSlots - occupied

	if len(eligible) > free {
		candidates := make([]domain.LiveCreative, 0, len(live))
		for _, lc := range live {
			if !removed[lc.ID] {
				candidates = append(candidates, lc)
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Metric != candidates[j].Metric {
				return candidates[i].Metric < candidates[j].Metric
			}
			return candidates[i].AttachedSince.Before(candidates[j].AttachedSince)
		})
		need := len(eligible) - free
		for _, lc := range candidates {
			if need == 0 {
				break
			}
			if typeCount <= domain.MinAssets(slots.Type) {
				break
			}
			delta.ToRemove = append(delta.ToRemove, lc)
			removed[lc.ID] = true
			typeCount--
			free++
			need--
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority < eligible[j].Priority
		}
		// A declared flight start wins the tie over an undeclared one.
		si, sj := eligible[i].FlightStart, eligible[j].FlightStart
		switch {
		case si.IsZero() != sj.IsZero():
			return sj.IsZero()
		case !si.Equal(sj):
			return si.Before(sj)
		}
		return eligible[i].RowIndex < eligible[j].RowIndex
	})
	if free < 0 {
		free = 0
	}
	if len(eligible) > free {
		eligible = eligible[:free]
	}
	delta.ToAdd = append(delta.ToAdd, eligible...)

	return delta, issues
}
