package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"creative-mango/internal/core/domain"
)

// runMapping rewrites the Mapping tab of every managed spreadsheet with
// the current App Campaign ad groups of all reachable accounts,
// carrying over aliases customers assigned by hand.
func (s *SyncService) runMapping(ctx context.Context, res *domain.StepResult) error {
	customers, err := s.customerIDs(ctx)
	if err != nil {
		return fmt.Errorf("enumerate customer accounts: %w", err)
	}

	var adGroups []domain.AdGroupInfo
	for _, customerID := range customers {
		groups, err := s.ads.AppAdGroups(ctx, customerID)
		if err != nil {
			s.report(res, domain.Issue{
				Kind:     domain.IssueCollaborator,
				Campaign: domain.CampaignRef{CustomerID: customerID},
				Msg:      fmt.Sprintf("list app ad groups: %v", err),
			})
			res.Failed++
			continue
		}
		adGroups = append(adGroups, groups...)
	}

	for _, spreadsheetID := range s.opts.SpreadsheetIDs {
		if err := s.rewriteMapping(ctx, spreadsheetID, adGroups); err != nil {
			s.report(res, domain.Issue{
				Kind: domain.IssueCollaborator,
				Msg:  fmt.Sprintf("spreadsheet %s: %v", spreadsheetID, err),
			})
			res.Failed++
			continue
		}
		res.Succeeded++
	}
	return nil
}

// customerIDs resolves the accounts to scan: the child accounts of the
// configured manager, or every accessible non-manager account.
func (s *SyncService) customerIDs(ctx context.Context) ([]string, error) {
	if s.opts.LoginCustomerID != "" {
		return s.ads.ChildAccounts(ctx, normalizeCustomerID(s.opts.LoginCustomerID))
	}
	roots, err := s.ads.AccessibleCustomers(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var customers []string
	for _, root := range roots {
		children, err := s.ads.ChildAccounts(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, id := range children {
			if !seen[id] {
				seen[id] = true
				customers = append(customers, id)
			}
		}
	}
	return customers, nil
}

func (s *SyncService) rewriteMapping(ctx context.Context, spreadsheetID string, adGroups []domain.AdGroupInfo) error {
	existing, err := s.sheets.Values(ctx, spreadsheetID, mappingSheetRange)
	if err != nil {
		return fmt.Errorf("read mapping sheet: %w", err)
	}
	aliases := make(map[domain.CampaignRef]string, len(existing))
	for _, row := range existing {
		campaign := domain.CampaignRef{
			CustomerID: normalizeCustomerID(cell(row, colMapCustomerID)),
			AdGroupID:  cell(row, colMapAdGroupID),
		}
		if alias := cell(row, colMapAlias); alias != "" && campaign.AdGroupID != "" {
			aliases[campaign] = alias
		}
	}

	rows := make([][]string, 0, len(adGroups))
	for _, g := range adGroups {
		alias := aliases[g.Campaign]
		if alias == "" {
			alias = s.defaultAlias(g)
		}
		rows = append(rows, []string{
			alias,
			g.Campaign.CustomerID,
			g.Campaign.AdGroupID,
			g.AdGroupName,
			g.CampaignID,
			g.CampaignName,
			g.AppID,
			fmt.Sprint(g.Counts.Headlines),
			fmt.Sprint(g.Counts.Descriptions),
			fmt.Sprint(g.Counts.Images),
			fmt.Sprint(g.Counts.Videos),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !strings.EqualFold(a[colMapAlias], b[colMapAlias]) {
			return strings.ToLower(a[colMapAlias]) < strings.ToLower(b[colMapAlias])
		}
		if a[colMapCustomerID] != b[colMapCustomerID] {
			return a[colMapCustomerID] < b[colMapCustomerID]
		}
		return a[colMapAdGroupID] < b[colMapAdGroupID]
	})

	if err := s.sheets.Clear(ctx, spreadsheetID, mappingSheetRange); err != nil {
		return fmt.Errorf("clear mapping sheet: %w", err)
	}
	if len(rows) > 0 {
		if err := s.sheets.Update(ctx, spreadsheetID, mappingSheetRange, rows); err != nil {
			return fmt.Errorf("write mapping rows: %w", err)
		}
	}
	stamp := [][]string{{"Last refresh: " + s.now().Format(time.DateTime)}}
	if err := s.sheets.Update(ctx, spreadsheetID, mappingDateCell, stamp); err != nil {
		return fmt.Errorf("write refresh date: %w", err)
	}
	return nil
}

// defaultAlias derives an alias for an ad group no one has named yet.
func (s *SyncService) defaultAlias(g domain.AdGroupInfo) string {
	if s.opts.AliasFromAppID && g.AppID != "" {
		return g.AppID
	}
	if s.opts.AliasFromCampaign && g.CampaignName != "" {
		return g.CampaignName
	}
	return ""
}
