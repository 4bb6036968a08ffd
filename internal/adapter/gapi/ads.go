package gapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"creative-mango/internal/core/domain"
	"creative-mango/internal/core/port"
)

const (
	adsBaseURL    = "https://googleads.googleapis.com"
	adsAPIVersion = "v17"
)

// AdPlatform talks to the Google Ads API. It implements
// port.AdPlatform. API errors are unwrapped into the human-readable
// message the error payload carries, so the usecases can write them to
// the sheet as-is.
type AdPlatform struct {
	client          *http.Client
	developerToken  string
	loginCustomerID string
}

var _ port.AdPlatform = (*AdPlatform)(nil)

func NewAdPlatform(client *http.Client, developerToken, loginCustomerID string) *AdPlatform {
	return &AdPlatform{
		client:          client,
		developerToken:  developerToken,
		loginCustomerID: strings.NewReplacer("-", "", " ", "").Replace(loginCustomerID),
	}
}

func (a *AdPlatform) headers() map[string]string {
	h := map[string]string{"developer-token": a.developerToken}
	if a.loginCustomerID != "" {
		h["login-customer-id"] = a.loginCustomerID
	}
	return h
}

// searchRow is one GAQL result row; only the fields the tool reads are
// mapped.
type searchRow struct {
	Customer struct {
		ID string `json:"id"`
	} `json:"customer"`
	CustomerClient struct {
		ID      string `json:"id"`
		Manager bool   `json:"manager"`
	} `json:"customerClient"`
	Campaign struct {
		ID                 string `json:"id"`
		Name               string `json:"name"`
		AppCampaignSetting struct {
			AppID string `json:"appId"`
		} `json:"appCampaignSetting"`
	} `json:"campaign"`
	AdGroup struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"adGroup"`
	AdGroupAd struct {
		Ad appAdFields `json:"ad"`
	} `json:"adGroupAd"`
	AdGroupAdAssetView struct {
		Asset            string `json:"asset"`
		FieldType        string `json:"fieldType"`
		PerformanceLabel string `json:"performanceLabel"`
	} `json:"adGroupAdAssetView"`
	Asset struct {
		ResourceName string `json:"resourceName"`
		Name         string `json:"name"`
		TextAsset    struct {
			Text string `json:"text"`
		} `json:"textAsset"`
		ImageAsset struct {
			FullSize struct {
				URL string `json:"url"`
			} `json:"fullSize"`
		} `json:"imageAsset"`
		YoutubeVideoAsset struct {
			YoutubeVideoID string `json:"youtubeVideoId"`
		} `json:"youtubeVideoAsset"`
	} `json:"asset"`
	Segments struct {
		Date string `json:"date"`
	} `json:"segments"`
	Metrics struct {
		Impressions      string  `json:"impressions"`
		Clicks           string  `json:"clicks"`
		Conversions      float64 `json:"conversions"`
		ConversionsValue float64 `json:"conversionsValue"`
		CTR              float64 `json:"ctr"`
		CostMicros       string  `json:"costMicros"`
	} `json:"metrics"`
}

type appAdFields struct {
	ResourceName    string       `json:"resourceName"`
	Type            string       `json:"type"`
	AppAd           adAssetLists `json:"appAd"`
	AppEngagementAd adAssetLists `json:"appEngagementAd"`
}

type adAssetLists struct {
	Headlines     []adTextAsset  `json:"headlines,omitempty"`
	Descriptions  []adTextAsset  `json:"descriptions,omitempty"`
	Images        []adMediaAsset `json:"images,omitempty"`
	YoutubeVideos []adMediaAsset `json:"youtubeVideos,omitempty"`
	// Engagement ads call their video list "videos".
	Videos []adMediaAsset `json:"videos,omitempty"`
}

type adTextAsset struct {
	Text string `json:"text"`
}

type adMediaAsset struct {
	Asset string `json:"asset"`
}

// search runs a GAQL query against one customer account and returns
// all result rows, following pagination.
func (a *AdPlatform) search(ctx context.Context, customerID, query string) ([]searchRow, error) {
	u := fmt.Sprintf("%s/%s/customers/%s/googleAds:search", adsBaseURL, adsAPIVersion, customerID)

	var rows []searchRow
	pageToken := ""
	for {
		body := map[string]any{"query": query, "pageSize": 10000}
		if pageToken != "" {
			body["pageToken"] = pageToken
		}
		var out struct {
			Results       []searchRow `json:"results"`
			NextPageToken string      `json:"nextPageToken"`
		}
		if err := doJSON(ctx, a.client, http.MethodPost, u, a.headers(), body, &out); err != nil {
			return nil, translateAdsError(err)
		}
		rows = append(rows, out.Results...)
		if out.NextPageToken == "" {
			return rows, nil
		}
		pageToken = out.NextPageToken
	}
}

func (a *AdPlatform) AccessibleCustomers(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s/%s/customers:listAccessibleCustomers", adsBaseURL, adsAPIVersion)
	var out struct {
		ResourceNames []string `json:"resourceNames"`
	}
	if err := doJSON(ctx, a.client, http.MethodGet, u, a.headers(), nil, &out); err != nil {
		return nil, translateAdsError(err)
	}
	ids := make([]string, 0, len(out.ResourceNames))
	for _, rn := range out.ResourceNames {
		ids = append(ids, strings.TrimPrefix(rn, "customers/"))
	}
	return ids, nil
}

func (a *AdPlatform) ChildAccounts(ctx context.Context, customerID string) ([]string, error) {
	rows, err := a.search(ctx, customerID, `
		SELECT customer_client.id, customer_client.manager
		FROM customer_client
		WHERE customer_client.status = 'ENABLED'`)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, row := range rows {
		if !row.CustomerClient.Manager {
			ids = append(ids, row.CustomerClient.ID)
		}
	}
	return ids, nil
}

func (a *AdPlatform) AppAdGroups(ctx context.Context, customerID string) ([]domain.AdGroupInfo, error) {
	rows, err := a.search(ctx, customerID, `
		SELECT
			campaign.id, campaign.name, campaign.app_campaign_setting.app_id,
			ad_group.id, ad_group.name,
			ad_group_ad.ad.app_ad.headlines, ad_group_ad.ad.app_ad.descriptions,
			ad_group_ad.ad.app_ad.images, ad_group_ad.ad.app_ad.youtube_videos,
			ad_group_ad.ad.app_engagement_ad.headlines, ad_group_ad.ad.app_engagement_ad.descriptions,
			ad_group_ad.ad.app_engagement_ad.images, ad_group_ad.ad.app_engagement_ad.videos
		FROM ad_group_ad
		WHERE campaign.advertising_channel_type = 'MULTI_CHANNEL'
			AND campaign.status != 'REMOVED'
			AND ad_group.status != 'REMOVED'
			AND ad_group_ad.status != 'REMOVED'`)
	if err != nil {
		return nil, err
	}

	groups := make([]domain.AdGroupInfo, 0, len(rows))
	for _, row := range rows {
		lists := row.AdGroupAd.Ad.lists()
		groups = append(groups, domain.AdGroupInfo{
			Campaign: domain.CampaignRef{
				CustomerID: customerID,
				AdGroupID:  row.AdGroup.ID,
			},
			AdGroupName:  row.AdGroup.Name,
			CampaignID:   row.Campaign.ID,
			CampaignName: row.Campaign.Name,
			AppID:        row.Campaign.AppCampaignSetting.AppID,
			Counts:       lists.counts(),
		})
	}
	return groups, nil
}

// lists returns the asset lists of whichever App ad flavor the ad is.
func (f appAdFields) lists() adAssetLists {
	if f.engagement() {
		l := f.AppEngagementAd
		l.YoutubeVideos = l.Videos
		return l
	}
	return f.AppAd
}

func (f appAdFields) engagement() bool {
	return f.Type == "APP_ENGAGEMENT_AD"
}

func (l adAssetLists) counts() domain.AssetCounts {
	return domain.AssetCounts{
		Headlines:    len(l.Headlines),
		Descriptions: len(l.Descriptions),
		Images:       len(l.Images),
		Videos:       len(l.YoutubeVideos),
	}
}

// appAd fetches the App ad of one ad group with its asset lists.
func (a *AdPlatform) appAd(ctx context.Context, campaign domain.CampaignRef) (appAdFields, error) {
	rows, err := a.search(ctx, campaign.CustomerID, fmt.Sprintf(`
		SELECT
			ad_group_ad.ad.resource_name, ad_group_ad.ad.type,
			ad_group_ad.ad.app_ad.headlines, ad_group_ad.ad.app_ad.descriptions,
			ad_group_ad.ad.app_ad.images, ad_group_ad.ad.app_ad.youtube_videos,
			ad_group_ad.ad.app_engagement_ad.headlines, ad_group_ad.ad.app_engagement_ad.descriptions,
			ad_group_ad.ad.app_engagement_ad.images, ad_group_ad.ad.app_engagement_ad.videos
		FROM ad_group_ad
		WHERE ad_group.id = %s AND ad_group_ad.status != 'REMOVED'`, campaign.AdGroupID))
	if err != nil {
		return appAdFields{}, err
	}
	if len(rows) == 0 {
		return appAdFields{}, fmt.Errorf("app ad of ad group %s: %w", campaign.AdGroupID, port.ErrNotFound)
	}
	return rows[0].AdGroupAd.Ad, nil
}

func (a *AdPlatform) AssetCounts(ctx context.Context, campaign domain.CampaignRef) (domain.AssetCounts, bool, error) {
	ad, err := a.appAd(ctx, campaign)
	if err != nil {
		return domain.AssetCounts{}, false, err
	}
	return ad.lists().counts(), ad.engagement(), nil
}

// assetFieldType maps asset types to the ad_group_ad_asset_view field
// type enum.
func assetFieldType(t domain.AssetType) string {
	switch t {
	case domain.AssetHeadline:
		return "HEADLINE"
	case domain.AssetDescription:
		return "DESCRIPTION"
	case domain.AssetImage:
		return "MARKETING_IMAGE"
	default:
		return "YOUTUBE_VIDEO"
	}
}

func (a *AdPlatform) AttachedAssets(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType) ([]domain.LiveCreative, error) {
	rows, err := a.search(ctx, campaign.CustomerID, fmt.Sprintf(`
		SELECT
			ad_group_ad_asset_view.asset, ad_group_ad_asset_view.performance_label,
			asset.resource_name, asset.text_asset.text, segments.date,
			metrics.impressions, metrics.conversions, metrics.cost_micros
		FROM ad_group_ad_asset_view
		WHERE ad_group.id = %s
			AND ad_group_ad_asset_view.field_type = '%s'
			AND segments.date DURING LAST_30_DAYS`, campaign.AdGroupID, assetFieldType(t)))
	if err != nil {
		return nil, err
	}
	return liveFromAssetRows(campaign, t, rows), nil
}

// liveFromAssetRows folds date-segmented asset rows into one snapshot
// per asset. The attachment date is approximated by the earliest
// reported day with impressions.
func liveFromAssetRows(campaign domain.CampaignRef, t domain.AssetType, rows []searchRow) []domain.LiveCreative {
	type assetAgg struct {
		metrics domain.AssetMetrics
		label   domain.PerformanceLabel
		since   time.Time
	}
	byID := make(map[string]*assetAgg)
	var order []string
	for _, row := range rows {
		id := row.Asset.ResourceName
		if t.IsText() {
			id = row.Asset.TextAsset.Text
		}
		agg, ok := byID[id]
		if !ok {
			agg = &assetAgg{label: performanceLabel(row.AdGroupAdAssetView.PerformanceLabel)}
			byID[id] = agg
			order = append(order, id)
		}
		m := rowMetrics(row)
		agg.metrics.Impressions += m.Impressions
		agg.metrics.Conversions += m.Conversions
		agg.metrics.CostMicros += m.CostMicros
		if m.Impressions > 0 {
			if day, err := time.Parse("2006-01-02", row.Segments.Date); err == nil {
				if agg.since.IsZero() || day.Before(agg.since) {
					agg.since = day
				}
			}
		}
	}

	creatives := make([]domain.LiveCreative, 0, len(order))
	for _, id := range order {
		agg := byID[id]
		metric := agg.metrics.ConversionRate()
		if agg.metrics.Conversions == 0 {
			// Without conversions, cheaper assets sort first so the most
			// expensive non-converters are evicted last-resort only.
			metric = -float64(agg.metrics.CostMicros)
		}
		creatives = append(creatives, domain.LiveCreative{
			ID:            id,
			Campaign:      campaign,
			Type:          t,
			Metric:        metric,
			Label:         agg.label,
			AttachedSince: agg.since,
		})
	}
	return creatives
}

func (a *AdPlatform) AssetMetrics(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType, assetRef string, lookbackDays int) (*domain.AssetMetrics, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)

	filter := fmt.Sprintf("asset.resource_name = '%s'", assetRef)
	if t.IsText() {
		filter = fmt.Sprintf("asset.text_asset.text = '%s'", strings.ReplaceAll(assetRef, "'", "\\'"))
	}
	rows, err := a.search(ctx, campaign.CustomerID, fmt.Sprintf(`
		SELECT
			ad_group_ad_asset_view.performance_label,
			metrics.impressions, metrics.clicks, metrics.conversions,
			metrics.conversions_value, metrics.ctr, metrics.cost_micros
		FROM ad_group_ad_asset_view
		WHERE ad_group.id = %s
			AND ad_group_ad_asset_view.field_type = '%s'
			AND %s
			AND segments.date BETWEEN '%s' AND '%s'`,
		campaign.AdGroupID, assetFieldType(t), filter,
		start.Format("2006-01-02"), end.Format("2006-01-02")))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	m := rowMetrics(rows[0])
	m.Label = performanceLabel(rows[0].AdGroupAdAssetView.PerformanceLabel)
	return &m, nil
}

func rowMetrics(row searchRow) domain.AssetMetrics {
	return domain.AssetMetrics{
		Impressions:      parseAPIInt(row.Metrics.Impressions),
		Clicks:           parseAPIInt(row.Metrics.Clicks),
		Conversions:      row.Metrics.Conversions,
		ConversionsValue: row.Metrics.ConversionsValue,
		CTR:              row.Metrics.CTR,
		CostMicros:       parseAPIInt(row.Metrics.CostMicros),
	}
}

func performanceLabel(s string) domain.PerformanceLabel {
	switch s {
	case "LOW":
		return domain.LabelLow
	case "GOOD":
		return domain.LabelGood
	case "BEST":
		return domain.LabelBest
	default:
		return domain.LabelUnknown
	}
}

func (a *AdPlatform) ImageAssets(ctx context.Context, customerID string) ([]domain.ImageAsset, error) {
	rows, err := a.search(ctx, customerID, `
		SELECT asset.resource_name, asset.name, asset.image_asset.full_size.url
		FROM asset
		WHERE asset.type = 'IMAGE'`)
	if err != nil {
		return nil, err
	}
	assets := make([]domain.ImageAsset, 0, len(rows))
	for _, row := range rows {
		assets = append(assets, domain.ImageAsset{
			ResourceName: row.Asset.ResourceName,
			Name:         row.Asset.Name,
			URL:          row.Asset.ImageAsset.FullSize.URL,
		})
	}
	return assets, nil
}

// mutateAssets creates assets under a customer account and returns the
// resource names, in operation order.
func (a *AdPlatform) mutateAssets(ctx context.Context, customerID string, operations []map[string]any) ([]string, error) {
	u := fmt.Sprintf("%s/%s/customers/%s/assets:mutate", adsBaseURL, adsAPIVersion, customerID)
	body := map[string]any{"operations": operations}
	var out struct {
		Results []struct {
			ResourceName string `json:"resourceName"`
		} `json:"results"`
	}
	if err := doJSON(ctx, a.client, http.MethodPost, u, a.headers(), body, &out); err != nil {
		return nil, translateAdsError(err)
	}
	names := make([]string, 0, len(out.Results))
	for _, r := range out.Results {
		names = append(names, r.ResourceName)
	}
	return names, nil
}

func (a *AdPlatform) CreateImageAsset(ctx context.Context, customerID, name string, data []byte) (string, error) {
	names, err := a.mutateAssets(ctx, customerID, []map[string]any{{
		"create": map[string]any{
			"name": name,
			"imageAsset": map[string]any{
				"data": base64.StdEncoding.EncodeToString(data),
			},
		},
	}})
	if err != nil {
		return "", fmt.Errorf("create image asset %q: %w", name, err)
	}
	return names[0], nil
}

// CreateVideoAsset registers a YouTube video as an asset, reusing the
// existing asset when the video was registered before.
func (a *AdPlatform) CreateVideoAsset(ctx context.Context, customerID, videoID string) (string, error) {
	rows, err := a.search(ctx, customerID, fmt.Sprintf(`
		SELECT asset.resource_name
		FROM asset
		WHERE asset.type = 'YOUTUBE_VIDEO'
			AND asset.youtube_video_asset.youtube_video_id = '%s'`, videoID))
	if err != nil {
		return "", err
	}
	if len(rows) > 0 {
		return rows[0].Asset.ResourceName, nil
	}

	names, err := a.mutateAssets(ctx, customerID, []map[string]any{{
		"create": map[string]any{
			"name": videoID,
			"youtubeVideoAsset": map[string]any{
				"youtubeVideoId": videoID,
			},
		},
	}})
	if err != nil {
		return "", fmt.Errorf("create video asset %q: %w", videoID, err)
	}
	return names[0], nil
}

func (a *AdPlatform) AttachAsset(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType, ref string) error {
	return a.mutateAdLists(ctx, campaign, t, ref, true)
}

func (a *AdPlatform) DetachAsset(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType, ref string) error {
	return a.mutateAdLists(ctx, campaign, t, ref, false)
}

// mutateAdLists rewrites one asset list of the ad group's App ad with
// the reference added or removed and updates the ad with a field mask
// covering only that list.
func (a *AdPlatform) mutateAdLists(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType, ref string, add bool) error {
	ad, err := a.appAd(ctx, campaign)
	if err != nil {
		return err
	}
	lists := ad.lists()

	adKey := "appAd"
	maskPrefix := "app_ad"
	if ad.engagement() {
		adKey = "appEngagementAd"
		maskPrefix = "app_engagement_ad"
	}

	var listKey, mask string
	var payload any
	switch t {
	case domain.AssetHeadline, domain.AssetDescription:
		texts := lists.Headlines
		listKey, mask = "headlines", maskPrefix+".headlines"
		if t == domain.AssetDescription {
			texts = lists.Descriptions
			listKey, mask = "descriptions", maskPrefix+".descriptions"
		}
		updated, changed := updateTextList(texts, ref, add)
		if !changed {
			return nil
		}
		payload = updated
	case domain.AssetImage:
		listKey, mask = "images", maskPrefix+".images"
		updated, changed := updateMediaList(lists.Images, ref, add)
		if !changed {
			return nil
		}
		payload = updated
	case domain.AssetVideo:
		listKey, mask = "youtubeVideos", maskPrefix+".youtube_videos"
		if ad.engagement() {
			listKey, mask = "videos", maskPrefix+".videos"
		}
		updated, changed := updateMediaList(lists.YoutubeVideos, ref, add)
		if !changed {
			return nil
		}
		payload = updated
	}

	u := fmt.Sprintf("%s/%s/customers/%s/ads:mutate", adsBaseURL, adsAPIVersion, campaign.CustomerID)
	body := map[string]any{
		"operations": []map[string]any{{
			"updateMask": mask,
			"update": map[string]any{
				"resourceName": ad.ResourceName,
				adKey: map[string]any{
					listKey: payload,
				},
			},
		}},
	}
	if err := doJSON(ctx, a.client, http.MethodPost, u, a.headers(), body, nil); err != nil {
		return translateAdsError(err)
	}
	return nil
}

func updateTextList(texts []adTextAsset, ref string, add bool) ([]adTextAsset, bool) {
	updated := make([]adTextAsset, 0, len(texts)+1)
	found := false
	for _, item := range texts {
		if item.Text == ref {
			found = true
			if !add {
				continue
			}
		}
		updated = append(updated, item)
	}
	if add {
		if found {
			return nil, false
		}
		return append(updated, adTextAsset{Text: ref}), true
	}
	return updated, found
}

func updateMediaList(items []adMediaAsset, ref string, add bool) ([]adMediaAsset, bool) {
	updated := make([]adMediaAsset, 0, len(items)+1)
	found := false
	for _, item := range items {
		if item.Asset == ref {
			found = true
			if !add {
				continue
			}
		}
		updated = append(updated, item)
	}
	if add {
		if found {
			return nil, false
		}
		return append(updated, adMediaAsset{Asset: ref}), true
	}
	return updated, found
}
