// Package mocks provides hand-written testify mocks for the outbound
// and inbound ports, used by the adapter tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"creative-mango/internal/core/domain"
	"creative-mango/internal/core/port"
)

type SheetStore struct {
	mock.Mock
}

var _ port.SheetStore = (*SheetStore)(nil)

func (m *SheetStore) Values(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	args := m.Called(ctx, spreadsheetID, readRange)
	values, _ := args.Get(0).([][]string)
	return values, args.Error(1)
}

func (m *SheetStore) Append(ctx context.Context, spreadsheetID, writeRange string, values [][]string) error {
	return m.Called(ctx, spreadsheetID, writeRange, values).Error(0)
}

func (m *SheetStore) Update(ctx context.Context, spreadsheetID, writeRange string, values [][]string) error {
	return m.Called(ctx, spreadsheetID, writeRange, values).Error(0)
}

func (m *SheetStore) Clear(ctx context.Context, spreadsheetID, clearRange string) error {
	return m.Called(ctx, spreadsheetID, clearRange).Error(0)
}

func (m *SheetStore) SheetID(ctx context.Context, spreadsheetID, sheetName string) (int64, error) {
	args := m.Called(ctx, spreadsheetID, sheetName)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SheetStore) DeleteRows(ctx context.Context, spreadsheetID string, sheetID int64, rows []int) error {
	return m.Called(ctx, spreadsheetID, sheetID, rows).Error(0)
}

type AdPlatform struct {
	mock.Mock
}

var _ port.AdPlatform = (*AdPlatform)(nil)

func (m *AdPlatform) AccessibleCustomers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *AdPlatform) ChildAccounts(ctx context.Context, customerID string) ([]string, error) {
	args := m.Called(ctx, customerID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *AdPlatform) AppAdGroups(ctx context.Context, customerID string) ([]domain.AdGroupInfo, error) {
	args := m.Called(ctx, customerID)
	groups, _ := args.Get(0).([]domain.AdGroupInfo)
	return groups, args.Error(1)
}

func (m *AdPlatform) AssetCounts(ctx context.Context, campaign domain.CampaignRef) (domain.AssetCounts, bool, error) {
	args := m.Called(ctx, campaign)
	counts, _ := args.Get(0).(domain.AssetCounts)
	return counts, args.Bool(1), args.Error(2)
}

func (m *AdPlatform) AttachedAssets(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType) ([]domain.LiveCreative, error) {
	args := m.Called(ctx, campaign, t)
	live, _ := args.Get(0).([]domain.LiveCreative)
	return live, args.Error(1)
}

func (m *AdPlatform) AssetMetrics(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType, assetRef string, lookbackDays int) (*domain.AssetMetrics, error) {
	args := m.Called(ctx, campaign, t, assetRef, lookbackDays)
	metrics, _ := args.Get(0).(*domain.AssetMetrics)
	return metrics, args.Error(1)
}

func (m *AdPlatform) ImageAssets(ctx context.Context, customerID string) ([]domain.ImageAsset, error) {
	args := m.Called(ctx, customerID)
	assets, _ := args.Get(0).([]domain.ImageAsset)
	return assets, args.Error(1)
}

func (m *AdPlatform) CreateImageAsset(ctx context.Context, customerID, name string, data []byte) (string, error) {
	args := m.Called(ctx, customerID, name, data)
	return args.String(0), args.Error(1)
}

func (m *AdPlatform) CreateVideoAsset(ctx context.Context, customerID, videoID string) (string, error) {
	args := m.Called(ctx, customerID, videoID)
	return args.String(0), args.Error(1)
}

func (m *AdPlatform) AttachAsset(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType, ref string) error {
	return m.Called(ctx, campaign, t, ref).Error(0)
}

func (m *AdPlatform) DetachAsset(ctx context.Context, campaign domain.CampaignRef, t domain.AssetType, ref string) error {
	return m.Called(ctx, campaign, t, ref).Error(0)
}

type AssetStore struct {
	mock.Mock
}

var _ port.AssetStore = (*AssetStore)(nil)

func (m *AssetStore) ListFiles(ctx context.Context, folderIDs []string, since time.Time) ([]domain.AssetFile, error) {
	args := m.Called(ctx, folderIDs, since)
	files, _ := args.Get(0).([]domain.AssetFile)
	return files, args.Error(1)
}

func (m *AssetStore) Download(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type VideoHost struct {
	mock.Mock
}

var _ port.VideoHost = (*VideoHost)(nil)

func (m *VideoHost) Upload(ctx context.Context, title string, data []byte) (string, error) {
	args := m.Called(ctx, title, data)
	return args.String(0), args.Error(1)
}

func (m *VideoHost) Uploads(ctx context.Context, since time.Time) ([]domain.VideoEntry, error) {
	args := m.Called(ctx, since)
	entries, _ := args.Get(0).([]domain.VideoEntry)
	return entries, args.Error(1)
}

func (m *VideoHost) Processed(ctx context.Context, ids []string) (bool, error) {
	args := m.Called(ctx, ids)
	return args.Bool(0), args.Error(1)
}

type Pipeline struct {
	mock.Mock
}

var _ port.Pipeline = (*Pipeline)(nil)

func (m *Pipeline) Run(ctx context.Context) domain.RunReport {
	args := m.Called(ctx)
	return args.Get(0).(domain.RunReport)
}

func (m *Pipeline) RunStep(ctx context.Context, step port.Step) domain.StepResult {
	args := m.Called(ctx, step)
	return args.Get(0).(domain.StepResult)
}
