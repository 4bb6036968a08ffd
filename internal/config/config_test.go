package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const setupYAML = `
log:
  level: debug
  format: json
sheets:
  spreadsheet_ids:
    - sheet-a
    - sheet-b
ads:
  developer_token: tok-123
  login_customer_id: 123-456-7890
assets:
  fetch_lookback: 48h
  youtube_enabled: true
`

func writeSetup(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "setup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromSetupFile(t *testing.T) {
	cfg, err := Load(writeSetup(t, setupYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.SlogFormat())
	assert.Equal(t, []string{"sheet-a", "sheet-b"}, cfg.Sheets.SpreadsheetIDs)
	assert.Equal(t, "tok-123", cfg.Ads.DeveloperToken)
	assert.Equal(t, 48*time.Hour, cfg.Assets.FetchLookback)
	assert.True(t, cfg.Assets.YouTubeEnabled)
	assert.EqualValues(t, 8080, cfg.HTTP.Port)
}

func TestSetupFileSurvivesUnsetEnv(t *testing.T) {
	// Fields with defaults must keep their setup-file values when the
	// corresponding env vars are unset: defaults < setup file < env.
	cfg, err := Load(writeSetup(t, setupYAML))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 48*time.Hour, cfg.Assets.FetchLookback)
	assert.True(t, cfg.Assets.YouTubeEnabled)
	// Untouched by the setup file: the default still applies.
	assert.Equal(t, time.Minute, cfg.Assets.YouTubeWait)
}

func TestEnvOverridesSetupFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load(writeSetup(t, setupYAML))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.EqualValues(t, 9090, cfg.HTTP.Port)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(writeSetup(t, "ads:\n  developer_token: tok\n"))
	assert.ErrorContains(t, err, "spreadsheet id")

	_, err = Load(writeSetup(t, "sheets:\n  spreadsheet_ids: [sheet-a]\n"))
	assert.ErrorContains(t, err, "developer token")
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("SHEETS_SPREADSHEET_IDS", "sheet-a")
	t.Setenv("ADS_DEVELOPER_TOKEN", "tok")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"sheet-a"}, cfg.Sheets.SpreadsheetIDs)
}
