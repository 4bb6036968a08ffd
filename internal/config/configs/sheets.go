package configs

// Sheets holds the managed spreadsheets and how the Mapping tab gets
// its default aliases.
type Sheets struct {
	// SpreadsheetIDs lists the sheets to process, in order.
	SpreadsheetIDs []string `yaml:"spreadsheet_ids" env:"SPREADSHEET_IDS"`
	// RefreshMapping includes the refresh-mapping step in combined runs.
	RefreshMapping bool `yaml:"refresh_mapping" env:"REFRESH_MAPPING" envDefault:"true"`
	// AliasFromAppID derives the default alias of an unnamed ad group
	// from the promoted app id.
	AliasFromAppID bool `yaml:"alias_from_app_id" env:"ALIAS_FROM_APP_ID" envDefault:"true"`
	// AliasFromCampaign derives the default alias from the campaign name
	// when the app id is unavailable or disabled.
	AliasFromCampaign bool `yaml:"alias_from_campaign" env:"ALIAS_FROM_CAMPAIGN" envDefault:"false"`
}
