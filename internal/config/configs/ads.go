package configs

// Ads holds access settings for the ad platform API.
type Ads struct {
	// DeveloperToken authenticates API usage on top of OAuth.
	DeveloperToken string `yaml:"developer_token" env:"DEVELOPER_TOKEN"`
	// LoginCustomerID is the manager account id child accounts are
	// enumerated under. Empty means all accessible customers.
	LoginCustomerID string `yaml:"login_customer_id" env:"LOGIN_CUSTOMER_ID"`
}
