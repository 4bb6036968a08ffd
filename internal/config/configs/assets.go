package configs

import "time"

// Assets holds the creative source settings: credentials, the Drive
// folders to watch and the YouTube channel behavior.
type Assets struct {
	// CredentialsFile points at a Google credentials JSON, either a
	// service account key or an authorized user file. Empty uses the
	// application default credentials.
	CredentialsFile string `yaml:"credentials_file" env:"CREDENTIALS_FILE"`
	// DriveFolderIDs limits the fetch step to specific folders. Empty
	// means every folder the credentials can see.
	DriveFolderIDs []string `yaml:"drive_folder_ids" env:"DRIVE_FOLDER_IDS"`
	// FetchLookback is how far back the fetch step looks for new files.
	FetchLookback time.Duration `yaml:"fetch_lookback" env:"FETCH_LOOKBACK" envDefault:"24h"`
	// YouTubeEnabled switches on video uploads to the managed channel.
	YouTubeEnabled bool `yaml:"youtube_enabled" env:"YOUTUBE_ENABLED" envDefault:"false"`
	// YouTubeWindow is how far back channel uploads are listed during
	// fetch. Zero disables channel listing.
	YouTubeWindow time.Duration `yaml:"youtube_window" env:"YOUTUBE_WINDOW" envDefault:"0"`
	// YouTubeWait bounds the poll for video processing after upload.
	YouTubeWait time.Duration `yaml:"youtube_wait" env:"YOUTUBE_WAIT" envDefault:"1m"`
}
