package gapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuth scopes the tool needs. Sheets and Drive are always required;
// YouTube only when the managed channel is enabled.
var scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/adwords",
	"https://www.googleapis.com/auth/youtube",
}

// NewHTTPClient builds an authenticated HTTP client from a credentials
// file. Both service account keys and authorized user files (the output
// of an installed-app OAuth flow) are accepted; with an empty path the
// application default credentials are used.
func NewHTTPClient(ctx context.Context, credentialsFile string) (*http.Client, error) {
	var (
		creds *google.Credentials
		err   error
	)
	if credentialsFile == "" {
		creds, err = google.FindDefaultCredentials(ctx, scopes...)
	} else {
		var data []byte
		data, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, scopes...)
	}
	if err != nil {
		return nil, fmt.Errorf("load google credentials: %w", err)
	}

	client := oauth2.NewClient(ctx, creds.TokenSource)
	client.Timeout = 5 * time.Minute
	return client, nil
}
