package gapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"creative-mango/internal/core/domain"
	"creative-mango/internal/core/port"
)

const driveBaseURL = "https://www.googleapis.com/drive/v3/files"

// driveFilePath matches share links of the form /file/d/<id>/view.
var driveFilePath = regexp.MustCompile(`/file/d/([^/]+)`)

// AssetStore lists and downloads creative files through the Drive API.
// It implements port.AssetStore.
type AssetStore struct {
	client *http.Client
}

var _ port.AssetStore = (*AssetStore)(nil)

func NewAssetStore(client *http.Client) *AssetStore {
	return &AssetStore{client: client}
}

type driveFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	WebViewLink string `json:"webViewLink"`
}

func (s *AssetStore) ListFiles(ctx context.Context, folderIDs []string, since time.Time) ([]domain.AssetFile, error) {
	query := fmt.Sprintf(
		"(mimeType contains 'image/' or mimeType contains 'video/') and createdTime > '%s' and trashed = false",
		since.UTC().Format(time.RFC3339))
	if len(folderIDs) > 0 {
		parents := make([]string, 0, len(folderIDs))
		for _, id := range folderIDs {
			parents = append(parents, fmt.Sprintf("'%s' in parents", id))
		}
		query += " and (" + strings.Join(parents, " or ") + ")"
	}

	var files []domain.AssetFile
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("q", query)
		params.Set("fields", "nextPageToken, files(id, name, mimeType, webViewLink)")
		params.Set("pageSize", "1000")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var out struct {
			NextPageToken string      `json:"nextPageToken"`
			Files         []driveFile `json:"files"`
		}
		if err := doJSON(ctx, s.client, http.MethodGet, driveBaseURL+"?"+params.Encode(), nil, nil, &out); err != nil {
			return nil, fmt.Errorf("list drive files: %w", err)
		}

		for _, f := range out.Files {
			t := domain.AssetImage
			if strings.HasPrefix(f.MimeType, "video/") {
				t = domain.AssetVideo
			}
			link := f.WebViewLink
			if link == "" {
				link = "https://drive.google.com/open?id=" + f.ID
			}
			files = append(files, domain.AssetFile{Type: t, Name: f.Name, URL: link})
		}
		if out.NextPageToken == "" {
			return files, nil
		}
		pageToken = out.NextPageToken
	}
}

// Download fetches the bytes behind a Drive share link, or any plain
// URL when the link is not a Drive one.
func (s *AssetStore) Download(ctx context.Context, fileURL string) ([]byte, error) {
	if id := driveFileID(fileURL); id != "" {
		return s.downloadDriveFile(ctx, id)
	}

	var data []byte
	err := withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return &apiError{StatusCode: resp.StatusCode, Body: body}
		}
		data = body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileURL, err)
	}
	return data, nil
}

func (s *AssetStore) downloadDriveFile(ctx context.Context, fileID string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s?alt=media", driveBaseURL, url.PathEscape(fileID))
	var data []byte
	err := withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return &apiError{StatusCode: resp.StatusCode, Body: body}
		}
		data = body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("download drive file %s: %w", fileID, err)
	}
	return data, nil
}

// driveFileID extracts the file id from the two share link shapes Drive
// produces: open?id=<id> and /file/d/<id>/view.
func driveFileID(fileURL string) string {
	if !strings.Contains(fileURL, "drive.google.com") {
		return ""
	}
	if u, err := url.Parse(fileURL); err == nil {
		if id := u.Query().Get("id"); id != "" {
			return id
		}
	}
	if m := driveFilePath.FindStringSubmatch(fileURL); m != nil {
		return m[1]
	}
	return ""
}
