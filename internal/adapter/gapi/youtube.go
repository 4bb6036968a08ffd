package gapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"creative-mango/internal/core/domain"
	"creative-mango/internal/core/port"
)

const (
	youtubeBaseURL   = "https://www.googleapis.com/youtube/v3"
	youtubeUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos"
)

// VideoHost uploads and inspects videos on the managed channel through
// the YouTube Data API. It implements port.VideoHost.
type VideoHost struct {
	client *http.Client
	// privacy is the status new uploads get; unlisted keeps the channel
	// clean while the video stays referenceable as an ad asset.
	privacy string
}

var _ port.VideoHost = (*VideoHost)(nil)

func NewVideoHost(client *http.Client) *VideoHost {
	return &VideoHost{client: client, privacy: "unlisted"}
}

// Upload pushes video bytes as a resumable upload and returns the new
// video id.
func (v *VideoHost) Upload(ctx context.Context, title string, data []byte) (string, error) {
	meta := map[string]any{
		"snippet": map[string]any{"title": title},
		"status":  map[string]any{"privacyStatus": v.privacy},
	}

	var sessionURL string
	err := withRetry(ctx, func() error {
		body, err := jsonBody(meta)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			youtubeUploadURL+"?uploadType=resumable&part=snippet,status", body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Upload-Content-Type", "video/*")
		req.Header.Set("X-Upload-Content-Length", fmt.Sprint(len(data)))

		resp, err := v.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return &apiError{StatusCode: resp.StatusCode, Body: raw}
		}
		sessionURL = resp.Header.Get("Location")
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("start video upload: %w", err)
	}
	if sessionURL == "" {
		return "", fmt.Errorf("video upload session has no location")
	}

	var out struct {
		ID string `json:"id"`
	}
	err = withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "video/*")
		resp, err := v.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return &apiError{StatusCode: resp.StatusCode, Body: raw}
		}
		return jsonDecode(raw, &out)
	})
	if err != nil {
		return "", fmt.Errorf("upload video bytes: %w", err)
	}
	return out.ID, nil
}

// Uploads lists the channel's uploads published since the given time.
func (v *VideoHost) Uploads(ctx context.Context, since time.Time) ([]domain.VideoEntry, error) {
	// The uploads playlist of the authorized channel.
	var channels struct {
		Items []struct {
			ContentDetails struct {
				RelatedPlaylists struct {
					Uploads string `json:"uploads"`
				} `json:"relatedPlaylists"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	u := youtubeBaseURL + "/channels?part=contentDetails&mine=true"
	if err := doJSON(ctx, v.client, http.MethodGet, u, nil, nil, &channels); err != nil {
		return nil, fmt.Errorf("resolve channel: %w", err)
	}
	if len(channels.Items) == 0 {
		return nil, fmt.Errorf("channel: %w", port.ErrNotFound)
	}
	playlist := channels.Items[0].ContentDetails.RelatedPlaylists.Uploads

	var entries []domain.VideoEntry
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("part", "snippet,contentDetails")
		params.Set("playlistId", playlist)
		params.Set("maxResults", "50")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var out struct {
			NextPageToken string `json:"nextPageToken"`
			Items         []struct {
				Snippet struct {
					Title       string    `json:"title"`
					PublishedAt time.Time `json:"publishedAt"`
				} `json:"snippet"`
				ContentDetails struct {
					VideoID string `json:"videoId"`
				} `json:"contentDetails"`
			} `json:"items"`
		}
		if err := doJSON(ctx, v.client, http.MethodGet, youtubeBaseURL+"/playlistItems?"+params.Encode(), nil, nil, &out); err != nil {
			return nil, fmt.Errorf("list channel uploads: %w", err)
		}

		// The playlist is newest-first; stop at the first item outside
		// the window instead of paging through the whole channel.
		for _, item := range out.Items {
			if item.Snippet.PublishedAt.Before(since) {
				return entries, nil
			}
			entries = append(entries, domain.VideoEntry{
				ID:    item.ContentDetails.VideoID,
				Title: item.Snippet.Title,
			})
		}
		if out.NextPageToken == "" {
			return entries, nil
		}
		pageToken = out.NextPageToken
	}
}

// Processed reports whether every given video finished processing.
func (v *VideoHost) Processed(ctx context.Context, ids []string) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	u := youtubeBaseURL + "/videos?part=processingDetails&id=" + url.QueryEscape(strings.Join(ids, ","))
	var out struct {
		Items []struct {
			ProcessingDetails struct {
				ProcessingStatus string `json:"processingStatus"`
			} `json:"processingDetails"`
		} `json:"items"`
	}
	if err := doJSON(ctx, v.client, http.MethodGet, u, nil, nil, &out); err != nil {
		return false, fmt.Errorf("read processing status: %w", err)
	}
	for _, item := range out.Items {
		if item.ProcessingDetails.ProcessingStatus == "processing" {
			return false, nil
		}
	}
	return true, nil
}
