package gapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// parseAPIInt converts the int64 fields the API serializes as strings.
func parseAPIInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

// friendlyAdsErrors rewrites the most common mutation failures into
// messages a sheet operator can act on without reading API docs.
var friendlyAdsErrors = map[string]string{
	"TOO_SHORT":                        "The text is too short.",
	"TOO_LONG":                         "The text is too long.",
	"LINE_TOO_WIDE":                    "The text contains a word that is too long.",
	"DUPLICATE_ASSET":                  "The creative already exists in the account.",
	"DUPLICATE_ASSET_NAME":             "A creative with this name already exists, pick another name.",
	"INVALID_IMAGE":                    "The image file is invalid or corrupted.",
	"IMAGE_NOT_ALLOWED":                "This image size or format is not allowed here.",
	"INVALID_YOUTUBE_VIDEO_ID":         "The YouTube video id is invalid.",
	"YOUTUBE_VIDEO_NOT_FOUND":          "The YouTube video could not be found, check the URL.",
	"CANNOT_MODIFY_ASSET_LINK":         "This creative is managed by the platform and cannot be changed.",
	"RESOURCE_LIMIT":                   "The ad group has reached its creative limit.",
	"POLICY_FINDING":                   "The creative was disapproved by an ads policy.",
	"CUSTOMER_NOT_ENABLED":             "The customer account is not enabled.",
	"USER_PERMISSION_DENIED":           "The credentials have no access to this customer account.",
	"DEVELOPER_TOKEN_NOT_APPROVED":     "The developer token is not approved for production use.",
	"OAUTH_TOKEN_EXPIRED":              "The authorization expired, re-run the authentication setup.",
}

// adsErrorPayload is the failure body of the Google Ads API.
type adsErrorPayload struct {
	Error struct {
		Message string `json:"message"`
		Details []struct {
			Errors []struct {
				ErrorCode map[string]string `json:"errorCode"`
				Message   string            `json:"message"`
			} `json:"errors"`
		} `json:"details"`
	} `json:"error"`
}

// translateAdsError unwraps an Ads API failure into its human-readable
// messages, preferring the curated rewrite when the error code has one.
// Errors that are not API failures pass through unchanged.
func translateAdsError(err error) error {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return err
	}

	var payload adsErrorPayload
	if json.Unmarshal(apiErr.Body, &payload) != nil || payload.Error.Message == "" {
		return err
	}

	var messages []string
	for _, detail := range payload.Error.Details {
		for _, e := range detail.Errors {
			msg := e.Message
			for _, code := range e.ErrorCode {
				if friendly, ok := friendlyAdsErrors[code]; ok {
					msg = friendly
				}
			}
			messages = append(messages, msg)
		}
	}
	if len(messages) == 0 {
		messages = append(messages, payload.Error.Message)
	}
	return fmt.Errorf("%s", strings.Join(messages, " "))
}
