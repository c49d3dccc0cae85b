// Package navigation implements the contract between the claim screen and
// the dashboard route: the confirmed company is carried as base64 of the
// URL-encoded JSON payload in the "data" query parameter.
package navigation

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/pulso-app/pulso/internal/models"
)

// EncodeConfirmation serializes a confirmation payload for the dashboard URL
func EncodeConfirmation(payload models.ConfirmationPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal confirmation payload: %w", err)
	}

	// PathEscape, not QueryEscape: the browser side percent-encodes with no
	// form-style "+" for spaces, and a literal "+" stays a "+".
	return base64.StdEncoding.EncodeToString([]byte(url.PathEscape(string(data)))), nil
}

// DecodeConfirmation reverses EncodeConfirmation. There is no schema
// versioning; any malformed parameter is an error.
func DecodeConfirmation(encoded string) (*models.ConfirmationPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 in confirmation data: %w", err)
	}

	unescaped, err := url.PathUnescape(string(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid URL encoding in confirmation data: %w", err)
	}

	var payload models.ConfirmationPayload
	if err := json.Unmarshal([]byte(unescaped), &payload); err != nil {
		return nil, fmt.Errorf("invalid confirmation payload: %w", err)
	}

	return &payload, nil
}

// DashboardURL builds the dashboard route for a confirmed company
func DashboardURL(payload models.ConfirmationPayload) string {
	encoded, err := EncodeConfirmation(payload)
	if err != nil {
		// Marshal of a plain struct cannot realistically fail; land on the
		// dashboard without preselected company rather than dead-ending.
		return "/dashboard"
	}

	return "/dashboard?data=" + url.QueryEscape(encoded)
}
