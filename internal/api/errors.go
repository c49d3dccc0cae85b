package api

import (
	"encoding/json"

	"github.com/go-resty/resty/v2"
)

// RequestError is the single error shape thrown at the request boundary:
// the upstream status (0 for transport failures) and a best-effort message.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// errorEnvelope is the shape error bodies arrive in; upstream services are
// inconsistent about which field they populate
type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ExtractErrorMessage pulls a human-readable message out of a JSON error
// body, preferring "message" over "error", falling back to the given string
// when the body is empty or not JSON.
func ExtractErrorMessage(body []byte, fallback string) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return fallback
}

func errorFromResponse(resp *resty.Response, fallback string) *RequestError {
	return &RequestError{
		StatusCode: resp.StatusCode(),
		Message:    ExtractErrorMessage(resp.Body(), fallback),
	}
}

func transportMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
