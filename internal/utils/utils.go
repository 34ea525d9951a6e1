package utils

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
)

// UpstreamStatus extracts the provider's HTTP status from an error returned by
// the OpenAI client. It returns 0 when the error carries no status (network
// failures, cancelled contexts).
func UpstreamStatus(err error) int {
	if err == nil {
		return 0
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// DescribeUpstream turns a provider error into a short message safe to show users.
func DescribeUpstream(err error) string {
	switch status := UpstreamStatus(err); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "the AI provider rejected the configured credentials"
	case status == http.StatusTooManyRequests:
		return "the AI provider is rate limiting requests, try again shortly"
	case status >= 500:
		return "the AI provider returned a server error"
	case status > 0:
		return "the AI provider rejected the request (" + http.StatusText(status) + ")"
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "context canceled") || strings.Contains(msg, "deadline exceeded") {
		return "the request was cancelled before the AI provider answered"
	}
	return "could not reach the AI provider"
}

// Truncate shortens s to at most max bytes without splitting a rune, appending
// an ellipsis marker when anything was cut.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// IsBlank reports whether s has no visible characters.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
