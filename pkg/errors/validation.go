package errors

import (
	"strings"
	"unicode"
)

// MaxNodeIDLength bounds node identifiers accepted from clients.
const MaxNodeIDLength = 256

// ValidateNodeID validates a node identifier received from a client event.
// It only rejects payloads that can never name a node (empty, oversized or
// containing control characters); whether the node exists is decided later.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNodeID, "node id cannot be empty")
	}

	if len(id) > MaxNodeIDLength {
		return New(ErrCodeInvalidNodeID, "node id too long (max %d characters)", MaxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNodeID, "node id contains invalid control characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateRoute validates a page route received from the browser.
// Routes must be absolute paths without control characters.
func ValidateRoute(path string) error {
	if !strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "route must start with /")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "route contains invalid characters")
		}
	}
	return nil
}
