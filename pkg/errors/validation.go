package errors

import (
	"strings"
	"unicode"
)

const (
	maxQueryLength = 256
	maxNodeLength  = 64
)

// ValidateQuery checks a search query or topic name before it is sent to
// the forge. Empty queries are allowed; the engine treats them as "list".
func ValidateQuery(q string) error {
	if len(q) > maxQueryLength {
		return New(ErrCodeInvalidInput, "query too long (max %d characters)", maxQueryLength)
	}
	for _, r := range q {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "query contains control characters")
		}
	}
	return nil
}

// ValidateTopic checks a topic name. Unlike a query it cannot be empty.
func ValidateTopic(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "topic cannot be empty")
	}
	return ValidateQuery(name)
}

// ValidateNodeID checks the shape "<type>-<id>" of a graph node id.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	if len(id) > maxNodeLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxNodeLength)
	}
	typ, num, ok := strings.Cut(id, "-")
	if !ok || typ == "" || num == "" {
		return New(ErrCodeInvalidInput, "node id must look like <type>-<id>: %q", id)
	}
	for _, r := range num {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidInput, "node id must end in a number: %q", id)
		}
	}
	return nil
}

// ValidateIDCount rejects a list of n entity ids longer than max.
func ValidateIDCount(n, max int) error {
	if n > max {
		return New(ErrCodeInvalidInput, "too many ids (%d, max %d)", n, max)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
