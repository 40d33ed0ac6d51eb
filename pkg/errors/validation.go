package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateOutputDir validates the directory tiles are written to.
//
// The validation rules are intentionally conservative:
//   - No empty paths
//   - No control characters or null bytes
//   - Maximum length of 1024 characters
//
// Absolute and relative paths are both accepted; the directory is created
// by the pipeline if it does not exist.
func ValidateOutputDir(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "output directory cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "output directory too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output directory contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a service URL.
// It ensures the URL parses, has a safe scheme (http or https) and names a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "malformed URL %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidURL, "URL %q has no host", rawURL)
	}

	return nil
}
