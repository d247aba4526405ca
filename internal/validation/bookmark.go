package validation

import (
	"net/url"
	"strings"
)

// ValidateBookmark checks a title/url pair before it is submitted.
// It returns the trimmed values that should be stored.
func ValidateBookmark(title, rawURL string) (string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", invalid("title", "title is required")
	}

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", "", invalid("url", "URL is required")
	}

	if err := ValidateURL(rawURL); err != nil {
		return "", "", err
	}

	return title, rawURL, nil
}

// ValidateURL accepts only absolute URLs. Hierarchical URLs (http, https, ftp...)
// must also carry a host.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return invalid("url", "please enter a valid URL (include https://)")
	}

	if u.Opaque == "" && u.Host == "" {
		return invalid("url", "please enter a valid URL (include https://)")
	}

	return nil
}
