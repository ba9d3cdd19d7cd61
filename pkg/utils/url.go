package utils

import "strings"

// NormalizeURL prefixes raw with https:// unless it already carries an
// http or https scheme (case-insensitive). It does not validate.
func NormalizeURL(raw string) string {
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + raw
}
