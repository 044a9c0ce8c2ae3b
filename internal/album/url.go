package album

import (
	"regexp"
	"strings"
)

var (
	sourceURLPattern = regexp.MustCompile(`^https://open\.spotify\.com/album/[a-zA-Z0-9]{22}(\?.*)?$`)
	catalogIDPattern = regexp.MustCompile(`/album/([a-zA-Z0-9]{22})`)
)

// IsValidURL reports whether url is a canonical Spotify album link. Query
// strings are accepted; surrounding whitespace, other hosts, and other
// resource types are not.
func IsValidURL(url string) bool {
	return sourceURLPattern.MatchString(url)
}

// ExtractID returns the 22-character catalog id embedded in url.
func ExtractID(url string) (string, bool) {
	match := catalogIDPattern.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// CanonicalURL strips query parameters and fragments from a valid album link.
func CanonicalURL(url string) string {
	if idx := strings.IndexAny(url, "?#"); idx >= 0 {
		return url[:idx]
	}
	return url
}
