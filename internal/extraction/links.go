package extraction

import (
	"net/url"
	"strings"
)

// LinkClassifier recognises social platform URLs
type LinkClassifier struct {
	platforms []PlatformPattern
}

// NewLinkClassifier creates a classifier over a platform pattern table
func NewLinkClassifier(platforms []PlatformPattern) *LinkClassifier {
	compiled := make([]PlatformPattern, 0, len(platforms))
	for _, p := range platforms {
		patterns := make([]string, 0, len(p.Patterns))
		for _, pat := range p.Patterns {
			if pat = strings.ToLower(strings.TrimSpace(pat)); pat != "" {
				patterns = append(patterns, pat)
			}
		}
		compiled = append(compiled, PlatformPattern{Platform: p.Platform, Patterns: patterns})
	}
	return &LinkClassifier{platforms: compiled}
}

// Platform returns the platform whose pattern occurs in the lower-cased URL
// as a whole domain, so x.com matches mobile.x.com but not dropbox.com
func (c *LinkClassifier) Platform(rawURL string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	if lower == "" {
		return "", false
	}
	for _, p := range c.platforms {
		for _, pat := range p.Patterns {
			if containsDomain(lower, pat) {
				return p.Platform, true
			}
		}
	}
	return "", false
}

// containsDomain reports whether pat occurs in s with no host character
// directly before it and no host or dot character directly after it.
func containsDomain(s, pat string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], pat)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(pat)
		if (start == 0 || !isHostByte(s[start-1])) &&
			(end == len(s) || (!isHostByte(s[end]) && s[end] != '.')) {
			return true
		}
		from = start + 1
	}
}

func isHostByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '-'
}

// NormalizeURL lower-cases a URL and keeps only scheme, host and path, so
// that variants differing in case, query or trailing slash compare equal.
// Strings that do not parse as absolute URLs are only lower-cased.
func NormalizeURL(rawURL string) string {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	u, err := url.Parse(lower)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSuffix(lower, "/")
	}
	return u.Scheme + "://" + u.Host + strings.TrimSuffix(u.Path, "/")
}
