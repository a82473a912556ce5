package attempt

import "regexp"

const (
	DefaultMaxLen = 500
	viewerMaxLen  = 120
)

var (
	// control characters except \t and \n
	unsafeText  = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	viewerStrip = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// SanitizeText drops control characters (keeping tab and newline) and then
// truncates to limit characters. A limit below one is treated as one.
func SanitizeText(s string, limit int) string {
	s = unsafeText.ReplaceAllString(s, "")
	if limit < 1 {
		limit = 1
	}
	if r := []rune(s); len(r) > limit {
		s = string(r[:limit])
	}
	return s
}

// SanitizeViewer keeps letters, digits, dot, underscore and hyphen from the
// first 120 sanitized characters.
func SanitizeViewer(s string) string {
	return viewerStrip.ReplaceAllString(SanitizeText(s, viewerMaxLen), "")
}
