package utils

import (
	"regexp"
	"strings"
)

// Patterns shared with the SQL image filter (Postgres "~*"), so both sides agree on validity.
const (
	ImageURLPattern = `^https?://`
	ImageExtPattern = `\.(jpg|jpeg|png|webp|gif)$`
)

var (
	imageURLRe = regexp.MustCompile(`(?i)` + ImageURLPattern)
	imageExtRe = regexp.MustCompile(`(?i)` + ImageExtPattern)
)

// IsValidImage reports whether s is an absolute http(s) URL or a path ending in a known image extension.
func IsValidImage(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	return imageURLRe.MatchString(s) || imageExtRe.MatchString(s)
}

// IsValidImagePtr is IsValidImage for nullable columns.
func IsValidImagePtr(s *string) bool {
	return s != nil && IsValidImage(*s)
}
