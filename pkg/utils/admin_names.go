package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Canonical administrative prefixes used in province and district names.
const (
	CityPrefix     = "Thành phố"
	ProvincePrefix = "Tỉnh"
)

type adminPrefix struct {
	form      string // lower-case spelling as it appears in scraped data
	canonical string
}

// Longest forms first so "t.p." wins over "tp".
var adminPrefixes = []adminPrefix{
	{"thành phố", CityPrefix},
	{"thanh pho", CityPrefix},
	{"t.p.", CityPrefix},
	{"t.p", CityPrefix},
	{"tp.", CityPrefix},
	{"tp", CityPrefix},
	{"tỉnh", ProvincePrefix},
	{"tinh", ProvincePrefix},
}

// CleanText applies NFC normalization, trims and collapses inner whitespace.
func CleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// LowerVI lower-cases NFC text using Vietnamese casing rules.
// Casers keep state, so each call builds its own.
func LowerVI(s string) string {
	return cases.Lower(language.Vietnamese).String(norm.NFC.String(s))
}

// Fold case-folds NFC text without touching whitespace.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// FoldKey returns a case-folded, whitespace-collapsed key for case-insensitive lookups.
func FoldKey(s string) string {
	return cases.Fold().String(CleanText(s))
}

// splitAdminPrefix returns the canonical prefix (empty when none) and the bare name.
func splitAdminPrefix(name string) (string, string) {
	clean := CleanText(name)
	runes := []rune(clean)
	lower := []rune(LowerVI(clean))
	if len(lower) != len(runes) {
		return "", clean
	}

	for _, p := range adminPrefixes {
		form := []rune(p.form)
		if len(lower) < len(form) || string(lower[:len(form)]) != p.form {
			continue
		}
		rest := runes[len(form):]
		endsWithDot := form[len(form)-1] == '.'
		if len(rest) > 0 && rest[0] != ' ' && !endsWithDot {
			// "Tpx", "Tinhthuy": the letters continue the name
			continue
		}
		bare := strings.TrimSpace(string(rest))
		if bare == "" {
			return "", clean
		}
		return p.canonical, bare
	}
	return "", clean
}

// StripAdminPrefix removes a leading "TP", "T.P.", "Tỉnh" or "Thành phố" in any casing.
func StripAdminPrefix(name string) string {
	_, bare := splitAdminPrefix(name)
	return bare
}

// NormalizeAdminName rewrites any recognised administrative prefix to its canonical form,
// e.g. "tp.  Hồ Chí Minh" becomes "Thành phố Hồ Chí Minh" and "tinh Nghệ An" becomes "Tỉnh Nghệ An".
func NormalizeAdminName(name string) string {
	prefix, bare := splitAdminPrefix(name)
	if prefix == "" {
		return bare
	}
	return prefix + " " + bare
}

// AdminNameVariants returns the normalized name plus its "Thành phố"/"Thành Phố" spellings,
// deduplicated, in lookup order.
func AdminNameVariants(name string) []string {
	base := NormalizeAdminName(name)
	candidates := []string{
		base,
		strings.Replace(base, "Thành phố", "Thành Phố", 1),
		strings.Replace(base, "Thành Phố", "Thành phố", 1),
	}

	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok || c == "" {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
