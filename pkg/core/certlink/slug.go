package certlink

import (
	"strings"
	"unicode"
)

// MaxSlugLength bounds ProgramSlug after sanitizing.
const MaxSlugLength = 80

// Slugify converts a program name into a lowercase hyphen slug.
// - allowed: [a-z0-9-]
// - whitespace/underscore => hyphen
// - drop all other chars, the token delimiter included
// - collapse multiple hyphens, trim leading/trailing hyphens
// - truncate to MaxSlugLength, then re-trim
// Unlike a title slug, an empty result stays empty.
// Slugify(Slugify(s)) == Slugify(s).
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '_' || r == '-':
			b.WriteRune('-')
		}
	}

	result := strings.Trim(collapseHyphens(b.String()), "-")
	if len(result) > MaxSlugLength {
		result = result[:MaxSlugLength]
	}
	return strings.Trim(result, "-")
}

// collapseHyphens replaces multiple consecutive hyphens with a single hyphen.
func collapseHyphens(s string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		if r == '-' {
			if !prevHyphen {
				b.WriteRune(r)
				prevHyphen = true
			}
		} else {
			b.WriteRune(r)
			prevHyphen = false
		}
	}
	return b.String()
}
