package helpers

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	MaxEventIDLength = 50
	fallbackSlug     = "event"
)

// Slugify derives an event identifier from a title: accents are stripped,
// letters lowercased, whitespace and hyphen runs collapse to one hyphen and
// anything else outside [a-z0-9] is dropped. The result is at most
// MaxEventIDLength characters.
func Slugify(title string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range norm.NFD.String(title) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingHyphen = true
		}
	}

	slug := b.String()
	if len(slug) > MaxEventIDLength {
		slug = strings.TrimRight(slug[:MaxEventIDLength], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}
