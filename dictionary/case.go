package dictionary

import (
	"strings"
	"unicode"
)

// toSnake derives a table name from a resource name: "materialsCitations"
// becomes "materials_citations". Runs of separators or punctuation collapse
// into a single underscore.
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	sep := false
	underscore := func() {
		if !sep && b.Len() > 0 {
			b.WriteByte('_')
			sep = true
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || nextLower {
					underscore()
				}
			}
			b.WriteRune(unicode.ToLower(r))
			sep = false
		case unicode.IsDigit(r):
			if i > 0 && !unicode.IsDigit(runes[i-1]) {
				underscore()
			}
			b.WriteRune(r)
			sep = false
		case unicode.IsLower(r):
			b.WriteRune(r)
			sep = false
		default:
			underscore()
		}
	}

	return strings.Trim(b.String(), "_")
}
