package validator

import (
	"strings"
	"unicode"
)

// fieldKey turns a Go field name into the snake_case key clients see in the
// error map, keeping initialisms together: DisplayName -> display_name,
// HTTPTimeout -> http_timeout.
func fieldKey(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !unicode.IsUpper(prev) || nextLower {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
