package customers

import (
	"strings"
	"unicode"
)

// NormalizePhone strips a trailing "-token" disambiguator (a token carrying at least one
// letter, e.g. "-loja2") and keeps only digits. A trailing all-digit group such as the
// "-9999" of "99999-9999" is part of the number and is kept.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndex(raw, "-"); i >= 0 {
		if strings.IndexFunc(raw[i+1:], unicode.IsLetter) >= 0 {
			raw = raw[:i]
		}
	}
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
