package strx

import "unicode/utf8"

// Coalesce returns s if non-empty, otherwise d.
func Coalesce(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

// TruncateBytes returns at most n bytes of s without splitting a UTF-8
// sequence.
func TruncateBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
