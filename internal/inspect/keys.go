package inspect

import (
	"net/url"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// DisplayKey renders a key name for humans: printable UTF-8 names are shown
// as is, anything else in Go quoted form.
func DisplayKey(key string) string {
	if !utf8.ValidString(key) {
		return strconv.Quote(key)
	}
	for _, r := range key {
		if !unicode.IsPrint(r) {
			return strconv.Quote(key)
		}
	}
	return key
}

// EscapeKey encodes a key for use as a single URL path segment.
func EscapeKey(key string) string {
	return url.PathEscape(key)
}

// UnescapeKey reverses EscapeKey. The result may contain arbitrary bytes.
func UnescapeKey(s string) (string, error) {
	return url.PathUnescape(s)
}
