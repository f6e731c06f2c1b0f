package wxml

import (
	"strconv"

	"golang.org/x/net/html"
)

// decodeNamedEntity decodes a full `&name;` reference (ampersand and
// semicolon included) using golang.org/x/net/html's entity table, the table
// spec.md treats as an opaque, externally-owned decoder. It reports false
// when the name is not a recognized HTML entity.
func decodeNamedEntity(raw string) (string, bool) {
	unescaped := html.UnescapeString(raw)
	if unescaped == raw {
		return "", false
	}
	return unescaped, true
}

// decodeNumericEntity decodes the digits of a `&#D+;` or `&#xH+;` reference
// (the leading `&#`/`&#x` and trailing `;` stripped, digits only). Numeric
// forms are validated by the caller before this is reached; an out-of-range
// or surrogate code point reports false so the caller can record
// IllegalEntity while preserving the original text.
func decodeNumericEntity(digits string, hex bool) (string, bool) {
	base := 10
	if hex {
		base = 16
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return "", false
	}
	r := rune(v)
	if !isValidEntityCodepoint(r) {
		return "", false
	}
	return string(r), true
}

func isValidEntityCodepoint(r rune) bool {
	if r < 0 || r > 0x10FFFF {
		return false
	}
	if r >= 0xD800 && r <= 0xDFFF {
		return false
	}
	return true
}
