package providers

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// EscapeJSON escapes a string for embedding in a JSON string literal.
// Quote, backslash and the common control characters get their short
// escapes; any other character below 0x20 becomes \u00XX. Everything else
// passes through unchanged.
func EscapeJSON(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if c < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, c)
			} else {
				sb.WriteByte(c)
			}
		}
	}

	return sb.String()
}

// UnescapeJSON reverses EscapeJSON over a full string. Unknown escapes pass
// the backslash and the following character through unchanged; a \u with
// invalid hex is left as a literal "\u".
func UnescapeJSON(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	i := 0
	for i < len(s) {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			i++
			continue
		}

		n := unescapeOne(s, i, &sb)
		i += n
	}

	return sb.String()
}

// unescapeOne decodes one escape sequence starting at the backslash at s[i],
// writes the result to sb, and returns the number of input bytes consumed.
// The caller guarantees i+1 < len(s).
func unescapeOne(s string, i int, sb *strings.Builder) int {
	switch s[i+1] {
	case '"':
		sb.WriteByte('"')
	case '\\':
		sb.WriteByte('\\')
	case '/':
		sb.WriteByte('/')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'u':
		r, ok := parseHexRune(s, i+2)
		if !ok {
			// Invalid hex: keep the literal \u and move on.
			sb.WriteString(`\u`)
			return 2
		}
		sb.WriteRune(r)
		return 6
	default:
		// Unknown escape: pass both characters through.
		sb.WriteByte('\\')
		sb.WriteByte(s[i+1])
	}
	return 2
}

// parseHexRune parses the four hex digits at s[start:] into a rune.
func parseHexRune(s string, start int) (rune, bool) {
	if start+4 > len(s) {
		return 0, false
	}

	var v rune
	for j := start; j < start+4; j++ {
		c := s[j]
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			v |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= rune(c-'A') + 10
		default:
			return 0, false
		}
	}

	// Lone surrogates cannot be encoded as UTF-8; replace like utf16 would.
	if utf16.IsSurrogate(v) {
		return '�', true
	}

	return v, true
}
