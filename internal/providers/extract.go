package providers

import "strings"

// ExtractField pulls the first string value of the named field out of a JSON
// document without parsing the whole body. It locates the quoted field name,
// the following colon, skips whitespace, and then scans the string value
// character by character, unescaping as it goes. It reports false when the
// field or its opening quote is absent, or when the string value is never
// closed before the input ends.
func ExtractField(body, field string) (string, bool) {
	marker := `"` + field + `"`
	idx := strings.Index(body, marker)
	if idx < 0 {
		return "", false
	}

	pos := idx + len(marker)

	// Find the colon after the field name.
	colon := strings.IndexByte(body[pos:], ':')
	if colon < 0 {
		return "", false
	}
	pos += colon + 1

	// Skip whitespace before the value.
	for pos < len(body) && isSpace(body[pos]) {
		pos++
	}

	// The value must be a string.
	if pos >= len(body) || body[pos] != '"' {
		return "", false
	}
	pos++

	var sb strings.Builder
	for pos < len(body) {
		c := body[pos]
		switch {
		case c == '"':
			return sb.String(), true
		case c == '\\' && pos+1 < len(body):
			pos += unescapeOne(body, pos, &sb)
		default:
			sb.WriteByte(c)
			pos++
		}
	}

	// Unterminated string.
	return "", false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
