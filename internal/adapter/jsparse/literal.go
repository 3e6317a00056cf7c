package jsparse

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

var errBadLiteral = errors.New("jsparse: malformed string literal")

// Unquote decodes a single- or double-quoted ECMAScript string literal.
func Unquote(lit string) (string, error) {
	if len(lit) < 2 || !isQuote(lit[0]) || lit[len(lit)-1] != lit[0] {
		return "", errBadLiteral
	}
	body := lit[1 : len(lit)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", errBadLiteral
		}
		switch c = body[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case '\r':
			// line continuation, CRLF or lone CR
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case '\n':
		case 'x':
			if i+2 >= len(body) {
				return "", errBadLiteral
			}
			v, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", errBadLiteral
			}
			sb.WriteRune(rune(v))
			i += 2
		case 'u':
			r, n, err := decodeUnicodeEscape(body[i+1:])
			if err != nil {
				return "", err
			}
			// surrogate pair spelled as two \u escapes
			if utf16.IsSurrogate(r) && strings.HasPrefix(body[i+1+n:], `\u`) {
				if r2, n2, err := decodeUnicodeEscape(body[i+3+n:]); err == nil {
					if p := utf16.DecodeRune(r, r2); p != utf8.RuneError {
						r = p
						n += 2 + n2
					}
				}
			}
			sb.WriteRune(r)
			i += n
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

// decodeUnicodeEscape reads XXXX or {X...} and returns the rune and the
// number of bytes consumed.
func decodeUnicodeEscape(s string) (rune, int, error) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0, errBadLiteral
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, errBadLiteral
		}
		return rune(v), end + 1, nil
	}
	if len(s) < 4 {
		return 0, 0, errBadLiteral
	}
	v, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, errBadLiteral
	}
	return rune(v), 4, nil
}

// Quote wraps value in quote, escaping what a string literal cannot hold
// verbatim.
func Quote(value string, quote byte) string {
	var sb strings.Builder
	sb.Grow(len(value) + 2)
	sb.WriteByte(quote)
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case quote, '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}
