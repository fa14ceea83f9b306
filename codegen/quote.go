package codegen

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// Quote renders s as a double-quoted JavaScript string literal. The result is pure
// ASCII: quotes, backslashes and control characters are escaped, and every non-ASCII
// rune becomes a \uXXXX escape (surrogate pairs outside the BMP). The same text is a
// valid JSON string.
//
// s must be valid UTF-8; invalid bytes are emitted as U+FFFD.
func Quote(s string) string {
	var builder strings.Builder
	builder.Grow(len(s) + 2)
	builder.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\t':
			builder.WriteString(`\t`)
		case '\b':
			builder.WriteString(`\b`)
		case '\f':
			builder.WriteString(`\f`)
		default:
			switch {
			case r < 0x20 || r == 0x7f:
				writeUnicodeEscape(&builder, r)
			case r < utf8.RuneSelf:
				builder.WriteByte(byte(r))
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				writeUnicodeEscape(&builder, hi)
				writeUnicodeEscape(&builder, lo)
			default:
				// Also covers U+2028 and U+2029, which end a line in older JS parsers.
				writeUnicodeEscape(&builder, r)
			}
		}
	}

	builder.WriteByte('"')
	return builder.String()
}

func writeUnicodeEscape(builder *strings.Builder, r rune) {
	builder.WriteString(`\u`)
	builder.WriteByte(hexDigits[(r>>12)&0xf])
	builder.WriteByte(hexDigits[(r>>8)&0xf])
	builder.WriteByte(hexDigits[(r>>4)&0xf])
	builder.WriteByte(hexDigits[r&0xf])
}
