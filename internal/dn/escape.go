package dn

import (
	"encoding/hex"
	"fmt"
	"strings"

	ber "github.com/go-asn1-ber/asn1-ber"
)

// specialChars are the RDN value characters that RFC 4514 §2.4 requires to
// be escaped when they are not already protected by a leading backslash.
const specialChars = `,+"\<>;`

// splitUnescaped splits s on sep, skipping over occurrences that are
// preceded by an odd number of backslashes (i.e. escaped) and over
// quoted substrings (RFC 2253/1779 compatibility form).
func splitUnescaped(s string, sep byte) []string {
	var parts []string
	var buf strings.Builder
	inQuotes := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			buf.WriteByte(c)
			escaped = false
		case c == '\\':
			buf.WriteByte(c)
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
			buf.WriteByte(c)
		case c == sep && !inQuotes:
			parts = append(parts, buf.String())
			buf.Reset()
		default:
			buf.WriteByte(c)
		}
	}
	parts = append(parts, buf.String())
	return parts
}

func indexUnescaped(s string, target byte) int {
	escaped := false
	inQuotes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
		case c == target && !inQuotes:
			return i
		}
	}
	return -1
}

// decodeAttributeValue decodes the value half of an attributeTypeAndValue:
// the `#<hex>` binary form, the RFC2253 quoted-string form, or the plain
// escaped string form.
func decodeAttributeValue(s string) (string, error) {
	if strings.HasPrefix(s, "#") {
		raw, err := hex.DecodeString(s[1:])
		if err != nil {
			return "", err
		}
		// The decoded octets are the BER encoding of the X.500 value.
		// When they frame a universal-class primitive TLV, the length
		// octets must cover the content exactly; a short or overlong
		// body means the hex string was truncated or padded.
		if len(raw) >= 2 && ber.Class(raw[0])&ber.ClassBitmask == ber.ClassUniversal {
			if length, n, ok := berLength(raw[1:]); ok && 1+n+length != len(raw) {
				return "", fmt.Errorf("dn: BER length does not match #%s", s[1:])
			}
		}
		return string(raw), nil
	}
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2 {
		return unescapeQuoted(s[1 : len(s)-1])
	}
	return unescapeValue(s)
}

// berLength is a minimal BER length-octet reader, used only to validate
// that a `#<hex>` RDN value looks like a well-formed primitive TLV; full
// BER decoding belongs to the wire codec layer, not this package.
func berLength(b []byte) (int, int, bool) {
	if len(b) == 0 {
		return 0, 0, false
	}
	if b[0] < 0x80 {
		return int(b[0]), 1, true
	}
	n := int(b[0] & 0x7f)
	if n == 0 || len(b) < n+1 {
		return 0, 0, false
	}
	length := 0
	for i := 0; i < n; i++ {
		length = length<<8 | int(b[1+i])
	}
	return length, n + 1, true
}

func unescapeQuoted(s string) (string, error) {
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			if h, ok := hexPair(s, i); ok {
				buf.WriteByte(h)
				i++
				continue
			}
			buf.WriteByte(s[i])
			continue
		}
		buf.WriteByte(s[i])
	}
	return buf.String(), nil
}

func unescapeValue(s string) (string, error) {
	var buf strings.Builder
	escaped := false
	kept := 0 // length of buf through the last escaped character
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			if h, ok := hexPair(s, i); ok {
				buf.WriteByte(h)
				i++
				escaped = false
				kept = buf.Len()
				continue
			}
			buf.WriteByte(c)
			escaped = false
			kept = buf.Len()
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		buf.WriteByte(c)
	}
	// Trailing unescaped spaces are stripped; a trailing space preceded by
	// a backslash has already been consumed above and is not touched here.
	out := buf.String()
	return out[:kept] + strings.TrimRight(out[kept:], " "), nil
}

func hexPair(s string, i int) (byte, bool) {
	if i+1 >= len(s) {
		return 0, false
	}
	hi, ok1 := hexDigit(s[i])
	lo, ok2 := hexDigit(s[i+1])
	if !ok1 || !ok2 {
		return 0, false
	}
	return hi<<4 | lo, true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// escapeAttributeType returns t unchanged: an attribute type is a
// descriptor or numeric OID, so no escaping is applied in type position.
func escapeAttributeType(t string) string {
	return t
}

// escapeAttributeValue renders a value for DN output, escaping the
// specialChars set, a leading '#' or space, and a trailing space
// (RFC 4514 §2.4).
func escapeAttributeValue(v string) string {
	if v == "" {
		return v
	}
	var buf strings.Builder
	for i, r := range v {
		switch {
		case strings.ContainsRune(specialChars, r):
			buf.WriteByte('\\')
			buf.WriteRune(r)
		case r == '#' && i == 0:
			buf.WriteString(`\#`)
		case r == ' ' && (i == 0 || i == len(v)-1):
			buf.WriteString(`\ `)
		case r == 0:
			buf.WriteString(`\00`)
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
