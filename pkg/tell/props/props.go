// Package props builds pre-serialized JSON property sets.
//
// Values are written directly into a growable byte buffer as they are added,
// skipping any intermediate map or DOM. String values and keys are escaped on
// the way in, so the buffer always holds valid JSON fragments.
//
//	p := props.New().Str("url", "/home").Int("status", 200)
//	p.JSONBytes() // {"url":"/home","status":200}
package props

import "strconv"

// Props accumulates "key":value pairs as raw JSON bytes.
//
// The zero value is usable; New pre-sizes the buffer for the common case.
// Props is not safe for concurrent mutation.
type Props struct {
	buf   []byte
	count int
}

// New returns an empty property set with a small pre-allocated buffer.
func New() *Props {
	return &Props{buf: make([]byte, 0, 256)}
}

// Str adds a string value, escaped.
func (p *Props) Str(key, value string) *Props {
	p.beginField(key)
	p.buf = append(p.buf, '"')
	p.buf = AppendEscaped(p.buf, value)
	p.buf = append(p.buf, '"')
	return p
}

// Int adds a signed integer value.
func (p *Props) Int(key string, value int64) *Props {
	p.beginField(key)
	p.buf = strconv.AppendInt(p.buf, value, 10)
	return p
}

// Float adds a floating-point value in shortest round-trip form.
func (p *Props) Float(key string, value float64) *Props {
	p.beginField(key)
	p.buf = strconv.AppendFloat(p.buf, value, 'g', -1, 64)
	return p
}

// Bool adds a true/false literal.
func (p *Props) Bool(key string, value bool) *Props {
	p.beginField(key)
	if value {
		p.buf = append(p.buf, "true"...)
	} else {
		p.buf = append(p.buf, "false"...)
	}
	return p
}

// JSONBytes returns the properties as a complete JSON object.
func (p *Props) JSONBytes() []byte {
	out := make([]byte, 0, len(p.buf)+2)
	out = append(out, '{')
	out = append(out, p.buf...)
	out = append(out, '}')
	return out
}

// Raw returns the inner comma-separated bytes without the surrounding
// braces, for merging into a larger object.
func (p *Props) Raw() []byte { return p.buf }

// Len reports the number of entries added.
func (p *Props) Len() int { return p.count }

// Empty reports whether no entries have been added. A nil receiver is empty.
func (p *Props) Empty() bool { return p == nil || p.count == 0 }

func (p *Props) beginField(key string) {
	if p.count > 0 {
		p.buf = append(p.buf, ',')
	}
	p.buf = append(p.buf, '"')
	p.buf = AppendEscaped(p.buf, key)
	p.buf = append(p.buf, '"', ':')
	p.count++
}

const hexDigits = "0123456789abcdef"

func needsEscape(c byte) bool {
	return c == '"' || c == '\\' || c < 0x20
}

// AppendEscaped appends s to dst with JSON string escaping and returns the
// extended slice. Runs of safe bytes are bulk-copied; non-ASCII bytes pass
// through verbatim, the caller is responsible for UTF-8 validity.
func AppendEscaped(dst []byte, s string) []byte {
	i := 0
	for i < len(s) {
		run := i
		for i < len(s) && !needsEscape(s[i]) {
			i++
		}
		if i > run {
			dst = append(dst, s[run:i]...)
		}
		if i < len(s) {
			c := s[i]
			switch c {
			case '"':
				dst = append(dst, '\\', '"')
			case '\\':
				dst = append(dst, '\\', '\\')
			case '\b':
				dst = append(dst, '\\', 'b')
			case '\f':
				dst = append(dst, '\\', 'f')
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			default:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0x0f])
			}
			i++
		}
	}
	return dst
}
