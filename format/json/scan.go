package json

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/reoring/typetext/format"
)

const nullLiteral = "null"

func (*strategy) ParseString(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return raw, nil
	}
	inner := raw[1 : len(raw)-1]
	if strings.IndexByte(inner, '\\') < 0 {
		return inner, nil
	}
	return unescape(inner)
}

func unescape(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", &format.SyntaxError{Offset: i, Msg: "dangling escape"}
		}
		switch c = s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'a':
			b.WriteByte('\a')
		case 'v':
			b.WriteByte('\v')
		case 'x':
			if i+3 > len(s) {
				return "", &format.SyntaxError{Offset: i, Msg: `truncated \x escape`}
			}
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", &format.SyntaxError{Offset: i, Msg: `bad \x escape`}
			}
			b.WriteByte(byte(v))
			i += 2
		case 'u':
			r, n, err := readU(s, i+1)
			if err != nil {
				return "", err
			}
			i += n
			if utf16.IsSurrogate(r) {
				if i+2 < len(s) && s[i+1] == '\\' && s[i+2] == 'u' {
					r2, n2, err := readU(s, i+3)
					if err != nil {
						return "", err
					}
					if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
						r = dec
						i += 2 + n2
					}
				}
			}
			b.WriteRune(r)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func readU(s string, at int) (rune, int, error) {
	if at+4 > len(s) {
		return 0, 0, &format.SyntaxError{Offset: at, Msg: `truncated \u escape`}
	}
	v, err := strconv.ParseUint(s[at:at+4], 16, 32)
	if err != nil {
		return 0, 0, &format.SyntaxError{Offset: at, Msg: `bad \u escape`}
	}
	return rune(v), 4, nil
}

func (*strategy) ConsumeWhitespace(s string, i *int) {
	for *i < len(s) && format.IsWhitespace(s[*i]) {
		*i++
	}
}

func (st *strategy) ConsumeMapStart(s string, i *int) bool {
	st.ConsumeWhitespace(s, i)
	if *i < len(s) && s[*i] == format.MapStart {
		*i++
		return true
	}
	return false
}

func (st *strategy) ConsumeMapKey(s string, i *int) (string, error) {
	st.ConsumeWhitespace(s, i)
	if *i >= len(s) {
		return "", &format.SyntaxError{Offset: *i, Msg: "expected map key"}
	}
	if s[*i] == '"' {
		raw, err := scanQuoted(s, i)
		if err != nil {
			return "", err
		}
		return st.ParseString(raw)
	}
	start := *i
	for *i < len(s) && s[*i] != format.KeySeparator && !format.IsWhitespace(s[*i]) && !format.IsDelimiter(s[*i]) {
		*i++
	}
	if *i == start {
		return "", &format.SyntaxError{Offset: start, Msg: "empty map key"}
	}
	return s[start:*i], nil
}

func (st *strategy) ConsumeMapKeySeparator(s string, i *int) bool {
	st.ConsumeWhitespace(s, i)
	if *i < len(s) && s[*i] == format.KeySeparator {
		*i++
		return true
	}
	return false
}

func (st *strategy) ConsumeValue(s string, i *int) (string, error) {
	st.ConsumeWhitespace(s, i)
	if *i >= len(s) {
		return "", nil
	}
	switch s[*i] {
	case '"':
		return scanQuoted(s, i)
	case format.MapStart, format.ListStart:
		return format.SkipNested(s, i, true)
	}
	start := *i
	for *i < len(s) && !format.IsDelimiter(s[*i]) && !format.IsWhitespace(s[*i]) {
		*i++
	}
	if tok := s[start:*i]; tok != nullLiteral {
		return tok, nil
	}
	return "", nil
}

func (st *strategy) ConsumeItemSeparatorOrMapEnd(s string, i *int) bool {
	st.ConsumeWhitespace(s, i)
	if *i >= len(s) {
		return false
	}
	switch s[*i] {
	case format.ItemSep:
		*i++
		st.ConsumeWhitespace(s, i)
		return true
	case format.MapEnd, format.ListEnd:
		*i++
		st.ConsumeWhitespace(s, i)
	}
	return false
}

// scanQuoted returns the quoted string starting at s[*i], quotes included.
func scanQuoted(s string, i *int) (string, error) {
	start := *i
	for j := start + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			*i = j + 1
			return s[start:*i], nil
		}
	}
	return "", &format.SyntaxError{Offset: start, Msg: "unterminated string"}
}
