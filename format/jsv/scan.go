package jsv

import (
	"strings"

	"github.com/reoring/typetext/format"
)

func (strategy) ParseString(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != format.Quote || raw[len(raw)-1] != format.Quote {
		return raw, nil
	}
	return strings.ReplaceAll(raw[1:len(raw)-1], `""`, `"`), nil
}

// ConsumeWhitespace is a no-op: leading and trailing spaces belong to the value.
func (strategy) ConsumeWhitespace(string, *int) {}

func (strategy) ConsumeMapStart(s string, i *int) bool {
	if *i < len(s) && s[*i] == format.MapStart {
		*i++
		return true
	}
	return false
}

func (st strategy) ConsumeMapKey(s string, i *int) (string, error) {
	if *i >= len(s) {
		return "", &format.SyntaxError{Offset: *i, Msg: "expected map key"}
	}
	if s[*i] == format.Quote {
		raw, err := scanQuoted(s, i)
		if err != nil {
			return "", err
		}
		return st.ParseString(raw)
	}
	start := *i
	for *i < len(s) && s[*i] != format.KeySeparator && !format.IsDelimiter(s[*i]) {
		*i++
	}
	return s[start:*i], nil
}

func (strategy) ConsumeMapKeySeparator(s string, i *int) bool {
	if *i < len(s) && s[*i] == format.KeySeparator {
		*i++
		return true
	}
	return false
}

func (strategy) ConsumeValue(s string, i *int) (string, error) {
	if *i >= len(s) {
		return "", nil
	}
	switch s[*i] {
	case format.Quote:
		return scanQuoted(s, i)
	case format.MapStart, format.ListStart:
		return format.SkipNested(s, i, false)
	}
	start := *i
	for *i < len(s) && !format.IsDelimiter(s[*i]) {
		*i++
	}
	return s[start:*i], nil
}

func (strategy) ConsumeItemSeparatorOrMapEnd(s string, i *int) bool {
	if *i >= len(s) {
		return false
	}
	switch s[*i] {
	case format.ItemSep:
		*i++
		return true
	case format.MapEnd, format.ListEnd:
		*i++
	}
	return false
}

// scanQuoted returns the quoted string at s[*i], quotes included. A doubled
// quote is an escaped quote.
func scanQuoted(s string, i *int) (string, error) {
	start := *i
	for j := start + 1; j < len(s); j++ {
		if s[j] != format.Quote {
			continue
		}
		if j+1 < len(s) && s[j+1] == format.Quote {
			j++
			continue
		}
		*i = j + 1
		return s[start:*i], nil
	}
	return "", &format.SyntaxError{Offset: start, Msg: "unterminated string"}
}
