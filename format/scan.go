package format

// SkipNested advances *i past the map or list that starts at s[*i] and
// returns the whole span including both delimiters. Quoted text is skipped
// without counting delimiters. With backslashEscapes a backslash protects the
// next byte inside quotes; otherwise a doubled quote toggles twice and needs
// no special case.
func SkipNested(s string, i *int, backslashEscapes bool) (string, error) {
	start := *i
	depth := 0
	inQuote := false
	for j := start; j < len(s); j++ {
		c := s[j]
		if inQuote {
			switch {
			case backslashEscapes && c == '\\':
				j++
			case c == Quote:
				inQuote = false
			}
			continue
		}
		switch c {
		case Quote:
			inQuote = true
		case MapStart, ListStart:
			depth++
		case MapEnd, ListEnd:
			depth--
			if depth == 0 {
				*i = j + 1
				return s[start:*i], nil
			}
		}
	}
	return "", &SyntaxError{Offset: start, Msg: "unterminated " + nestedName(s[start])}
}

func nestedName(open byte) string {
	if open == ListStart {
		return "list"
	}
	return "map"
}

// IsDelimiter reports whether c ends an unquoted token.
func IsDelimiter(c byte) bool {
	switch c {
	case ItemSep, MapEnd, ListEnd:
		return true
	}
	return false
}

// IsWhitespace matches the insignificant whitespace of the JSON grammar.
func IsWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
