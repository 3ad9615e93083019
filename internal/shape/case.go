package shape

import (
	"strings"
	"unicode"
)

// TextCase controls how untagged Go field names are rendered on the wire.
type TextCase int

const (
	CaseDefault TextCase = iota
	CaseCamel
	CaseSnake
)

func (c TextCase) String() string {
	switch c {
	case CaseCamel:
		return "camelcase"
	case CaseSnake:
		return "snakecase"
	default:
		return "default"
	}
}

// ApplyCase renders name in the requested case. Leading acronyms are kept
// together: UserID -> userID / user_id, URLPath -> urlPath / url_path.
func ApplyCase(name string, c TextCase) string {
	switch c {
	case CaseCamel:
		return toCamel(name)
	case CaseSnake:
		return toSnake(name)
	}
	return name
}

func toCamel(name string) string {
	r := []rune(name)
	for i := 0; i < len(r) && unicode.IsUpper(r[i]); i++ {
		if i > 0 && i+1 < len(r) && unicode.IsLower(r[i+1]) {
			break
		}
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

func toSnake(name string) string {
	r := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, c := range r {
		if unicode.IsUpper(c) {
			prevLower := i > 0 && (unicode.IsLower(r[i-1]) || unicode.IsDigit(r[i-1]))
			acronymEnd := i > 0 && unicode.IsUpper(r[i-1]) && i+1 < len(r) && unicode.IsLower(r[i+1])
			if prevLower || acronymEnd {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(c))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Normalize folds a key for lenient matching: lower case with '-' and '_'
// removed, so user_id, User-Id and UserID all match.
func Normalize(key string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return -1
		}
		return unicode.ToLower(r)
	}, key)
}
