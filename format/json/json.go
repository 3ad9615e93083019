// Package json implements the JSON wire format strategy.
package json

import (
	"encoding/base64"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/reoring/typetext/codec"
	"github.com/reoring/typetext/format"
)

// Name is the registry name of the JSON strategy.
const Name = "json"

// Option customizes a strategy built with New.
type Option func(*strategy)

// WithEscapeHTML escapes '<', '>' and '&' as \u sequences.
func WithEscapeHTML(on bool) Option { return func(s *strategy) { s.escapeHTML = on } }

// WithEscapeUnicode escapes every non-ASCII rune as \u sequences.
func WithEscapeUnicode(on bool) Option { return func(s *strategy) { s.escapeUnicode = on } }

type strategy struct {
	escapeHTML    bool
	escapeUnicode bool
}

var std = &strategy{}

func init() { format.Register(std) }

// Strategy returns the shared default JSON strategy.
func Strategy() format.Strategy { return std }

// New builds a JSON strategy with non-default escaping.
func New(opts ...Option) format.Strategy {
	s := &strategy{}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (*strategy) Name() string { return Name }

const hexDigits = "0123456789abcdef"

func (st *strategy) WriteString(w format.Sink, str string) error {
	_, err := w.Write(st.appendQuoted(make([]byte, 0, len(str)+2), str))
	return err
}

func (st *strategy) appendQuoted(buf []byte, str string) []byte {
	buf = append(buf, '"')
	start := 0
	for i := 0; i < len(str); {
		c := str[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' && !(st.escapeHTML && (c == '<' || c == '>' || c == '&')) {
				i++
				continue
			}
			buf = append(buf, str[start:i]...)
			switch c {
			case '"', '\\':
				buf = append(buf, '\\', c)
			case '\n':
				buf = append(buf, '\\', 'n')
			case '\r':
				buf = append(buf, '\\', 'r')
			case '\t':
				buf = append(buf, '\\', 't')
			case '\b':
				buf = append(buf, '\\', 'b')
			case '\f':
				buf = append(buf, '\\', 'f')
			default:
				buf = appendU(buf, rune(c))
			}
			i++
			start = i
			continue
		}
		if !st.escapeUnicode {
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(str[i:])
		buf = append(buf, str[start:i]...)
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			buf = appendU(appendU(buf, r1), r2)
		} else {
			buf = appendU(buf, r)
		}
		i += size
		start = i
	}
	buf = append(buf, str[start:]...)
	return append(buf, '"')
}

func appendU(buf []byte, r rune) []byte {
	return append(buf, '\\', 'u',
		hexDigits[r>>12&0xf], hexDigits[r>>8&0xf], hexDigits[r>>4&0xf], hexDigits[r&0xf])
}

func (*strategy) WriteBool(w format.Sink, b bool, mode format.WriteMode) error {
	lit := "false"
	if b {
		lit = "true"
	}
	return writeLiteral(w, lit, mode)
}

func (*strategy) WriteNumber(w format.Sink, lit string, mode format.WriteMode) error {
	return writeLiteral(w, lit, mode)
}

// writeLiteral quotes bare literals in key position; JSON keys are strings.
func writeLiteral(w format.Sink, lit string, mode format.WriteMode) error {
	if mode == format.ModeKey {
		_, err := w.WriteString(`"` + lit + `"`)
		return err
	}
	_, err := w.WriteString(lit)
	return err
}

func (*strategy) WriteNull(w format.Sink) error {
	_, err := w.WriteString("null")
	return err
}

func (*strategy) WriteBytes(w format.Sink, b []byte) error {
	_, err := w.WriteString(`"` + base64.StdEncoding.EncodeToString(b) + `"`)
	return err
}

func (*strategy) WriteGUID(w format.Sink, u uuid.UUID) error {
	_, err := w.WriteString(`"` + u.String() + `"`)
	return err
}

func (st *strategy) WriteTime(w format.Sink, t time.Time, h codec.DateHandler) error {
	text := codec.FormatDate(t, h)
	switch {
	case h.Numeric():
		_, err := w.WriteString(text)
		return err
	case codec.IsWireDate(text):
		_, err := w.WriteString(`"\` + strings.TrimSuffix(text, "/") + `\/"`)
		return err
	}
	return st.WriteString(w, text)
}

func (st *strategy) WriteDuration(w format.Sink, d time.Duration) error {
	return st.WriteString(w, codec.FormatXsdDuration(d))
}

func (*strategy) WriteObjectString(w format.Sink, v any) error {
	b, err := gojson.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
