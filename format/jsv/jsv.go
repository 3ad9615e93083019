// Package jsv implements the JSV wire format: JSON's map and list delimiters
// with bare strings. A string is quoted only when it contains a delimiter,
// a quote or a line break, and inner quotes are doubled. Whitespace is
// significant and nulls are written as nothing.
package jsv

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/typetext/codec"
	"github.com/reoring/typetext/format"
)

// Name is the registry name of the JSV strategy.
const Name = "jsv"

const escapeChars = "\",:{}[]\r\n"

type strategy struct{}

var std = strategy{}

func init() { format.Register(std) }

// Strategy returns the shared JSV strategy.
func Strategy() format.Strategy { return std }

func (strategy) Name() string { return Name }

// NeedsQuotes reports whether s must be quoted to survive a JSV round trip.
func NeedsQuotes(s string) bool {
	return s == "" || strings.ContainsAny(s, escapeChars)
}

// Quote renders s the way WriteString does.
func Quote(s string) string {
	if !NeedsQuotes(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (strategy) WriteString(w format.Sink, s string) error {
	_, err := w.WriteString(Quote(s))
	return err
}

func (strategy) WriteBool(w format.Sink, b bool, _ format.WriteMode) error {
	if b {
		_, err := w.WriteString("true")
		return err
	}
	_, err := w.WriteString("false")
	return err
}

func (strategy) WriteNumber(w format.Sink, lit string, _ format.WriteMode) error {
	_, err := w.WriteString(lit)
	return err
}

func (strategy) WriteNull(format.Sink) error { return nil }

func (strategy) WriteBytes(w format.Sink, b []byte) error {
	_, err := w.WriteString(base64.StdEncoding.EncodeToString(b))
	return err
}

func (strategy) WriteGUID(w format.Sink, u uuid.UUID) error {
	_, err := w.WriteString(u.String())
	return err
}

// WriteTime uses the shortest XSD form unless the handler asks for numbers.
// Midnight keeps its time and zone so readers that place zone-less dates in
// local time still get the same instant.
func (strategy) WriteTime(w format.Sink, t time.Time, h codec.DateHandler) error {
	text := codec.FormatShortestXsd(t)
	switch {
	case h.Numeric():
		text = codec.FormatDate(t, h)
	case len(text) == len(codec.ShortDateFormat):
		text = t.UTC().Format(codec.XsdSecondsFormat)
	}
	_, err := w.WriteString(text)
	return err
}

func (strategy) WriteDuration(w format.Sink, d time.Duration) error {
	_, err := w.WriteString(codec.FormatXsdDuration(d))
	return err
}

func (st strategy) WriteObjectString(w format.Sink, v any) error {
	return st.WriteString(w, fmt.Sprint(v))
}
