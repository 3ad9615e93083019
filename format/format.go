// Package format defines the contract every wire format implements: string
// escaping, scalar writers and the scanner primitives that partition map and
// list text into key and value spans.
package format

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/typetext/codec"
)

// WriteMode tells a writer whether the value lands in a map-key or a value
// position. Formats quote non-string scalars in key position.
type WriteMode uint8

const (
	ModeValue WriteMode = iota
	ModeKey
)

func (m WriteMode) String() string {
	if m == ModeKey {
		return "key"
	}
	return "value"
}

// Sink is the append-only output the engine writes into. *bytes.Buffer,
// *bufio.Writer and *strings.Builder all satisfy it.
type Sink interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
}

// Strategy is one wire format. Implementations are stateless and safe for
// concurrent use. Text produced by the writers must re-partition losslessly
// through the same strategy's Consume* primitives.
type Strategy interface {
	// Name is the registry key, for example "json" or "jsv".
	Name() string

	WriteString(w Sink, s string) error
	WriteBool(w Sink, b bool, mode WriteMode) error
	// WriteNumber writes an already formatted numeric literal.
	WriteNumber(w Sink, lit string, mode WriteMode) error
	WriteNull(w Sink) error
	WriteBytes(w Sink, b []byte) error
	WriteGUID(w Sink, u uuid.UUID) error
	WriteTime(w Sink, t time.Time, h codec.DateHandler) error
	WriteDuration(w Sink, d time.Duration) error
	// WriteObjectString is the last-resort writer for values no other writer
	// handles.
	WriteObjectString(w Sink, v any) error

	// ParseString turns a raw value span into its unquoted, unescaped text.
	// Unquoted spans are returned as is.
	ParseString(raw string) (string, error)

	ConsumeWhitespace(s string, i *int)
	// ConsumeMapStart reports whether a map-open token was present and
	// advances past it only in that case.
	ConsumeMapStart(s string, i *int) bool
	ConsumeMapKey(s string, i *int) (string, error)
	ConsumeMapKeySeparator(s string, i *int) bool
	// ConsumeValue returns the raw span of the next value. Nested maps and
	// lists are returned whole.
	ConsumeValue(s string, i *int) (string, error)
	// ConsumeItemSeparatorOrMapEnd advances past one ',' or closing token and
	// reports whether another item follows. End of input reports false.
	ConsumeItemSeparatorOrMapEnd(s string, i *int) bool
}

// SyntaxError reports corrupt input at a byte offset of the scanned text.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("format: %s at offset %d", e.Msg, e.Offset)
}

// Delimiters shared by both formats.
const (
	MapStart     = '{'
	MapEnd       = '}'
	ListStart    = '['
	ListEnd      = ']'
	KeySeparator = ':'
	ItemSep      = ','
	Quote        = '"'
)

const (
	EmptyMap  = "{}"
	EmptyList = "[]"
)
