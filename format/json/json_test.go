package json

import (
	"bytes"
	"strings"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/typetext/codec"
	"github.com/reoring/typetext/format"
)

func write(t *testing.T, fn func(w format.Sink) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fn(&buf))
	return buf.String()
}

func TestWriteString_EscapesAndDecodesWithGoJSON(t *testing.T) {
	in := "a\"b\\c\n\t\x01é😀"
	out := write(t, func(w format.Sink) error { return Strategy().WriteString(w, in) })
	assert.Equal(t, `"a\"b\\c\n\t\u0001é😀"`, out)

	var back string
	require.NoError(t, gojson.Unmarshal([]byte(out), &back))
	assert.Equal(t, in, back)

	parsed, err := Strategy().ParseString(out)
	require.NoError(t, err)
	assert.Equal(t, in, parsed)
}

func TestWriteString_EscapeOptions(t *testing.T) {
	s := New(WithEscapeHTML(true), WithEscapeUnicode(true))
	out := write(t, func(w format.Sink) error { return s.WriteString(w, "<é😀>") })
	assert.Equal(t, `"\u003c\u00e9\ud83d\ude00\u003e"`, out)

	back, err := s.ParseString(out)
	require.NoError(t, err)
	assert.Equal(t, "<é😀>", back)
}

func TestParseString_Escapes(t *testing.T) {
	got, err := Strategy().ParseString(`"\/Date(1)\/ \x41 B"`)
	require.NoError(t, err)
	assert.Equal(t, "/Date(1)/ A B", got)

	got, err = Strategy().ParseString("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", got)

	_, err = Strategy().ParseString(`"\u12"`)
	var se *format.SyntaxError
	require.ErrorAs(t, err, &se)
}

func TestLiteralsQuotedInKeyPosition(t *testing.T) {
	s := Strategy()
	assert.Equal(t, "12", write(t, func(w format.Sink) error { return s.WriteNumber(w, "12", format.ModeValue) }))
	assert.Equal(t, `"12"`, write(t, func(w format.Sink) error { return s.WriteNumber(w, "12", format.ModeKey) }))
	assert.Equal(t, `"true"`, write(t, func(w format.Sink) error { return s.WriteBool(w, true, format.ModeKey) }))
	assert.Equal(t, "null", write(t, s.WriteNull))
}

func TestWriteScalars(t *testing.T) {
	s := Strategy()
	ts := time.Date(2011, 11, 7, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, `"\/Date(1320674400000)\/"`,
		write(t, func(w format.Sink) error { return s.WriteTime(w, ts, codec.DateHandlerTimestampOffset) }))
	assert.Equal(t, `"2011-11-07T14:00:00Z"`,
		write(t, func(w format.Sink) error { return s.WriteTime(w, ts, codec.DateHandlerISO8601) }))
	assert.Equal(t, `1320674400`,
		write(t, func(w format.Sink) error { return s.WriteTime(w, ts, codec.DateHandlerUnixTime) }))
	assert.Equal(t, `"PT1H"`, write(t, func(w format.Sink) error { return s.WriteDuration(w, time.Hour) }))
	assert.Equal(t, `"AQID"`, write(t, func(w format.Sink) error { return s.WriteBytes(w, []byte{1, 2, 3}) }))

	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, `"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`, write(t, func(w format.Sink) error { return s.WriteGUID(w, u) }))
	assert.Equal(t, `{"a":1}`, write(t, func(w format.Sink) error { return s.WriteObjectString(w, map[string]int{"a": 1}) }))
}

func TestScanner_PartitionsMap(t *testing.T) {
	s := Strategy()
	text := ` { "Id" : 1 , "Name":"A,n}n" ,"Tags":["x",{"y":"]"}], "Nil": null, bare:true } `
	i := 0
	require.True(t, s.ConsumeMapStart(text, &i))

	type kv struct{ k, v string }
	var got []kv
	for {
		s.ConsumeWhitespace(text, &i)
		if i >= len(text) || text[i] == format.MapEnd {
			break
		}
		k, err := s.ConsumeMapKey(text, &i)
		require.NoError(t, err)
		require.True(t, s.ConsumeMapKeySeparator(text, &i))
		v, err := s.ConsumeValue(text, &i)
		require.NoError(t, err)
		got = append(got, kv{k, v})
		if !s.ConsumeItemSeparatorOrMapEnd(text, &i) {
			break
		}
	}
	assert.Equal(t, []kv{
		{"Id", "1"},
		{"Name", `"A,n}n"`},
		{"Tags", `["x",{"y":"]"}]`},
		{"Nil", ""},
		{"bare", "true"},
	}, got)
	assert.Equal(t, len(text), i)
}

func TestScanner_MissingMapStartDoesNotAdvance(t *testing.T) {
	i := 0
	assert.False(t, Strategy().ConsumeMapStart(`"a":1`, &i))
	assert.Equal(t, 0, i)
}

func TestScanner_Unterminated(t *testing.T) {
	for _, in := range []string{`"abc`, `{"a":1`, `[1,2`} {
		i := 0
		_, err := Strategy().ConsumeValue(in, &i)
		var se *format.SyntaxError
		require.ErrorAs(t, err, &se, in)
		assert.True(t, strings.Contains(se.Error(), "unterminated"), se.Error())
	}
}

func TestScanner_ItemSeparatorToleratesEnd(t *testing.T) {
	i := 3
	assert.False(t, Strategy().ConsumeItemSeparatorOrMapEnd("abc", &i))
	assert.Equal(t, 3, i)
}

func TestRegistered(t *testing.T) {
	s, ok := format.Lookup("JSON")
	require.True(t, ok)
	assert.Equal(t, Name, s.Name())
}
