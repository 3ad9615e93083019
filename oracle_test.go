package typetext_test

import (
	"testing"

	gojson "github.com/goccy/go-json"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/typetext"
)

type document struct {
	Title  string
	Body   string
	Rating float64
	Counts map[string]int
	Parts  []struct {
		Seq  int
		Text string
	}
}

func sampleDocument() document {
	d := document{
		Title:  `<b>"Quoted" & co</b>`,
		Body:   "line1\nline2\ttab é 😀  ",
		Rating: 4.25,
		Counts: map[string]int{"views": 10, "likes": 2},
	}
	d.Parts = append(d.Parts, struct {
		Seq  int
		Text string
	}{1, "intro"})
	return d
}

func TestJSON_ReadableByOtherDecoders(t *testing.T) {
	in := sampleDocument()
	text, err := typetext.ToJSON(in)
	require.NoError(t, err)

	var viaGoccy document
	require.NoError(t, gojson.Unmarshal([]byte(text), &viaGoccy))
	assert.Equal(t, in, viaGoccy)

	var viaIter document
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(text, &viaIter))
	assert.Equal(t, in, viaIter)
}

func TestJSON_ReadsOtherEncoders(t *testing.T) {
	in := sampleDocument()
	for name, enc := range map[string]func(any) ([]byte, error){
		"goccy":    gojson.Marshal,
		"jsoniter": jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
	} {
		t.Run(name, func(t *testing.T) {
			b, err := enc(in)
			require.NoError(t, err)
			out, err := typetext.FromJSON[document](string(b))
			require.NoError(t, err, string(b))
			assert.Equal(t, in, out)
		})
	}
}
