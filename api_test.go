package typetext_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/typetext"
	jsonfmt "github.com/reoring/typetext/format/json"
	"github.com/reoring/typetext/format/jsv"
)

func TestJSONL_RoundTrip(t *testing.T) {
	in := []record{{Id: 1, Name: "a"}, {Id: 2, Tags: []string{"t"}}}
	var buf bytes.Buffer
	require.NoError(t, typetext.ToJSONL(&buf, in))
	assert.Equal(t, "{\"Id\":1,\"Name\":\"a\"}\n{\"Id\":2,\"Name\":\"\",\"Tags\":[\"t\"]}\n", buf.String())

	out, err := typetext.FromJSONL[record](strings.NewReader(buf.String() + "\n   \n"))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFromJSONL_ReportsLine(t *testing.T) {
	_, err := typetext.FromJSONL[record](strings.NewReader("{\"Id\":1}\n{\"Id\":\"x\"}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	_, ok := typetext.AsIssues(err)
	assert.True(t, ok)
}

func TestToQueryString(t *testing.T) {
	qs, err := typetext.ToQueryString(&record{Id: 1, Name: "a b", Tags: []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, "Id=1&Name=a+b&Tags=%5Bx%2Cy%5D", qs)

	qs, err = typetext.ToQueryString(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, "a=1&b=2", qs)

	_, err = typetext.ToQueryString(42)
	assert.ErrorIs(t, err, typetext.ErrUnsupportedKind)
}

type onlyWriter struct{ w io.Writer }

func (o onlyWriter) Write(p []byte) (int, error) { return o.w.Write(p) }

func TestEncodeDecode(t *testing.T) {
	e := typetext.New()
	var buf bytes.Buffer
	require.NoError(t, e.Encode(onlyWriter{&buf}, jsv.Strategy(), record{Id: 4, Name: "x,y"}))
	assert.Equal(t, `{Id:4,Name:"x,y"}`, buf.String())

	var r record
	require.NoError(t, e.Decode(&buf, jsv.Strategy(), &r))
	assert.Equal(t, record{Id: 4, Name: "x,y"}, r)
}

func TestSerializer(t *testing.T) {
	s := typetext.NewSerializer(nil, jsonfmt.Strategy())
	assert.Equal(t, "json", s.Format())

	data, err := s.Serialize(map[string][]int{"k": {1}})
	require.NoError(t, err)
	assert.Equal(t, `{"k":[1]}`, string(data))

	var out map[string][]int
	require.NoError(t, s.Deserialize(data, &out))
	assert.Equal(t, map[string][]int{"k": {1}}, out)
}
