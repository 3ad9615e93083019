package typetext_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/typetext"
)

type record struct {
	Id   int
	Name string
	Tags []string
	Nick *string
}

func TestScenario_JSONRecord(t *testing.T) {
	r, err := typetext.FromJSON[record](`{"Id":1,"Name":"Ann"}`)
	require.NoError(t, err)
	assert.Equal(t, record{Id: 1, Name: "Ann"}, r)

	out, err := typetext.ToJSON(r)
	require.NoError(t, err)
	assert.Equal(t, `{"Id":1,"Name":"Ann"}`, out)
}

func TestScenario_IntList(t *testing.T) {
	for _, tc := range []struct {
		name  string
		read  func(string) ([]int, error)
		write func(any) (string, error)
	}{
		{"json", typetext.FromJSON[[]int], typetext.ToJSON},
		{"jsv", typetext.FromJSV[[]int], typetext.ToJSV},
	} {
		t.Run(tc.name, func(t *testing.T) {
			xs, err := tc.read("[1,2,3]")
			require.NoError(t, err)
			assert.Equal(t, []int{1, 2, 3}, xs)
			out, err := tc.write(xs)
			require.NoError(t, err)
			assert.Equal(t, "[1,2,3]", out)
		})
	}
}

func TestScenario_WireDate(t *testing.T) {
	want := time.Date(2011, 11, 7, 14, 0, 0, 0, time.UTC)

	got, err := typetext.FromJSV[time.Time]("/Date(1320674400000+0000)/")
	require.NoError(t, err)
	assert.True(t, want.Equal(got), got)
	assert.Equal(t, time.UTC, got.Location())

	got, err = typetext.FromJSON[time.Time](`"\/Date(1320674400000+0000)\/"`)
	require.NoError(t, err)
	assert.True(t, want.Equal(got), got)

	out, err := typetext.ToJSON(want)
	require.NoError(t, err)
	assert.Equal(t, `"\/Date(1320674400000)\/"`, out)
}

func TestScenario_NullFieldOmitted(t *testing.T) {
	r := record{Id: 2, Name: "Bo", Tags: []string{"x"}}
	for _, write := range []func(any) (string, error){typetext.ToJSON, typetext.ToJSV} {
		out, err := write(r)
		require.NoError(t, err)
		assert.NotContains(t, out, "Nick")
	}

	out, err := typetext.ToJSV(r)
	require.NoError(t, err)
	assert.Equal(t, "{Id:2,Name:Bo,Tags:[x]}", out)
	back, err := typetext.FromJSV[record](out)
	require.NoError(t, err)
	assert.Equal(t, r, back)
	assert.Nil(t, back.Nick)
}

func TestScenario_UnquotedJSVRecord(t *testing.T) {
	r, err := typetext.FromJSV[record]("{Name:Alice,Tags:[a,b]}")
	require.NoError(t, err)
	assert.Equal(t, record{Name: "Alice", Tags: []string{"a", "b"}}, r)
}

func TestForwardCompatibility_UnknownKeysSkipped(t *testing.T) {
	r, err := typetext.FromJSON[record](`{"Id":3,"Extra":{"deep":[1,2]},"Name":"Cy","More":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, record{Id: 3, Name: "Cy"}, r)

	r, err = typetext.FromJSV[record](`{Id:3,Extra:{deep:[1,2]},Name:Cy}`)
	require.NoError(t, err)
	assert.Equal(t, record{Id: 3, Name: "Cy"}, r)
}

func TestEmptyLiterals(t *testing.T) {
	r, err := typetext.FromJSON[record]("{}")
	require.NoError(t, err)
	assert.Equal(t, record{}, r)

	xs, err := typetext.FromJSV[[]string]("[]")
	require.NoError(t, err)
	assert.NotNil(t, xs)
	assert.Empty(t, xs)

	m, err := typetext.FromJSON[map[string]int]("{}")
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)

	n, err := typetext.FromJSV[int]("")
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := typetext.FromJSON[*record]("null")
	require.NoError(t, err)
	assert.Nil(t, p)

	xs, err = typetext.FromJSV[[]string]("")
	require.NoError(t, err)
	assert.Nil(t, xs)
}

type scalars struct {
	B   bool
	I8  int8
	U16 uint16
	I64 int64
	F32 float32
	F64 float64
	S   string
	D   time.Duration
	T   time.Time
	Raw []byte
}

func TestScalarRoundTrip(t *testing.T) {
	in := scalars{
		B: true, I8: -8, U16: 65535, I64: -1 << 62,
		F32: 1.25, F64: 3.141592653589793, S: `he said "hi", {ok}`,
		D: 90*time.Minute + 1500*time.Millisecond,
		T: time.Date(2024, 2, 29, 23, 59, 58, 123000000, time.UTC),
		Raw: []byte{0, 1, 2, 250},
	}
	for _, tc := range []struct {
		name  string
		write func(any) (string, error)
		read  func(string) (scalars, error)
	}{
		{"json", typetext.ToJSON, typetext.FromJSON[scalars]},
		{"jsv", typetext.ToJSV, typetext.FromJSV[scalars]},
	} {
		t.Run(tc.name, func(t *testing.T) {
			text, err := tc.write(in)
			require.NoError(t, err)
			out, err := tc.read(text)
			require.NoError(t, err, text)
			assert.True(t, in.T.Equal(out.T))
			out.T = in.T
			assert.Equal(t, in, out)
		})
	}
}

type node struct {
	Value    int
	Children []*node
	Next     *node
}

func TestRecursiveTypes(t *testing.T) {
	in := &node{Value: 1, Children: []*node{{Value: 2}, {Value: 3, Next: &node{Value: 4}}}}
	text, err := typetext.ToJSV(in)
	require.NoError(t, err)
	assert.Equal(t, "{Value:1,Children:[{Value:2},{Value:3,Next:{Value:4}}]}", text)

	out, err := typetext.FromJSV[*node](text)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestJSV_QuotingRoundTrip(t *testing.T) {
	in := map[string]string{"a": "x,y", "b": `q"q`, "c": "", "d": " padded "}
	text, err := typetext.ToJSV(in)
	require.NoError(t, err)
	assert.Equal(t, `{a:"x,y",b:"q""q",c:"",d: padded }`, text)

	out, err := typetext.FromJSV[map[string]string](text)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
