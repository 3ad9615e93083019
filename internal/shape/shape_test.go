package shape

import (
	"reflect"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type audit struct {
	CreatedBy string
	ID        int // shadowed by the outer ID
}

type Base struct {
	Version int `jsv:"v"`
}

type sample struct {
	audit
	Base
	ID      int
	Name    string `json:"name,omitempty"`
	Alias   string `jsv:"alias" json:"ignored"`
	Skipped string `json:"-"`
	hidden  int
	Opts    string `json:",omitempty"`
}

func TestOf_FieldsInDeclarationOrder(t *testing.T) {
	s, err := Of(reflect.TypeOf(sample{}))
	require.NoError(t, err)

	keys := lo.Map(s.Fields, func(f Field, _ int) string { return f.Key })
	assert.Equal(t, []string{"CreatedBy", "v", "ID", "name", "alias", "Opts"}, keys)

	name := s.Fields[3]
	assert.True(t, name.OmitEmpty)
	assert.True(t, name.Tagged)
	assert.Equal(t, []int{3}, name.Index)

	created := s.Fields[0]
	assert.Equal(t, []int{0, 0}, created.Index)

	opts := s.Fields[5]
	assert.True(t, opts.OmitEmpty)
	assert.False(t, opts.Tagged)
}

func TestOf_Cached(t *testing.T) {
	a, err := Of(reflect.TypeOf(sample{}))
	require.NoError(t, err)
	b, err := Of(reflect.TypeOf(sample{}))
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestOf_NotStruct(t *testing.T) {
	_, err := Of(reflect.TypeOf(1))
	assert.ErrorIs(t, err, ErrNotStruct)
}

func TestApplyCase(t *testing.T) {
	cases := []struct {
		in, camel, snake string
	}{
		{"Name", "name", "name"},
		{"UserID", "userID", "user_id"},
		{"URLPath", "urlPath", "url_path"},
		{"ID", "id", "id"},
		{"Http2Port", "http2Port", "http2_port"},
	}
	for _, c := range cases {
		assert.Equal(t, c.camel, ApplyCase(c.in, CaseCamel), c.in)
		assert.Equal(t, c.snake, ApplyCase(c.in, CaseSnake), c.in)
		assert.Equal(t, c.in, ApplyCase(c.in, CaseDefault), c.in)
	}
}

func TestKeyFor_TaggedIsVerbatim(t *testing.T) {
	f := Field{Key: "FooBar", Tagged: true}
	assert.Equal(t, "FooBar", f.KeyFor(CaseSnake))
	f.Tagged = false
	assert.Equal(t, "foo_bar", f.KeyFor(CaseSnake))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Normalize("UserID"), Normalize("user_id"))
	assert.Equal(t, Normalize("UserID"), Normalize("User-Id"))
}
