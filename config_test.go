package typetext_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/typetext"
	"github.com/reoring/typetext/codec"
)

func TestParseConfigString(t *testing.T) {
	cfg, err := typetext.ParseConfigString(typetext.DefaultConfig(), "tc:camelcase, inv, dh:unix, dk:warn, pc:lenient, smk:false, sms")
	require.NoError(t, err)
	assert.Equal(t, typetext.TextCaseCamel, cfg.TextCase)
	assert.True(t, cfg.IncludeNullValues)
	assert.Equal(t, codec.DateHandlerUnixTime, cfg.DateHandler)
	assert.Equal(t, typetext.Warn, cfg.DuplicateKeys)
	assert.True(t, cfg.LenientProperties)
	assert.False(t, cfg.SortMapKeys)
	assert.True(t, cfg.StrictMapStart)
	assert.True(t, cfg.AssumeUTC)
}

func TestParseConfigString_Errors(t *testing.T) {
	base := typetext.DefaultConfig()
	for _, scope := range []string{"nope", "tc:kebab", "inv:maybe", "dh:never", "dk:loud"} {
		cfg, err := typetext.ParseConfigString(base, scope)
		assert.Error(t, err, scope)
		assert.Equal(t, base, cfg, scope)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := typetext.LoadConfig(strings.NewReader(`
textCase: snakecase
dateHandler: iso8601
assumeUtc: false
excludeDefaultValues: true
duplicateKeys: error
`))
	require.NoError(t, err)
	assert.Equal(t, typetext.TextCaseSnake, cfg.TextCase)
	assert.Equal(t, codec.DateHandlerISO8601, cfg.DateHandler)
	assert.False(t, cfg.AssumeUTC)
	assert.True(t, cfg.ExcludeDefaultValues)
	assert.Equal(t, typetext.Error, cfg.DuplicateKeys)
	assert.True(t, cfg.SortMapKeys)

	cfg, err = typetext.LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, typetext.DefaultConfig(), cfg)

	_, err = typetext.LoadConfig(strings.NewReader("bogus: 1\n"))
	assert.Error(t, err)
}
