package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	msg := T("invalid_literal", map[string]string{"text": "x", "type": "int"})
	assert.Equal(t, "cannot read x as int", msg)

	SetLanguage("ja")
	defer SetLanguage("en")
	assert.Equal(t, "x を int として読み取れません", T("invalid_literal", map[string]string{"text": "x", "type": "int"}))
	assert.Equal(t, "マップの開始記号がありません", T("missing_map_start", nil))
}

func TestTranslator_UnknownCodeFallsBack(t *testing.T) {
	assert.Equal(t, "no_such_code", T("no_such_code", nil))
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "E:" + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	assert.Equal(t, "E:malformed", T("malformed", nil))
}
