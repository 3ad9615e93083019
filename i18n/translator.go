package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "type" or "text").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_literal":   "cannot read {text} as {type}",
		"invalid_enum":      "{text} is not a known {type} value",
		"missing_map_start": "map start token missing",
		"malformed":         "malformed input",
		"duplicate_key":     "duplicate key {key}",
		"unparsable_shape":  "no parser available for {type}",
		"unsupported_kind":  "unsupported kind {type}",
		"invalid_target":    "target must be a non-nil pointer",
	},
	"ja": {
		"invalid_literal":   "{text} を {type} として読み取れません",
		"invalid_enum":      "{text} は {type} の値ではありません",
		"missing_map_start": "マップの開始記号がありません",
		"malformed":         "入力が壊れています",
		"duplicate_key":     "キー {key} が重複しています",
		"unparsable_shape":  "{type} のパーサーがありません",
		"unsupported_kind":  "{type} はサポートされていません",
		"invalid_target":    "対象は nil でないポインタである必要があります",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
