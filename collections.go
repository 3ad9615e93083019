package typetext

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/reoring/typetext/format"
)

func (d *dispatcher) isByteList(t reflect.Type) bool {
	elem := t.Elem()
	return elem.Kind() == reflect.Uint8 && d.e.enum(elem) == nil && !implementsText(elem, textMarshalerType)
}

func (d *dispatcher) listWriter(t reflect.Type) (WriteFunc, error) {
	isSlice := t.Kind() == reflect.Slice
	elem := t.Elem()

	if d.isByteList(t) {
		return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
			if isSlice && v.IsNil() {
				return d.f.WriteNull(w)
			}
			return d.f.WriteBytes(w, bytesOf(v))
		}, nil
	}

	if elem.Kind() == reflect.String && d.e.enum(elem) == nil {
		return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
			if isSlice && v.IsNil() {
				return d.f.WriteNull(w)
			}
			if err := w.WriteByte(format.ListStart); err != nil {
				return err
			}
			for i := 0; i < v.Len(); i++ {
				if i > 0 {
					if err := w.WriteByte(format.ItemSep); err != nil {
						return err
					}
				}
				if err := d.f.WriteString(w, v.Index(i).String()); err != nil {
					return err
				}
			}
			return w.WriteByte(format.ListEnd)
		}, nil
	}

	ew, err := d.writer(elem)
	if err != nil {
		return nil, err
	}
	elemNilable := nilable(elem)
	return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
		if isSlice && v.IsNil() {
			return d.f.WriteNull(w)
		}
		if err := w.WriteByte(format.ListStart); err != nil {
			return err
		}
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				if err := w.WriteByte(format.ItemSep); err != nil {
					return err
				}
			}
			ev := v.Index(i)
			if elemNilable && ev.IsNil() {
				if err := d.f.WriteNull(w); err != nil {
					return err
				}
				continue
			}
			if err := ew(w, ev, format.ModeValue); err != nil {
				return err
			}
		}
		return w.WriteByte(format.ListEnd)
	}, nil
}

func bytesOf(v reflect.Value) []byte {
	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}

// mapWriter resolves key and value writers on first use.
func (d *dispatcher) mapWriter(t reflect.Type) WriteFunc {
	var (
		once   sync.Once
		kw, vw WriteFunc
		rerr   error
	)
	resolve := func() error {
		once.Do(func() {
			if kw, rerr = d.writer(t.Key()); rerr == nil {
				vw, rerr = d.writer(t.Elem())
			}
		})
		return rerr
	}
	return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
		if v.IsNil() {
			return d.f.WriteNull(w)
		}
		if err := resolve(); err != nil {
			return err
		}
		keys := v.MapKeys()
		if d.cfg.SortMapKeys {
			sortKeys(keys)
		}
		if err := w.WriteByte(format.MapStart); err != nil {
			return err
		}
		first := true
		for _, k := range keys {
			mv := v.MapIndex(k)
			null := isNil(mv)
			if null && !d.cfg.IncludeNullValuesInMaps {
				continue
			}
			if !first {
				if err := w.WriteByte(format.ItemSep); err != nil {
					return err
				}
			}
			first = false
			if err := kw(w, k, format.ModeKey); err != nil {
				return err
			}
			if err := w.WriteByte(format.KeySeparator); err != nil {
				return err
			}
			if null {
				if err := d.f.WriteNull(w); err != nil {
					return err
				}
				continue
			}
			if err := vw(w, mv, format.ModeValue); err != nil {
				return err
			}
		}
		return w.WriteByte(format.MapEnd)
	}
}

func sortKeys(keys []reflect.Value) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch a.Kind() {
		case reflect.String:
			return a.String() < b.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return a.Uint() < b.Uint()
		case reflect.Float32, reflect.Float64:
			return a.Float() < b.Float()
		case reflect.Bool:
			return !a.Bool() && b.Bool()
		}
		return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
	})
}

// isBlank reports text that carries no value: nothing, insignificant
// whitespace or the format's null literal.
func (d *dispatcher) isBlank(text string) bool {
	i := 0
	raw, err := d.f.ConsumeValue(text, &i)
	return err == nil && raw == ""
}

// trim drops the whitespace the format treats as insignificant on both ends.
func (d *dispatcher) trim(text string) string {
	i := 0
	d.f.ConsumeWhitespace(text, &i)
	text = text[i:]
	for n := len(text); n > 0; n = len(text) {
		j := n - 1
		d.f.ConsumeWhitespace(text, &j)
		if j == n-1 {
			break
		}
		text = text[:n-1]
	}
	return text
}

func (d *dispatcher) isLiteral(text, lit string) bool {
	i := 0
	d.f.ConsumeWhitespace(text, &i)
	if !strings.HasPrefix(text[i:], lit) {
		return false
	}
	i += len(lit)
	d.f.ConsumeWhitespace(text, &i)
	return i == len(text)
}

// splitList returns the raw element spans of a list. Text without list
// delimiters is read as bare comma-separated content. A null element comes
// back as an empty span. Elements not separated by ',' are malformed.
func (d *dispatcher) splitList(text string) ([]string, error) {
	i := 0
	d.f.ConsumeWhitespace(text, &i)
	content, base := text[i:], i
	if strings.HasPrefix(content, "[") {
		span, err := d.f.ConsumeValue(text, &i)
		if err != nil {
			return nil, scanIssue(err)
		}
		if err := trailing(text, i, "list"); err != nil {
			return nil, err
		}
		content, base = span[1:len(span)-1], base+1
	}

	items := []string{}
	j := 0
	d.f.ConsumeWhitespace(content, &j)
	if j >= len(content) {
		return items, nil
	}
	for {
		raw, err := d.f.ConsumeValue(content, &j)
		if err != nil {
			return nil, scanIssue(err)
		}
		items = append(items, raw)
		d.f.ConsumeWhitespace(content, &j)
		at := j
		if d.f.ConsumeItemSeparatorOrMapEnd(content, &j) {
			continue
		}
		if at < len(content) {
			return nil, scanIssue(&format.SyntaxError{Offset: base + at, Msg: "expected ',' between list items"})
		}
		return items, nil
	}
}

// trailing rejects anything but line whitespace after a closed map or list.
func trailing(text string, i int, what string) error {
	if strings.TrimLeft(text[i:], " \t\r\n") != "" {
		return scanIssue(&format.SyntaxError{Offset: i, Msg: "unexpected text after " + what})
	}
	return nil
}

func (d *dispatcher) listParser(t reflect.Type) (ParseFunc, error) {
	if d.isByteList(t) {
		return d.bytesParser(t), nil
	}
	elem := t.Elem()
	ep, err := d.parser(elem)
	if err != nil {
		return nil, err
	}
	if elem.Kind() == reflect.String && d.e.enum(elem) == nil && d.e.factory(elem) == nil {
		ep = func(raw string) (reflect.Value, error) {
			s, err := d.f.ParseString(raw)
			if err != nil {
				return reflect.Value{}, scanIssue(err)
			}
			return reflect.ValueOf(s).Convert(elem), nil
		}
	}
	return func(text string) (reflect.Value, error) {
		if d.isBlank(text) {
			return reflect.Zero(t), nil
		}
		items, err := d.splitList(text)
		if err != nil {
			return reflect.Value{}, err
		}
		var out reflect.Value
		if t.Kind() == reflect.Array {
			out = reflect.New(t).Elem()
		} else {
			out = reflect.MakeSlice(t, len(items), len(items))
		}
		for idx, raw := range items {
			if idx >= out.Len() {
				break
			}
			if raw == "" {
				continue
			}
			ev, err := ep(raw)
			if err != nil {
				return reflect.Value{}, atPath(err, strconv.Itoa(idx))
			}
			out.Index(idx).Set(ev)
		}
		return out, nil
	}, nil
}

func (d *dispatcher) bytesParser(t reflect.Type) ParseFunc {
	return func(text string) (reflect.Value, error) {
		if d.isBlank(text) {
			return reflect.Zero(t), nil
		}
		s, err := d.scalarText(text)
		if err != nil || s == "" {
			return reflect.Zero(t), err
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			if b, err = base64.RawStdEncoding.DecodeString(s); err != nil {
				return reflect.Value{}, invalidLiteral(t, s, err)
			}
		}
		out := reflect.New(t).Elem()
		if t.Kind() == reflect.Slice {
			out.Set(reflect.MakeSlice(t, len(b), len(b)))
		}
		for i := 0; i < len(b) && i < out.Len(); i++ {
			out.Index(i).SetUint(uint64(b[i]))
		}
		return out, nil
	}
}

// eachEntry walks the key/value pairs of a map literal. A missing map-open
// token is an error in strict mode and a logged warning otherwise.
func (d *dispatcher) eachEntry(text string, fn func(key, raw string) error) error {
	i := 0
	opened := d.f.ConsumeMapStart(text, &i)
	if !opened {
		if d.cfg.StrictMapStart {
			iss := newIssue(CodeMissingMapStart, nil, nil)
			iss[0].Offset = i
			return iss
		}
		d.log.Warn("map start token missing, reading from cursor", zap.Int("offset", i))
	}
	var seen map[string]struct{}
	if d.cfg.DuplicateKeys != Ignore {
		seen = map[string]struct{}{}
	}
	for {
		d.f.ConsumeWhitespace(text, &i)
		if i >= len(text) {
			return mapEnd(text, i, opened, false)
		}
		if text[i] == format.MapEnd {
			return mapEnd(text, i+1, opened, true)
		}
		key, err := d.f.ConsumeMapKey(text, &i)
		if err != nil {
			return scanIssue(err)
		}
		if !d.f.ConsumeMapKeySeparator(text, &i) {
			return scanIssue(&format.SyntaxError{Offset: i, Msg: fmt.Sprintf("expected ':' after key %q", key)})
		}
		raw, err := d.f.ConsumeValue(text, &i)
		if err != nil {
			return scanIssue(err)
		}
		if seen != nil {
			if _, dup := seen[key]; dup {
				if d.cfg.DuplicateKeys == Error {
					return atPath(newIssue(CodeDuplicateKey, nil, map[string]any{"key": key}), key)
				}
				d.log.Warn("duplicate key, last value wins", zap.String("key", key))
			}
			seen[key] = struct{}{}
		}
		if err := fn(key, raw); err != nil {
			return err
		}
		d.f.ConsumeWhitespace(text, &i)
		at := i
		if d.f.ConsumeItemSeparatorOrMapEnd(text, &i) {
			continue
		}
		switch {
		case at < len(text) && text[at] == format.MapEnd:
			return mapEnd(text, at+1, opened, true)
		case at < len(text):
			return scanIssue(&format.SyntaxError{Offset: at, Msg: "expected ',' or '}' after value"})
		}
		return mapEnd(text, at, opened, false)
	}
}

// mapEnd checks the end of a map literal: an opened map must be closed and
// nothing may follow the closing token.
func mapEnd(text string, i int, opened, closed bool) error {
	if !closed {
		if opened {
			return scanIssue(&format.SyntaxError{Offset: i, Msg: "unterminated map"})
		}
		return nil
	}
	return trailing(text, i, "map")
}

func (d *dispatcher) mapParser(t reflect.Type) (ParseFunc, error) {
	kt, vt := t.Key(), t.Elem()
	kp, err := d.parser(kt)
	if err != nil {
		return nil, err
	}
	if kt.Kind() == reflect.String && d.e.enum(kt) == nil && d.e.factory(kt) == nil {
		kp = func(key string) (reflect.Value, error) { return reflect.ValueOf(key).Convert(kt), nil }
	}
	vp, err := d.parser(vt)
	if err != nil {
		return nil, err
	}
	return func(text string) (reflect.Value, error) {
		if d.isBlank(text) {
			return reflect.Zero(t), nil
		}
		m := reflect.MakeMap(t)
		if d.isLiteral(text, format.EmptyMap) {
			return m, nil
		}
		err := d.eachEntry(text, func(key, raw string) error {
			kv, err := kp(key)
			if err != nil {
				return atPath(err, key)
			}
			vv := reflect.Zero(vt)
			if raw != "" {
				if vv, err = vp(raw); err != nil {
					return atPath(err, key)
				}
			}
			m.SetMapIndex(kv, vv)
			return nil
		})
		if err != nil {
			return reflect.Value{}, err
		}
		return m, nil
	}, nil
}

// parseDynamic reads untyped text into map[string]any, []any, bool, int64,
// float64 or string. Empty text is nil.
func (d *dispatcher) parseDynamic(text string) (any, error) {
	if d.isBlank(text) {
		return nil, nil
	}
	text = d.trim(text)
	switch text[0] {
	case format.MapStart:
		m := map[string]any{}
		err := d.eachEntry(text, func(key, raw string) error {
			x, err := d.parseDynamic(raw)
			if err != nil {
				return atPath(err, key)
			}
			m[key] = x
			return nil
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case format.ListStart:
		items, err := d.splitList(text)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for idx, raw := range items {
			x, err := d.parseDynamic(raw)
			if err != nil {
				return nil, atPath(err, strconv.Itoa(idx))
			}
			out[idx] = x
		}
		return out, nil
	case format.Quote:
		s, err := d.f.ParseString(text)
		if err != nil {
			return nil, scanIssue(err)
		}
		return s, nil
	}
	lit := text
	switch lit {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return n, nil
	}
	if looksNumeric(lit) {
		if f, err := strconv.ParseFloat(lit, 64); err == nil {
			return f, nil
		}
	}
	return lit, nil
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if c == '-' || c == '+' {
		if len(s) == 1 {
			return false
		}
		c = s[1]
	}
	return c >= '0' && c <= '9' || c == '.'
}
