package typetext

import (
	"bufio"
	"bytes"
	"io"
	"net/url"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/reoring/typetext/format"
	jsonfmt "github.com/reoring/typetext/format/json"
	"github.com/reoring/typetext/format/jsv"
	"github.com/reoring/typetext/internal/shape"
)

// Marshal writes v in format f.
func (e *Engine) Marshal(f format.Strategy, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.write(&buf, f, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes v in format f to w.
func (e *Engine) Encode(w io.Writer, f format.Strategy, v any) error {
	if s, ok := w.(format.Sink); ok {
		return e.write(s, f, v)
	}
	bw := bufio.NewWriter(w)
	if err := e.write(bw, f, v); err != nil {
		return err
	}
	return bw.Flush()
}

func (e *Engine) write(w format.Sink, f format.Strategy, v any) error {
	if v == nil {
		return f.WriteNull(w)
	}
	rv := reflect.ValueOf(v)
	fn, err := e.WriterFor(rv.Type(), f)
	if err != nil {
		return err
	}
	return fn(w, rv, format.ModeValue)
}

// Unmarshal reads text in format f into the value out points to. On error
// out is left untouched.
func (e *Engine) Unmarshal(f format.Strategy, text string, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return newIssue(CodeInvalidTarget, ErrInvalidTarget, map[string]any{"type": reflect.TypeOf(out)})
	}
	fn, err := e.ParserFor(rv.Type().Elem(), f)
	if err != nil {
		return err
	}
	v, err := fn(text)
	if err != nil {
		return err
	}
	rv.Elem().Set(v)
	return nil
}

// Decode reads all of r and unmarshals it. Input is materialized before
// parsing starts.
func (e *Engine) Decode(r io.Reader, f format.Strategy, out any) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "typetext: read input")
	}
	return e.Unmarshal(f, string(b), out)
}

// ToJSON writes v as JSON with the default engine.
func ToJSON(v any) (string, error) { return marshalString(jsonfmt.Strategy(), v) }

// ToJSV writes v as JSV with the default engine.
func ToJSV(v any) (string, error) { return marshalString(jsv.Strategy(), v) }

func marshalString(f format.Strategy, v any) (string, error) {
	b, err := Default().Marshal(f, v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FromJSON reads JSON text into a T with the default engine.
func FromJSON[T any](text string) (T, error) { return unmarshalAs[T](jsonfmt.Strategy(), text) }

// FromJSV reads JSV text into a T with the default engine.
func FromJSV[T any](text string) (T, error) { return unmarshalAs[T](jsv.Strategy(), text) }

func unmarshalAs[T any](f format.Strategy, text string) (T, error) {
	var res T
	err := Default().Unmarshal(f, text, &res)
	return res, err
}

// ToJSONL writes one JSON document per line.
func ToJSONL[T any](w io.Writer, items []T) error {
	bw := bufio.NewWriter(w)
	e := Default()
	for _, it := range items {
		if err := e.write(bw, jsonfmt.Strategy(), it); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FromJSONL reads one T per non-blank line.
func FromJSONL[T any](r io.Reader) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var out []T
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		v, err := FromJSON[T](text)
		if err != nil {
			return out, errors.Wrapf(err, "typetext: jsonl line %d", line)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return out, errors.Wrap(err, "typetext: read jsonl")
	}
	return out, nil
}

// ToQueryString renders a flat record or map as key=value pairs. Values are
// written as JSV and URL-escaped; nil values are omitted. Struct fields keep
// declaration order and map keys are sorted.
func ToQueryString(v any) (string, error) {
	e := Default()
	d := e.dispatcher(jsv.Strategy())
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", nil
		}
		rv = rv.Elem()
	}

	var b strings.Builder
	add := func(key string, val reflect.Value) error {
		if isNil(val) {
			return nil
		}
		fn, err := d.writer(val.Type())
		if err != nil {
			return err
		}
		var sb strings.Builder
		if err := fn(&sb, val, format.ModeValue); err != nil {
			return err
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(sb.String()))
		return nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		st, err := shape.Of(rv.Type())
		if err != nil {
			return "", err
		}
		for _, f := range st.Fields {
			if err := add(f.KeyFor(e.cfg.TextCase), rv.FieldByIndex(f.Index)); err != nil {
				return "", err
			}
		}
	case reflect.Map:
		keys := rv.MapKeys()
		sortKeys(keys)
		kw, err := d.writer(rv.Type().Key())
		if err != nil {
			return "", err
		}
		for _, k := range keys {
			var kb strings.Builder
			if err := kw(&kb, k, format.ModeKey); err != nil {
				return "", err
			}
			key, err := d.f.ParseString(kb.String())
			if err != nil {
				return "", err
			}
			if err := add(key, rv.MapIndex(k)); err != nil {
				return "", err
			}
		}
	default:
		return "", errors.Wrapf(ErrUnsupportedKind, "query string from %s", rv.Kind())
	}
	return b.String(), nil
}

// Serializer binds an engine to one format.
type Serializer struct {
	e *Engine
	f format.Strategy
}

// NewSerializer returns a Serializer for f. A nil engine means Default().
func NewSerializer(e *Engine, f format.Strategy) *Serializer {
	if e == nil {
		e = Default()
	}
	return &Serializer{e: e, f: f}
}

// Format returns the name of the bound format.
func (s *Serializer) Format() string { return s.f.Name() }

// Strategy returns the bound format.
func (s *Serializer) Strategy() format.Strategy { return s.f }

func (s *Serializer) Serialize(v any) ([]byte, error) { return s.e.Marshal(s.f, v) }

func (s *Serializer) Deserialize(data []byte, out any) error {
	return s.e.Unmarshal(s.f, string(data), out)
}
