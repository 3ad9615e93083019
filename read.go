package typetext

import (
	"encoding"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reoring/typetext/codec"
	"github.com/reoring/typetext/format"
)

// buildParser resolves the parser for t: enums, registered parsers, strings,
// untyped values, special types, text unmarshalers, containers, scalars,
// structs. A type matching none of these is unparsable.
func (d *dispatcher) buildParser(t reflect.Type) (ParseFunc, error) {
	if es := d.e.enum(t); es != nil {
		return d.enumParser(t, es), nil
	}
	if fn := d.e.factory(t); fn != nil {
		return d.factoryParser(t, fn), nil
	}
	if t.Kind() == reflect.String {
		return d.stringParser(t), nil
	}
	if fn := d.specialParser(t); fn != nil {
		return fn, nil
	}
	if t.Kind() == reflect.Interface {
		if t.NumMethod() == 0 {
			return d.anyParser(t), nil
		}
		return nil, errors.Wrapf(ErrUnparsableShape, "interface %s", t)
	}
	if t.Kind() != reflect.Pointer && implementsText(t, textUnmarshalerType) && implementsText(t, textMarshalerType) {
		return d.textParser(t), nil
	}
	switch t.Kind() {
	case reflect.Pointer:
		return d.pointerParser(t)
	case reflect.Slice, reflect.Array:
		return d.listParser(t)
	case reflect.Map:
		return d.mapParser(t)
	case reflect.Struct:
		return d.structParser(t)
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Invalid:
		return nil, errors.Wrapf(ErrUnsupportedKind, "%s", t.Kind())
	}
	if fn := d.scalarParser(t); fn != nil {
		return fn, nil
	}
	if implementsText(t, textUnmarshalerType) {
		return d.textParser(t), nil
	}
	return nil, errors.Wrapf(ErrUnparsableShape, "%s", t)
}

// scalarText unquotes a raw span into the text the scalar table reads.
func (d *dispatcher) scalarText(raw string) (string, error) {
	s, err := d.f.ParseString(d.trim(raw))
	if err != nil {
		return "", scanIssue(err)
	}
	return s, nil
}

func (d *dispatcher) enumParser(t reflect.Type, es *enumSet) ParseFunc {
	return func(text string) (reflect.Value, error) {
		if d.isBlank(text) {
			return reflect.Zero(t), nil
		}
		s, err := d.scalarText(text)
		if err != nil {
			return reflect.Value{}, err
		}
		if v, ok := es.byName[s]; ok {
			return v, nil
		}
		return reflect.Value{}, newIssue(CodeInvalidEnum, nil, map[string]any{"type": t.String(), "text": s})
	}
}

func (d *dispatcher) factoryParser(t reflect.Type, fn func(string) (reflect.Value, error)) ParseFunc {
	return func(text string) (reflect.Value, error) {
		s, err := d.scalarText(text)
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := fn(s)
		if err != nil {
			if _, ok := AsIssues(err); ok {
				return reflect.Value{}, err
			}
			return reflect.Value{}, invalidLiteral(t, s, err)
		}
		return v, nil
	}
}

func (d *dispatcher) stringParser(t reflect.Type) ParseFunc {
	return func(text string) (reflect.Value, error) {
		s, err := d.f.ParseString(text)
		if err != nil {
			return reflect.Value{}, scanIssue(err)
		}
		return reflect.ValueOf(s).Convert(t), nil
	}
}

// anyParser returns raw spans, unquoting strings, unless ObjectsAsMaps asks
// for a dynamic tree.
func (d *dispatcher) anyParser(t reflect.Type) ParseFunc {
	return func(text string) (reflect.Value, error) {
		var x any
		if d.cfg.ObjectsAsMaps {
			v, err := d.parseDynamic(text)
			if err != nil {
				return reflect.Value{}, err
			}
			x = v
		} else if !d.isBlank(text) {
			raw := d.trim(text)
			x = raw
			if raw[0] == format.Quote {
				s, err := d.f.ParseString(raw)
				if err != nil {
					return reflect.Value{}, scanIssue(err)
				}
				x = s
			}
		}
		out := reflect.New(t).Elem()
		if x != nil {
			out.Set(reflect.ValueOf(x))
		}
		return out, nil
	}
}

// specialParser covers the scalar types with a dedicated text form.
func (d *dispatcher) specialParser(t reflect.Type) ParseFunc {
	var conv func(s string) (any, error)
	switch t {
	case timeType:
		conv = d.parseTime
	case durationType:
		conv = func(s string) (any, error) { return codec.ParseDuration(s) }
	case uuidType:
		conv = func(s string) (any, error) { return uuid.Parse(s) }
	case decimalType:
		conv = func(s string) (any, error) { return decimal.NewFromString(s) }
	case urlType:
		conv = func(s string) (any, error) {
			u, err := url.Parse(s)
			if err != nil {
				return nil, err
			}
			return *u, nil
		}
	case reflectTypeType:
		conv = func(s string) (any, error) {
			rt, ok := d.e.lookupType(s)
			if !ok {
				return nil, errors.Newf("unknown type name %q", s)
			}
			return rt, nil
		}
	case errorType:
		conv = func(s string) (any, error) { return errors.New(s), nil }
	default:
		return nil
	}
	return func(text string) (reflect.Value, error) {
		if d.isBlank(text) {
			return reflect.Zero(t), nil
		}
		s, err := d.scalarText(text)
		if err != nil {
			return reflect.Value{}, err
		}
		if s == "" {
			return reflect.Zero(t), nil
		}
		x, err := conv(s)
		if err != nil {
			return reflect.Value{}, invalidLiteral(t, s, err)
		}
		out := reflect.New(t).Elem()
		out.Set(reflect.ValueOf(x))
		return out, nil
	}
}

// parseTime reads bare numbers as epoch values when the handler writes
// numbers, and everything else through the date codec.
func (d *dispatcher) parseTime(s string) (any, error) {
	if h := d.cfg.DateHandler; h.Numeric() && isInteger(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		if h == codec.DateHandlerUnixTimeMs {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return codec.ParseDateIn(s, d.cfg.zone())
}

func isInteger(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (d *dispatcher) textParser(t reflect.Type) ParseFunc {
	return func(text string) (reflect.Value, error) {
		if d.isBlank(text) {
			return reflect.Zero(t), nil
		}
		s, err := d.scalarText(text)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, invalidLiteral(t, s, err)
		}
		return p.Elem(), nil
	}
}

func (d *dispatcher) pointerParser(t reflect.Type) (ParseFunc, error) {
	ep, err := d.parser(t.Elem())
	if err != nil {
		return nil, err
	}
	return func(text string) (reflect.Value, error) {
		if d.isBlank(text) {
			return reflect.Zero(t), nil
		}
		v, err := ep(text)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, nil
	}, nil
}

// scalarParser returns nil when t is not a builtin scalar kind.
func (d *dispatcher) scalarParser(t reflect.Type) ParseFunc {
	var conv func(s string, out reflect.Value) error
	switch t.Kind() {
	case reflect.Bool:
		conv = func(s string, out reflect.Value) error {
			b, err := strconv.ParseBool(s)
			out.SetBool(b)
			return err
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		conv = func(s string, out reflect.Value) error {
			n, err := strconv.ParseInt(s, 10, t.Bits())
			out.SetInt(n)
			return err
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		conv = func(s string, out reflect.Value) error {
			n, err := strconv.ParseUint(s, 10, t.Bits())
			out.SetUint(n)
			return err
		}
	case reflect.Float32, reflect.Float64:
		conv = func(s string, out reflect.Value) error {
			f, err := strconv.ParseFloat(s, t.Bits())
			out.SetFloat(f)
			return err
		}
	case reflect.Complex64, reflect.Complex128:
		conv = func(s string, out reflect.Value) error {
			c, err := strconv.ParseComplex(s, t.Bits())
			out.SetComplex(c)
			return err
		}
	default:
		return nil
	}
	return func(text string) (reflect.Value, error) {
		out := reflect.New(t).Elem()
		if d.isBlank(text) {
			return out, nil
		}
		s, err := d.scalarText(text)
		if err != nil {
			return reflect.Value{}, err
		}
		if s == "" {
			return out, nil
		}
		if err := conv(s, out); err != nil {
			return reflect.Value{}, invalidLiteral(t, s, err)
		}
		return out, nil
	}
}
