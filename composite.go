package typetext

import (
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/reoring/typetext/format"
	"github.com/reoring/typetext/internal/shape"
)

type fieldWriter struct {
	index     []int
	prefix    string // rendered key plus separator
	fn        WriteFunc
	nilable   bool
	omitEmpty bool
}

// structWriter writes fields in declaration order. Nil fields are omitted
// unless IncludeNullValues is set. Fields whose type has no writer are left
// out of the descriptor.
func (d *dispatcher) structWriter(t reflect.Type) (WriteFunc, error) {
	st, err := shape.Of(t)
	if err != nil {
		return nil, err
	}
	fields := make([]fieldWriter, 0, len(st.Fields))
	for _, f := range st.Fields {
		fn, err := d.writer(f.Type)
		if err != nil {
			if errors.Is(err, ErrUnsupportedKind) {
				d.log.Debug("field skipped", fieldType(t), zap.String("field", f.Name), zap.Error(err))
				continue
			}
			return nil, err
		}
		var key strings.Builder
		if err := d.f.WriteString(&key, f.KeyFor(d.cfg.TextCase)); err != nil {
			return nil, err
		}
		key.WriteByte(format.KeySeparator)
		fields = append(fields, fieldWriter{
			index:     f.Index,
			prefix:    key.String(),
			fn:        fn,
			nilable:   nilable(f.Type),
			omitEmpty: f.OmitEmpty || d.cfg.ExcludeDefaultValues,
		})
	}

	return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
		if err := w.WriteByte(format.MapStart); err != nil {
			return err
		}
		first := true
		for i := range fields {
			fw := &fields[i]
			fv := v.FieldByIndex(fw.index)
			null := fw.nilable && fv.IsNil()
			if null && !d.cfg.IncludeNullValues {
				continue
			}
			if !null && fw.omitEmpty && fv.IsZero() {
				continue
			}
			if !first {
				if err := w.WriteByte(format.ItemSep); err != nil {
					return err
				}
			}
			first = false
			if _, err := w.WriteString(fw.prefix); err != nil {
				return err
			}
			if null {
				if err := d.f.WriteNull(w); err != nil {
					return err
				}
				continue
			}
			if err := fw.fn(w, fv, format.ModeValue); err != nil {
				return err
			}
		}
		return w.WriteByte(format.MapEnd)
	}, nil
}

type fieldParser struct {
	index []int
	fn    ParseFunc
}

// structParser builds the key lookup once. Keys match exactly first, then
// case-insensitively, then (with LenientProperties) ignoring '-' and '_'.
// Unknown keys are skipped and a failing field aborts the whole record.
func (d *dispatcher) structParser(t reflect.Type) (ParseFunc, error) {
	st, err := shape.Of(t)
	if err != nil {
		return nil, err
	}
	exact := make(map[string]*fieldParser, len(st.Fields))
	folded := make(map[string]*fieldParser, len(st.Fields))
	lenient := map[string]*fieldParser{}
	for _, f := range st.Fields {
		fn, err := d.parser(f.Type)
		if err != nil {
			if errors.Is(err, ErrUnsupportedKind) || errors.Is(err, ErrUnparsableShape) {
				d.log.Debug("field not readable", fieldType(t), zap.String("field", f.Name), zap.Error(err))
				continue
			}
			return nil, err
		}
		fp := &fieldParser{index: f.Index, fn: fn}
		for _, key := range []string{f.KeyFor(d.cfg.TextCase), f.Key} {
			if _, ok := exact[key]; !ok {
				exact[key] = fp
			}
			if _, ok := folded[strings.ToLower(key)]; !ok {
				folded[strings.ToLower(key)] = fp
			}
			if d.cfg.LenientProperties {
				if _, ok := lenient[shape.Normalize(key)]; !ok {
					lenient[shape.Normalize(key)] = fp
				}
			}
		}
	}
	lookup := func(key string) *fieldParser {
		if fp, ok := exact[key]; ok {
			return fp
		}
		if fp, ok := folded[strings.ToLower(key)]; ok {
			return fp
		}
		if d.cfg.LenientProperties {
			return lenient[shape.Normalize(key)]
		}
		return nil
	}

	return func(text string) (reflect.Value, error) {
		if d.isBlank(text) {
			return reflect.Zero(t), nil
		}
		out := reflect.New(t).Elem()
		err := d.eachEntry(text, func(key, raw string) error {
			fp := lookup(key)
			if fp == nil || raw == "" {
				return nil
			}
			v, err := fp.fn(raw)
			if err != nil {
				return atPath(err, key)
			}
			out.FieldByIndex(fp.index).Set(v)
			return nil
		})
		if err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	}, nil
}
