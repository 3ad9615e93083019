package typetext

import (
	"encoding"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reoring/typetext/codec"
	"github.com/reoring/typetext/format"
)

var (
	timeType            = typeOf[time.Time]()
	durationType        = typeOf[time.Duration]()
	uuidType            = typeOf[uuid.UUID]()
	decimalType         = typeOf[decimal.Decimal]()
	urlType             = typeOf[url.URL]()
	reflectTypeType     = typeOf[reflect.Type]()
	errorType           = typeOf[error]()
	textMarshalerType   = typeOf[encoding.TextMarshaler]()
	textUnmarshalerType = typeOf[encoding.TextUnmarshaler]()
)

// buildWriter resolves the writer for t. The order of the checks is the
// contract: strings, scalars, special types, text marshalers, containers,
// structs, and finally the format's object writer.
func (d *dispatcher) buildWriter(t reflect.Type) (WriteFunc, error) {
	if es := d.e.enum(t); es != nil {
		return d.enumWriter(es), nil
	}
	if t.Kind() == reflect.String {
		return d.writeString, nil
	}
	if fn := d.scalarWriter(t); fn != nil {
		return fn, nil
	}
	if fn := d.specialWriter(t); fn != nil {
		return fn, nil
	}
	if t.Kind() != reflect.Pointer && implementsText(t, textMarshalerType) {
		return d.textWriter(t), nil
	}
	switch t.Kind() {
	case reflect.Pointer:
		return d.pointerWriter(t)
	case reflect.Slice, reflect.Array:
		return d.listWriter(t)
	case reflect.Map:
		return d.mapWriter(t), nil
	case reflect.Interface:
		return d.writeDynamic, nil
	case reflect.Struct:
		return d.structWriter(t)
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Invalid:
		return nil, errors.Wrapf(ErrUnsupportedKind, "%s", t.Kind())
	}
	return d.writeObject, nil
}

func (d *dispatcher) writeString(w format.Sink, v reflect.Value, _ format.WriteMode) error {
	return d.f.WriteString(w, v.String())
}

func (d *dispatcher) writeObject(w format.Sink, v reflect.Value, _ format.WriteMode) error {
	return d.f.WriteObjectString(w, v.Interface())
}

func (d *dispatcher) enumWriter(es *enumSet) WriteFunc {
	return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
		x := v.Interface()
		name, ok := es.names[x]
		if !ok {
			name = x.(fmt.Stringer).String()
		}
		return d.f.WriteString(w, name)
	}
}

// scalarWriter returns nil when t is not a scalar. Named scalars with a
// text form are left to textWriter.
func (d *dispatcher) scalarWriter(t reflect.Type) WriteFunc {
	switch t {
	case timeType:
		return func(w format.Sink, v reflect.Value, mode format.WriteMode) error {
			tm := v.Interface().(time.Time)
			if d.cfg.DateHandler == codec.DateHandlerLocal {
				tm = tm.In(d.cfg.zone())
			}
			if mode == format.ModeKey && d.cfg.DateHandler.Numeric() {
				return d.f.WriteNumber(w, codec.FormatDate(tm, d.cfg.DateHandler), mode)
			}
			return d.f.WriteTime(w, tm, d.cfg.DateHandler)
		}
	case durationType:
		return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
			return d.f.WriteDuration(w, time.Duration(v.Int()))
		}
	case uuidType:
		return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
			return d.f.WriteGUID(w, v.Interface().(uuid.UUID))
		}
	case decimalType:
		return func(w format.Sink, v reflect.Value, mode format.WriteMode) error {
			return d.f.WriteNumber(w, v.Interface().(decimal.Decimal).String(), mode)
		}
	}
	if implementsText(t, textMarshalerType) {
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return func(w format.Sink, v reflect.Value, mode format.WriteMode) error {
			return d.f.WriteBool(w, v.Bool(), mode)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(w format.Sink, v reflect.Value, mode format.WriteMode) error {
			return d.f.WriteNumber(w, strconv.FormatInt(v.Int(), 10), mode)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(w format.Sink, v reflect.Value, mode format.WriteMode) error {
			return d.f.WriteNumber(w, strconv.FormatUint(v.Uint(), 10), mode)
		}
	case reflect.Float32, reflect.Float64:
		bits := t.Bits()
		return func(w format.Sink, v reflect.Value, mode format.WriteMode) error {
			f := v.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return d.f.WriteString(w, strconv.FormatFloat(f, 'g', -1, bits))
			}
			return d.f.WriteNumber(w, formatFloat(f, bits), mode)
		}
	case reflect.Complex64, reflect.Complex128:
		bits := t.Bits()
		return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
			return d.f.WriteString(w, strconv.FormatComplex(v.Complex(), 'g', -1, bits))
		}
	}
	return nil
}

// formatFloat uses plain notation except for very small or very large
// magnitudes, and the shortest text that reads back to the same value.
func formatFloat(f float64, bits int) string {
	abs := math.Abs(f)
	fmtc := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) ||
			bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			fmtc = 'e'
		}
	}
	return strconv.FormatFloat(f, fmtc, -1, bits)
}

// specialWriter covers URLs, type references and errors, including concrete
// types that implement reflect.Type or error.
func (d *dispatcher) specialWriter(t reflect.Type) WriteFunc {
	switch t {
	case urlType:
		return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
			u := v.Interface().(url.URL)
			return d.f.WriteString(w, u.String())
		}
	case reflectTypeType:
		return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
			if v.IsNil() {
				return d.f.WriteNull(w)
			}
			return d.f.WriteString(w, d.e.typeName(v.Interface().(reflect.Type)))
		}
	case errorType:
		return d.errorWriter
	}
	switch {
	case t.Kind() == reflect.Interface:
	case t.Implements(reflectTypeType):
		return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
			return d.f.WriteString(w, d.e.typeName(v.Interface().(reflect.Type)))
		}
	case t.Implements(errorType) && !implementsText(t, textMarshalerType):
		return d.errorWriter
	}
	return nil
}

func (d *dispatcher) errorWriter(w format.Sink, v reflect.Value, _ format.WriteMode) error {
	if isNil(v) {
		return d.f.WriteNull(w)
	}
	return d.f.WriteString(w, v.Interface().(error).Error())
}

func implementsText(t, iface reflect.Type) bool {
	return t.Implements(iface) || (t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(iface))
}

func (d *dispatcher) textWriter(t reflect.Type) WriteFunc {
	viaPointer := !t.Implements(textMarshalerType)
	return func(w format.Sink, v reflect.Value, _ format.WriteMode) error {
		switch {
		case viaPointer && v.CanAddr():
			v = v.Addr()
		case viaPointer:
			p := reflect.New(t)
			p.Elem().Set(v)
			v = p
		}
		b, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return errors.Wrapf(err, "typetext: marshal %s", t)
		}
		return d.f.WriteString(w, string(b))
	}
}

func (d *dispatcher) pointerWriter(t reflect.Type) (WriteFunc, error) {
	ew, err := d.writer(t.Elem())
	if err != nil {
		return nil, err
	}
	return func(w format.Sink, v reflect.Value, mode format.WriteMode) error {
		if v.IsNil() {
			return d.f.WriteNull(w)
		}
		return ew(w, v.Elem(), mode)
	}, nil
}

// writeDynamic dispatches on the runtime type held by an interface value.
func (d *dispatcher) writeDynamic(w format.Sink, v reflect.Value, mode format.WriteMode) error {
	if v.IsNil() {
		return d.f.WriteNull(w)
	}
	elem := v.Elem()
	fn, err := d.writer(elem.Type())
	if err != nil {
		return err
	}
	return fn(w, elem, mode)
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}
