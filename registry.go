package typetext

import (
	"fmt"
	"reflect"
)

type enumSet struct {
	byName map[string]reflect.Value
	names  map[any]string
}

// RegisterEnum declares T as an enumeration whose wire form is the String()
// of each value. Reading matches names case-sensitively; any other text is
// an invalid_enum issue.
func RegisterEnum[T interface {
	comparable
	fmt.Stringer
}](e *Engine, values ...T) {
	es := &enumSet{byName: make(map[string]reflect.Value, len(values)), names: make(map[any]string, len(values))}
	for _, v := range values {
		name := v.String()
		es.byName[name] = reflect.ValueOf(v)
		es.names[v] = name
	}
	e.enums.Store(typeOf[T](), es)
}

// RegisterParser installs fn as the reader of T's text form. It takes
// precedence over every built-in parser for T.
func RegisterParser[T any](e *Engine, fn func(string) (T, error)) {
	e.factories.Store(typeOf[T](), func(s string) (reflect.Value, error) {
		v, err := fn(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(&v).Elem(), nil
	})
}

// RegisterType makes t readable from name wherever a reflect.Type value is
// expected.
func (e *Engine) RegisterType(name string, t reflect.Type) {
	e.typeNames.Store(name, t)
}

func (e *Engine) enum(t reflect.Type) *enumSet {
	if es, ok := e.enums.Load(t); ok {
		return es.(*enumSet)
	}
	return nil
}

func (e *Engine) factory(t reflect.Type) func(string) (reflect.Value, error) {
	if f, ok := e.factories.Load(t); ok {
		return f.(func(string) (reflect.Value, error))
	}
	return nil
}

// typeName is the wire name of t: a registered name when there is one,
// t.String() otherwise.
func (e *Engine) typeName(t reflect.Type) string {
	name := t.String()
	e.typeNames.Range(func(k, v any) bool {
		if v.(reflect.Type) == t {
			name = k.(string)
			return false
		}
		return true
	})
	return name
}

func (e *Engine) lookupType(name string) (reflect.Type, bool) {
	if t, ok := e.typeNames.Load(name); ok {
		return t.(reflect.Type), true
	}
	if t, ok := builtinTypes[name]; ok {
		return t, true
	}
	return nil, false
}

var builtinTypes = map[string]reflect.Type{
	"bool":    reflect.TypeOf(false),
	"string":  reflect.TypeOf(""),
	"int":     reflect.TypeOf(0),
	"int8":    reflect.TypeOf(int8(0)),
	"int16":   reflect.TypeOf(int16(0)),
	"int32":   reflect.TypeOf(int32(0)),
	"int64":   reflect.TypeOf(int64(0)),
	"uint":    reflect.TypeOf(uint(0)),
	"uint8":   reflect.TypeOf(uint8(0)),
	"uint16":  reflect.TypeOf(uint16(0)),
	"uint32":  reflect.TypeOf(uint32(0)),
	"uint64":  reflect.TypeOf(uint64(0)),
	"float32": reflect.TypeOf(float32(0)),
	"float64": reflect.TypeOf(float64(0)),
}

func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }
