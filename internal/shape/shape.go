// Package shape enumerates the wire-visible fields of struct types. Results
// are computed once per type and shared.
package shape

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/samber/lo"
)

const (
	tagJSV  = "jsv"
	tagJSON = "json"
)

// Struct lists the wire-visible fields of a struct type in declaration order.
// Fields of embedded structs are promoted in place.
type Struct struct {
	Type   reflect.Type
	Fields []Field
}

// Field describes one wire-visible field.
type Field struct {
	Name      string // Go field name.
	Key       string // Tag name when tagged, Go name otherwise.
	Index     []int  // Index path for reflect.Value.FieldByIndex.
	Type      reflect.Type
	OmitEmpty bool
	Tagged    bool

	depth int
}

// KeyFor returns the wire key under the given text case. Tag names are used
// verbatim.
func (f Field) KeyFor(c TextCase) string {
	if f.Tagged {
		return f.Key
	}
	return ApplyCase(f.Key, c)
}

var cache sync.Map // map[reflect.Type]*Struct

// ErrNotStruct indicates the provided type is not a struct.
var ErrNotStruct = fmt.Errorf("shape: target is not a struct")

// Of returns the cached field list of t.
func Of(t reflect.Type) (*Struct, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}
	if s, ok := cache.Load(t); ok {
		return s.(*Struct), nil
	}
	s := &Struct{Type: t, Fields: resolve(collect(t, nil, 0))}
	actual, _ := cache.LoadOrStore(t, s)
	return actual.(*Struct), nil
}

func collect(t reflect.Type, prefix []int, depth int) []Field {
	var out []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() && !(sf.Anonymous && sf.Type.Kind() == reflect.Struct) {
			continue
		}
		name, omit, tagged := ResolveKey(sf)
		if name == "-" {
			continue
		}
		index := append(append(make([]int, 0, len(prefix)+1), prefix...), i)
		if sf.Anonymous && !tagged && sf.Type.Kind() == reflect.Struct {
			out = append(out, collect(sf.Type, index, depth+1)...)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		out = append(out, Field{
			Name:      sf.Name,
			Key:       name,
			Index:     index,
			Type:      sf.Type,
			OmitEmpty: omit,
			Tagged:    tagged,
			depth:     depth,
		})
	}
	return out
}

// resolve drops fields shadowed by a shallower field with the same key; at
// equal depth the first declared field wins.
func resolve(fields []Field) []Field {
	shallowest := map[string]int{}
	for _, f := range fields {
		if d, ok := shallowest[f.Key]; !ok || f.depth < d {
			shallowest[f.Key] = f.depth
		}
	}
	visible := lo.Filter(fields, func(f Field, _ int) bool { return f.depth == shallowest[f.Key] })
	return lo.UniqBy(visible, func(f Field) string { return f.Key })
}

// ResolveKey resolves a struct field's wire key.
// Priority: jsv tag name > json tag name > field name; "-" disables the field.
func ResolveKey(sf reflect.StructField) (name string, omitEmpty bool, tagged bool) {
	for _, key := range []string{tagJSV, tagJSON} {
		tag, ok := sf.Tag.Lookup(key)
		if !ok {
			continue
		}
		if tag == "-" {
			return "-", false, true
		}
		n, opts, _ := strings.Cut(tag, ",")
		omitEmpty = lo.Contains(strings.Split(opts, ","), "omitempty")
		if n != "" {
			return n, omitEmpty, true
		}
		return sf.Name, omitEmpty, false
	}
	return sf.Name, false, false
}
