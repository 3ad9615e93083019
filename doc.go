// Package typetext provides type-directed text serialization in two formats:
//
// - JSON, and JSV (JSON's delimiters with bare strings and significant whitespace)
// - Writers and parsers resolved once per (type, format, direction) and cached
// - A stable error model via Issues (JSON Pointer path, code, message)
// - A date/time codec that reads and writes the /Date(ms[+-hhmm])/ wire form
//
// Design policy:
// - Keep only public APIs in the root package; formats live under format/, the
// date codec under codec/ and struct introspection under internal/shape.
// - Formats are pluggable through format.Strategy and format.Register.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s, err := typetext.ToJSV(order)
//	o, err := typetext.FromJSV[Order](s)
//
//	eng := typetext.New(typetext.WithTextCase(typetext.TextCaseCamel))
//	b, err := eng.Marshal(json.Strategy(), order)
//	err = eng.Unmarshal(json.Strategy(), string(b), &o)
package typetext
