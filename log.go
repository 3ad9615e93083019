package typetext

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/reoring/typetext/format"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameFormat    = "format"
	FieldNameType      = "type"
)

var fieldModule = zap.String(FieldNameModule, "typetext")

func fieldFormat(f format.Strategy) zap.Field { return zap.String(FieldNameFormat, f.Name()) }

func fieldType(t reflect.Type) zap.Field { return zap.Stringer(FieldNameType, t) }
