package typetext

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/reoring/typetext/format"
	"github.com/reoring/typetext/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidLiteral  = "invalid_literal"
	CodeInvalidEnum     = "invalid_enum"
	CodeMissingMapStart = "missing_map_start"
	CodeMalformed       = "malformed"
	CodeDuplicateKey    = "duplicate_key"
	CodeUnparsableShape = "unparsable_shape"
	CodeUnsupportedKind = "unsupported_kind"
	CodeInvalidTarget   = "invalid_target"
)

// Sentinels for resolution-time failures. Match them with errors.Is.
var (
	ErrUnparsableShape = errors.New("typetext: no parser available")
	ErrUnsupportedKind = errors.New("typetext: unsupported kind")
	ErrInvalidTarget   = errors.New("typetext: target must be a non-nil pointer")
)

// Issue represents a single failure while reading a value.
type Issue struct {
	Path    string // JSON Pointer to the offending field (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
	Offset  int   // Byte offset in the scanned text (-1 when unknown).
	// Params carries structured parameters (e.g., {"type":"int", "text":"x"})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of read errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		path := it.Path
		if path == "" {
			path = "/"
		}
		// e.g. invalid_literal at /Id: strconv.ParseInt: parsing "x": invalid syntax
		fmt.Fprintf(b, "%s at %s", it.Code, path)
		if it.Cause != nil {
			fmt.Fprintf(b, ": %v", it.Cause)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the causes so errors.Is reaches sentinels such as
// codec.ErrInvalidDate.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ResolveError reports that no writer or parser could be built for a type.
// It is returned once at resolution time, never per value.
type ResolveError struct {
	Type      reflect.Type
	Format    string
	Direction string
	Err       error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("typetext: resolve %s %s for %v: %v", e.Format, e.Direction, e.Type, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

func newIssue(code string, cause error, params map[string]any) Issues {
	data := make(map[string]string, len(params))
	for k, v := range params {
		data[k] = fmt.Sprint(v)
	}
	return Issues{{Code: code, Message: i18n.T(code, data), Cause: cause, Offset: -1, Params: params}}
}

func invalidLiteral(t reflect.Type, text string, cause error) error {
	return newIssue(CodeInvalidLiteral, errors.WithStack(cause), map[string]any{"type": t.String(), "text": text})
}

// scanIssue converts scanner failures into a malformed issue, keeping the offset.
func scanIssue(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsIssues(err); ok {
		return err
	}
	iss := newIssue(CodeMalformed, err, nil)
	var se *format.SyntaxError
	if errors.As(err, &se) {
		iss[0].Offset = se.Offset
	}
	return iss
}

// atPath prefixes every issue path in err with seg. Errors that are not
// Issues become a single malformed issue first.
func atPath(err error, seg string) error {
	iss, ok := AsIssues(err)
	if !ok {
		iss, _ = AsIssues(scanIssue(err))
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		it.Path = "/" + escapePointer(seg) + it.Path
		out[i] = it
	}
	return out
}

func escapePointer(seg string) string {
	if !strings.ContainsAny(seg, "~/") {
		return seg
	}
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(seg)
}
