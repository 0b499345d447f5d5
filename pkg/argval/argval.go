// SPDX-License-Identifier: MPL-2.0

package argval

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Null is the explicit null value. It is distinct from undefined, which is a nil interface.
var Null = null{}

type null struct{}

// String implements fmt.Stringer.
func (null) String() string { return "null" }

// MarshalJSON encodes Null as the JSON null literal.
func (null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// IsUndefined reports whether v is the undefined value.
func IsUndefined(v any) bool {
	return v == nil
}

// IsNull reports whether v is the explicit Null value.
func IsNull(v any) bool {
	_, ok := v.(null)
	return ok
}

// IsNaN reports whether v is a floating-point NaN.
func IsNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	default:
		return false
	}
}

// Sequence returns v as a generic sequence if it is one.
// Both []any and []string are sequences; the returned slice is always a fresh copy.
func Sequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		out := make([]any, len(s))
		copy(out, s)
		return out, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

// IsSequence reports whether v is a sequence value.
func IsSequence(v any) bool {
	switch v.(type) {
	case []any, []string:
		return true
	default:
		return false
	}
}

// IsEmptySequence reports whether v is a sequence with no elements.
func IsEmptySequence(v any) bool {
	switch s := v.(type) {
	case []any:
		return len(s) == 0
	case []string:
		return len(s) == 0
	default:
		return false
	}
}

// Normalize converts every numeric kind to float64 and every []string to []any,
// recursing into sequences and string-keyed maps. Decoders disagree on number
// types; normalized values compare equal regardless of where they came from.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64, null:
		return v
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case []string:
		seq, _ := Sequence(t)
		return seq
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	default:
		return v
	}
}

var equalOpts = cmp.Options{
	cmpopts.EquateNaNs(),
	cmpopts.EquateEmpty(),
	cmp.Exporter(func(reflect.Type) bool { return true }),
}

// Equal reports deep equality of two values after normalization.
// NaN equals NaN, matching the enum semantics of the resolver.
func Equal(a, b any) bool {
	return cmp.Equal(Normalize(a), Normalize(b), equalOpts)
}

// Format renders a value for human-readable messages.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return "undefined"
	case null:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case []string:
		return strings.Join(t, ",")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			if e == nil || IsNull(e) {
				continue
			}
			parts[i] = Format(e)
		}
		return strings.Join(parts, ",")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) >= 1e21:
		return strconv.FormatFloat(f, 'g', -1, 64)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}
