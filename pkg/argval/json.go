// SPDX-License-Identifier: MPL-2.0

package argval

import (
	"encoding/json"
	"fmt"
	"math"
)

// Exportable converts a resolved value into a form encoding/json can marshal.
// Undefined map entries are dropped, undefined sequence elements and
// non-finite numbers become null. Errors and Stringers (durations, URLs,
// regular expressions) become their text.
func Exportable(v any) any {
	switch t := v.(type) {
	case nil, null:
		return nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return t
	case []string:
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Exportable(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if e == nil {
				continue
			}
			out[k] = Exportable(e)
		}
		return out
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	default:
		return v
	}
}

// ToJSON marshals a value mapping with Exportable semantics and indentation.
func ToJSON(values map[string]any) ([]byte, error) {
	return json.MarshalIndent(Exportable(values), "", "  ")
}
