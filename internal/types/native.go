package types

import (
	"encoding/json"
	"fmt"
)

// FromNative builds a TypedValue from a plain Go value, as produced by a
// json.Decoder with UseNumber. Integral numbers become Int, everything
// else numeric becomes Float, strings stay String. Char, Email and Serial
// never appear here; the coercion layer produces them from the declared
// column types.
func FromNative(v any) (TypedValue, error) {
	switch v := v.(type) {
	case TypedValue:
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return NewInt(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return TypedValue{}, InvalidOperationError(fmt.Sprintf("unsupported number %q", v.String()))
		}
		return NewFloat(f), nil
	case int:
		return NewInt(int64(v)), nil
	case int64:
		return NewInt(v), nil
	case float64:
		return NewFloat(v), nil
	case string:
		return NewString(v), nil
	}
	return TypedValue{}, InvalidOperationError(fmt.Sprintf("unsupported value type %T", v))
}

// ColumnSetFromNative converts a decoded JSON object into a ColumnSet.
func ColumnSetFromNative(m map[string]any) (ColumnSet, error) {
	set := ColumnSet{}
	for k, v := range m {
		value, err := FromNative(v)
		if err != nil {
			return nil, err
		}
		set[k] = value
	}
	return set, nil
}

// NativeRows converts result rows into JSON-encodable maps.
func NativeRows(rows []ColumnSet) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]any, len(row))
		for k, v := range row {
			m[k] = v.Native()
		}
		out = append(out, m)
	}
	return out
}
