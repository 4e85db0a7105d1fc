package types

import (
	"regexp"
	"strconv"
)

// Coerce converts a value to the target type. Only a fixed set of pairs is
// convertible; everything else is an InvalidValue error. The conversions
// mirror what callers can reasonably mean: numeric widening, parsing
// strings into numbers, and moving between the string-shaped types.
func (v TypedValue) Coerce(to DataType) (TypedValue, error) {
	if v.Type == to {
		return v, nil
	}

	switch {
	case v.Type == TypeInt && to == TypeFloat:
		return NewFloat(float64(v.Value.(int64))), nil
	case v.Type == TypeInt && to == TypeSerial:
		// narrowing cast, truncates to 32 bits
		return NewSerial(uint32(v.Value.(int64))), nil
	case v.Type == TypeString && to == TypeChar:
		s := v.Value.(string)
		if len(s) != 1 {
			return TypedValue{}, InvalidValueError(v, to)
		}
		return NewChar(s[0]), nil
	case v.Type == TypeString && to == TypeEmail:
		return NewEmail(v.Value.(string)), nil
	case v.Type == TypeString && to == TypeInt:
		return parseInt(v, v.Value.(string), to)
	case v.Type == TypeString && to == TypeFloat:
		return parseFloat(v, v.Value.(string), to)
	case v.Type == TypeChar && to == TypeString:
		return NewString(string(v.Value.(byte))), nil
	case v.Type == TypeChar && to == TypeInt:
		return parseInt(v, string(v.Value.(byte)), to)
	case v.Type == TypeChar && to == TypeFloat:
		return parseFloat(v, string(v.Value.(byte)), to)
	case v.Type == TypeEmail && to == TypeString:
		return NewString(v.Value.(string)), nil
	case v.Type == TypeSerial && to == TypeInt:
		return NewInt(int64(v.Value.(uint32))), nil
	}

	return TypedValue{}, InvalidValueError(v, to)
}

func parseInt(v TypedValue, s string, to DataType) (TypedValue, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return TypedValue{}, InvalidValueError(v, to)
	}
	return NewInt(i), nil
}

func parseFloat(v TypedValue, s string, to DataType) (TypedValue, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return TypedValue{}, InvalidValueError(v, to)
	}
	return NewFloat(f), nil
}

var email_regex = regexp.MustCompile(`^[\w\-.]+@([\w-]+\.)+[\w\-]{2,4}$`)

// Validate checks type-specific value constraints. Only Email carries one.
func (v TypedValue) Validate() error {
	if v.Type == TypeEmail && !email_regex.MatchString(v.Value.(string)) {
		return InvalidEmailError()
	}
	return nil
}
