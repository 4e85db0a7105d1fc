package types

import (
	"fmt"
	"strconv"
)

// DataType is the closed set of column types the engine stores.
type DataType int

const (
	TypeInt DataType = iota
	TypeFloat
	TypeChar
	TypeString
	TypeSerial
	TypeEmail
)

func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeChar:
		return "char"
	case TypeString:
		return "string"
	case TypeSerial:
		return "serial"
	case TypeEmail:
		return "email"
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

func ParseDataType(s string) (DataType, error) {
	switch s {
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "char":
		return TypeChar, nil
	case "string":
		return TypeString, nil
	case "serial":
		return TypeSerial, nil
	case "email":
		return TypeEmail, nil
	}
	return 0, InvalidDataTypeError(s)
}

// TypedValue is a tagged value. The payload type is fixed by the tag:
// Int int64, Float float64, Char byte, String string, Serial uint32,
// Email string. All payloads are comparable, so TypedValue equality is
// plain struct equality.
type TypedValue struct {
	Type  DataType
	Value any
}

func NewInt(i int64) TypedValue     { return TypedValue{TypeInt, i} }
func NewFloat(f float64) TypedValue { return TypedValue{TypeFloat, f} }
func NewChar(c byte) TypedValue     { return TypedValue{TypeChar, c} }
func NewString(s string) TypedValue { return TypedValue{TypeString, s} }
func NewSerial(u uint32) TypedValue { return TypedValue{TypeSerial, u} }
func NewEmail(s string) TypedValue  { return TypedValue{TypeEmail, s} }

func (v TypedValue) String() string {
	switch v.Type {
	case TypeChar:
		return string(v.Value.(byte))
	case TypeInt:
		return strconv.FormatInt(v.Value.(int64), 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Value.(float64), 'g', -1, 64)
	case TypeSerial:
		return strconv.FormatUint(uint64(v.Value.(uint32)), 10)
	}
	return v.Value.(string)
}

// Native unwraps the payload into a plain Go value suitable for JSON
// encoding. Char becomes a one-character string.
func (v TypedValue) Native() any {
	if v.Type == TypeChar {
		return string(v.Value.(byte))
	}
	return v.Value
}

// Compare orders two values of the same type. The second return is false
// when the payloads are of different types; ordering across types is
// deliberately undefined.
func (v TypedValue) Compare(other TypedValue) (int, bool) {
	if v.Type != other.Type {
		return 0, false
	}
	switch v.Type {
	case TypeInt:
		return cmpOrdered(v.Value.(int64), other.Value.(int64)), true
	case TypeFloat:
		return cmpOrdered(v.Value.(float64), other.Value.(float64)), true
	case TypeChar:
		return cmpOrdered(v.Value.(byte), other.Value.(byte)), true
	case TypeSerial:
		return cmpOrdered(v.Value.(uint32), other.Value.(uint32)), true
	}
	return cmpOrdered(v.Value.(string), other.Value.(string)), true
}

func cmpOrdered[T int64 | float64 | byte | uint32 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ColumnSet maps column names to typed values. It is the uniform shape for
// insert payloads, update set clauses, filter conditions and result rows.
type ColumnSet map[string]TypedValue

// Column is a named, typed table column.
type Column struct {
	Name string
	Type DataType
}

// Columns is an ordered column list. Within a table the order is the
// canonical (lexicographically sorted) order fixed at creation time and
// used for the physical row layout.
type Columns []Column
