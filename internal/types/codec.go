package types

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Binary encoding, little-endian, fixed per type:
// Int 8 bytes signed, Float 8 bytes IEEE754, Char 1 byte,
// Serial 4 bytes unsigned, String/Email 8-byte unsigned length prefix
// followed by that many UTF-8 bytes.

func (v TypedValue) Bytes() []byte {
	switch v.Type {
	case TypeInt:
		return binary.LittleEndian.AppendUint64(nil, uint64(v.Value.(int64)))
	case TypeFloat:
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v.Value.(float64)))
	case TypeChar:
		return []byte{v.Value.(byte)}
	case TypeSerial:
		return binary.LittleEndian.AppendUint32(nil, v.Value.(uint32))
	}
	s := v.Value.(string)
	buf := binary.LittleEndian.AppendUint64(nil, uint64(len(s)))
	return append(buf, s...)
}

// ReadValue decodes one value of the given type from r.
func ReadValue(data_type DataType, r io.Reader) (TypedValue, error) {
	switch data_type {
	case TypeInt:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return TypedValue{}, err
		}
		return NewInt(int64(binary.LittleEndian.Uint64(buf[:]))), nil
	case TypeFloat:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return TypedValue{}, err
		}
		return NewFloat(math.Float64frombits(binary.LittleEndian.Uint64(buf[:]))), nil
	case TypeChar:
		var buf [1]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return TypedValue{}, err
		}
		return NewChar(buf[0]), nil
	case TypeSerial:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return TypedValue{}, err
		}
		return NewSerial(binary.LittleEndian.Uint32(buf[:])), nil
	}

	s, err := readString(r)
	if err != nil {
		return TypedValue{}, err
	}
	if data_type == TypeEmail {
		return NewEmail(s), nil
	}
	return NewString(s), nil
}

func readString(r io.Reader) (string, error) {
	var length_buf [8]byte
	if _, err := io.ReadFull(r, length_buf[:]); err != nil {
		return "", err
	}
	length := binary.LittleEndian.Uint64(length_buf[:])
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", errors.New("invalid UTF-8 string")
	}
	return string(buf), nil
}
