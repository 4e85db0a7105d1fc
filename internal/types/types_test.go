package types_test

import (
	"bytes"
	"encoding/json"
	"testing"

	. "github.com/poorlydb/poorlydb/internal/types"
	"gotest.tools/assert"
)

func TestCodecRoundTrip(t *testing.T) {
	values := []TypedValue{
		NewInt(0),
		NewInt(-1),
		NewInt(1 << 62),
		NewFloat(1.23),
		NewFloat(-0.5),
		NewChar('x'),
		NewString(""),
		NewString("hello"),
		NewString("héllo, wörld"),
		NewSerial(42),
		NewEmail("someone@example.com"),
	}

	for _, v := range values {
		r := bytes.NewReader(v.Bytes())
		got, err := ReadValue(v.Type, r)
		assert.NilError(t, err)
		assert.Equal(t, got, v)
		assert.Equal(t, r.Len(), 0, "codec left trailing bytes for %s", v.Type)
	}
}

func TestReadValueShortInput(t *testing.T) {
	_, err := ReadValue(TypeInt, bytes.NewReader([]byte{1, 2, 3}))
	assert.Assert(t, err != nil)
}

func TestCompare(t *testing.T) {
	lt := func(a, b TypedValue) {
		c, ok := a.Compare(b)
		assert.Assert(t, ok)
		assert.Equal(t, c, -1)
	}
	lt(NewInt(1), NewInt(2))
	lt(NewFloat(-1.5), NewFloat(0.0))
	lt(NewString("a"), NewString("b"))
	lt(NewSerial(1), NewSerial(2))
	lt(NewChar('a'), NewChar('b'))

	c, ok := NewInt(1).Compare(NewInt(1))
	assert.Assert(t, ok)
	assert.Equal(t, c, 0)

	_, ok = NewInt(1).Compare(NewString("1"))
	assert.Assert(t, !ok, "comparison across types must be undefined")
}

func TestCoerce(t *testing.T) {
	t.Run("same type is identity", func(t *testing.T) {
		v, err := NewInt(5).Coerce(TypeInt)
		assert.NilError(t, err)
		assert.Equal(t, v, NewInt(5))
	})

	t.Run("int to float", func(t *testing.T) {
		v, err := NewInt(5).Coerce(TypeFloat)
		assert.NilError(t, err)
		assert.Equal(t, v, NewFloat(5.0))
	})

	t.Run("int to serial truncates", func(t *testing.T) {
		v, err := NewInt((1 << 33) + 7).Coerce(TypeSerial)
		assert.NilError(t, err)
		assert.Equal(t, v, NewSerial(7))
	})

	t.Run("string to char needs length one", func(t *testing.T) {
		v, err := NewString("x").Coerce(TypeChar)
		assert.NilError(t, err)
		assert.Equal(t, v, NewChar('x'))

		_, err = NewString("xy").Coerce(TypeChar)
		assert.ErrorContains(t, err, "Invalid value")
	})

	t.Run("string to int", func(t *testing.T) {
		v, err := NewString("42").Coerce(TypeInt)
		assert.NilError(t, err)
		assert.Equal(t, v, NewInt(42))

		_, err = NewString("4.2").Coerce(TypeInt)
		assert.ErrorContains(t, err, "Invalid value")
	})

	t.Run("string to float", func(t *testing.T) {
		v, err := NewString("4.2").Coerce(TypeFloat)
		assert.NilError(t, err)
		assert.Equal(t, v, NewFloat(4.2))
	})

	t.Run("string to email", func(t *testing.T) {
		v, err := NewString("a@b.co").Coerce(TypeEmail)
		assert.NilError(t, err)
		assert.Equal(t, v, NewEmail("a@b.co"))
	})

	t.Run("char to string and numbers", func(t *testing.T) {
		v, err := NewChar('7').Coerce(TypeString)
		assert.NilError(t, err)
		assert.Equal(t, v, NewString("7"))

		v, err = NewChar('7').Coerce(TypeInt)
		assert.NilError(t, err)
		assert.Equal(t, v, NewInt(7))
	})

	t.Run("serial to int", func(t *testing.T) {
		v, err := NewSerial(9).Coerce(TypeInt)
		assert.NilError(t, err)
		assert.Equal(t, v, NewInt(9))
	})

	t.Run("float to int is not allowed", func(t *testing.T) {
		_, err := NewFloat(1.0).Coerce(TypeInt)
		assert.ErrorContains(t, err, "Invalid value")
	})
}

func TestValidateEmail(t *testing.T) {
	assert.NilError(t, NewEmail("user.name-1@sub.example.com").Validate())
	assert.ErrorContains(t, NewEmail("not-an-email").Validate(), "Invalid email")
	assert.ErrorContains(t, NewEmail("a@b").Validate(), "Invalid email")
}

func TestFromNative(t *testing.T) {
	v, err := FromNative(json.Number("12"))
	assert.NilError(t, err)
	assert.Equal(t, v, NewInt(12))

	v, err = FromNative(json.Number("1.5"))
	assert.NilError(t, err)
	assert.Equal(t, v, NewFloat(1.5))

	v, err = FromNative("hi")
	assert.NilError(t, err)
	assert.Equal(t, v, NewString("hi"))

	_, err = FromNative(true)
	assert.ErrorContains(t, err, "unsupported value type")
}

func TestParseDataType(t *testing.T) {
	for _, name := range []string{"int", "float", "char", "string", "serial", "email"} {
		data_type, err := ParseDataType(name)
		assert.NilError(t, err)
		assert.Equal(t, data_type.String(), name)
	}

	_, err := ParseDataType("blob")
	assert.ErrorContains(t, err, "Invalid datatype")
}
