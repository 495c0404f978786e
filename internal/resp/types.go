package resp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

type ValueType int

const (
	ValueTypeInvalid ValueType = iota
	ValueTypeSimpleString
	ValueTypeSimpleError
	ValueTypeInteger
	ValueTypeBulkString
	ValueTypeArray
	ValueTypeNullBulkString
	ValueTypeNullArray
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeSimpleString:
		return "simple string"
	case ValueTypeSimpleError:
		return "error"
	case ValueTypeInteger:
		return "integer"
	case ValueTypeBulkString:
		return "bulk string"
	case ValueTypeArray:
		return "array"
	case ValueTypeNullBulkString:
		return "null bulk string"
	case ValueTypeNullArray:
		return "null array"
	}
	return "invalid"
}

// Value is a single RESP frame. Buffer holds the payload of simple strings, errors and bulk strings,
// Array holds the children of an array and Integer the value of an integer frame.
//
// Values are treated as immutable once built, encoding never modifies them. Decoded values may share
// memory with the buffer they were decoded from.
type Value struct {
	Type    ValueType
	Buffer  []byte
	Array   []Value
	Integer int64
}

func SimpleString(s string) Value {
	return Value{Type: ValueTypeSimpleString, Buffer: []byte(s)}
}

func BulkString(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Type: ValueTypeBulkString, Buffer: b}
}

func BulkStringFromString(s string) Value {
	return Value{Type: ValueTypeBulkString, Buffer: []byte(s)}
}

// Error builds an error frame, msg is sent as is (for example "ERR syntax error")
func Error(msg string) Value {
	return Value{Type: ValueTypeSimpleError, Buffer: []byte(msg)}
}

func Errorf(format string, args ...any) Value {
	return Error(fmt.Sprintf(format, args...))
}

func Integer(n int64) Value {
	return Value{Type: ValueTypeInteger, Integer: n}
}

func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Type: ValueTypeArray, Array: items}
}

func NullBulkString() Value {
	return Value{Type: ValueTypeNullBulkString}
}

func NullArray() Value {
	return Value{Type: ValueTypeNullArray}
}

func (v Value) IsNull() bool {
	return v.Type == ValueTypeNullBulkString || v.Type == ValueTypeNullArray
}

func (v Value) IsError() bool {
	return v.Type == ValueTypeSimpleError
}

// Equal reports whether both values have the same type and content. A nil and an empty payload compare equal.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValueTypeSimpleString, ValueTypeSimpleError, ValueTypeBulkString:
		return bytes.Equal(v.Buffer, other.Buffer)
	case ValueTypeInteger:
		return v.Integer == other.Integer
	case ValueTypeArray:
		if len(v.Array) != len(other.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
	}
	return true
}

// String renders the value the way redis-cli does, used for logging and the cli
func (v Value) String() string {
	switch v.Type {
	case ValueTypeSimpleString:
		return string(v.Buffer)
	case ValueTypeSimpleError:
		return "(error) " + string(v.Buffer)
	case ValueTypeInteger:
		return "(integer) " + strconv.FormatInt(v.Integer, 10)
	case ValueTypeBulkString:
		return strconv.Quote(string(v.Buffer))
	case ValueTypeNullBulkString, ValueTypeNullArray:
		return "(nil)"
	case ValueTypeArray:
		if len(v.Array) == 0 {
			return "(empty array)"
		}
		var sb strings.Builder
		for i, item := range v.Array {
			if i > 0 {
				sb.WriteByte('\n')
			}
			fmt.Fprintf(&sb, "%d) %s", i+1, item.String())
		}
		return sb.String()
	}
	return "(invalid)"
}
