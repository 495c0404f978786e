package resp

import (
	"bytes"
	"fmt"
	"math"
)

// Limits bound the resources a single client can make the decoder consume. A zero field means the default.
type Limits struct {
	// MaxDepth is the maximum number of nested arrays
	MaxDepth int
	// MaxElements is the maximum declared element count of one array
	MaxElements int
	// MaxBulkLength is the maximum declared length of one bulk string, in bytes
	MaxBulkLength int
	// MaxBufferSize is the maximum number of unconsumed bytes a Decoder buffers
	MaxBufferSize int
}

var DefaultLimits = Limits{
	MaxDepth:      32,
	MaxElements:   1_000_000,
	MaxBulkLength: 512 * 1024 * 1024,
	MaxBufferSize: 1024 * 1024 * 1024,
}

func (l Limits) withDefaults() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultLimits.MaxDepth
	}
	if l.MaxElements <= 0 {
		l.MaxElements = DefaultLimits.MaxElements
	}
	if l.MaxBulkLength <= 0 {
		l.MaxBulkLength = DefaultLimits.MaxBulkLength
	}
	if l.MaxBufferSize <= 0 {
		l.MaxBufferSize = DefaultLimits.MaxBufferSize
	}
	return l
}

// Length and count lines never need more than this, including the CRLF
const maxIntegerLineLength = 32

// Decode parses one frame from the start of buf. It returns the value and the exact number of bytes consumed.
//
// If buf holds only a prefix of a valid frame, ErrIncomplete is returned and nothing is consumed. Malformed input
// returns an error wrapping ErrProtocolError. Bytes after the first frame are left untouched.
//
// The returned value shares memory with buf.
func Decode(buf []byte, limits Limits) (Value, int, error) {
	return decode(buf, limits.withDefaults(), 0)
}

func decode(buf []byte, limits Limits, depth int) (Value, int, error) {
	if len(buf) == 0 {
		return Value{}, 0, ErrIncomplete
	}
	switch buf[0] {
	case '+':
		return decodeLine(buf, ValueTypeSimpleString)
	case '-':
		return decodeLine(buf, ValueTypeSimpleError)
	case ':':
		n, consumed, err := readIntegerLine(buf[1:])
		if err != nil {
			return Value{}, 0, err
		}
		return Integer(n), consumed + 1, nil
	case '$':
		return decodeBulkString(buf, limits)
	case '*':
		return decodeArray(buf, limits, depth)
	}
	return Value{}, 0, fmt.Errorf("%w %q", ErrUnknownType, buf[0])
}

// decodeLine handles simple strings and errors, buf[0] is the type prefix
func decodeLine(buf []byte, valueType ValueType) (Value, int, error) {
	line, consumed, err := readLine(buf[1:])
	if err != nil {
		return Value{}, 0, err
	}
	return Value{Type: valueType, Buffer: line}, consumed + 1, nil
}

func decodeBulkString(buf []byte, limits Limits) (Value, int, error) {
	length, consumed, err := readIntegerLine(buf[1:])
	if err != nil {
		return Value{}, 0, err
	}
	consumed++

	// Any negative length is a null bulk string, only the header line is consumed
	if length < 0 {
		return NullBulkString(), consumed, nil
	}
	if length > int64(limits.MaxBulkLength) {
		return Value{}, 0, fmt.Errorf("%w: bulk string length %d", ErrLimitExceeded, length)
	}

	end := consumed + int(length)
	// Check whatever part of the trailing CRLF already arrived, a payload shorter than declared would otherwise
	// look incomplete forever
	if len(buf) > end && buf[end] != '\r' {
		return Value{}, 0, fmt.Errorf("%w: payload not terminated by CRLF", ErrMalformedBulkString)
	}
	if len(buf) > end+1 && buf[end+1] != '\n' {
		return Value{}, 0, fmt.Errorf("%w: payload not terminated by CRLF", ErrMalformedBulkString)
	}
	if len(buf) < end+2 {
		return Value{}, 0, ErrIncomplete
	}
	return Value{Type: ValueTypeBulkString, Buffer: buf[consumed:end:end]}, end + 2, nil
}

func decodeArray(buf []byte, limits Limits, depth int) (Value, int, error) {
	count, consumed, err := readIntegerLine(buf[1:])
	if err != nil {
		return Value{}, 0, err
	}
	consumed++

	if count < 0 {
		return NullArray(), consumed, nil
	}
	if count > int64(limits.MaxElements) {
		return Value{}, 0, fmt.Errorf("%w: array of %d elements", ErrLimitExceeded, count)
	}
	if depth >= limits.MaxDepth {
		return Value{}, 0, fmt.Errorf("%w: nesting deeper than %d", ErrLimitExceeded, limits.MaxDepth)
	}

	// Every element takes at least 3 bytes, do not trust the declared count for the allocation
	capacity := min(int(count), (len(buf)-consumed)/3)
	items := make([]Value, 0, capacity)
	for i := int64(0); i < count; i++ {
		item, n, err := decode(buf[consumed:], limits, depth+1)
		if err != nil {
			return Value{}, 0, err
		}
		items = append(items, item)
		consumed += n
	}
	return Value{Type: ValueTypeArray, Array: items}, consumed, nil
}

// readLine returns the bytes up to the first CRLF and the number of bytes consumed including the CRLF.
// A CR or LF that is not part of the terminator makes the line malformed.
func readLine(buf []byte) ([]byte, int, error) {
	end := bytes.IndexByte(buf, '\r')
	if end == -1 {
		if bytes.IndexByte(buf, '\n') != -1 {
			return nil, 0, fmt.Errorf("%w: LF without CR", ErrMalformedLine)
		}
		return nil, 0, ErrIncomplete
	}
	if bytes.IndexByte(buf[:end], '\n') != -1 {
		return nil, 0, fmt.Errorf("%w: LF without CR", ErrMalformedLine)
	}
	if end+1 == len(buf) {
		return nil, 0, ErrIncomplete
	}
	if buf[end+1] != '\n' {
		return nil, 0, fmt.Errorf("%w: CR without LF", ErrMalformedLine)
	}
	return buf[:end:end], end + 2, nil
}

func readIntegerLine(buf []byte) (int64, int, error) {
	window := buf
	if len(window) > maxIntegerLineLength {
		window = window[:maxIntegerLineLength]
	}
	line, consumed, err := readLine(window)
	if err == ErrIncomplete && len(buf) > len(window) {
		return 0, 0, fmt.Errorf("%w: line too long", ErrInvalidInteger)
	}
	if err != nil {
		return 0, 0, err
	}
	n, err := parseInteger(line)
	if err != nil {
		return 0, 0, err
	}
	return n, consumed, nil
}

// parseInteger parses a base 10 signed 64 bit integer with an optional sign
func parseInteger(b []byte) (int64, error) {
	negative := false
	if len(b) > 0 && (b[0] == '-' || b[0] == '+') {
		negative = b[0] == '-'
		b = b[1:]
	}
	// There should be atleast a single digit
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: no digits", ErrInvalidInteger)
	}

	limit := uint64(math.MaxInt64)
	if negative {
		limit++
	}
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidInteger, b)
		}
		digit := uint64(c - '0')
		if n > (limit-digit)/10 {
			return 0, fmt.Errorf("%w: out of range", ErrInvalidInteger)
		}
		n = n*10 + digit
	}
	if negative {
		return int64(-n), nil
	}
	return int64(n), nil
}
