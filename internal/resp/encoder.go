package resp

import (
	"bufio"
	"strconv"
)

var crlf = []byte("\r\n")

// Encode returns the wire representation of value
func Encode(value Value) []byte {
	return AppendValue(nil, value)
}

// AppendValue appends the wire representation of value to dst. Every value has exactly one encoding:
// CR and LF inside simple strings and errors are replaced by spaces and a value with an unknown type is
// encoded as an error frame.
func AppendValue(dst []byte, value Value) []byte {
	switch value.Type {
	case ValueTypeSimpleString:
		return appendLine(append(dst, '+'), value.Buffer)
	case ValueTypeSimpleError:
		return appendLine(append(dst, '-'), value.Buffer)
	case ValueTypeInteger:
		dst = strconv.AppendInt(append(dst, ':'), value.Integer, 10)
		return append(dst, crlf...)
	case ValueTypeBulkString:
		dst = appendBulkStringHeader(dst, len(value.Buffer))
		dst = append(dst, value.Buffer...)
		return append(dst, crlf...)
	case ValueTypeNullBulkString:
		return append(dst, "$-1\r\n"...)
	case ValueTypeNullArray:
		return append(dst, "*-1\r\n"...)
	case ValueTypeArray:
		dst = appendArrayHeader(dst, len(value.Array))
		for _, item := range value.Array {
			dst = AppendValue(dst, item)
		}
		return dst
	}
	return append(dst, "-ERR invalid value type\r\n"...)
}

func appendLine(dst []byte, line []byte) []byte {
	for _, b := range line {
		if b == '\r' || b == '\n' {
			b = ' '
		}
		dst = append(dst, b)
	}
	return append(dst, crlf...)
}

func appendBulkStringHeader(dst []byte, length int) []byte {
	dst = strconv.AppendInt(append(dst, '$'), int64(length), 10)
	return append(dst, crlf...)
}

func appendArrayHeader(dst []byte, count int) []byte {
	dst = strconv.AppendInt(append(dst, '*'), int64(count), 10)
	return append(dst, crlf...)
}

// SerializeBulkString writes a bulk string without copying the payload into an intermediate buffer
func SerializeBulkString(buf []byte, w *bufio.Writer) error {
	if _, err := w.Write(appendBulkStringHeader(w.AvailableBuffer(), len(buf))); err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return err
	}
	_, err := w.Write(crlf)
	return err
}

func SerializeArray(values []Value, w *bufio.Writer) error {
	if _, err := w.Write(appendArrayHeader(w.AvailableBuffer(), len(values))); err != nil {
		return err
	}
	for _, v := range values {
		if err := Serialize(v, w); err != nil {
			return err
		}
	}
	return nil
}

// Serialize writes the encoding of value to w, the bytes written are identical to Encode(value).
// The caller is responsible for flushing w.
func Serialize(value Value, w *bufio.Writer) error {
	switch value.Type {
	case ValueTypeBulkString:
		return SerializeBulkString(value.Buffer, w)
	case ValueTypeArray:
		return SerializeArray(value.Array, w)
	}
	_, err := w.Write(AppendValue(w.AvailableBuffer(), value))
	return err
}
