package resp

import (
	"fmt"
	"io"
)

const defaultReadSize = 16 * 1024

// Decoder accumulates bytes received from a connection and yields complete frames from the front.
// Bytes belonging to a partially received frame are retained until the rest arrives.
//
// A Decoder is owned by a single connection and is not safe for concurrent use.
type Decoder struct {
	buf    []byte
	start  int // first unconsumed byte
	limits Limits
}

func NewDecoder(limits Limits) *Decoder {
	return &Decoder{limits: limits.withDefaults()}
}

// Buffered returns the number of bytes received but not yet consumed
func (d *Decoder) Buffered() int {
	return len(d.buf) - d.start
}

// Reset discards every buffered byte
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.start = 0
}

// Feed appends p to the buffer
func (d *Decoder) Feed(p []byte) error {
	if d.Buffered()+len(p) > d.limits.MaxBufferSize {
		return fmt.Errorf("%w: more than %d buffered bytes", ErrLimitExceeded, d.limits.MaxBufferSize)
	}
	d.compact()
	d.buf = append(d.buf, p...)
	return nil
}

// Fill performs a single Read from r into the buffer. A read of zero bytes is reported as io.EOF.
// When the read returns data together with an error, both are returned so buffered frames can still be drained.
func (d *Decoder) Fill(r io.Reader) (int, error) {
	if d.Buffered() >= d.limits.MaxBufferSize {
		return 0, fmt.Errorf("%w: more than %d buffered bytes", ErrLimitExceeded, d.limits.MaxBufferSize)
	}
	d.compact()
	if cap(d.buf)-len(d.buf) < defaultReadSize {
		grown := make([]byte, len(d.buf), max(2*cap(d.buf), len(d.buf)+defaultReadSize))
		copy(grown, d.buf)
		d.buf = grown
	}

	free := d.buf[len(d.buf):cap(d.buf)]
	if room := d.limits.MaxBufferSize - d.Buffered(); len(free) > room {
		free = free[:room]
	}
	n, err := r.Read(free)
	d.buf = d.buf[:len(d.buf)+n]
	if n == 0 && err == nil {
		err = io.EOF
	}
	return n, err
}

// Next decodes the frame at the front of the buffer and consumes it. ErrIncomplete means more bytes are needed,
// any other error means the buffered bytes are not valid RESP.
//
// The returned value owns its memory, it stays valid after the buffer is refilled.
func (d *Decoder) Next() (Value, error) {
	if d.Buffered() == 0 {
		return Value{}, ErrIncomplete
	}
	value, n, err := decode(d.buf[d.start:], d.limits, 0)
	if err != nil {
		return Value{}, err
	}
	value, _ = detach(value, make([]byte, 0, n))
	d.start += n
	if d.start == len(d.buf) {
		d.Reset()
	}
	return value, nil
}

// compact moves unconsumed bytes to the front of the buffer
func (d *Decoder) compact() {
	if d.start == 0 {
		return
	}
	n := copy(d.buf, d.buf[d.start:])
	d.buf = d.buf[:n]
	d.start = 0
}

// detach copies every payload of v into arena, so the value no longer aliases the decoder buffer
func detach(v Value, arena []byte) (Value, []byte) {
	if v.Buffer != nil {
		from := len(arena)
		arena = append(arena, v.Buffer...)
		v.Buffer = arena[from:len(arena):len(arena)]
	}
	for i := range v.Array {
		v.Array[i], arena = detach(v.Array[i], arena)
	}
	return v, arena
}
