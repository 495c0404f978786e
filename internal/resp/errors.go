package resp

import (
	"errors"
	"fmt"
)

// ErrIncomplete is returned when the buffer holds a valid prefix of a frame but not the whole frame.
// It is not a protocol error, the caller should read more bytes and retry.
var ErrIncomplete = errors.New("incomplete frame")

var ErrProtocolError = errors.New("protocol error")

var ErrUnknownType = fmt.Errorf("%w: unknown value type", ErrProtocolError)

var ErrInvalidInteger = fmt.Errorf("%w: invalid integer", ErrProtocolError)

var ErrMalformedLine = fmt.Errorf("%w: malformed line", ErrProtocolError)

var ErrMalformedBulkString = fmt.Errorf("%w: malformed bulk string", ErrProtocolError)

var ErrLimitExceeded = fmt.Errorf("%w: limit exceeded", ErrProtocolError)
