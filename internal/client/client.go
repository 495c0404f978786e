// Package client is a minimal RESP client used by the command line tools.
package client

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/ananthvk/minikv/internal/resp"
)

var ErrConnectionClosed = errors.New("server closed the connection")

// Client sends commands over a single connection. It is not safe for concurrent use.
type Client struct {
	conn    net.Conn
	decoder *resp.Decoder
	timeout time.Duration
	buf     []byte
}

func Dial(address string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, err
	}
	return New(conn, timeout), nil
}

// New wraps an established connection. A zero timeout disables deadlines.
func New(conn net.Conn, timeout time.Duration) *Client {
	return &Client{conn: conn, decoder: resp.NewDecoder(resp.Limits{}), timeout: timeout}
}

// Do sends args as a command and waits for its reply. Error replies are returned as values, not as errors.
func (c *Client) Do(args []string) (resp.Value, error) {
	if err := c.Send(args); err != nil {
		return resp.Value{}, err
	}
	return c.Receive()
}

// Send writes a command without waiting for the reply, replies to sent commands are read in order with Receive
func (c *Client) Send(args []string) error {
	values := make([]resp.Value, len(args))
	for i, arg := range args {
		values[i] = resp.BulkStringFromString(arg)
	}
	c.buf = resp.AppendValue(c.buf[:0], resp.Array(values...))
	c.setDeadline()
	_, err := c.conn.Write(c.buf)
	return err
}

func (c *Client) Receive() (resp.Value, error) {
	c.setDeadline()
	for {
		reply, err := c.decoder.Next()
		if err == nil {
			return reply, nil
		}
		if !errors.Is(err, resp.ErrIncomplete) {
			return resp.Value{}, err
		}
		n, err := c.decoder.Fill(c.conn)
		if err != nil {
			// The last read may have completed the reply
			if n > 0 {
				if reply, nextErr := c.decoder.Next(); nextErr == nil {
					return reply, nil
				}
			}
			if errors.Is(err, io.EOF) {
				return resp.Value{}, ErrConnectionClosed
			}
			return resp.Value{}, err
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) setDeadline() {
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
}
