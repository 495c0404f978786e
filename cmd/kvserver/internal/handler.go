package internal

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/ananthvk/minikv/internal/resp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// connection holds the state owned by the goroutine serving one client
type connection struct {
	id      string
	conn    net.Conn
	decoder *resp.Decoder
	writer  *bufio.Writer
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

func (s *Server) newConnection(conn net.Conn) *connection {
	c := &connection{
		id:      uuid.NewString(),
		conn:    conn,
		decoder: resp.NewDecoder(s.limits),
		writer:  bufio.NewWriter(conn),
	}
	if s.cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)
	}
	c.log = s.log.With("conn_id", c.id, "remote_address", conn.RemoteAddr().String())
	return c
}

// handle serves requests on conn until the client goes away, a fatal error occurs or ctx is cancelled
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	c := s.newConnection(conn)
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()
	defer conn.Close()

	s.metrics.Connections.Inc()
	s.metrics.ActiveConnections.Inc()
	defer s.metrics.ActiveConnections.Dec()

	c.log.Info("client connected")
	defer c.log.Info("client disconnected")
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("panic while serving client", "panic", r)
		}
	}()

	for {
		s.setReadDeadline(c)
		_, readErr := c.decoder.Fill(conn)
		if errors.Is(readErr, resp.ErrLimitExceeded) {
			c.log.Warnw("request buffer limit exceeded", "buffered", c.decoder.Buffered())
			s.metrics.ProtocolErrors.Inc()
			if err := s.send(c, resp.Error("ERR "+readErr.Error())); err != nil {
				c.log.Debugw("write failed", "error", err)
			}
			return
		}

		keepOpen, err := s.drain(c)
		if err != nil {
			c.log.Debugw("write failed", "error", err)
			return
		}
		if !keepOpen {
			return
		}

		if readErr != nil {
			logReadError(c, readErr)
			return
		}
	}
}

// drain executes every complete frame in the buffer in order. Each reply is written out before the next frame is
// executed. It returns false when the connection must be closed.
func (s *Server) drain(c *connection) (bool, error) {
	for {
		frame, err := c.decoder.Next()
		if errors.Is(err, resp.ErrIncomplete) {
			return true, nil
		}
		if err != nil {
			s.metrics.ProtocolErrors.Inc()
			c.log.Warnw("protocol error", "error", err)
			if err := s.send(c, resp.Error("ERR "+err.Error())); err != nil {
				return false, err
			}
			if s.cfg.CloseOnProtocolError {
				return false, nil
			}
			// The frame boundary is lost, resynchronise on the next read
			c.decoder.Reset()
			return true, nil
		}

		if c.limiter != nil && !c.limiter.Allow() {
			s.metrics.RateLimited.Inc()
			if err := s.send(c, resp.Error("ERR rate limit exceeded")); err != nil {
				return false, err
			}
			continue
		}

		result := s.dispatcher.Execute(frame)
		s.metrics.observe(result)
		if result.Value.IsError() {
			c.log.Debugw("command failed", "command", result.Command, "reply", string(result.Value.Buffer))
		}
		if err := s.send(c, result.Value); err != nil {
			return false, err
		}
		if result.Close {
			return false, nil
		}
	}
}

func (s *Server) setReadDeadline(c *connection) {
	timeout := s.cfg.IdleTimeout
	if c.decoder.Buffered() > 0 {
		timeout = s.cfg.ReadTimeout
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	c.conn.SetReadDeadline(deadline)
}

// send writes one reply and flushes it
func (s *Server) send(c *connection, value resp.Value) error {
	if s.cfg.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := resp.Serialize(value, c.writer); err != nil {
		return err
	}
	return c.writer.Flush()
}

func logReadError(c *connection, err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		return
	case errors.Is(err, os.ErrDeadlineExceeded):
		c.log.Infow("closing idle connection")
	default:
		c.log.Warnw("read failed", "error", err)
	}
}
