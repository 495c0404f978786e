package internal

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/ananthvk/minikv"
	"github.com/ananthvk/minikv/internal/config"
	"github.com/ananthvk/minikv/internal/resp"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var ErrServerClosed = errors.New("server closed")

type Options struct {
	Server config.ServerConfig
	Limits resp.Limits
	Logger *zap.Logger
	// Registerer receives the server metrics, a private registry is used when nil
	Registerer prometheus.Registerer
}

// Server accepts RESP connections and serves each one on its own goroutine against a shared store
type Server struct {
	cfg        config.ServerConfig
	limits     resp.Limits
	dispatcher *Dispatcher
	metrics    *Metrics
	log        *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

func New(store *minikv.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:        opts.Server,
		limits:     opts.Limits,
		dispatcher: NewDispatcher(store),
		metrics:    NewMetrics(reg, store),
		log:        logger.Sugar(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// ListenAndServe listens on the configured TCP address and calls Serve
func (s *Server) ListenAndServe() error {
	var lc net.ListenConfig
	ln, err := lc.Listen(s.ctx, "tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called. It always returns a non-nil error,
// ErrServerClosed after a shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()
	defer ln.Close()

	s.log.Infow("server listening", "address", ln.Addr().String())

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			// Running out of file descriptors and similar conditions are transient, keep serving
			backoff = nextBackoff(backoff)
			s.log.Warnw("accept failed, retrying", "error", err, "delay", backoff)
			select {
			case <-time.After(backoff):
			case <-s.ctx.Done():
				return ErrServerClosed
			}
			continue
		}
		backoff = 0

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return ErrServerClosed
		}
		s.wg.Add(1)
		s.mu.Unlock()
		go func() {
			defer s.wg.Done()
			s.handle(s.ctx, conn)
		}()
	}
}

// Addr returns the address of the listener, or nil before Serve is called
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting connections, closes every open connection and waits for their goroutines to exit
// or for ctx to be done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	ln := s.listener
	s.mu.Unlock()

	s.cancel()
	if ln != nil {
		ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
