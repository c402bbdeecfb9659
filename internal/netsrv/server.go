// Package netsrv implements the generic per-connection duplex acceptor
// reused by every TCP protohack server, grounded on the teacher's
// internal/shared/server.go (accept loop, connection semaphore, graceful
// shutdown) and pump_read.go/pump_write.go (reader/writer split).
package netsrv

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/FotoVerite/protohack/internal/logging"
	"github.com/FotoVerite/protohack/internal/metrics"
	"github.com/FotoVerite/protohack/internal/ratelimit"
	"github.com/FotoVerite/protohack/internal/resourceguard"
)

// WriteQueueSize is the per-connection outbound buffer depth.
const WriteQueueSize = 256

// Handler is invoked once per accepted connection, in its own goroutine,
// and owns that connection's read loop. It must return when the connection
// should close (on read error, protocol violation, or peer close).
type Handler func(ctx context.Context, c *Conn)

// Options configures one acceptor.
type Options struct {
	Name          string // metrics/log label, e.g. "speeddaemon"
	Logger        zerolog.Logger
	Guard         *resourceguard.Guard // nil disables CPU-based admission
	RateLimiter   *ratelimit.Limiter   // nil disables connection rate limiting
	GracePeriod   time.Duration        // drain timeout on Shutdown; default 10s
}

// Server listens on one TCP address and drives Handler for every accepted
// connection, bounded by MaxConnections via a semaphore (teacher's
// connectionsSem).
type Server struct {
	opts     Options
	handler  Handler
	listener net.Listener

	sem chan struct{}

	nextID int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	connsMu sync.Mutex
	conns   map[int64]*Conn
}

// New builds a Server. maxConnections bounds concurrently accepted
// connections; while that many are open, further connections are closed
// on accept and counted as rejected ("max_connections").
func New(opts Options, maxConnections int, handler Handler) *Server {
	if opts.GracePeriod == 0 {
		opts.GracePeriod = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		opts:    opts,
		handler: handler,
		sem:     make(chan struct{}, maxConnections),
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[int64]*Conn),
	}
}

// ListenAndServe binds addr and runs the accept loop until the server is
// shut down. Blocks; run it in its own goroutine from main.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.opts.Logger.Info().Str("addr", addr).Str("server", s.opts.Name).Msg("listening")

	for {
		raw, err := ln.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return nil
			default:
				s.opts.Logger.Error().Err(err).Msg("accept error")
				continue
			}
		}
		s.acceptOne(raw)
	}
}

func (s *Server) acceptOne(raw net.Conn) {
	ip, _, _ := net.SplitHostPort(raw.RemoteAddr().String())

	if s.opts.Guard != nil && !s.opts.Guard.Allow() {
		metrics.ConnectionsRejected.WithLabelValues(s.opts.Name, "cpu").Inc()
		raw.Close()
		return
	}
	if s.opts.RateLimiter != nil && !s.opts.RateLimiter.Allow(ip) {
		metrics.ConnectionsRejected.WithLabelValues(s.opts.Name, "rate_limited").Inc()
		raw.Close()
		return
	}

	select {
	case s.sem <- struct{}{}:
	default:
		metrics.ConnectionsRejected.WithLabelValues(s.opts.Name, "max_connections").Inc()
		raw.Close()
		return
	}

	id := atomic.AddInt64(&s.nextID, 1)
	c := NewConn(id, raw, WriteQueueSize)

	s.connsMu.Lock()
	s.conns[id] = c
	s.connsMu.Unlock()

	metrics.ConnectionsTotal.WithLabelValues(s.opts.Name).Inc()
	metrics.ConnectionsActive.WithLabelValues(s.opts.Name).Inc()

	s.wg.Add(1)
	go s.writePump(c)

	s.wg.Add(1)
	go s.readDriver(c)
}

// writePump drains c.out and writes to the socket until the queue is
// closed, mirroring the teacher's writePump. Closing the socket on a write
// error (rather than c.out) unblocks the reader, whose own teardown defer
// closes c.out via Conn.Close().
func (s *Server) writePump(c *Conn) {
	defer s.wg.Done()
	defer logging.RecoverPanic(s.opts.Logger, "writePump", map[string]any{"conn_id": c.ID})

	for msg := range c.out {
		n, err := c.Conn.Write(msg)
		if err != nil {
			s.opts.Logger.Debug().Err(err).Int64("conn_id", c.ID).Msg("write failed")
			c.Conn.Close()
			continue
		}
		metrics.BytesWritten.WithLabelValues(s.opts.Name).Add(float64(n))
	}
}

// readDriver runs the protocol handler, then tears the connection down.
func (s *Server) readDriver(c *Conn) {
	defer s.wg.Done()
	defer logging.RecoverPanic(s.opts.Logger, "readDriver", map[string]any{"conn_id": c.ID})
	defer func() {
		c.Close()

		s.connsMu.Lock()
		delete(s.conns, c.ID)
		s.connsMu.Unlock()

		metrics.ConnectionsActive.WithLabelValues(s.opts.Name).Dec()
		<-s.sem
	}()

	s.handler(s.ctx, c)
}

// Shutdown stops accepting connections, closes every open connection, and
// waits (up to GracePeriod) for their goroutines to exit.
func (s *Server) Shutdown() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.cancel()

	s.connsMu.Lock()
	for _, c := range s.conns {
		c.Conn.Close()
	}
	s.connsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.opts.GracePeriod):
		s.opts.Logger.Warn().Str("server", s.opts.Name).Msg("shutdown grace period expired")
	}
}
