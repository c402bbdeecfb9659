package netsrv

import (
	"net"
	"sync"
	"sync/atomic"
)

// Conn is one accepted TCP connection split into the reader/writer duplex
// mandated by spec.md §2/§4.8: the underlying socket's write side is owned
// exclusively by a writer goroutine draining Send's outbound queue, so the
// caller-supplied per-protocol reader never blocks on a slow peer.
type Conn struct {
	ID   int64
	Conn net.Conn

	out       chan []byte
	closeOnce sync.Once
	closed    atomic.Bool
}

// NewConn builds a Conn around an already-accepted socket. Exported mainly
// so protocol packages can construct one in tests without a live listener.
func NewConn(id int64, raw net.Conn, queueSize int) *Conn {
	return &Conn{
		ID:   id,
		Conn: raw,
		out:  make(chan []byte, queueSize),
	}
}

// Send enqueues a message for the writer goroutine. Non-blocking: reports
// false if the outbound queue is full, leaving the backpressure decision
// (drop, requeue elsewhere, disconnect) to the caller.
func (c *Conn) Send(msg []byte) (ok bool) {
	if c.closed.Load() {
		return false
	}
	// Close() may run concurrently between the Load above and the send
	// below; a send on a just-closed channel panics, so guard it.
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.out <- msg:
		return true
	default:
		return false
	}
}

// Pump drains the outbound queue to the socket until Close is called,
// mirroring the production writePump; exported so protocol packages can
// exercise Send in tests without standing up a full Server.
func (c *Conn) Pump() {
	for msg := range c.out {
		if _, err := c.Conn.Write(msg); err != nil {
			c.Conn.Close()
			continue
		}
	}
}

// RemoteIP returns the connection's peer IP without the port, or "" if the
// remote address isn't host:port shaped.
func (c *Conn) RemoteIP() string {
	host, _, err := net.SplitHostPort(c.Conn.RemoteAddr().String())
	if err != nil {
		return ""
	}
	return host
}

// Close shuts down the connection exactly once; safe to call from both the
// reader and writer goroutines.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.out)
		c.Conn.Close()
	})
}
