package netsrv

import (
	"net"

	"github.com/rs/zerolog"

	"github.com/FotoVerite/protohack/internal/logging"
	"github.com/FotoVerite/protohack/internal/metrics"
)

// DatagramHandler processes one inbound UDP packet and returns the bytes to
// send back to addr, or nil to send nothing. There is no per-client
// connection state in the UDP model (spec.md §2.3): every packet is
// independent.
type DatagramHandler func(addr *net.UDPAddr, payload []byte) []byte

// UDPServer runs a single shared socket with one worker per packet,
// grounded on the teacher's worker_pool.go dispatch pattern adapted to a
// connectionless protocol: there is no per-connection duplex, just
// read-dispatch-write.
type UDPServer struct {
	Name    string
	Logger  zerolog.Logger
	Handler DatagramHandler

	conn *net.UDPConn
}

// ListenAndServe binds addr and serves until the socket is closed.
func (s *UDPServer) ListenAndServe(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.conn = conn

	s.Logger.Info().Str("addr", addr).Str("server", s.Name).Msg("listening (udp)")

	buf := make([]byte, 65535)
	for {
		n, clientAddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return nil
		}
		metrics.BytesRead.WithLabelValues(s.Name).Add(float64(n))

		payload := make([]byte, n)
		copy(payload, buf[:n])

		go s.handleOne(clientAddr, payload)
	}
}

func (s *UDPServer) handleOne(addr *net.UDPAddr, payload []byte) {
	defer logging.RecoverPanic(s.Logger, "udpHandler", map[string]any{"addr": addr.String()})

	resp := s.Handler(addr, payload)
	if resp == nil {
		return
	}
	n, err := s.conn.WriteToUDP(resp, addr)
	if err != nil {
		s.Logger.Debug().Err(err).Str("addr", addr.String()).Msg("udp write failed")
		return
	}
	metrics.BytesWritten.WithLabelValues(s.Name).Add(float64(n))
}

// Close shuts down the socket.
func (s *UDPServer) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
