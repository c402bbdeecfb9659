package speeddaemon

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FotoVerite/protohack/internal/netsrv"
)

func newTestConn(id int64) (*netsrv.Conn, net.Conn) {
	server, client := net.Pipe()
	conn := netsrv.NewConn(id, server, 16)
	go conn.Pump()
	return conn, client
}

func readFrame(t *testing.T, client net.Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	client.SetReadDeadline(time.Now().Add(time.Second))
	_, err := client.Read(buf)
	require.NoError(t, err)
	return buf
}

// scenario 2, spec.md §8: a ticket produced before any dispatcher is
// registered for its road is delivered once a dispatcher does register.
func TestPendingTicketDeliveredOnDispatcherArrival(t *testing.T) {
	coord := NewCoordinator(zerolog.Nop())

	cam8 := Camera{Road: 123, Mile: 8, Limit: 60}
	cam9 := Camera{Road: 123, Mile: 9, Limit: 60}
	coord.ReportSighting(cam8, "UN1X", 0)
	coord.ReportSighting(cam9, "UN1X", 45)

	conn, client := newTestConn(1)
	defer client.Close()
	coord.RegisterDispatcher(1, []uint16{123}, conn)

	frame := readFrame(t, client, 2)
	assert.Equal(t, byte(opTicket), frame[0])
	assert.Equal(t, byte(4), frame[1]) // len("UN1X")
}

func TestTicketDeliveredImmediatelyToRegisteredDispatcher(t *testing.T) {
	coord := NewCoordinator(zerolog.Nop())

	conn, client := newTestConn(1)
	defer client.Close()
	coord.RegisterDispatcher(1, []uint16{123}, conn)

	cam8 := Camera{Road: 123, Mile: 8, Limit: 60}
	cam9 := Camera{Road: 123, Mile: 9, Limit: 60}
	coord.ReportSighting(cam8, "UN1X", 0)
	coord.ReportSighting(cam9, "UN1X", 45)

	frame := readFrame(t, client, 2)
	assert.Equal(t, byte(opTicket), frame[0])
}

func TestUnregisterDispatcherStopsFutureDelivery(t *testing.T) {
	coord := NewCoordinator(zerolog.Nop())

	conn, client := newTestConn(1)
	defer client.Close()
	coord.RegisterDispatcher(1, []uint16{123}, conn)
	coord.UnregisterDispatcher(1)

	cam8 := Camera{Road: 123, Mile: 8, Limit: 60}
	cam9 := Camera{Road: 123, Mile: 9, Limit: 60}
	coord.ReportSighting(cam8, "UN1X", 0)
	coord.ReportSighting(cam9, "UN1X", 45)

	client.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, 2)
	_, err := client.Read(buf)
	assert.Error(t, err, "unregistered dispatcher must not receive the ticket")
}
