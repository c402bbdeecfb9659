package speeddaemon

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FotoVerite/protohack/internal/netsrv"
)

// runHandler wires Handler directly onto a net.Pipe, returning the client
// side of the pipe and a function to wait for the handler goroutine to
// exit.
func runHandler(coord *Coordinator) (client net.Conn, done <-chan struct{}) {
	server, client := net.Pipe()
	conn := netsrv.NewConn(1, server, 16)
	go conn.Pump()

	finished := make(chan struct{})
	go func() {
		Handler(zerolog.Nop(), coord, nil)(context.Background(), conn)
		close(finished)
	}()
	return client, finished
}

func TestSecondIAmCameraIsFatalProtocolError(t *testing.T) {
	coord := NewCoordinator(zerolog.Nop())
	client, done := runHandler(coord)
	defer client.Close()

	client.Write([]byte{opIAmCamera, 0, 1, 0, 1, 0, 60})
	client.Write([]byte{opIAmCamera, 0, 2, 0, 1, 0, 60})

	buf := make([]byte, 256)
	client.SetReadDeadline(time.Now().Add(time.Second))
	_, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(opError), buf[0])

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler should have closed the connection after a fatal error")
	}
}

func TestPlateFromUnidentifiedConnectionIsFatal(t *testing.T) {
	coord := NewCoordinator(zerolog.Nop())
	client, _ := runHandler(coord)
	defer client.Close()

	client.Write([]byte{opPlate, 2, 'A', 'B', 0, 0, 0, 1})

	buf := make([]byte, 256)
	client.SetReadDeadline(time.Now().Add(time.Second))
	_, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(opError), buf[0])
}

func TestSecondHeartbeatRequestIsFatal(t *testing.T) {
	coord := NewCoordinator(zerolog.Nop())
	client, _ := runHandler(coord)
	defer client.Close()

	client.Write([]byte{opWantHeartbeat, 0, 0, 0, 0})
	client.Write([]byte{opWantHeartbeat, 0, 0, 0, 5})

	buf := make([]byte, 256)
	client.SetReadDeadline(time.Now().Add(time.Second))
	_, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(opError), buf[0])
}

func TestHeartbeatIntervalZeroDisablesHeartbeat(t *testing.T) {
	coord := NewCoordinator(zerolog.Nop())
	client, _ := runHandler(coord)
	defer client.Close()

	client.Write([]byte{opWantHeartbeat, 0, 0, 0, 0})

	client.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 1)
	_, err := client.Read(buf)
	assert.Error(t, err, "no heartbeat frame should arrive when interval is 0")
}

func TestCameraCanReportPlateSighting(t *testing.T) {
	coord := NewCoordinator(zerolog.Nop())
	client, _ := runHandler(coord)
	defer client.Close()

	client.Write([]byte{opIAmCamera, 0, 123, 0, 8, 0, 60})
	client.Write([]byte{opPlate, 4, 'U', 'N', '1', 'X', 0, 0, 0, 0})

	// No response is expected for a non-speeding sighting; confirm the
	// connection is still alive by sending a second, valid frame.
	client.Write([]byte{opWantHeartbeat, 0, 0, 0, 0})

	client.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 1)
	_, err := client.Read(buf)
	assert.Error(t, err, "well-formed frames should not produce an error response")
}
