package speeddaemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePlateNeedsMoreData(t *testing.T) {
	full := []byte{opPlate, 4, 'U', 'N', '1', 'X', 0, 0, 0, 45}
	for i := 0; i < len(full); i++ {
		_, _, ok, err := Decode(full[:i])
		require.NoError(t, err)
		assert.False(t, ok, "should need more data at %d bytes", i)
	}

	msg, consumed, ok, err := Decode(full)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, len(full), consumed)
	assert.Equal(t, PlateMsg{Plate: "UN1X", Timestamp: 45}, msg)
}

func TestDecodeIAmCamera(t *testing.T) {
	buf := []byte{opIAmCamera, 0, 123, 0, 8, 0, 60}
	msg, consumed, ok, err := Decode(buf)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, consumed)
	assert.Equal(t, IAmCameraMsg{Road: 123, Mile: 8, Limit: 60}, msg)
}

func TestDecodeIAmDispatcher(t *testing.T) {
	buf := []byte{opIAmDispatcher, 2, 0, 66, 0, 168}
	msg, consumed, ok, err := Decode(buf)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, len(buf), consumed)
	assert.Equal(t, IAmDispatcherMsg{Roads: []uint16{66, 168}}, msg)
}

func TestDecodeWantHeartbeat(t *testing.T) {
	buf := []byte{opWantHeartbeat, 0, 0, 0, 10}
	msg, consumed, ok, err := Decode(buf)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, consumed)
	assert.Equal(t, WantHeartbeatMsg{Deciseconds: 10}, msg)
}

func TestDecodeUnknownOpcodeIsFatal(t *testing.T) {
	_, _, ok, err := Decode([]byte{0x99})
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestDecodeEmptyBufferNeedsMoreData(t *testing.T) {
	_, _, ok, err := Decode(nil)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestEncodeTicketRoundTripsFields(t *testing.T) {
	frame, err := EncodeTicket(Ticket{
		Plate: "UN1X", Road: 123,
		Mile1: 8, Ts1: 0,
		Mile2: 9, Ts2: 45,
		SpeedX100: 8000,
	})
	require.NoError(t, err)

	expected := []byte{opTicket, 4, 'U', 'N', '1', 'X', 0, 123, 0, 8, 0, 0, 0, 0, 0, 9, 0, 0, 0, 45, 31, 64}
	assert.Equal(t, expected, frame)
}

func TestEncodeErrorRejectsOversizedMessage(t *testing.T) {
	big := make([]byte, 256)
	_, err := EncodeError(string(big))
	assert.Error(t, err)
}

func TestEncodeHeartbeatIsOneByte(t *testing.T) {
	assert.Equal(t, []byte{opHeartbeat}, EncodeHeartbeat())
}
