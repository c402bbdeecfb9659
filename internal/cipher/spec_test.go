package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSpecSimple(t *testing.T) {
	spec, consumed, ok, malformed := ParseSpec([]byte{0x02, 0x01, 0x01, 0x00})
	assert.True(t, ok)
	assert.False(t, malformed)
	assert.Equal(t, 4, consumed)
	assert.Len(t, spec.ops, 2)
}

func TestParseSpecIncomplete(t *testing.T) {
	_, _, ok, malformed := ParseSpec([]byte{0x02, 0x01})
	assert.False(t, ok)
	assert.False(t, malformed)
}

func TestParseSpecMalformedOpcode(t *testing.T) {
	_, _, ok, malformed := ParseSpec([]byte{0xff})
	assert.False(t, ok)
	assert.True(t, malformed)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	spec, _, ok, _ := ParseSpec([]byte{0x02, 0x7b, 0x05, 0x01, 0x00})
	assert.True(t, ok)

	plain := []byte("hello world\n")
	cipherText := spec.Encode(plain, 0)
	decoded := spec.Decode(cipherText, 0)
	assert.Equal(t, plain, decoded)
}

func TestIsNoOpDetectsIdentitySpec(t *testing.T) {
	spec, _, ok, _ := ParseSpec([]byte{0x02, 0x00, 0x00})
	assert.True(t, ok)
	assert.True(t, spec.IsNoOp())
}

func TestIsNoOpAllowsRealSpec(t *testing.T) {
	spec, _, ok, _ := ParseSpec([]byte{0x02, 0x7b, 0x00})
	assert.True(t, ok)
	assert.False(t, spec.IsNoOp())
}

func TestIsNoOpDetectsReverseReverseCancellation(t *testing.T) {
	spec, _, ok, _ := ParseSpec([]byte{0x01, 0x01, 0x00})
	assert.True(t, ok)
	assert.True(t, spec.IsNoOp())
}

func TestXorPosThenAddPosSpecFromProblemStatement(t *testing.T) {
	// The classic protohackers example: xorpos, addpos with 0x00 terminator.
	spec, consumed, ok, _ := ParseSpec([]byte{0x03, 0x05, 0x00, 0xff})
	assert.True(t, ok)
	assert.Equal(t, 3, consumed)
	assert.False(t, spec.IsNoOp())
}
