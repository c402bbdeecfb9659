// Package cipher implements the streaming cipher protocol (spec.md §3/§4 —
// CORE 3) plus the toy-shop application payload layered on top
// (SPEC_FULL.md §2.8), grounded on
// original_source/src/crypto/{crypto_codec,ops,toys}.rs.
package cipher

import "bytes"

// opcode byte values, per the cipher spec's wire format.
const (
	opEnd     = 0x00
	opReverse = 0x01
	opXor     = 0x02
	opXorPos  = 0x03
	opAdd     = 0x04
	opAddPos  = 0x05
)

// Op is one cipher operation applied to each byte of the stream in order.
// Unlike original_source's Rust enum (which adds Sub/SubPos as inverses),
// the wire spec only ever transmits opReverse/opXor/opXorPos/opAdd/opAddPos;
// there is no Sub op here: applyInverse undoes opAdd/opAddPos by
// subtracting, so Op stays a single flat struct instead of a second enum.
type Op struct {
	code byte
	arg  byte
}

// Apply transforms one byte at stream position pos (0-based, from the
// start of the cipher's own stream direction).
func (o Op) Apply(b byte, pos int) byte {
	switch o.code {
	case opReverse:
		return reverseBits(b)
	case opXor:
		return b ^ o.arg
	case opXorPos:
		return b ^ byte(pos%256)
	case opAdd:
		return b + o.arg
	case opAddPos:
		return b + byte(pos%256)
	default:
		return b
	}
}

func reverseBits(b byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// Spec is an ordered list of cipher operations, applied in order to encode
// and in reverse order (each inverted) to decode.
type Spec struct {
	ops []Op
}

// ParseSpec reads a cipher spec from raw bytes ending in a 0x00 terminator,
// returning the parsed Spec and the number of input bytes consumed
// (including the terminator). ok is false if the terminator hasn't arrived
// yet (need more data) or the bytes are malformed (unknown opcode).
func ParseSpec(data []byte) (spec Spec, consumed int, ok bool, malformed bool) {
	i := 0
	for i < len(data) {
		switch data[i] {
		case opEnd:
			return Spec{ops: spec.ops}, i + 1, true, false
		case opReverse:
			spec.ops = append(spec.ops, Op{code: opReverse})
			i++
		case opXor:
			if i+1 >= len(data) {
				return Spec{}, 0, false, false
			}
			spec.ops = append(spec.ops, Op{code: opXor, arg: data[i+1]})
			i += 2
		case opXorPos:
			spec.ops = append(spec.ops, Op{code: opXorPos})
			i++
		case opAdd:
			if i+1 >= len(data) {
				return Spec{}, 0, false, false
			}
			spec.ops = append(spec.ops, Op{code: opAdd, arg: data[i+1]})
			i += 2
		case opAddPos:
			spec.ops = append(spec.ops, Op{code: opAddPos})
			i++
		default:
			return Spec{}, 0, false, true
		}
	}
	return Spec{}, 0, false, false
}

// IsNoOp reports whether this spec maps every byte to itself — the wire
// spec requires such a cipher to be rejected, per original_source's
// "No Op" probe against the literal string "Test123!@\n".
func (s Spec) IsNoOp() bool {
	probe := []byte("Test123!@\n")
	return bytes.Equal(s.Encode(probe, 0), probe)
}

// Encode applies every op in order, starting at stream position startPos.
func (s Spec) Encode(data []byte, startPos int) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		pos := startPos + i
		for _, op := range s.ops {
			b = op.Apply(b, pos)
		}
		out[i] = b
	}
	return out
}

// Decode applies every op's inverse in reverse order, starting at stream
// position startPos.
func (s Spec) Decode(data []byte, startPos int) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		pos := startPos + i
		for j := len(s.ops) - 1; j >= 0; j-- {
			b = applyInverse(s.ops[j], b, pos)
		}
		out[i] = b
	}
	return out
}

// applyInverse undoes op at the given absolute stream position.
func applyInverse(op Op, b byte, pos int) byte {
	switch op.code {
	case opReverse:
		return reverseBits(b)
	case opXor:
		return b ^ op.arg
	case opXorPos:
		return b ^ byte(pos%256)
	case opAdd:
		return b - op.arg
	case opAddPos:
		return b - byte(pos%256)
	default:
		return b
	}
}
