package cipher

import (
	"bufio"
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/FotoVerite/protohack/internal/netsrv"
)

const maxSpecBytes = 256 // a real cipher spec is at most a handful of ops

// Handler negotiates a per-connection cipher spec, rejects a no-op spec,
// then relays decoded toy-shop request lines to largestToyRequest,
// encoding each reply under the same spec. Grounded on
// original_source/src/crypto/handle_crypto.rs's framed read/reply loop.
func Handler(logger zerolog.Logger) netsrv.Handler {
	return func(ctx context.Context, c *netsrv.Conn) {
		r := bufio.NewReader(c.Conn)

		spec, ok := negotiateSpec(r)
		if !ok {
			return
		}
		stream := NewStream(spec)

		var raw []byte
		buf := make([]byte, 4096)
		for {
			line, consumed, found := stream.DecodeLine(raw)
			if !found {
				n, err := r.Read(buf)
				if n > 0 {
					raw = append(raw, buf[:n]...)
					continue
				}
				if err != nil {
					return
				}
				continue
			}
			raw = raw[consumed:]

			reply, ok := largestToyRequest(string(line))
			if !ok {
				continue
			}
			if !c.Send(stream.EncodeReply([]byte(reply))) {
				return
			}
		}
	}
}

// negotiateSpec reads opcode bytes until the 0x00 terminator, rejecting a
// spec that turns out to be a no-op cipher.
func negotiateSpec(r *bufio.Reader) (Spec, bool) {
	var raw []byte
	buf := make([]byte, 1)

	for len(raw) < maxSpecBytes {
		spec, consumed, complete, malformed := ParseSpec(raw)
		if malformed {
			return Spec{}, false
		}
		if complete {
			_ = consumed
			if spec.IsNoOp() {
				CipherNoopRejections.Inc()
				return Spec{}, false
			}
			return spec, true
		}

		n, err := r.Read(buf)
		if n == 0 || err == io.EOF {
			return Spec{}, false
		}
		if err != nil {
			return Spec{}, false
		}
		raw = append(raw, buf[0])
	}
	return Spec{}, false
}
