package cipher

import "bytes"

// Stream wraps one connection's negotiated cipher spec and tracks the
// independent client/server byte positions the spec requires (client_pos
// advances as the client's bytes are decoded, server_pos as this side's
// replies are encoded), grounded on crypto_codec.rs's CryptoCodec fields.
type Stream struct {
	spec      Spec
	clientPos int
	serverPos int
}

// NewStream wraps an already-negotiated, non-no-op cipher spec.
func NewStream(spec Spec) *Stream {
	return &Stream{spec: spec}
}

// DecodeLine scans buf for the first '\n'-terminated line decryptable
// under the current client_pos, consuming and advancing client_pos by
// exactly the ciphertext bytes that produced it. ok is false if no
// newline has arrived yet (the caller should read more and retry).
func (s *Stream) DecodeLine(buf []byte) (line []byte, consumed int, ok bool) {
	plain := s.spec.Decode(buf, s.clientPos)
	idx := bytes.IndexByte(plain, '\n')
	if idx < 0 {
		return nil, 0, false
	}
	n := idx + 1
	s.clientPos += n
	return plain[:n], n, true
}

// EncodeReply encrypts a reply under the current server_pos and advances
// it by the ciphertext length produced.
func (s *Stream) EncodeReply(plain []byte) []byte {
	out := s.spec.Encode(plain, s.serverPos)
	s.serverPos += len(out)
	return out
}
