// Package kvstore implements the UDP key/value store (spec.md §1 "OUT OF
// SCOPE" list, expanded at SPEC_FULL.md §2.3): one request/response per
// datagram, no connection state, a reserved "version" key.
package kvstore

import (
	"net"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const versionString = "protohack kv store 1.0"

// Store is the shared key/value map. All access goes through Insert/Retrieve,
// both safe for concurrent use from the UDP server's per-packet goroutines.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

// New builds an empty Store.
func New() *Store {
	return &Store{data: make(map[string]string)}
}

// Insert sets key to value, unless key is the reserved "version" key, which
// is always read-only.
func (s *Store) Insert(key, value string) {
	if key == "version" {
		return
	}
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
}

// Retrieve returns key's value, or "" if absent. The reserved "version" key
// always reports the fixed build string.
func (s *Store) Retrieve(key string) string {
	if key == "version" {
		return versionString
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key]
}

// Handler builds the per-datagram request handler for netsrv.UDPServer.
func Handler(logger zerolog.Logger, store *Store) func(addr *net.UDPAddr, payload []byte) []byte {
	return func(addr *net.UDPAddr, payload []byte) []byte {
		req := string(payload)

		if idx := strings.IndexByte(req, '='); idx >= 0 {
			key := req[:idx]
			value := req[idx+1:]
			store.Insert(key, value)
			return nil
		}

		return []byte(req + "=" + store.Retrieve(req))
	}
}
