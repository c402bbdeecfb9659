// Package chatroom implements the broadcast chat room (spec.md §1 "OUT OF
// SCOPE" list). It is the reference instance of the broadcast +
// per-client reader/writer split reused by the speed-daemon's dispatcher
// registry and the job-center's waiter notification (SPEC_FULL.md §2.4),
// grounded on the teacher's internal/shared/broadcast.go subscriber-index
// fan-out pattern, generalized from channel-keyed subscribers to a single
// flat roster.
package chatroom

import (
	"bufio"
	"context"
	"regexp"
	"sync"

	"github.com/rs/zerolog"

	"github.com/FotoVerite/protohack/internal/netsrv"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9]{1,16}$`)

// Room is the shared roster of named, connected clients.
type Room struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	members map[string]*netsrv.Conn
}

// New builds an empty Room.
func New(logger zerolog.Logger) *Room {
	return &Room{logger: logger, members: make(map[string]*netsrv.Conn)}
}

// names returns a snapshot of the current roster, excluding except if set.
func (r *Room) names(except string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.members))
	for n := range r.members {
		if n != except {
			names = append(names, n)
		}
	}
	return names
}

// join registers name if it isn't already taken, returning false on
// collision.
func (r *Room) join(name string, c *netsrv.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.members[name]; taken {
		return false
	}
	r.members[name] = c
	return true
}

func (r *Room) leave(name string) {
	r.mu.Lock()
	delete(r.members, name)
	r.mu.Unlock()
}

// broadcast relays msg to every member except except. A member whose
// outbound queue is full (a slow client) is simply skipped for this
// message — Conn.Send's non-blocking semantics already apply backpressure
// without stalling the broadcaster.
func (r *Room) broadcast(except string, msg []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, conn := range r.members {
		if name == except {
			continue
		}
		if !conn.Send(msg) {
			r.logger.Debug().Str("member", name).Msg("dropped broadcast to slow client")
		}
	}
}

// Handler builds the per-connection chat protocol handler.
func Handler(logger zerolog.Logger, room *Room) netsrv.Handler {
	return func(ctx context.Context, c *netsrv.Conn) {
		if !c.Send([]byte("Welcome to budgetchat! What shall I call you?\n")) {
			return
		}

		scanner := bufio.NewScanner(c.Conn)
		scanner.Buffer(make([]byte, 1024), 1024)
		if !scanner.Scan() {
			return
		}
		name := scanner.Text()

		if !validName.MatchString(name) || !room.join(name, c) {
			c.Send([]byte("* invalid name\n"))
			return
		}
		defer room.leave(name)

		c.Send([]byte("* the room contains: " + joinComma(room.names(name)) + "\n"))
		room.broadcast(name, []byte("* "+name+" has entered the room\n"))

		for scanner.Scan() {
			line := scanner.Text()
			room.broadcast(name, []byte("["+name+"] "+line+"\n"))
		}

		room.broadcast(name, []byte("* "+name+" has left the room\n"))
	}
}

func joinComma(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
