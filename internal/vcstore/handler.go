package vcstore

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/FotoVerite/protohack/internal/netsrv"
)

// Handler builds the line-based TCP protocol handler: HELP, LIST dir,
// GET file [rev], PUT file len (followed by exactly len raw bytes).
// Grounded on original_source's Framed/Codec request-response loop,
// adapted from tokio_util's length-delimited frame splitting to
// bufio.Reader reads against the shared netsrv.Conn.
func Handler(logger zerolog.Logger, store *Store) netsrv.Handler {
	return func(ctx context.Context, c *netsrv.Conn) {
		r := bufio.NewReader(c.Conn)

		if !c.Send([]byte("READY\n")) {
			return
		}

		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				if !c.Send([]byte("READY\n")) {
					return
				}
				continue
			}

			fields := strings.Fields(line)
			cmd := strings.ToUpper(fields[0])

			var resp string
			switch cmd {
			case "HELP":
				resp = "OK usage: HELP|GET|PUT|LIST"

			case "LIST":
				if len(fields) < 2 {
					resp = "ERR usage: LIST dir"
					break
				}
				resp = formatList(store.List(fields[1]))

			case "GET":
				if len(fields) < 2 {
					resp = "ERR usage: GET file [revision]"
					break
				}
				rev := 0
				if len(fields) >= 3 {
					rev, err = ParseRevision(fields[2])
					if err != nil {
						resp = "ERR no such revision"
						break
					}
				}
				data, err := store.Get(fields[1], rev)
				if err != nil {
					resp = "ERR " + err.Error()
					break
				}
				if !c.Send([]byte(fmt.Sprintf("OK %d\n", len(data)))) {
					return
				}
				if !c.Send(data) {
					return
				}
				if !c.Send([]byte("READY\n")) {
					return
				}
				continue

			case "PUT":
				if len(fields) < 3 {
					resp = "ERR usage: PUT file length newline data"
					break
				}
				n, perr := strconv.Atoi(fields[2])
				if perr != nil || n < 0 {
					resp = "ERR invalid length"
					break
				}
				data := make([]byte, n)
				if _, err := io.ReadFull(r, data); err != nil {
					return
				}
				rev, perr := store.Put(fields[1], data)
				if perr != nil {
					resp = "ERR " + perr.Error()
					break
				}
				resp = fmt.Sprintf("OK r%d", rev)

			default:
				resp = "ERR illegal method: " + cmd
			}

			if !c.Send([]byte(resp + "\n")) {
				return
			}
			if !c.Send([]byte("READY\n")) {
				return
			}
		}
	}
}

func formatList(entries []Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "OK %d", len(entries))
	for _, e := range entries {
		if e.Rev == 0 {
			fmt.Fprintf(&b, "\n%s DIR", e.Name)
		} else {
			fmt.Fprintf(&b, "\n%s r%d", e.Name, e.Rev)
		}
	}
	return b.String()
}
