package jobcenter

import (
	"bufio"
	"context"
	"encoding/json"
	"net"

	"github.com/rs/zerolog"

	"github.com/FotoVerite/protohack/internal/logging"
	"github.com/FotoVerite/protohack/internal/metrics"
	"github.com/FotoVerite/protohack/internal/netsrv"
)

type request struct {
	Request string          `json:"request"`
	Queue   string          `json:"queue"`
	Queues  []string        `json:"queues"`
	Job     json.RawMessage `json:"job"`
	Pri     uint64          `json:"pri"`
	Wait    bool            `json:"wait"`
	ID      uint64          `json:"id"`
}

type response struct {
	Status string          `json:"status"`
	ID     *uint64         `json:"id,omitempty"`
	Queue  string          `json:"queue,omitempty"`
	Job    json.RawMessage `json:"job,omitempty"`
	Pri    *uint64         `json:"pri,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Handler builds the per-connection job-center protocol handler.
//
// The read side is split into a dedicated line-scanning goroutine
// feeding linesCh, separate from the protocol-processing goroutine that
// dispatches to the Coordinator. This lets a blocking get(wait=true)
// detect the client disconnecting (linesCh closes) without a second
// goroutine racing the scanner for the socket: the scanner goroutine is
// the only reader of c.Conn for the connection's whole lifetime, and the
// protocol goroutine only ever receives from the channel it feeds.
func Handler(logger zerolog.Logger, coord *Coordinator, audit *logging.Audit) netsrv.Handler {
	return func(ctx context.Context, c *netsrv.Conn) {
		linesCh := make(chan string)
		go scanLines(c.Conn, linesCh)

		defer coord.Disconnect(c.ID)

		for {
			var line string
			var ok bool
			select {
			case line, ok = <-linesCh:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}

			res, keepGoing := handleLine(ctx, c, coord, linesCh, line, audit)
			if !keepGoing {
				return
			}
			if !c.Send(res) {
				return
			}
		}
	}
}

func scanLines(conn net.Conn, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

// handleLine processes one request line, returning the encoded response
// to send and whether the connection should keep running.
func handleLine(ctx context.Context, c *netsrv.Conn, coord *Coordinator, linesCh chan string, line string, audit *logging.Audit) ([]byte, bool) {
	var req request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		metrics.ProtocolErrors.WithLabelValues("jobcenter").Inc()
		return encodeErr("invalid JSON"), true
	}

	switch req.Request {
	case "put":
		if req.Queue == "" || req.Job == nil {
			metrics.ProtocolErrors.WithLabelValues("jobcenter").Inc()
			return encodeErr("put requires queue and job"), true
		}
		id := coord.Put(req.Queue, req.Job, req.Pri)
		return encode(response{Status: "ok", ID: &id}), true

	case "get":
		if len(req.Queues) == 0 {
			metrics.ProtocolErrors.WithLabelValues("jobcenter").Inc()
			return encodeErr("get requires queues"), true
		}
		reply, waiterIDOut := coord.Get(req.Queues, req.Wait, c.ID)

		var res GetResult
		var alive bool
		select {
		case res = <-reply:
			alive = true
		case wid := <-waiterIDOut:
			res, alive = waitForJob(ctx, linesCh, reply, func() { coord.CancelGet(wid) })
		}
		if !alive {
			return nil, false
		}
		if !res.Found {
			return encode(response{Status: "no-job"}), true
		}
		pri := res.Pri
		return encode(response{Status: "ok", ID: &res.ID, Queue: res.Queue, Job: res.Payload, Pri: &pri}), true

	case "delete":
		if coord.Delete(req.ID) {
			return encode(response{Status: "ok"}), true
		}
		return encode(response{Status: "no-job"}), true

	case "abort":
		switch coord.Abort(req.ID, c.ID) {
		case AbortOK:
			return encode(response{Status: "ok"}), true
		case AbortWrongClient:
			if audit != nil {
				audit.Event("abort_wrong_client", "client aborted a job it does not hold", map[string]any{"conn_id": c.ID, "job_id": req.ID})
			}
			return encode(response{Status: "error", Error: "job leased by another client"}), true
		default:
			return encode(response{Status: "no-job"}), true
		}

	default:
		metrics.ProtocolErrors.WithLabelValues("jobcenter").Inc()
		return encodeErr("unknown request type: " + req.Request), true
	}
}

// waitForJob blocks until reply fires, the client disconnects (linesCh
// closes), or ctx is cancelled (server shutdown). On the latter two it
// invokes cancel to tell the coordinator to drop the waiter registration.
func waitForJob(ctx context.Context, linesCh <-chan string, reply <-chan GetResult, cancel func()) (GetResult, bool) {
	for {
		select {
		case res := <-reply:
			return res, true
		case _, ok := <-linesCh:
			if !ok {
				cancel()
				return GetResult{}, false
			}
			// A further request line while a get is outstanding is a
			// protocol violation (one request in flight per connection);
			// it is dropped rather than processed.
		case <-ctx.Done():
			cancel()
			return GetResult{}, false
		}
	}
}

func encode(r response) []byte {
	b, err := json.Marshal(r)
	if err != nil {
		return []byte(`{"status":"error","error":"internal"}` + "\n")
	}
	return append(b, '\n')
}

func encodeErr(msg string) []byte {
	return encode(response{Status: "error", Error: msg})
}
