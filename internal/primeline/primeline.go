// Package primeline implements the line-delimited JSON prime-test protocol
// (spec.md §1 "OUT OF SCOPE" list): one request per line, one response per
// line, malformed input is fatal.
package primeline

import (
	"bufio"
	"context"
	"encoding/json"
	"math"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/FotoVerite/protohack/internal/netsrv"
)

type request struct {
	Method *string  `json:"method"`
	Number *float64 `json:"number"`
}

type response struct {
	Method string `json:"method"`
	Prime  bool   `json:"prime"`
}

// Handler reads newline-delimited requests from c, replying with isPrime
// responses until malformed input closes the connection.
func Handler(logger zerolog.Logger) netsrv.Handler {
	return func(ctx context.Context, c *netsrv.Conn) {
		scanner := bufio.NewScanner(c.Conn)
		scanner.Buffer(make([]byte, 4096), 1<<20)

		for scanner.Scan() {
			line := scanner.Bytes()

			var req request
			if err := json.Unmarshal(line, &req); err != nil || req.Method == nil || *req.Method != "isPrime" || req.Number == nil {
				c.Send([]byte("{}\n"))
				return
			}

			resp := response{Method: "isPrime", Prime: isPrime(*req.Number)}
			encoded, err := json.Marshal(resp)
			if err != nil {
				return
			}
			encoded = append(encoded, '\n')
			if !c.Send(encoded) {
				return
			}
		}
	}
}

func isPrime(n float64) bool {
	if n != math.Trunc(n) || n < 2 {
		return false
	}
	i := big.NewInt(int64(n))
	return i.ProbablyPrime(20)
}
