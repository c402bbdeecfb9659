// Package meanstoend implements the fixed-width binary means-of-timeseries
// protocol (spec.md §1 "OUT OF SCOPE" list): 9-byte frames, either an
// insert ('I') or a mean query ('Q'), big-endian, per-connection state.
package meanstoend

import (
	"context"
	"encoding/binary"
	"io"
	"sort"

	"github.com/rs/zerolog"

	"github.com/FotoVerite/protohack/internal/netsrv"
)

type priceLog struct {
	timestamps []int32
	prices     []int32
}

func (l *priceLog) insert(ts, price int32) {
	i := sort.Search(len(l.timestamps), func(i int) bool { return l.timestamps[i] >= ts })
	l.timestamps = append(l.timestamps, 0)
	l.prices = append(l.prices, 0)
	copy(l.timestamps[i+1:], l.timestamps[i:])
	copy(l.prices[i+1:], l.prices[i:])
	l.timestamps[i] = ts
	l.prices[i] = price
}

func (l *priceLog) mean(minTs, maxTs int32) int32 {
	if minTs > maxTs {
		return 0
	}
	lo := sort.Search(len(l.timestamps), func(i int) bool { return l.timestamps[i] >= minTs })
	hi := sort.Search(len(l.timestamps), func(i int) bool { return l.timestamps[i] > maxTs })
	if lo >= hi {
		return 0
	}
	var sum int64
	for _, p := range l.prices[lo:hi] {
		sum += int64(p)
	}
	return int32(sum / int64(hi-lo))
}

// Handler reads 9-byte frames until EOF or a framing error, maintaining one
// priceLog per connection.
func Handler(logger zerolog.Logger) netsrv.Handler {
	return func(ctx context.Context, c *netsrv.Conn) {
		log := &priceLog{}
		frame := make([]byte, 9)

		for {
			if _, err := io.ReadFull(c.Conn, frame); err != nil {
				return
			}

			a := int32(binary.BigEndian.Uint32(frame[1:5]))
			b := int32(binary.BigEndian.Uint32(frame[5:9]))

			switch frame[0] {
			case 'I':
				log.insert(a, b)
			case 'Q':
				mean := log.mean(a, b)
				resp := make([]byte, 4)
				binary.BigEndian.PutUint32(resp, uint32(mean))
				if !c.Send(resp) {
					return
				}
			default:
				return
			}
		}
	}
}
