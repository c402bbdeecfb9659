package speeddaemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/FotoVerite/protohack/internal/logging"
	"github.com/FotoVerite/protohack/internal/metrics"
	"github.com/FotoVerite/protohack/internal/netsrv"
)

type role int

const (
	roleUnidentified role = iota
	roleCamera
	roleDispatcher
)

type connState struct {
	role         role
	camera       Camera
	heartbeatSet bool
}

// Handler builds the per-connection speed-daemon protocol handler: frame
// decode, the Unidentified/Camera/Dispatcher role machine (spec.md §4.2),
// and heartbeat delivery, wired to a shared Coordinator for sighting
// evaluation and ticket dispatch.
func Handler(logger zerolog.Logger, coord *Coordinator, audit *logging.Audit) netsrv.Handler {
	return func(ctx context.Context, c *netsrv.Conn) {
		st := &connState{}
		hbCancel := make(chan struct{})
		defer close(hbCancel)
		defer coord.UnregisterDispatcher(c.ID)

		var raw []byte
		readBuf := make([]byte, 4096)

		for {
			msg, consumed, ok, err := Decode(raw)
			if err != nil {
				sendProtocolError(logger, audit, c, err.Error())
				return
			}
			if !ok {
				n, rerr := c.Conn.Read(readBuf)
				if n > 0 {
					raw = append(raw, readBuf[:n]...)
				}
				if n == 0 || rerr != nil {
					return
				}
				continue
			}
			raw = raw[consumed:]

			if !dispatch(c, coord, st, msg, hbCancel, logger, audit) {
				return
			}
		}
	}
}

// dispatch applies one decoded frame to the connection's role state,
// reporting false when the connection must close (a fatal protocol error
// has already been sent).
func dispatch(c *netsrv.Conn, coord *Coordinator, st *connState, msg any, hbCancel chan struct{}, logger zerolog.Logger, audit *logging.Audit) bool {
	switch m := msg.(type) {
	case IAmCameraMsg:
		if st.role != roleUnidentified {
			sendProtocolError(logger, audit, c, "already identified")
			return false
		}
		st.role = roleCamera
		st.camera = Camera{Road: m.Road, Mile: m.Mile, Limit: m.Limit}
		return true

	case IAmDispatcherMsg:
		if st.role != roleUnidentified {
			sendProtocolError(logger, audit, c, "already identified")
			return false
		}
		st.role = roleDispatcher
		coord.RegisterDispatcher(c.ID, m.Roads, c)
		return true

	case PlateMsg:
		if st.role != roleCamera {
			sendProtocolError(logger, audit, c, "plate message from non-camera connection")
			return false
		}
		SpeedSightingsTotal.WithLabelValues("camera").Inc()
		coord.ReportSighting(st.camera, m.Plate, m.Timestamp)
		return true

	case WantHeartbeatMsg:
		// spec.md §9 open question (b): a second heartbeat request on an
		// already-heartbeating connection is a fatal protocol error.
		if st.heartbeatSet {
			sendProtocolError(logger, audit, c, "heartbeat interval already set")
			return false
		}
		st.heartbeatSet = true
		if m.Deciseconds > 0 {
			startHeartbeat(c, m.Deciseconds, hbCancel)
		}
		return true

	default:
		sendProtocolError(logger, audit, c, "unhandled message")
		return false
	}
}

func startHeartbeat(c *netsrv.Conn, deciseconds uint32, cancel <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(time.Duration(deciseconds) * 100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !c.Send(EncodeHeartbeat()) {
					return
				}
			case <-cancel:
				return
			}
		}
	}()
}

func sendProtocolError(logger zerolog.Logger, audit *logging.Audit, c *netsrv.Conn, msg string) {
	metrics.ProtocolErrors.WithLabelValues("speeddaemon").Inc()
	if audit != nil {
		audit.Event("protocol_error", msg, map[string]any{"conn_id": c.ID})
	}
	frame, err := EncodeError(msg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode protocol error")
		return
	}
	c.Send(frame)
}
