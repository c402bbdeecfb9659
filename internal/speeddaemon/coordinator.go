package speeddaemon

import (
	"strconv"

	"github.com/rs/zerolog"

	"github.com/FotoVerite/protohack/internal/netsrv"
)

type sightingCmd struct {
	camera Camera
	plate  string
	ts     uint32
}

type registerDispatcherCmd struct {
	connID int64
	roads  []uint16
	conn   *netsrv.Conn
}

type unregisterDispatcherCmd struct {
	connID int64
}

// roadState is a road's dispatcher registry, grounded on
// original_source/src/road/road_dispatcher.rs's RoadDispatcher, with the
// re-queue-on-send-failure behavior spec.md §4.4 requires explicitly
// (the original's drain-on-register loses undelivered tail items on a mid-
// drain failure; this port does not reproduce that).
type roadState struct {
	dispatchers map[int64]*netsrv.Conn
	pending     [][]byte
}

// Coordinator is the single-owner actor holding every plate's sighting
// history and every road's dispatcher registry (spec.md §9's recommended
// design for the cyclic plate/road/ticket graph, replacing the original's
// Arc<Mutex<..>> registries). All exported methods are safe to call from
// any goroutine; only run's closures ever touch the maps.
type Coordinator struct {
	cmds   chan any
	logger zerolog.Logger
}

// NewCoordinator starts the actor goroutine and returns a handle to it.
func NewCoordinator(logger zerolog.Logger) *Coordinator {
	c := &Coordinator{cmds: make(chan any, 64), logger: logger}
	go c.run()
	return c
}

func (c *Coordinator) run() {
	plates := make(map[string]*plateState)
	roads := make(map[uint16]*roadState)
	dispatcherRoads := make(map[int64][]uint16)

	roadFor := func(road uint16) *roadState {
		rs, ok := roads[road]
		if !ok {
			rs = &roadState{dispatchers: make(map[int64]*netsrv.Conn)}
			roads[road] = rs
		}
		return rs
	}

	// deliver sends one ticket frame to any connected dispatcher for its
	// road, falling back to the pending queue if none is connected or
	// every send fails (spec.md §4.4).
	deliver := func(t Ticket) {
		frame, err := EncodeTicket(t)
		if err != nil {
			c.logger.Error().Err(err).Str("plate", t.Plate).Msg("failed to encode ticket")
			return
		}
		SpeedTicketsIssued.Inc()

		rs := roadFor(t.Road)
		for id, conn := range rs.dispatchers {
			if conn.Send(frame) {
				return
			}
			delete(rs.dispatchers, id)
		}
		rs.pending = append(rs.pending, frame)
		SpeedTicketsBuffered.WithLabelValues(strconv.Itoa(int(t.Road))).Set(float64(len(rs.pending)))
	}

	for raw := range c.cmds {
		switch cmd := raw.(type) {
		case sightingCmd:
			ps, ok := plates[cmd.plate]
			if !ok {
				ps = newPlateState()
				plates[cmd.plate] = ps
			}
			for _, t := range ps.update(cmd.plate, cmd.camera, cmd.ts) {
				deliver(t)
			}

		case registerDispatcherCmd:
			dispatcherRoads[cmd.connID] = cmd.roads
			for _, road := range cmd.roads {
				rs := roadFor(road)
				rs.dispatchers[cmd.connID] = cmd.conn

				i := 0
				for ; i < len(rs.pending); i++ {
					if !cmd.conn.Send(rs.pending[i]) {
						break
					}
				}
				rs.pending = rs.pending[i:]
				SpeedTicketsBuffered.WithLabelValues(strconv.Itoa(int(road))).Set(float64(len(rs.pending)))
			}

		case unregisterDispatcherCmd:
			roadsForConn, wasDispatcher := dispatcherRoads[cmd.connID]
			for _, road := range roadsForConn {
				if rs, ok := roads[road]; ok {
					delete(rs.dispatchers, cmd.connID)
				}
			}
			delete(dispatcherRoads, cmd.connID)
			if wasDispatcher {
				SpeedDispatcherDisconnects.Inc()
			}
		}
	}
}

// ReportSighting records a camera's plate sighting and dispatches any
// tickets it produces. Fire-and-forget: it returns once the command is
// queued to the coordinator, which processes commands in the order they
// were sent, so a connection's sightings are applied in arrival order.
func (c *Coordinator) ReportSighting(cam Camera, plate string, ts uint32) {
	c.cmds <- sightingCmd{camera: cam, plate: plate, ts: ts}
}

// RegisterDispatcher declares conn as a dispatcher for roads, draining any
// tickets already buffered for them.
func (c *Coordinator) RegisterDispatcher(connID int64, roads []uint16, conn *netsrv.Conn) {
	c.cmds <- registerDispatcherCmd{connID: connID, roads: roads, conn: conn}
}

// UnregisterDispatcher removes connID from every road it was registered
// for. Safe to call even if it was never registered.
func (c *Coordinator) UnregisterDispatcher(connID int64) {
	c.cmds <- unregisterDispatcherCmd{connID: connID}
}
