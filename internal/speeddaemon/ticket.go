package speeddaemon

// Camera is a road position declared by an IAmCamera connection.
type Camera struct {
	Road, Mile, Limit uint16
}

// Ticket is an issued speeding citation, spec.md §3/§4.3.
type Ticket struct {
	Plate        string
	Road         uint16
	Mile1, Mile2 uint16
	Ts1, Ts2     uint32
	SpeedX100    uint16
}

type sighting struct {
	ts  uint32
	cam Camera
}

// plateState tracks one plate's sightings per road and the calendar days
// it has already been ticketed on, grounded on
// original_source/src/road/plate.rs's PlateState, generalized per spec.md
// §4.3 to dedup against the FULL inclusive day range of a candidate ticket
// rather than just its two endpoint days (the original source's shortcut).
type plateState struct {
	sightings    map[uint16][]sighting // road -> ascending by ts
	ticketedDays map[uint32]bool
}

func newPlateState() *plateState {
	return &plateState{
		sightings:    make(map[uint16][]sighting),
		ticketedDays: make(map[uint32]bool),
	}
}

// update inserts a new sighting in timestamp order and evaluates it against
// both its immediate neighbors on the same road (spec.md §4.3: "out-of-order
// sighting MUST be evaluated against both neighbors"), returning any
// tickets that survive day dedup.
func (p *plateState) update(plate string, cam Camera, ts uint32) []Ticket {
	list := p.sightings[cam.Road]

	idx := 0
	for idx < len(list) && list[idx].ts < ts {
		idx++
	}
	list = append(list, sighting{})
	copy(list[idx+1:], list[idx:])
	list[idx] = sighting{ts: ts, cam: cam}
	p.sightings[cam.Road] = list

	var candidates []Ticket
	if idx > 0 {
		prev := list[idx-1]
		if t, ok := speedCandidate(plate, cam.Road, prev.cam.Mile, prev.ts, cam.Mile, ts, cam.Limit); ok {
			candidates = append(candidates, t)
		}
	}
	if idx+1 < len(list) {
		next := list[idx+1]
		if t, ok := speedCandidate(plate, cam.Road, cam.Mile, ts, next.cam.Mile, next.ts, next.cam.Limit); ok {
			candidates = append(candidates, t)
		}
	}

	var tickets []Ticket
	for _, t := range candidates {
		if p.claimDays(t) {
			tickets = append(tickets, t)
		}
	}
	return tickets
}

// claimDays reports whether every day in t's inclusive range is still
// unclaimed, and if so claims them all. Both checking and claiming happen
// under the same coordinator-owned call, so there is no races to guard.
func (p *plateState) claimDays(t Ticket) bool {
	startDay := t.Ts1 / 86400
	endDay := t.Ts2 / 86400
	for d := startDay; d <= endDay; d++ {
		if p.ticketedDays[d] {
			return false
		}
	}
	for d := startDay; d <= endDay; d++ {
		p.ticketedDays[d] = true
	}
	return true
}

// speedCandidate evaluates two sightings of the same plate on the same
// road, using the limit declared by whichever of the two came later in
// time, matching original_source/src/road/plate.rs's pairing of
// camera.speeding(..) against the "other" (chronologically later)
// camera's limit in both the predecessor and successor cases.
func speedCandidate(plate string, road uint16, mileA uint16, tsA uint32, mileB uint16, tsB uint32, laterLimit uint16) (Ticket, bool) {
	if tsA > tsB {
		mileA, mileB = mileB, mileA
		tsA, tsB = tsB, tsA
	}
	if tsA == tsB {
		return Ticket{}, false
	}

	distance := int(mileB) - int(mileA)
	if distance < 0 {
		distance = -distance
	}
	durationHours := float64(tsB-tsA) / 3600.0
	avgMph := float64(distance) / durationHours
	if avgMph <= float64(laterLimit) {
		return Ticket{}, false
	}

	return Ticket{
		Plate: plate, Road: road,
		Mile1: mileA, Ts1: tsA,
		Mile2: mileB, Ts2: tsB,
		SpeedX100: uint16(avgMph*100 + 0.5),
	}, true
}
