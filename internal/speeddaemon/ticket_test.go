package speeddaemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenario 1, spec.md §8: road 123 limit 60, cameras at miles 8 and 9,
// plate UN1X seen at t=0 (mile 8) and t=45 (mile 9): 1 mile in 45s is
// 80mph, over the limit, exactly one ticket at speed_mph_x100=8000.
func TestSpeedingProducesExactlyOneTicket(t *testing.T) {
	ps := newPlateState()
	cam8 := Camera{Road: 123, Mile: 8, Limit: 60}
	cam9 := Camera{Road: 123, Mile: 9, Limit: 60}

	tickets := ps.update("UN1X", cam8, 0)
	assert.Empty(t, tickets)

	tickets = ps.update("UN1X", cam9, 45)
	require.Len(t, tickets, 1)
	assert.Equal(t, Ticket{
		Plate: "UN1X", Road: 123,
		Mile1: 8, Ts1: 0,
		Mile2: 9, Ts2: 45,
		SpeedX100: 8000,
	}, tickets[0])
}

func TestUnderLimitProducesNoTicket(t *testing.T) {
	ps := newPlateState()
	cam := Camera{Road: 1, Mile: 0, Limit: 60}
	cam2 := Camera{Road: 1, Mile: 1, Limit: 60}

	ps.update("ABC", cam, 0)
	tickets := ps.update("ABC", cam2, 120) // 1 mile in 120s = 30mph
	assert.Empty(t, tickets)
}

// scenario 3, spec.md §8: two independent speeding intervals for the same
// plate on the same day must produce exactly one ticket.
func TestDayDedupCollapsesSecondIntervalSameDay(t *testing.T) {
	ps := newPlateState()
	cam8 := Camera{Road: 1, Mile: 8, Limit: 60}
	cam9 := Camera{Road: 1, Mile: 9, Limit: 60}
	cam10 := Camera{Road: 1, Mile: 10, Limit: 60}

	ps.update("UN1X", cam8, 0)
	first := ps.update("UN1X", cam9, 45)
	require.Len(t, first, 1)

	// A second, independent speeding interval later the same day.
	second := ps.update("UN1X", cam10, 100)
	assert.Empty(t, second, "same-day repeat must not produce a second ticket")
}

func TestDayDedupAllowsTicketOnADifferentDay(t *testing.T) {
	ps := newPlateState()
	camA := Camera{Road: 1, Mile: 8, Limit: 60}
	camB := Camera{Road: 1, Mile: 9, Limit: 60}

	ps.update("UN1X", camA, 0)
	first := ps.update("UN1X", camB, 45)
	require.Len(t, first, 1)

	const oneDay = 86400
	camC := Camera{Road: 1, Mile: 8, Limit: 60}
	camD := Camera{Road: 1, Mile: 9, Limit: 60}
	ps.update("UN1X", camC, oneDay)
	second := ps.update("UN1X", camD, oneDay+45)
	assert.Len(t, second, 1)
}

func TestOutOfOrderSightingEvaluatedAgainstBothNeighbors(t *testing.T) {
	ps := newPlateState()
	// early-late alone stay under their (high) limit; inserting middle
	// out of order must re-evaluate against both neighbors and catch the
	// early-middle pair, which exceeds middle's (low) limit.
	early := Camera{Road: 1, Mile: 0, Limit: 200}
	late := Camera{Road: 1, Mile: 100, Limit: 200}
	middle := Camera{Road: 1, Mile: 50, Limit: 10}

	ps.update("X", early, 0)
	ps.update("X", late, 3600)

	tickets := ps.update("X", middle, 1800)
	require.Len(t, tickets, 1)
	assert.Equal(t, uint16(0), tickets[0].Mile1)
	assert.Equal(t, uint16(50), tickets[0].Mile2)
}

func TestClaimDaysSpanningMultipleDaysBlocksEachDay(t *testing.T) {
	ps := newPlateState()
	t1 := Ticket{Plate: "P", Road: 1, Ts1: 86399, Ts2: 86401 + 86400}
	assert.True(t, ps.claimDays(t1))

	t2 := Ticket{Plate: "P", Road: 1, Ts1: 86400 + 10, Ts2: 86400 + 20}
	assert.False(t, ps.claimDays(t2), "a day already claimed inside the range must block")
}
