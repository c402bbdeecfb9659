package jobcenter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutThenGetReturnsHighestPriority(t *testing.T) {
	c := NewCoordinator()

	c.Put("q1", []byte(`{"a":1}`), 1)
	highID := c.Put("q1", []byte(`{"a":2}`), 10)

	reply, _ := c.Get([]string{"q1"}, false, 1)
	res := <-reply
	require.True(t, res.Found)
	assert.Equal(t, highID, res.ID)
}

func TestGetTieBreaksByLowestID(t *testing.T) {
	c := NewCoordinator()

	firstID := c.Put("q1", []byte(`{}`), 5)
	c.Put("q1", []byte(`{}`), 5)

	reply, _ := c.Get([]string{"q1"}, false, 1)
	res := <-reply
	assert.Equal(t, firstID, res.ID)
}

func TestGetNoJobWithoutWait(t *testing.T) {
	c := NewCoordinator()
	reply, _ := c.Get([]string{"q1"}, false, 1)
	res := <-reply
	assert.False(t, res.Found)
}

func TestWaiterSatisfiedByLaterPut(t *testing.T) {
	c := NewCoordinator()

	reply, waiterIDOut := c.Get([]string{"q1"}, true, 1)
	select {
	case <-reply:
		t.Fatal("should not have an immediate result")
	case <-waiterIDOut:
	case <-time.After(time.Second):
		t.Fatal("expected waiter registration")
	}

	id := c.Put("q1", []byte(`{"x":1}`), 5)

	select {
	case res := <-reply:
		require.True(t, res.Found)
		assert.Equal(t, id, res.ID)
	case <-time.After(time.Second):
		t.Fatal("waiter was never satisfied")
	}
}

func TestDeleteThenGetSkipsDeletedJob(t *testing.T) {
	c := NewCoordinator()
	id := c.Put("q1", []byte(`{}`), 1)
	assert.True(t, c.Delete(id))

	reply, _ := c.Get([]string{"q1"}, false, 1)
	res := <-reply
	assert.False(t, res.Found)
}

func TestDeleteUnknownJobReturnsFalse(t *testing.T) {
	c := NewCoordinator()
	assert.False(t, c.Delete(999))
}

func TestAbortByNonLesseeIsError(t *testing.T) {
	c := NewCoordinator()
	id := c.Put("q1", []byte(`{}`), 1)

	reply, _ := c.Get([]string{"q1"}, false, 1) // client 1 gets it
	<-reply

	status := c.Abort(id, 2) // client 2 tries to abort
	assert.Equal(t, AbortWrongClient, status)
}

func TestAbortUnknownJobIsNoJob(t *testing.T) {
	c := NewCoordinator()
	assert.Equal(t, AbortNoJob, c.Abort(999, 1))
}

func TestAbortRequeuesJobForFutureGet(t *testing.T) {
	c := NewCoordinator()
	id := c.Put("q1", []byte(`{}`), 1)

	reply, _ := c.Get([]string{"q1"}, false, 1)
	<-reply

	status := c.Abort(id, 1)
	assert.Equal(t, AbortOK, status)

	reply2, _ := c.Get([]string{"q1"}, false, 2)
	res := <-reply2
	require.True(t, res.Found)
	assert.Equal(t, id, res.ID)
}

func TestDisconnectReleasesLeasedJobs(t *testing.T) {
	c := NewCoordinator()
	id := c.Put("q1", []byte(`{}`), 1)

	reply, _ := c.Get([]string{"q1"}, false, 1)
	<-reply

	c.Disconnect(1)

	reply2, _ := c.Get([]string{"q1"}, false, 2)
	res := <-reply2
	require.True(t, res.Found)
	assert.Equal(t, id, res.ID)
}

func TestDisconnectCancelsPendingWaiter(t *testing.T) {
	c := NewCoordinator()

	reply, waiterIDOut := c.Get([]string{"q1"}, true, 1)
	wid := <-waiterIDOut

	c.CancelGet(wid)
	c.Disconnect(1)

	// A put afterward must not be delivered to the cancelled waiter's
	// reply channel.
	c.Put("q1", []byte(`{}`), 1)

	select {
	case <-reply:
		t.Fatal("cancelled waiter should not receive a late result")
	case <-time.After(50 * time.Millisecond):
	}
}
