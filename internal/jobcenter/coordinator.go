package jobcenter

import (
	"container/heap"
	"encoding/json"
)

// AbortStatus is the outcome of an abort request.
type AbortStatus int

const (
	AbortOK AbortStatus = iota
	AbortNoJob
	AbortWrongClient
)

// GetResult is the coordinator's answer to a get request, delivered
// either immediately or later (once a matching job is put/aborted back to
// Ready) if the request registered as a waiter.
type GetResult struct {
	Found   bool
	ID      uint64
	Queue   string
	Payload json.RawMessage
	Pri     uint64
}

type putCmd struct {
	queue   string
	payload json.RawMessage
	pri     uint64
	reply   chan uint64
}

type getCmd struct {
	queues      []string
	wait        bool
	client      int64
	reply       chan GetResult
	waiterIDOut chan int64
}

type cancelGetCmd struct {
	waiterID int64
}

type deleteCmd struct {
	id    uint64
	reply chan bool
}

type abortCmd struct {
	id     uint64
	client int64
	reply  chan AbortStatus
}

type disconnectCmd struct {
	client int64
}

type waiter struct {
	id      int64
	client  int64
	queues  []string
	reply   chan GetResult
}

// Coordinator is the single-owner actor holding every queue, job, lease,
// and waiter (spec.md §9: "a single-owner coordinator (actor) receiving
// typed commands over a bounded channel and replying on one-shot reply
// channels"). All exported methods are safe to call from any goroutine;
// only the run loop ever touches the underlying maps.
type Coordinator struct {
	cmds chan any
}

// NewCoordinator starts the actor goroutine and returns a handle to it.
func NewCoordinator() *Coordinator {
	c := &Coordinator{cmds: make(chan any)}
	go c.run()
	return c
}

func (c *Coordinator) run() {
	jobs := make(map[uint64]*Job)
	heaps := make(map[string]*idHeap)
	leases := make(map[int64]map[uint64]struct{})
	var waiters []*waiter
	var nextID uint64
	var nextWaiterID int64

	heapFor := func(q string) *idHeap {
		h, ok := heaps[q]
		if !ok {
			h = &idHeap{}
			heaps[q] = h
		}
		return h
	}

	// cleanTop discards heap entries whose job is no longer Ready and
	// returns the first still-valid top, without popping it.
	cleanTop := func(q string) (*Job, bool) {
		h, ok := heaps[q]
		if !ok {
			return nil, false
		}
		for h.Len() > 0 {
			top := (*h)[0]
			job := jobs[top.id]
			if job != nil && job.State == StateReady {
				return job, true
			}
			heap.Pop(h)
		}
		return nil, false
	}

	bestAcross := func(queues []string) (*Job, bool) {
		var best *Job
		for _, q := range queues {
			job, ok := cleanTop(q)
			if !ok {
				continue
			}
			if best == nil || job.Priority > best.Priority ||
				(job.Priority == best.Priority && job.ID < best.ID) {
				best = job
			}
		}
		return best, best != nil
	}

	give := func(job *Job, client int64) GetResult {
		heap.Pop(heapFor(job.Queue))
		job.State = StateGiven
		job.Client = client
		if leases[client] == nil {
			leases[client] = make(map[uint64]struct{})
		}
		leases[client][job.ID] = struct{}{}
		JobsGiven.Inc()
		JobQueueDepth.WithLabelValues(job.Queue).Dec()
		return GetResult{Found: true, ID: job.ID, Queue: job.Queue, Payload: job.Payload, Pri: job.Priority}
	}

	// tryHandoff hands a newly-Ready job in q to the earliest-registered
	// waiter whose queue set can see it, repeating until no more matches
	// exist for q (a disconnect can ready several jobs in one queue at
	// once). Resolves spec.md §9 open question (d): a waiter only wins
	// when it is the single best Ready job at handoff time, which holds
	// here because get() never leaves a waiter registered while a Ready
	// job already satisfies it.
	tryHandoff := func(q string) {
		for {
			satisfied := false
			for i, w := range waiters {
				matches := false
				for _, wq := range w.queues {
					if wq == q {
						matches = true
						break
					}
				}
				if !matches {
					continue
				}
				job, ok := bestAcross(w.queues)
				if !ok {
					continue
				}
				w.reply <- give(job, w.client)
				for _, wq := range w.queues {
					JobWaiters.WithLabelValues(wq).Dec()
				}
				waiters = append(waiters[:i:i], waiters[i+1:]...)
				satisfied = true
				break
			}
			if !satisfied {
				return
			}
		}
	}

	for raw := range c.cmds {
		switch cmd := raw.(type) {
		case putCmd:
			JobsTotal.WithLabelValues("put").Inc()
			nextID++
			id := nextID
			job := &Job{ID: id, Queue: cmd.queue, Priority: cmd.pri, Payload: cmd.payload, State: StateReady}
			jobs[id] = job
			heap.Push(heapFor(cmd.queue), entry{id: id, priority: cmd.pri})
			JobQueueDepth.WithLabelValues(cmd.queue).Inc()
			cmd.reply <- id
			tryHandoff(cmd.queue)

		case getCmd:
			JobsTotal.WithLabelValues("get").Inc()
			if job, ok := bestAcross(cmd.queues); ok {
				cmd.reply <- give(job, cmd.client)
				continue
			}
			if !cmd.wait {
				cmd.reply <- GetResult{Found: false}
				continue
			}
			nextWaiterID++
			w := &waiter{id: nextWaiterID, client: cmd.client, queues: cmd.queues, reply: cmd.reply}
			waiters = append(waiters, w)
			for _, q := range cmd.queues {
				JobWaiters.WithLabelValues(q).Inc()
			}
			cmd.waiterIDOut <- w.id

		case cancelGetCmd:
			for i, w := range waiters {
				if w.id == cmd.waiterID {
					for _, q := range w.queues {
						JobWaiters.WithLabelValues(q).Dec()
					}
					waiters = append(waiters[:i], waiters[i+1:]...)
					break
				}
			}

		case deleteCmd:
			JobsTotal.WithLabelValues("delete").Inc()
			job, ok := jobs[cmd.id]
			if !ok || job.State == StateDeleted {
				cmd.reply <- false
				continue
			}
			if job.State == StateGiven {
				delete(leases[job.Client], job.ID)
			}
			if job.State == StateReady {
				JobQueueDepth.WithLabelValues(job.Queue).Dec()
			}
			job.State = StateDeleted
			cmd.reply <- true

		case abortCmd:
			JobsTotal.WithLabelValues("abort").Inc()
			job, ok := jobs[cmd.id]
			if !ok || job.State == StateDeleted {
				cmd.reply <- AbortNoJob
				continue
			}
			if job.State != StateGiven {
				cmd.reply <- AbortNoJob
				continue
			}
			if job.Client != cmd.client {
				cmd.reply <- AbortWrongClient
				continue
			}
			delete(leases[cmd.client], job.ID)
			job.State = StateReady
			job.Client = 0
			heap.Push(heapFor(job.Queue), entry{id: job.ID, priority: job.Priority})
			JobQueueDepth.WithLabelValues(job.Queue).Inc()
			cmd.reply <- AbortOK
			tryHandoff(job.Queue)

		case disconnectCmd:
			ids := leases[cmd.client]
			delete(leases, cmd.client)
			touched := make(map[string]bool)
			for id := range ids {
				job := jobs[id]
				if job == nil || job.State != StateGiven {
					continue
				}
				job.State = StateReady
				job.Client = 0
				heap.Push(heapFor(job.Queue), entry{id: job.ID, priority: job.Priority})
				JobQueueDepth.WithLabelValues(job.Queue).Inc()
				touched[job.Queue] = true
			}

			remaining := waiters[:0]
			for _, w := range waiters {
				if w.client == cmd.client {
					for _, q := range w.queues {
						JobWaiters.WithLabelValues(q).Dec()
					}
					continue
				}
				remaining = append(remaining, w)
			}
			waiters = remaining

			for q := range touched {
				tryHandoff(q)
			}
		}
	}
}

// Put allocates a new monotonic id, inserts a Ready job, and attempts an
// immediate waiter handoff before returning.
func (c *Coordinator) Put(queue string, payload json.RawMessage, pri uint64) uint64 {
	reply := make(chan uint64, 1)
	c.cmds <- putCmd{queue: queue, payload: payload, pri: pri, reply: reply}
	return <-reply
}

// Get requests the highest-priority Ready job across queues. If none is
// available and wait is true, waiterIDOut receives the registered
// waiter's id (for later cancellation) instead of an immediate result.
func (c *Coordinator) Get(queues []string, wait bool, client int64) (reply chan GetResult, waiterIDOut chan int64) {
	reply = make(chan GetResult, 1)
	waiterIDOut = make(chan int64, 1)
	c.cmds <- getCmd{queues: queues, wait: wait, client: client, reply: reply, waiterIDOut: waiterIDOut}
	return reply, waiterIDOut
}

// CancelGet removes a still-pending waiter, e.g. because its connection
// closed before a job became available.
func (c *Coordinator) CancelGet(waiterID int64) {
	c.cmds <- cancelGetCmd{waiterID: waiterID}
}

// Delete marks id Deleted. Reports false if id doesn't exist or is
// already Deleted.
func (c *Coordinator) Delete(id uint64) bool {
	reply := make(chan bool, 1)
	c.cmds <- deleteCmd{id: id, reply: reply}
	return <-reply
}

// Abort releases id back to Ready on behalf of client, who must be its
// current lessee.
func (c *Coordinator) Abort(id uint64, client int64) AbortStatus {
	reply := make(chan AbortStatus, 1)
	c.cmds <- abortCmd{id: id, client: client, reply: reply}
	return <-reply
}

// Disconnect releases every job leased by client back to Ready and
// removes any of its still-pending waiters.
func (c *Coordinator) Disconnect(client int64) {
	c.cmds <- disconnectCmd{client: client}
}
