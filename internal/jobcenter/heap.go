package jobcenter

import "container/heap"

// entry is one heap element: just enough to order candidates without
// touching the job table. The job table remains the source of truth
// (spec.md §9 "lazy vs eager removal"); entries for Given/Deleted jobs are
// left in the heap and discarded the next time they reach the top.
type entry struct {
	id       uint64
	priority uint64
}

// idHeap orders by priority descending, tie-broken by id ascending — the
// lowest (earliest-allocated) id wins a priority tie, resolving spec.md
// §9 open question (a) in favor of FIFO-by-id rather than arbitrary order.
type idHeap []entry

func (h idHeap) Len() int { return len(h) }
func (h idHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].id < h[j].id
}
func (h idHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *idHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	top := old[n-1]
	*h = old[:n-1]
	return top
}

var _ heap.Interface = (*idHeap)(nil)
