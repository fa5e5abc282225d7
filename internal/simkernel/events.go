package simkernel

import "container/heap"

type eventKind int

const (
	evRoadArrival eventKind = iota
	evFillDone
	evEmptyDone
)

// scheduledEvent is a timed (non-instant) entry in the kernel's event
// queue. Ordering is (Time asc, Priority asc) per §4.1.
type scheduledEvent struct {
	kind      eventKind
	truck     int
	road      int
	direction int
	time      float64
	priority  int
}

// eventHeap backs the timed event queue with container/heap, the mechanism
// used throughout the retrieved corpus's own discrete-event and scheduler
// code (e.g. the inference-sim cluster event queue and the OllamaMax
// optimized scheduler's task queue) for the same (time, tiebreak) ordering.
type eventHeap []scheduledEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].priority < h[j].priority
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(scheduledEvent)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// instantTransition is a zero-duration logical step: a queue handoff or
// state rename processed at the current simulation time. A small
// insertion-sort queue is adequate since residency is bounded by O(NT).
type instantTransition struct {
	truck    int
	from, to State
	priority int
	action   func()
}

type instantQueue struct {
	items []instantTransition
}

func (q *instantQueue) push(it instantTransition) {
	i := len(q.items)
	q.items = append(q.items, it)
	for i > 0 && q.items[i-1].priority > q.items[i].priority {
		q.items[i-1], q.items[i] = q.items[i], q.items[i-1]
		i--
	}
}

func (q *instantQueue) empty() bool { return len(q.items) == 0 }

func (q *instantQueue) pop() instantTransition {
	it := q.items[0]
	q.items = q.items[1:]
	return it
}

func newEventHeap() eventHeap {
	h := make(eventHeap, 0)
	heap.Init(&h)
	return h
}
