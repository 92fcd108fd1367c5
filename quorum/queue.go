package quorum

import (
	"fmt"
	"sync"
)

// Queue is the single-producer (the learner handler, enqueuing a decided
// plan's packets), single-consumer (the transport thread) packet queue. It
// enforces
// spec.md's first-packet discipline: the first packet enqueued after a
// Reset must be DIFF or TRUNC, or enqueueing panics — a programming error
// in the decider, not a runtime condition callers recover from.
type Queue struct {
	mu      sync.Mutex
	packets []Packet
	first   bool
}

// NewQueue returns an empty, reset queue.
func NewQueue() *Queue {
	return &Queue{first: true}
}

// Enqueue appends a packet, enforcing the first-packet discipline.
func (q *Queue) Enqueue(p Packet) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.first {
		if p.Type != DIFF && p.Type != TRUNC {
			panic(fmt.Sprintf("quorum: first packet must be DIFF or TRUNC, got %s", p.Type))
		}
		q.first = false
	}
	q.packets = append(q.packets, p)
}

// Drain returns and clears all queued packets.
func (q *Queue) Drain() []Packet {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.packets
	q.packets = nil
	return out
}

// Len reports the number of currently queued packets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.packets)
}

// Reset clears the queue and re-arms the first-packet discipline. Callers
// call this before enqueuing the packets of a freshly decided sync plan.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.packets = nil
	q.first = true
}
