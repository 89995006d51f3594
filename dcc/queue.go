package dcc

import "sync"

// Queue is an intrusive singly-linked FIFO of *Packet, using Packet.next as
// the link so no separate node allocation is ever needed. The original
// library's push/pop ordering -- clear p.next before linking it in, unlink
// before returning it -- was designed so a single-core timer-ISR preemption
// model never observed a half-linked node without any lock at all. This
// command station instead runs the generator's send loop on its own
// goroutine (see cmd/station's gen.Loop), a genuinely parallel reader with
// no preemption-based ordering guarantee, so Queue keeps that same
// ordering discipline but also serializes every operation behind a mutex --
// the critical section the spec itself recommends (§5) for a host where the
// free list and queue are touched by more than one true thread of
// execution.
type Queue struct {
	mu   sync.Mutex
	head *Packet
	tail *Packet
	n    int
}

// Len returns the number of packets currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Front returns the packet at the head of the queue without removing it, or
// nil if the queue is empty.
func (q *Queue) Front() *Packet {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.head
}

// PushBack appends p to the tail of the queue. p.next is cleared before it
// is linked in, so a reader that races the link-up never sees a stale tail
// pointer.
func (q *Queue) PushBack(p *Packet) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p.next = nil
	if q.tail == nil {
		q.head = p
		q.tail = p
	} else {
		q.tail.next = p
		q.tail = p
	}
	q.n++
}

// PushFront re-queues p ahead of everything else already queued.
// Commander.ReturnBack uses it for a packet whose transmission was cut short
// (power-off, or the generator's StartTest), so that packet goes out first.
func (q *Queue) PushFront(p *Packet) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p.next = q.head
	q.head = p
	if q.tail == nil {
		q.tail = p
	}
	q.n++
}

// PopFront removes and returns the packet at the head of the queue, or nil
// if the queue is empty.
func (q *Queue) PopFront() *Packet {
	q.mu.Lock()
	defer q.mu.Unlock()
	p := q.head
	if p == nil {
		return nil
	}
	q.head = p.next
	if q.head == nil {
		q.tail = nil
	}
	p.next = nil
	q.n--
	return p
}

// Each walks the queue front to back, calling fn on every packet. fn must
// not mutate the queue's linkage or call back into Queue.
func (q *Queue) Each(fn func(*Packet)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for p := q.head; p != nil; p = p.next {
		fn(p)
	}
}

// FreeList is a LIFO stack of unused *Packet slots drawn from a fixed arena,
// so the command station never allocates a Packet after startup. The spec
// calls out the free list as the one structure implementers should guard
// with a real critical section on a host where it isn't exclusively
// main-context; Take/Give are serialized behind a mutex for exactly that
// reason, since the generator's goroutine reaches it (via the commander) on
// every packet retirement.
type FreeList struct {
	mu    sync.Mutex
	top   *Packet
	n     int
	arena []Packet
}

// NewFreeList builds a FreeList backed by an arena of size slots, all
// initially free.
func NewFreeList(size int) *FreeList {
	fl := &FreeList{arena: make([]Packet, size)}
	for i := range fl.arena {
		fl.Give(&fl.arena[i])
	}
	return fl
}

// Len returns the number of free slots remaining.
func (fl *FreeList) Len() int {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.n
}

// Take removes and returns a free slot, or nil if the arena is exhausted.
func (fl *FreeList) Take() *Packet {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	p := fl.top
	if p == nil {
		return nil
	}
	fl.top = p.next
	p.next = nil
	fl.n--
	return p
}

// Give returns p to the free list.
func (fl *FreeList) Give(p *Packet) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	p.next = fl.top
	fl.top = p
	fl.n++
}
