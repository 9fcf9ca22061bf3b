package taskloop

import "sync"

// deque is the processing deque: a front/back queue of Entry values
// awaiting a step. It is built from fixed-size chunks linked
// front-to-back, each recycled through a sync.Pool once fully drained,
// and supports push at both ends since lift/wake-up need front
// insertion and schedule/reschedule need back insertion.
//
// Not safe for concurrent use; the deque is exclusively owned by the
// Executor stepping it.
type deque struct {
	head, tail *dequeChunk
	size       int
}

const dequeChunkSize = 64

type dequeChunk struct {
	items      [dequeChunkSize]Entry
	start, end int // items[start:end] holds live entries, front to back
	next, prev *dequeChunk
}

var dequeChunkPool = sync.Pool{
	New: func() any { return new(dequeChunk) },
}

func getDequeChunk() *dequeChunk {
	c := dequeChunkPool.Get().(*dequeChunk)
	c.start, c.end = dequeChunkSize/2, dequeChunkSize/2
	c.next, c.prev = nil, nil
	return c
}

func putDequeChunk(c *dequeChunk) {
	dequeChunkPool.Put(c)
}

func newDeque() *deque {
	return &deque{}
}

// Len returns the number of entries currently queued.
func (d *deque) Len() int {
	return d.size
}

// PushFront inserts e at the front: the next PopFront call returns e.
func (d *deque) PushFront(e Entry) {
	if d.head == nil {
		c := getDequeChunk()
		c.start, c.end = dequeChunkSize, dequeChunkSize
		d.head, d.tail = c, c
	}
	if d.head.start == 0 {
		c := getDequeChunk()
		c.next = d.head
		d.head.prev = c
		d.head = c
	}
	d.head.start--
	d.head.items[d.head.start] = e
	d.size++
}

// PushBack inserts e at the back: PopFront calls return it only after
// everything already queued.
func (d *deque) PushBack(e Entry) {
	if d.tail == nil {
		c := getDequeChunk()
		c.start, c.end = 0, 0
		d.head, d.tail = c, c
	}
	if d.tail.end == dequeChunkSize {
		c := getDequeChunk()
		c.start, c.end = 0, 0
		c.prev = d.tail
		d.tail.next = c
		d.tail = c
	}
	d.tail.items[d.tail.end] = e
	d.tail.end++
	d.size++
}

// PopFront removes and returns the front entry. ok is false if the
// deque is empty.
func (d *deque) PopFront() (e Entry, ok bool) {
	if d.size == 0 {
		return Entry{}, false
	}
	c := d.head
	e = c.items[c.start]
	c.items[c.start] = Entry{}
	c.start++
	d.size--
	if c.start == c.end {
		d.head = c.next
		if d.head != nil {
			d.head.prev = nil
		} else {
			d.tail = nil
		}
		putDequeChunk(c)
	}
	return e, true
}

// Contains reports whether e is present anywhere in the deque. Used
// only by tests; it is O(n).
func (d *deque) Contains(e Entry) bool {
	for c := d.head; c != nil; c = c.next {
		for i := c.start; i < c.end; i++ {
			if c.items[i] == e {
				return true
			}
		}
	}
	return false
}
