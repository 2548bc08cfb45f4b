package mux

import "mbsim/update"

// Queue is a FIFO of updates. Entries are never reordered once pushed.
type Queue struct {
	items []update.Update
	head  int
}

// Push appends u at the back.
func (q *Queue) Push(u ...update.Update) {
	q.items = append(q.items, u...)
}

// Peek returns the front entry without removing it.
func (q *Queue) Peek() (update.Update, bool) {
	if q.head == len(q.items) {
		return nil, false
	}
	return q.items[q.head], true
}

// Pop removes and returns the front entry.
func (q *Queue) Pop() (update.Update, bool) {
	u, ok := q.Peek()
	if !ok {
		return nil, false
	}
	q.items[q.head] = nil
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return u, true
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	return len(q.items) - q.head
}
