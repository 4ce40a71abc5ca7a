package logmux

import (
	"sync"
)

// Queue is the concurrency-safe FIFO that carries serialized records from
// many producers to the single listener. Records cross the queue as plain
// encoded bytes; no live handles survive the transfer. A capacity of zero or
// less means unbounded; a bounded queue blocks producers while full.
type Queue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	items    [][]byte
	capacity int
}

// NewQueue creates a record queue. capacity <= 0 is unbounded.
func NewQueue(capacity int) *Queue {
	q := &Queue{capacity: capacity}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue serializes and appends a record, blocking while a bounded queue is
// full. FIFO order is preserved per producer.
func (q *Queue) Enqueue(r Record) error {
	data, err := r.encode()
	if err != nil {
		return err
	}
	q.push(data)
	return nil
}

// enqueueSentinel appends the shutdown sentinel. The sentinel is a reserved
// nil item that no encoded record can collide with.
func (q *Queue) enqueueSentinel() {
	q.push(nil)
}

func (q *Queue) push(item []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.capacity > 0 && len(q.items) >= q.capacity {
		q.notFull.Wait()
	}
	q.items = append(q.items, item)
	q.notEmpty.Signal()
}

// dequeue blocks until an item is available. It returns ok=false when the
// item is the shutdown sentinel.
func (q *Queue) dequeue() (data []byte, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.notEmpty.Wait()
	}
	item := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	q.notFull.Signal()

	return item, item != nil
}

// Len reports the number of queued items, sentinel included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
