package logmux

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Listener states.
const (
	listenerCreated int32 = iota
	listenerRunning
	listenerStopping
	listenerStopped
)

// Listener is the single background consumer that drains a queue into a
// handler chain. Exactly one listener exists per queue; it is created and
// stopped only by the owning aggregator instance.
type Listener struct {
	queue         *Queue
	chain         *HandlerChain
	respectLevels bool
	diag          io.Writer

	state atomic.Int32
	done  chan struct{}
}

// newListener creates a listener in the created state.
func newListener(queue *Queue, chain *HandlerChain, respectLevels bool, diag io.Writer) *Listener {
	l := &Listener{
		queue:         queue,
		chain:         chain,
		respectLevels: respectLevels,
		diag:          diag,
		done:          make(chan struct{}),
	}
	l.state.Store(listenerCreated)
	return l
}

// Start spawns the consumer loop, transitioning created to running. Calling
// Start on a running listener is a no-op; a stopped listener cannot be
// restarted because its queue may already hold the sentinel.
func (l *Listener) Start() error {
	if l.state.CompareAndSwap(listenerCreated, listenerRunning) {
		go l.consume()
		return nil
	}
	if l.state.Load() == listenerRunning {
		return nil
	}
	return fmtErrorf("listener already stopped")
}

// consume drains the queue until the sentinel arrives. Decode failures and
// handler write failures are reported on the diagnostic writer; neither stops
// the loop.
func (l *Listener) consume() {
	defer close(l.done)
	defer l.state.Store(listenerStopped)

	for {
		data, ok := l.queue.dequeue()
		if !ok {
			l.state.Store(listenerStopping)
			return
		}

		record, err := decodeRecord(data)
		if err != nil {
			fmt.Fprintf(l.diag, "logmux: dropping undecodable record: %v\n", err)
			continue
		}
		l.chain.dispatch(record, l.respectLevels)
	}
}

// Stop enqueues the sentinel and waits for the consumer to drain everything
// enqueued before it and exit. Idempotent: stopping a listener that is not
// running is a no-op. Records enqueued concurrently with the sentinel may or
// may not be delivered.
func (l *Listener) Stop() error {
	if l.state.CompareAndSwap(listenerRunning, listenerStopping) {
		l.queue.enqueueSentinel()
		<-l.done
		return nil
	}

	switch l.state.Load() {
	case listenerStopping:
		// Another Stop is in flight; wait for it to finish.
		<-l.done
	}
	return nil
}

// Running reports whether the consumer loop is active.
func (l *Listener) Running() bool {
	return l.state.Load() == listenerRunning
}
