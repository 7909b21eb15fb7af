package session

import "sync"

// dispatcher runs queued callbacks in FIFO order on one goroutine.
type dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	running bool
	wake    chan struct{}
	done    chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

// enqueue never blocks. Callbacks queued after close are dropped.
func (d *dispatcher) enqueue(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
	d.signal()
}

func (d *dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		batch, closed := d.queue, d.closed
		d.queue = nil
		d.running = len(batch) > 0
		d.mu.Unlock()

		for _, fn := range batch {
			fn()
		}

		d.mu.Lock()
		d.running = false
		d.mu.Unlock()

		if len(batch) == 0 {
			if closed {
				return
			}
			<-d.wake
		}
	}
}

// close drains everything already queued, then stops the goroutine.
//
// While a callback is running close returns without waiting, since the caller may be that
// callback. The goroutine still drains the queue before it exits.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	running := d.running
	d.mu.Unlock()
	d.signal()
	if running {
		return
	}
	<-d.done
}
