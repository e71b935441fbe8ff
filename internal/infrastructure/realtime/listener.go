package realtime

import (
	"bytes"
	"sync"
)

// Listener is one subscriber's delivery cell. Offers replace the pending
// snapshot, a single goroutine hands the latest one to the callback, and a
// value equal to the last offered one is dropped.
type Listener struct {
	path string
	fn   func(Snapshot)

	mu      sync.Mutex
	pending *Snapshot
	last    []byte
	offered bool

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func NewListener(path string, fn func(Snapshot)) *Listener {
	return &Listener{
		path: path,
		fn:   fn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (l *Listener) Path() string {
	return l.path
}

// Offer queues s for delivery and reports whether it differed from the previous offer.
func (l *Listener) Offer(s Snapshot) bool {
	l.mu.Lock()
	if l.offered && bytes.Equal(l.last, s.raw) {
		l.mu.Unlock()
		return false
	}
	l.offered = true
	l.last = s.raw
	l.pending = &s
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run delivers until Stop; callers start it in its own goroutine.
func (l *Listener) Run() {
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}

		l.mu.Lock()
		s := l.pending
		l.pending = nil
		l.mu.Unlock()

		if s == nil {
			continue
		}

		select {
		case <-l.done:
			return
		default:
		}

		l.fn(*s)
	}
}

// Stop ends delivery. A callback already running is not interrupted.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
