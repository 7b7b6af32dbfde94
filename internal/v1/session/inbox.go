package session

import "sync"

// Inbox is an unbounded multi-producer single-consumer queue of ThreadEvents.
// Any session that finds this inbox in the registry may Push into it; only the
// owning session actor Pops. Push never blocks, so a slow consumer delays only
// itself and never the sender.
type Inbox struct {
	mu     sync.Mutex
	queue  []ThreadEvent
	ready  chan struct{}
	closed bool
}

func NewInbox() *Inbox {
	return &Inbox{ready: make(chan struct{}, 1)}
}

// Push enqueues an event. It is a no-op after Close, so producers holding a
// stale handle cannot resurrect a terminated session.
func (in *Inbox) Push(ev ThreadEvent) {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.queue = append(in.queue, ev)
	in.mu.Unlock()

	select {
	case in.ready <- struct{}{}:
	default:
	}
}

// Ready signals that at least one event may be pending. The consumer selects
// on it alongside its socket frames and then drains with Pop.
func (in *Inbox) Ready() <-chan struct{} {
	return in.ready
}

// Pop dequeues the oldest event. It re-arms the ready signal when more events
// remain, so the consumer may handle one event per wakeup without losing any.
func (in *Inbox) Pop() (ThreadEvent, bool) {
	in.mu.Lock()
	if len(in.queue) == 0 {
		in.mu.Unlock()
		return nil, false
	}
	ev := in.queue[0]
	in.queue = in.queue[1:]
	remaining := len(in.queue)
	in.mu.Unlock()

	if remaining > 0 {
		select {
		case in.ready <- struct{}{}:
		default:
		}
	}
	return ev, true
}

// Close stops accepting pushes. Events already queued stay poppable.
func (in *Inbox) Close() {
	in.mu.Lock()
	in.closed = true
	in.mu.Unlock()
}
