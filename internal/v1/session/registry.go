package session

import (
	"sync"

	"github.com/nultr/nultr/backend/go/internal/v1/metrics"
)

// Registry is the process-wide routing table from user id to the live
// session's inbox. It holds at most one entry per user at any time.
//
// The mutex guards only the map operations. Enqueueing into an inbox returned
// by Lookup happens after the lock is released, so one slow recipient never
// stalls routing for everyone else.
type Registry struct {
	mu      sync.Mutex
	inboxes map[int64]*Inbox
}

func NewRegistry() *Registry {
	return &Registry{inboxes: make(map[int64]*Inbox)}
}

// Register installs the inbox for the user, unconditionally replacing any
// prior entry. A second connection by the same user evicts the first; the
// evicted session keeps draining its own inbox until its socket dies, but no
// new events are routed to it.
func (r *Registry) Register(userID int64, inbox *Inbox) {
	r.mu.Lock()
	r.inboxes[userID] = inbox
	metrics.RegisteredSessions.Set(float64(len(r.inboxes)))
	r.mu.Unlock()
}

// Lookup returns the registered inbox for the user, or nil when the user has
// no live session. Offline users are simply skipped by fan-out.
func (r *Registry) Lookup(userID int64) *Inbox {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inboxes[userID]
}

// Unregister removes the user's entry only if it still points at the given
// inbox. A late disconnect of an evicted session must not erase the entry a
// newer session registered in the meantime.
func (r *Registry) Unregister(userID int64, inbox *Inbox) {
	r.mu.Lock()
	if r.inboxes[userID] == inbox {
		delete(r.inboxes, userID)
	}
	metrics.RegisteredSessions.Set(float64(len(r.inboxes)))
	r.mu.Unlock()
}
