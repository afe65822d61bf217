// Package notifier fans out directory change events to SSE listeners.
package notifier

import "sync"

// All is delivered when pending changes were coalesced and any directory may
// have changed.
const All = ""

// Notifier broadcasts changed directories to all subscribed listeners.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan string]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel that receives changed directories.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan string {
	ch := make(chan string, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan string) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast sends dir to all listeners without blocking. A listener that has
// not consumed its previous event gets All instead.
func (n *Notifier) Broadcast(dir string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- dir:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- All:
		default:
		}
	}
}

// Affects reports whether a change event concerns dir.
func Affects(event, dir string) bool {
	return event == All || event == dir
}

// Len returns the number of listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
