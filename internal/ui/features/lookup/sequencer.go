package lookup

import (
	"sync"
	"time"
)

// DefaultIdleTimeout is how long a client is remembered without lookups.
const DefaultIdleTimeout = 30 * time.Minute

// Sequencer remembers the latest lookup token of every client so responses to
// superseded requests can be dropped.
type Sequencer struct {
	mu     sync.Mutex
	latest map[string]seqEntry
	idle   time.Duration
	now    func() time.Time
	pruned time.Time
}

type seqEntry struct {
	token int64
	seen  time.Time
}

// NewSequencer creates a Sequencer that forgets clients idle for longer than idle.
func NewSequencer(idle time.Duration) *Sequencer {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Sequencer{
		latest: make(map[string]seqEntry),
		idle:   idle,
		now:    time.Now,
	}
}

// Begin records token as the latest for client. It returns false when a newer
// token was already seen. Requests without a client id are never sequenced.
func (s *Sequencer) Begin(client string, token int64) bool {
	if client == "" {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.prune(now)

	if cur, ok := s.latest[client]; ok && token < cur.token {
		return false
	}
	s.latest[client] = seqEntry{token: token, seen: now}
	return true
}

// IsLatest reports whether token is still the newest token of client.
func (s *Sequencer) IsLatest(client string, token int64) bool {
	if client == "" {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.latest[client]
	return !ok || cur.token == token
}

// Len returns the number of tracked clients.
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.latest)
}

func (s *Sequencer) prune(now time.Time) {
	if now.Sub(s.pruned) < s.idle/2 {
		return
	}
	s.pruned = now
	for client, e := range s.latest {
		if now.Sub(e.seen) > s.idle {
			delete(s.latest, client)
		}
	}
}
