package demosite

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gotrs-io/saucedemo-e2e/internal/shop"
)

// visitor is the server side state behind one session cookie.
type visitor struct {
	mu      sync.Mutex
	account *shop.Account
	cart    shop.Cart
	info    shop.CheckoutInfo
	orders  int
	seen    time.Time
}

// sessions maps cookie ids to visitors.
type sessions struct {
	mu       sync.Mutex
	visitors map[string]*visitor
}

func newSessions() *sessions {
	return &sessions{visitors: make(map[string]*visitor)}
}

// get returns the visitor for id, creating one under a fresh id when id is
// unknown.
func (s *sessions) get(id string, now time.Time) (string, *visitor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.visitors[id]; ok {
		v.seen = now
		return id, v
	}
	id = uuid.New().String()
	v := &visitor{seen: now}
	s.visitors[id] = v
	return id, v
}

// expire drops visitors idle since before cutoff and returns how many.
func (s *sessions) expire(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, v := range s.visitors {
		if v.seen.Before(cutoff) {
			delete(s.visitors, id)
			n++
		}
	}
	return n
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}
