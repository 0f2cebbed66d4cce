// Package session keeps the client's current sign-in state and decides
// which page a visitor may see.
package session

import (
	"sort"
	"sync"

	"github.com/OdenEater/wedding-sns/internal/domain"
)

// Session is the signed-in user and the token sent to the backend.
type Session struct {
	User  domain.User
	Token string
}

// Store is the single place the client reads the session from.
// Subscribers are called on every change, nil meaning signed out.
type Store struct {
	mu      sync.RWMutex
	current *Session
	subs    map[int]func(*Session)
	nextSub int
}

func NewStore() *Store {
	return &Store{subs: make(map[int]func(*Session))}
}

func (s *Store) Get() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the current token, or "" when signed out.
func (s *Store) Token() string {
	if sess := s.Get(); sess != nil {
		return sess.Token
	}
	return ""
}

func (s *Store) Set(sess *Session) {
	s.mu.Lock()
	s.current = sess
	subs := s.snapshotLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(sess)
	}
}

func (s *Store) Clear() {
	s.Set(nil)
}

// Subscribe registers fn and returns the function that removes it.
func (s *Store) Subscribe(fn func(*Session)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		})
	}
}

// snapshotLocked returns subscribers in registration order.
func (s *Store) snapshotLocked() []func(*Session) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]func(*Session), len(ids))
	for i, id := range ids {
		out[i] = s.subs[id]
	}
	return out
}
