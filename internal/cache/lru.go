package cache

import (
	"container/list"
	"sync"
	"time"
)

// Seen remembers recently observed keys, bounded by size and age. The oldest
// key is evicted first when full.
type Seen struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
}

type entry struct {
	key       string
	expiresAt time.Time
}

func NewSeen(maxSize int, ttl time.Duration) *Seen {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Seen{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// Contains reports whether key was marked and has not expired.
func (s *Seen) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return false
	}
	if s.now().After(elem.Value.(*entry).expiresAt) {
		s.remove(elem)
		return false
	}
	s.lru.MoveToFront(elem)
	return true
}

// Mark records key, refreshing its age if already present.
func (s *Seen) Mark(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires := s.now().Add(s.ttl)
	if elem, ok := s.items[key]; ok {
		elem.Value.(*entry).expiresAt = expires
		s.lru.MoveToFront(elem)
		return
	}

	s.items[key] = s.lru.PushFront(&entry{key: key, expiresAt: expires})
	if s.lru.Len() > s.maxSize {
		s.remove(s.lru.Back())
	}
}

func (s *Seen) remove(elem *list.Element) {
	delete(s.items, elem.Value.(*entry).key)
	s.lru.Remove(elem)
}
