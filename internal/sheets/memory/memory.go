package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ledger/internal/amqp"
)

// Store keeps journal events in process memory. Used when no spreadsheet is
// configured and in tests.
type Store struct {
	mu    sync.Mutex
	items []amqp.JournalEvent
}

func New() *Store {
	return &Store{}
}

// AppendJournal stores the event and returns a synthetic row reference.
func (s *Store) AppendJournal(_ context.Context, ev *amqp.JournalEvent) (string, error) {
	if ev == nil {
		return "", errors.New("nil journal event")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, *ev)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Entries returns a copy of everything appended so far, oldest first.
func (s *Store) Entries() []amqp.JournalEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]amqp.JournalEvent(nil), s.items...)
}
