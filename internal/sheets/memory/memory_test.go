package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"ledger/internal/amqp"
)

func TestMemoryStoreAppend(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i, op := range []string{amqp.OpCreated, amqp.OpUpdated, amqp.OpDeleted} {
		ev := &amqp.JournalEvent{Op: op, Transaction: amqp.TransactionSnapshot{ID: "t1", Amount: "10.00"}}
		ref, err := s.AppendJournal(ctx, ev)
		if err != nil {
			t.Fatalf("append %s: %v", op, err)
		}
		if want := fmt.Sprintf("mem:%d", i+1); ref != want {
			t.Fatalf("ref = %q, want %q", ref, want)
		}
	}

	got := s.Entries()
	if len(got) != 3 {
		t.Fatalf("entries = %d, want 3", len(got))
	}
	if got[0].Op != amqp.OpCreated || got[2].Op != amqp.OpDeleted {
		t.Fatalf("unexpected order: %+v", got)
	}

	// Entries hands out a copy.
	got[0].Op = "mutated"
	if s.Entries()[0].Op != amqp.OpCreated {
		t.Fatal("Entries leaked internal slice")
	}
}

func TestMemoryStoreRejectsNil(t *testing.T) {
	if _, err := New().AppendJournal(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil event")
	}
}

func TestMemoryStoreConcurrentAppend(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev := &amqp.JournalEvent{Op: amqp.OpCreated, Transaction: amqp.TransactionSnapshot{ID: fmt.Sprint(i)}}
			if _, err := s.AppendJournal(context.Background(), ev); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	if n := len(s.Entries()); n != 50 {
		t.Fatalf("entries = %d, want 50", n)
	}
}
