package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	applog "ledger/internal/log"
	"ledger/internal/sheets"
)

// JournalWorker mirrors journal events consumed from AMQP to a JournalWriter.
// Redelivered events that were already appended are dropped when a Seen set
// is configured.
type JournalWorker struct {
	journal sheets.JournalWriter
	seen    *cache.Seen
}

// NewJournalWorker creates a worker. seen may be nil.
func NewJournalWorker(journal sheets.JournalWriter, seen *cache.Seen) *JournalWorker {
	return &JournalWorker{journal: journal, seen: seen}
}

func eventKey(ev *amqp.JournalEvent) string {
	return fmt.Sprintf("%s:%s:%d", ev.Op, ev.Transaction.ID, ev.Timestamp.UnixNano())
}

// HandleJournalMessage appends a single journal event. A returned error makes
// the consumer requeue the message.
func (w *JournalWorker) HandleJournalMessage(ctx context.Context, ev *amqp.JournalEvent) error {
	if ev == nil {
		return errors.New("nil journal event")
	}
	start := time.Now()

	key := eventKey(ev)
	if w.seen != nil && w.seen.Contains(key) {
		slog.InfoContext(ctx, "Skipping already mirrored journal event",
			applog.FieldOperation, ev.Op,
			applog.FieldTransactionID, ev.Transaction.ID)
		return nil
	}

	slog.InfoContext(ctx, "Processing journal event",
		applog.FieldOperation, ev.Op,
		applog.FieldTransactionID, ev.Transaction.ID,
		applog.FieldOwnerID, ev.Transaction.OwnerID)

	ref, err := w.journal.AppendJournal(ctx, ev)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to append journal event",
			applog.FieldOperation, ev.Op,
			applog.FieldTransactionID, ev.Transaction.ID,
			applog.FieldError, err)
		return fmt.Errorf("append journal event %s: %w", ev.Transaction.ID, err)
	}

	if w.seen != nil {
		w.seen.Mark(key)
	}

	slog.InfoContext(ctx, "Journal event mirrored",
		applog.FieldOperation, ev.Op,
		applog.FieldTransactionID, ev.Transaction.ID,
		applog.FieldSheetsRef, ref,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
