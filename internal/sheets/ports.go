package sheets

import (
	"context"

	"ledger/internal/amqp"
)

// JournalWriter mirrors committed transaction changes to an external journal.
type JournalWriter interface {
	AppendJournal(ctx context.Context, ev *amqp.JournalEvent) (rowRef string, err error)
}
