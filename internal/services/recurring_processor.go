package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// ErrRunInProgress is returned when a generation pass is already running.
var ErrRunInProgress = errors.New("recurring generation already in progress")

// ChildCreator materializes one child of a recurring template.
type ChildCreator interface {
	CreateRecurringChild(ctx context.Context, parent core.Transaction, target core.Date) (core.Transaction, error)
}

// Notifier tells an owner that a recurring transaction was skipped.
// Delivery is best effort.
type Notifier interface {
	NotifyRecurringSkipped(ctx context.Context, s core.SkippedRecurrence) error
}

// RunReport summarizes one generation pass.
type RunReport struct {
	Templates    int // templates examined
	Created      int // children generated
	Existing     int // templates whose period already had a child
	Insufficient int // skipped because the account could not cover the amount
	Failed       int // skipped because of any other error
}

// RecurringProcessor generates the current period's child for every
// recurring template. Idempotency is keyed by (template, period): a child
// dated anywhere in the period means the template is done, so re-running a
// pass, or running one after a missed day, never duplicates.
type RecurringProcessor struct {
	storage  *storage.SQLiteRepository
	children ChildCreator
	notifier Notifier

	running sync.Mutex
}

// NewRecurringProcessor creates a processor. notifier may be nil.
func NewRecurringProcessor(storage *storage.SQLiteRepository, children ChildCreator, notifier Notifier) *RecurringProcessor {
	return &RecurringProcessor{
		storage:  storage,
		children: children,
		notifier: notifier,
	}
}

// ProcessDueTransactions runs one generation pass for the calendar day of
// now. A failing template is logged and skipped; the pass always visits
// every template. Only failing to load the templates aborts it.
func (p *RecurringProcessor) ProcessDueTransactions(ctx context.Context, now time.Time) (RunReport, error) {
	if p.storage == nil || p.children == nil {
		return RunReport{}, fmt.Errorf("processor not properly initialized")
	}
	if !p.running.TryLock() {
		return RunReport{}, ErrRunInProgress
	}
	defer p.running.Unlock()

	started := time.Now()
	today := core.DateOf(now)

	templates, err := p.storage.Queries().ListRecurringTemplates(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("failed to list recurring templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"templates", len(templates),
		applog.FieldDate, today.String())

	report := RunReport{Templates: len(templates)}
	for _, tmpl := range templates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		p.processTemplate(ctx, tmpl, today, &report)
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"created", report.Created,
		"existing", report.Existing,
		"insufficient", report.Insufficient,
		"failed", report.Failed,
		applog.FieldDuration, time.Since(started).Milliseconds())

	return report, nil
}

func (p *RecurringProcessor) processTemplate(ctx context.Context, tmpl core.Transaction, today core.Date, report *RunReport) {
	period := core.RecurrencePeriod(tmpl.Date, tmpl.Frequency, today)

	exists, err := p.storage.Queries().ExistsChildInRange(ctx, tmpl.ID, period.Start, period.End)
	if err != nil {
		report.Failed++
		slog.ErrorContext(ctx, "Failed to check existing child",
			applog.FieldTemplateID, tmpl.ID,
			applog.FieldError, err)
		return
	}
	if exists {
		report.Existing++
		return
	}

	child, err := p.children.CreateRecurringChild(ctx, tmpl, period.Target)
	switch {
	case errors.Is(err, core.ErrInsufficientBalance):
		report.Insufficient++
		slog.WarnContext(ctx, "Skipped recurring transaction, insufficient balance",
			applog.FieldTemplateID, tmpl.ID,
			applog.FieldAccountID, tmpl.AccountID,
			applog.FieldAmount, core.FormatAmount(tmpl.Amount),
			applog.FieldDate, period.Target.String())
		p.notify(ctx, tmpl, period.Target)
	case err != nil:
		report.Failed++
		slog.ErrorContext(ctx, "Failed to create recurring child",
			applog.FieldTemplateID, tmpl.ID,
			applog.FieldErrorKind, core.ErrorKind(err),
			applog.FieldError, err)
	default:
		report.Created++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			applog.FieldTemplateID, tmpl.ID,
			applog.FieldTransactionID, child.ID,
			applog.FieldAmount, core.FormatAmount(child.Amount),
			applog.FieldDate, child.Date.String(),
			"frequency", tmpl.Frequency.OrDefault())
	}
}

func (p *RecurringProcessor) notify(ctx context.Context, tmpl core.Transaction, date core.Date) {
	if p.notifier == nil {
		return
	}

	skipped := core.SkippedRecurrence{
		OwnerID:      tmpl.OwnerID,
		TemplateID:   tmpl.ID,
		TemplateName: tmpl.Name,
		Amount:       tmpl.Amount,
		Date:         date,
	}
	if owner, err := p.storage.Queries().GetUser(ctx, tmpl.OwnerID); err == nil {
		skipped.OwnerName = owner.Name
		skipped.OwnerEmail = owner.Email
	} else {
		slog.WarnContext(ctx, "Owner contact unavailable for notification",
			applog.FieldOwnerID, tmpl.OwnerID,
			applog.FieldError, err)
	}

	if err := p.notifier.NotifyRecurringSkipped(ctx, skipped); err != nil {
		slog.ErrorContext(ctx, "Failed to notify owner of skipped recurring transaction",
			applog.FieldOwnerID, tmpl.OwnerID,
			applog.FieldTemplateID, tmpl.ID,
			applog.FieldError, err)
	}
}
