// Package notify delivers owner notifications for the recurring generator.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
)

// Publisher is the subset of the AMQP client the notifier needs.
type Publisher interface {
	PublishRecurringSkipped(ctx context.Context, msg *amqp.RecurringSkippedMessage) error
}

// AMQPNotifier queues notifications for an out-of-process mailer.
type AMQPNotifier struct {
	publisher Publisher
}

func NewAMQPNotifier(p Publisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: p}
}

func (n *AMQPNotifier) NotifyRecurringSkipped(ctx context.Context, s core.SkippedRecurrence) error {
	if s.OwnerEmail == "" {
		return fmt.Errorf("owner %s has no contact address", s.OwnerID)
	}
	msg := &amqp.RecurringSkippedMessage{
		OwnerID:      s.OwnerID,
		OwnerName:    s.OwnerName,
		OwnerEmail:   s.OwnerEmail,
		TemplateID:   s.TemplateID,
		TemplateName: s.TemplateName,
		Amount:       core.FormatAmount(s.Amount),
		Date:         s.Date.String(),
		Timestamp:    time.Now(),
	}
	if err := n.publisher.PublishRecurringSkipped(ctx, msg); err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}
	return nil
}

// LogNotifier only logs. It is used when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyRecurringSkipped(ctx context.Context, s core.SkippedRecurrence) error {
	slog.WarnContext(ctx, "Recurring transaction skipped for insufficient balance",
		applog.FieldComponent, applog.ComponentNotify,
		applog.FieldOwnerID, s.OwnerID,
		"owner_email", s.OwnerEmail,
		applog.FieldTemplateID, s.TemplateID,
		"template_name", s.TemplateName,
		applog.FieldAmount, core.FormatAmount(s.Amount),
		applog.FieldDate, s.Date.String())
	return nil
}
